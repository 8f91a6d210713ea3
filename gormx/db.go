// Package gormx is the gorm persistence provider for the txmgr interceptor.
package gormx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/n-r-w/uow"
	"github.com/n-r-w/uow/sqldb"
	"github.com/n-r-w/uow/txmgr"
	"gorm.io/gorm"
)

// DB adapts *gorm.DB to txmgr.IResourceFactory.
type DB struct {
	db     *gorm.DB
	unit   string
	logger uow.ILogger
}

var _ txmgr.IResourceFactory = (*DB)(nil)

// Option option for DB.
type Option func(*DB)

// WithUnit sets the persistence unit. It must match the unit of the txmgr interceptor.
func WithUnit(unit string) Option {
	return func(d *DB) {
		d.unit = unit
	}
}

// WithLogger sets the logger.
func WithLogger(logger uow.ILogger) Option {
	return func(d *DB) {
		d.logger = logger
	}
}

// New creates a new DB.
func New(db *gorm.DB, opts ...Option) *DB {
	if db == nil {
		panic("invalid arguments")
	}

	d := &DB{db: db}
	for _, o := range opts {
		o(d)
	}

	return d
}

// OpenResource pins a connection of the pool for a unit of work.
func (d *DB) OpenResource(ctx context.Context) (txmgr.IResource, error) {
	sqlDB, err := d.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	s := d.db.WithContext(ctx)
	s.Statement.ConnPool = conn

	if d.logger != nil {
		d.logger.Debugf(ctx, "gorm connection acquired")
	}

	return &session{owner: d, db: s, conn: conn}, nil
}

// Conn returns the gorm handle for the current context: the active transaction,
// else the connection of the unit of work, else the pool.
// Repositories call it for every operation. Handles of another DB bound to the same unit are ignored.
func (d *DB) Conn(ctx context.Context) *gorm.DB {
	if cur, ok := txmgr.CurrentTransaction(ctx, d.unit); ok {
		if t, ok := cur.(*transaction); ok && t.session.owner == d {
			return t.tx.WithContext(ctx)
		}
	}

	if cur, ok := txmgr.CurrentResource(ctx, d.unit); ok {
		if s, ok := cur.(*session); ok && s.owner == d {
			return s.db.WithContext(ctx)
		}
	}

	return d.db.WithContext(ctx)
}

// session is a gorm handle pinned to one connection.
type session struct {
	owner *DB
	db    *gorm.DB
	conn  *sql.Conn
}

var _ txmgr.IResource = (*session)(nil)

func (s *session) Begin(ctx context.Context, opts uow.TxOptions) (txmgr.ITransaction, error) {
	txOpts, err := sqldb.TxOptions(opts)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin(txOpts)
	if tx.Error != nil {
		return nil, tx.Error
	}

	return &transaction{session: s, tx: tx}, nil
}

// Close returns the connection to the pool.
func (s *session) Close(context.Context) error {
	if err := s.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}

// transaction implements txmgr.ITransaction.
type transaction struct {
	session *session
	tx      *gorm.DB
}

func (t *transaction) Commit(context.Context) error {
	return t.tx.Commit().Error
}

func (t *transaction) Rollback(context.Context) error {
	if err := t.tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

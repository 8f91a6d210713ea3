// Package sqldb is the database/sql persistence provider for the txmgr interceptor.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/n-r-w/uow"
	"github.com/n-r-w/uow/txmgr"
)

// DB adapts *sql.DB to txmgr.IResourceFactory.
type DB struct {
	db     *sql.DB
	name   string
	unit   string
	logger uow.ILogger
}

var _ txmgr.IResourceFactory = (*DB)(nil)

// Option option for DB.
type Option func(*DB)

// WithName sets the database name used in logs and errors.
func WithName(name string) Option {
	return func(d *DB) {
		d.name = name
	}
}

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
func New(db *sql.DB, opts ...Option) *DB {
	if db == nil {
		panic("invalid arguments")
	}

	d := &DB{
		db:   db,
		name: "sqldb",
	}
	for _, o := range opts {
		o(d)
	}

	return d
}

// DB returns the underlying *sql.DB.
func (d *DB) DB() *sql.DB {
	return d.db
}

// OpenResource takes a dedicated connection for a unit of work.
func (d *DB) OpenResource(ctx context.Context) (txmgr.IResource, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection to %s: %w", d.name, err)
	}

	if d.logger != nil {
		d.logger.Debugf(ctx, "connection to %s acquired", d.name)
	}

	return &session{db: d, conn: conn}, nil
}

// Connection returns the querier for the current context: the active transaction,
// else the connection of the unit of work, else the pool.
// Transactions and connections opened by another DB of the same unit are ignored.
func (d *DB) Connection(ctx context.Context) IQuerier {
	if cur, ok := txmgr.CurrentTransaction(ctx, d.unit); ok {
		if t, ok := cur.(*transaction); ok && t.session.db == d {
			return t.tx
		}
	}

	if cur, ok := txmgr.CurrentResource(ctx, d.unit); ok {
		if s, ok := cur.(*session); ok && s.db == d {
			return s.conn
		}
	}

	return d.db
}

// session is a connection held by a unit of work.
type session struct {
	db   *DB
	conn *sql.Conn
}

var _ txmgr.IResource = (*session)(nil)

func (s *session) Begin(ctx context.Context, opts uow.TxOptions) (txmgr.ITransaction, error) {
	txOpts, err := TxOptions(opts)
	if err != nil {
		return nil, err
	}

	tx, err := s.conn.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, err
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
	tx      *sql.Tx
}

func (t *transaction) Commit(context.Context) error {
	return t.tx.Commit()
}

func (t *transaction) Rollback(context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// TxOptions converts transaction options to database/sql options.
func TxOptions(opts uow.TxOptions) (*sql.TxOptions, error) {
	var level sql.IsolationLevel
	switch opts.Level {
	case uow.TxLevelDefault:
		level = sql.LevelDefault
	case uow.TxReadUncommitted:
		level = sql.LevelReadUncommitted
	case uow.TxReadCommitted:
		level = sql.LevelReadCommitted
	case uow.TxRepeatableRead:
		level = sql.LevelRepeatableRead
	case uow.TxSerializable:
		level = sql.LevelSerializable
	default:
		return nil, fmt.Errorf("unknown transaction level %d", opts.Level)
	}

	switch opts.Mode {
	case uow.TxModeDefault, uow.TxReadWrite, uow.TxReadOnly:
	default:
		return nil, fmt.Errorf("unknown transaction mode %d", opts.Mode)
	}

	return &sql.TxOptions{
		Isolation: level,
		ReadOnly:  opts.Mode == uow.TxReadOnly,
	}, nil
}

// Package px is the pgx persistence provider for the txmgr interceptor.
//
// A resource is a connection acquired from the pool. Under the Request unit of
// work every transaction of the request runs on the same connection.
package px

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver
	"github.com/n-r-w/bootstrap"
	"github.com/n-r-w/uow"
	"github.com/n-r-w/uow/txmgr"
)

// PxDB service for working with PostgreSQL database. Implements IService interface.
type PxDB struct {
	name           string
	unit           string
	restartPolicy  []backoff.RetryOption
	connectRetry   []backoff.RetryOption
	dsn            string
	logQueries     bool
	afterStartFunc func(context.Context, *PxDB) error

	config *pgxpool.Config
	pool   *pgxpool.Pool

	logger uow.ILogger

	testHookAfterAcquire func()
}

var (
	_ bootstrap.IService     = (*PxDB)(nil)
	_ txmgr.IResourceFactory = (*PxDB)(nil)
	_ IStartStopConnector    = (*PxDB)(nil)
)

// New creates a new instance of PxDB.
func New(opt ...Option) *PxDB {
	p := &PxDB{}

	for _, o := range opt {
		o(p)
	}

	if p.name == "" {
		p.name = "pxdb"
	}

	return p
}

// Start starts the service. A pool set by WithPool is only checked.
func (p *PxDB) Start(ctx context.Context) (err error) {
	p.debugf(ctx, "starting pgdb for database %s", p.name)

	defer func() {
		if err == nil && p.afterStartFunc != nil {
			err = p.afterStartFunc(ctx, p)
			if err != nil {
				err = fmt.Errorf("failed to run after start function: %w", err)
			}
		}
	}()

	pool := p.pool
	created := pool == nil
	if created {
		if p.config != nil {
			pool, err = pgxpool.NewWithConfig(ctx, p.config)
		} else {
			pool, err = pgxpool.New(ctx, p.dsn)
		}
		if err != nil {
			return fmt.Errorf("failed to create pgx pool for database %s: %w", p.name, err)
		}
	}

	p.debugf(ctx, "checking connection to database %s", p.name)

	ping := func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	}
	if len(p.connectRetry) > 0 {
		_, err = backoff.Retry(ctx, ping, p.connectRetry...)
	} else {
		_, err = ping()
	}
	if err != nil {
		// a pool set by WithPool belongs to the caller
		if created {
			pool.Close()
		}
		return fmt.Errorf("failed to connect to database %s: %w", p.name, err)
	}

	p.pool = pool

	p.debugf(ctx, "connected to database %s", p.name)

	return nil
}

// Stop stops the service.
func (p *PxDB) Stop(_ context.Context) error {
	if p.pool != nil {
		p.pool.Close()
	}

	return nil
}

// Info returns service information.
func (p *PxDB) Info() bootstrap.Info {
	return bootstrap.Info{
		Name:          p.name,
		RestartPolicy: p.restartPolicy,
	}
}

// Unit returns the persistence unit the database serves.
func (p *PxDB) Unit() string {
	return p.unit
}

// Pool returns the connection pool. It is nil until the service is started.
func (p *PxDB) Pool() *pgxpool.Pool {
	return p.pool
}

// Connection returns the connection for the current context: the active transaction,
// else the connection of the unit of work, else the pool.
// Use only at repository level.
func (p *PxDB) Connection(ctx context.Context, opt ...ConnectionOption) IConnection {
	opts := &ConnectionOptionData{}
	for _, o := range opt {
		o(opts)
	}
	logQueries := opts.LogQueries || p.logQueries

	if cur, ok := txmgr.CurrentTransaction(ctx, p.unit); ok {
		if t, ok := cur.(*transaction); ok && t.session.db == p {
			return newWrapper(p, t.tx, t.tx, txmgr.TransactionOptions(ctx, p.unit), logQueries)
		}
	}

	if cur, ok := txmgr.CurrentResource(ctx, p.unit); ok {
		if s, ok := cur.(*session); ok && s.db == p {
			return newWrapper(p, s.con, nil, uow.TxOptions{}, logQueries)
		}
	}

	if p.pool == nil {
		return NewErrorWrapper(fmt.Errorf("database %s is not started", p.name))
	}

	return newWrapper(p, p.pool, nil, uow.TxOptions{}, logQueries)
}

func (p *PxDB) debugf(ctx context.Context, format string, args ...any) {
	if p.logger != nil {
		p.logger.Debugf(ctx, format, args...)
	}
}

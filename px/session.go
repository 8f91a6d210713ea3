package px

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/n-r-w/uow"
	"github.com/n-r-w/uow/txmgr"
)

// OpenResource acquires a connection for a unit of work.
func (p *PxDB) OpenResource(ctx context.Context) (txmgr.IResource, error) {
	if p.pool == nil {
		return nil, fmt.Errorf("database %s is not started", p.name)
	}

	con, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if p.testHookAfterAcquire != nil {
		p.testHookAfterAcquire()
	}

	return &session{db: p, con: con}, nil
}

// session is a pool connection held by a unit of work.
type session struct {
	db  *PxDB
	con *pgxpool.Conn
}

var _ txmgr.IResource = (*session)(nil)

func (s *session) Begin(ctx context.Context, opts uow.TxOptions) (txmgr.ITransaction, error) {
	level, err := getPgxLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	mode, err := getPgxMode(opts.Mode)
	if err != nil {
		return nil, err
	}

	//nolint:exhaustruct // external type, only set necessary fields
	tx, err := s.con.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   level,
		AccessMode: mode,
	})
	if err != nil {
		return nil, err
	}

	return &transaction{session: s, tx: tx}, nil
}

// Close returns the connection to the pool.
func (s *session) Close(context.Context) error {
	s.con.Release()
	return nil
}

// transaction implements txmgr.ITransaction.
type transaction struct {
	session *session
	tx      pgx.Tx
}

// Commit commits the transaction.
func (t *transaction) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction.
func (t *transaction) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// getPgxLevel returns pgx isolation level.
func getPgxLevel(level uow.TransactionLevel) (pgx.TxIsoLevel, error) {
	switch level {
	case uow.TxReadUncommitted:
		return pgx.ReadUncommitted, nil
	case uow.TxReadCommitted:
		return pgx.ReadCommitted, nil
	case uow.TxRepeatableRead:
		return pgx.RepeatableRead, nil
	case uow.TxSerializable:
		return pgx.Serializable, nil
	case uow.TxLevelDefault:
		return pgx.ReadCommitted, nil
	default:
		return "", fmt.Errorf("unknown transaction level %d", level)
	}
}

// getPgxMode returns pgx transaction mode.
func getPgxMode(mode uow.TransactionMode) (pgx.TxAccessMode, error) {
	switch mode {
	case uow.TxReadOnly:
		return pgx.ReadOnly, nil
	case uow.TxReadWrite:
		return pgx.ReadWrite, nil
	case uow.TxModeDefault:
		return pgx.ReadWrite, nil
	default:
		return "", fmt.Errorf("unknown transaction mode %d", mode)
	}
}

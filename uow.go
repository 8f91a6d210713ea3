// Package uow provides declarative transaction and unit-of-work management.
//
// Business code describes a call with Transactional metadata, and the txmgr
// interceptor wraps the call in a transaction on a persistence resource bound
// to the current unit of work. The unit of work is either a single
// transactional call (Transaction) or an external request (Request), see the
// reqscope package.
package uow

import (
	"fmt"
	"strings"
)

// UnitOfWork defines the scope over which one persistence resource is current.
// It is configured once at startup and passed to the components that need it.
type UnitOfWork int

const (
	// Transaction opens and closes a resource for every transactional call.
	Transaction UnitOfWork = 1
	// Request keeps one resource open for a whole request. The resource is owned by reqscope.Filter or txmgr.WorkManager.
	Request UnitOfWork = 2
)

// String returns the configuration name of the unit of work.
func (u UnitOfWork) String() string {
	switch u {
	case Transaction:
		return "transaction"
	case Request:
		return "request"
	default:
		return fmt.Sprintf("UnitOfWork(%d)", int(u))
	}
}

// Validate returns ErrConfiguration if u is not a known unit of work.
func (u UnitOfWork) Validate() error {
	switch u {
	case Transaction, Request:
		return nil
	default:
		return fmt.Errorf("%w: unknown unit of work %d", ErrConfiguration, int(u))
	}
}

// ParseUnitOfWork parses a unit of work name. The comparison is case-insensitive.
func ParseUnitOfWork(s string) (UnitOfWork, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transaction":
		return Transaction, nil
	case "request":
		return Request, nil
	default:
		return 0, fmt.Errorf("%w: unknown unit of work %q", ErrConfiguration, s)
	}
}

// TransactionLevel defines the database transaction isolation level.
type TransactionLevel int

// Transaction isolation levels from lowest to highest isolation.
const (
	TxLevelDefault    TransactionLevel = 0 // Provider default
	TxReadUncommitted TransactionLevel = 1 // Lowest isolation level
	TxReadCommitted   TransactionLevel = 2 // Prevents dirty reads
	TxRepeatableRead  TransactionLevel = 3 // Prevents non-repeatable reads
	TxSerializable    TransactionLevel = 4 // Highest isolation level
)

// TransactionMode defines the database transaction access mode.
type TransactionMode int

// Transaction operation modes.
const (
	TxModeDefault TransactionMode = 0 // TxReadWrite
	TxReadOnly    TransactionMode = 1
	TxReadWrite   TransactionMode = 2
)

// TxOptions are the options a provider receives when a transaction begins.
type TxOptions struct {
	// Level defines the transaction isolation level.
	Level TransactionLevel
	// Mode defines the transaction operation mode.
	Mode TransactionMode
	// Lock indicates if object locking is required.
	// This is an advisory option and the repository decides what to lock.
	// In most cases it means SELECT ... FOR UPDATE.
	Lock bool
}

package uow

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// ErrorMatcher reports whether an error is an instance of a declared error kind.
type ErrorMatcher interface {
	MatchError(err error) bool
}

// ErrorMatcherFunc adapts a function to ErrorMatcher.
type ErrorMatcherFunc func(err error) bool

// MatchError calls f(err).
func (f ErrorMatcherFunc) MatchError(err error) bool {
	return f(err)
}

// ErrorAs matches errors that have an error of type T in their chain.
// When T is an interface type every implementation matches, which gives subtype matching.
func ErrorAs[T error]() ErrorMatcher {
	return ErrorMatcherFunc(func(err error) bool {
		var target T
		return errors.As(err, &target)
	})
}

// ErrorIs matches errors for which errors.Is(err, target) holds.
func ErrorIs(target error) ErrorMatcher {
	return ErrorMatcherFunc(func(err error) bool {
		return errors.Is(err, target)
	})
}

// AnyError matches every non-nil error.
func AnyError() ErrorMatcher {
	return ErrorMatcherFunc(func(err error) bool {
		return err != nil
	})
}

// Decision is the terminal action for a transaction that ended with an error.
type Decision int

const (
	// Commit commits the transaction and the error is returned afterwards.
	Commit Decision = iota
	// Rollback rolls the transaction back and the error is returned afterwards.
	Rollback
)

func (d Decision) String() string {
	if d == Rollback {
		return "rollback"
	}
	return "commit"
}

// Transactional is the metadata attached to a transactional call.
//
// A literal value means exactly what it lists: with an empty RollbackOn an
// error never rolls the transaction back. Use NewTransactional to start from
// the default policy, which rolls back on any error.
type Transactional struct {
	// Unit names the persistence unit the call belongs to. Empty is the default unit.
	Unit string
	// RollbackOn lists the errors that roll the transaction back, in declaration order.
	RollbackOn []ErrorMatcher
	// ExceptOn lists exceptions to RollbackOn: a matching error commits anyway.
	ExceptOn []ErrorMatcher

	Level TransactionLevel
	Mode  TransactionMode
	Lock  bool
}

// Option transactional metadata option function.
type Option func(*Transactional)

// NewTransactional returns metadata that rolls back on any error, modified by opts.
func NewTransactional(opts ...Option) Transactional {
	t := Transactional{
		RollbackOn: []ErrorMatcher{AnyError()},
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// WithUnit sets the persistence unit.
func WithUnit(unit string) Option {
	return func(t *Transactional) {
		t.Unit = unit
	}
}

// WithRollbackOn replaces the rollback rules. Calling it without matchers disables rollback on errors.
func WithRollbackOn(matchers ...ErrorMatcher) Option {
	return func(t *Transactional) {
		t.RollbackOn = matchers
	}
}

// WithExceptOn replaces the exceptions to the rollback rules.
func WithExceptOn(matchers ...ErrorMatcher) Option {
	return func(t *Transactional) {
		t.ExceptOn = matchers
	}
}

// WithTransactionLevel sets the transaction isolation level.
func WithTransactionLevel(level TransactionLevel) Option {
	return func(t *Transactional) {
		t.Level = level
	}
}

// WithTransactionMode sets the transaction mode.
func WithTransactionMode(mode TransactionMode) Option {
	return func(t *Transactional) {
		t.Mode = mode
	}
}

// WithLock enables object locking.
func WithLock() Option {
	return func(t *Transactional) {
		t.Lock = true
	}
}

// TxOptions returns the options used to begin the transaction.
func (t Transactional) TxOptions() TxOptions {
	return TxOptions{
		Level: t.Level,
		Mode:  t.Mode,
		Lock:  t.Lock,
	}
}

// Decide evaluates the rollback policy for err.
//
// Only the first RollbackOn entry that matches is considered, and ExceptOn is
// scanned only after such a match. The first structural match wins; there is
// no ranking by specificity.
func (t Transactional) Decide(err error) Decision {
	if err == nil {
		return Commit
	}

	if _, ok := lo.Find(t.RollbackOn, matcherFor(err)); !ok {
		return Commit
	}

	if lo.ContainsBy(t.ExceptOn, matcherFor(err)) {
		return Commit
	}

	return Rollback
}

func (t Transactional) String() string {
	return fmt.Sprintf("unit=%q rollbackOn=%d exceptOn=%d level=%d mode=%d lock=%t",
		t.Unit, len(t.RollbackOn), len(t.ExceptOn), t.Level, t.Mode, t.Lock)
}

func matcherFor(err error) func(ErrorMatcher) bool {
	return func(m ErrorMatcher) bool {
		return m != nil && m.MatchError(err)
	}
}

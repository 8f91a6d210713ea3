package uow

import (
	"errors"
	"strings"
)

var (
	// ErrConfiguration is returned when a component is used with an unsuitable unit of work.
	ErrConfiguration = errors.New("unit of work configuration error")
	// ErrNoUnitOfWork is returned when a resource is required but none is bound to the context.
	ErrNoUnitOfWork = errors.New("no active unit of work")
	// ErrAlreadyBound is returned when a resource is bound while another one is still open.
	ErrAlreadyBound = errors.New("a resource is already bound to the unit of work")
	// ErrTransactionMismatch is returned when a nested call asks for other transaction options.
	ErrTransactionMismatch = errors.New("transaction options mismatch")
)

// SuppressedError carries an error together with secondary failures that happened
// while cleaning up after it. Err is the error the caller would have received
// without the cleanup failures.
type SuppressedError struct {
	Err        error
	Suppressed []error
}

// WithSuppressed attaches cleanup failures to err. Nil values are dropped and
// err is returned as is when nothing remains.
func WithSuppressed(err error, suppressed ...error) error {
	var errs []error
	for _, s := range suppressed {
		if s != nil {
			errs = append(errs, s)
		}
	}

	if len(errs) == 0 {
		return err
	}
	if err == nil {
		if len(errs) == 1 {
			return errs[0]
		}
		return errors.Join(errs...)
	}

	var se *SuppressedError
	if errors.As(err, &se) && se == err {
		return &SuppressedError{
			Err:        se.Err,
			Suppressed: append(append([]error(nil), se.Suppressed...), errs...),
		}
	}

	return &SuppressedError{
		Err:        err,
		Suppressed: errs,
	}
}

func (e *SuppressedError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	for _, s := range e.Suppressed {
		b.WriteString(" (suppressed: ")
		b.WriteString(s.Error())
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the original error followed by the suppressed ones.
func (e *SuppressedError) Unwrap() []error {
	return append([]error{e.Err}, e.Suppressed...)
}

// Original returns the error that was in flight before any cleanup failure.
func Original(err error) error {
	var se *SuppressedError
	if errors.As(err, &se) {
		return se.Err
	}
	return err
}

package txmgr

import "github.com/n-r-w/uow"

// settings shared by Interceptor and WorkManager.
type settings struct {
	unit    string
	logger  uow.ILogger
	matcher MethodMatcher
}

// Option interceptor and work manager option function.
type Option func(*settings)

// WithUnit sets the persistence unit handled by the component.
// The interceptor only handles calls whose Transactional.Unit equals it.
func WithUnit(unit string) Option {
	return func(s *settings) {
		s.unit = unit
	}
}

// WithLogger sets the logger.
func WithLogger(logger uow.ILogger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithMethodMatcher restricts interception to the matching methods. Other methods run without a transaction.
func WithMethodMatcher(m MethodMatcher) Option {
	return func(s *settings) {
		s.matcher = m
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		matcher: AnyMethod(),
	}
	for _, o := range opts {
		o(&s)
	}
	if s.matcher == nil {
		s.matcher = AnyMethod()
	}
	return s
}

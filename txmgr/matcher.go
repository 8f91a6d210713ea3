package txmgr

import (
	"strings"

	"github.com/samber/lo"
)

// MethodMatcher selects the methods an interceptor handles, by the name given in Invocation.Method.
type MethodMatcher func(method string) bool

// AnyMethod matches every method.
func AnyMethod() MethodMatcher {
	return func(string) bool { return true }
}

// Methods matches the listed method names.
func Methods(names ...string) MethodMatcher {
	return func(method string) bool {
		return lo.Contains(names, method)
	}
}

// MethodPrefix matches methods whose name starts with prefix, e.g. "AccountService.".
func MethodPrefix(prefix string) MethodMatcher {
	return func(method string) bool {
		return strings.HasPrefix(method, prefix)
	}
}

// Not inverts m.
func Not(m MethodMatcher) MethodMatcher {
	return func(method string) bool {
		return !m(method)
	}
}

package bindings

import (
	"errors"
	"fmt"
)

// Resolver maps an action name from a bindings file to a callback.
type Resolver interface {
	// Resolve returns the callback for a named action, or an error
	// wrapping ErrUnknownAction when the name is not recognized.
	Resolve(name string) (func(), error)
}

// Table is the simplest resolver: a fixed name-to-callback map.
type Table map[string]func()

// Resolve implements Resolver.
func (t Table) Resolve(name string) (func(), error) {
	fn, ok := t[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return fn, nil
}

// Multi tries resolvers in order, returning the first hit. Resolvers
// signal "not mine" with ErrUnknownAction; any other error aborts.
type Multi []Resolver

// Resolve implements Resolver.
func (m Multi) Resolve(name string) (func(), error) {
	for _, r := range m {
		fn, err := r.Resolve(name)
		if err == nil {
			return fn, nil
		}
		if !errors.Is(err, ErrUnknownAction) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

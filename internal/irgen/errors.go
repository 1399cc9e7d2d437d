package irgen

import (
	"errors"
	"fmt"
)

var (
	// ErrFinalized is returned by Finalize on a unit that already ran it.
	ErrFinalized = errors.New("irgen: unit already finalized")
	// ErrNotFinalized is returned by ReleaseModule before Finalize.
	ErrNotFinalized = errors.New("irgen: unit not finalized")
)

// ConfigErrorKind classifies why a unit could not be created.
type ConfigErrorKind uint8

const (
	ConfigNoFrontend ConfigErrorKind = iota + 1
	ConfigNoProvider
	ConfigInvalidTarget
	ConfigModule
)

// ConfigError is returned by New when the unit cannot be set up.
type ConfigError struct {
	Kind ConfigErrorKind
	Unit string
	Err  error
}

func (e *ConfigError) Error() string {
	var what string
	switch e.Kind {
	case ConfigNoFrontend:
		what = "no front end"
	case ConfigNoProvider:
		what = "no module provider"
	case ConfigInvalidTarget:
		what = "invalid target"
	case ConfigModule:
		what = "module creation failed"
	default:
		what = fmt.Sprintf("configuration error kind=%d", e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("irgen: unit %q: %s: %v", e.Unit, what, e.Err)
	}
	return fmt.Sprintf("irgen: unit %q: %s", e.Unit, what)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// InvariantError is the panic value for emission calls on a unit that no
// longer accepts them.
type InvariantError struct {
	Op    string
	State State
	Unit  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("irgen: %s on unit %q in state %s", e.Op, e.Unit, e.State)
}

// Package provider is the boundary to whatever owns the output module. The
// generation context never constructs modules itself: it asks a Provider for
// one and hands it back through ReleaseModule.
package provider

import (
	"errors"

	"github.com/llir/llvm/ir"

	"irgen/internal/layout"
)

var (
	// ErrModuleExists is returned by NewModule when a module is already live.
	ErrModuleExists = errors.New("provider: module already created")
	// ErrNoModule is returned when there is no live module to release.
	ErrNoModule = errors.New("provider: no module")
)

// Options are the code generation settings forwarded to the provider.
type Options struct {
	OptLevel      int
	DisableFPElim bool
	DebugInfo     bool
	Target        layout.Target
}

// Provider creates and owns the output module until it is released.
type Provider interface {
	NewModule(name string, opts Options) error
	Module() *ir.Module
	ReleaseModule() *ir.Module
}

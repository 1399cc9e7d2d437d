package provider

import (
	"fmt"

	"github.com/llir/llvm/ir"

	"irgen/internal/irmeta"
)

// FramePointerAll is the "frame-pointer" module flag value that keeps frame
// pointers in every function.
const FramePointerAll = 2

// LLIR is the in-process Provider backed by github.com/llir/llvm.
type LLIR struct {
	mod  *ir.Module
	opts Options
}

// NewLLIR returns an empty LLIR provider.
func NewLLIR() *LLIR {
	return &LLIR{}
}

// NewModule creates the module and stamps it with the target description.
func (p *LLIR) NewModule(name string, opts Options) error {
	if p.mod != nil {
		return ErrModuleExists
	}
	if err := opts.Target.Validate(); err != nil {
		return fmt.Errorf("provider: target %q: %w", opts.Target.Triple, err)
	}
	m := ir.NewModule()
	m.SourceFilename = name
	m.TargetTriple = opts.Target.Triple
	m.DataLayout = opts.Target.DataLayout
	if opts.DisableFPElim {
		irmeta.AddModuleFlag(m, irmeta.BehaviorMax, "frame-pointer", irmeta.Int32(FramePointerAll))
	}
	p.mod = m
	p.opts = opts
	return nil
}

// Module returns the live module, or nil once it has been released.
func (p *LLIR) Module() *ir.Module {
	return p.mod
}

// Options returns the options the live module was created with.
func (p *LLIR) Options() Options {
	return p.opts
}

// ReleaseModule transfers ownership of the module to the caller.
func (p *LLIR) ReleaseModule() *ir.Module {
	m := p.mod
	p.mod = nil
	return m
}

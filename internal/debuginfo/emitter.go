// Package debuginfo writes the module-level debug metadata that has to be
// present once a unit is finalized.
package debuginfo

import (
	"errors"

	"github.com/llir/llvm/ir"

	"irgen/internal/irmeta"
)

const (
	DwarfVersion     = 4
	DebugInfoVersion = 3

	IdentName = "llvm.ident"
)

// ErrFinalized is returned when Finalize is called twice.
var ErrFinalized = errors.New("debuginfo: already finalized")

// Emitter collects debug-info state for one module.
type Emitter struct {
	producer string
	file     string
	dir      string
	done     bool
}

// New creates an emitter for the compile unit rooted at file.
func New(producer, file, dir string) *Emitter {
	return &Emitter{producer: producer, file: file, dir: dir}
}

func (e *Emitter) Producer() string { return e.producer }
func (e *Emitter) File() string { return e.file }
func (e *Emitter) Dir() string { return e.dir }

// Finalized reports whether Finalize has run.
func (e *Emitter) Finalized() bool { return e.done }

// Finalize writes the debug module flags and the producer ident.
func (e *Emitter) Finalize(mod *ir.Module) error {
	if e.done {
		return ErrFinalized
	}
	e.done = true
	irmeta.AddModuleFlag(mod, irmeta.BehaviorWarning, "Dwarf Version", irmeta.Int32(DwarfVersion))
	irmeta.AddModuleFlag(mod, irmeta.BehaviorWarning, "Debug Info Version", irmeta.Int32(DebugInfoVersion))
	irmeta.AddNamed(mod, IdentName, irmeta.Tuple(mod, irmeta.Str(e.producer)))
	return nil
}

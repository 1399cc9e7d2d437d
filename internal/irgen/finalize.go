package irgen

import (
	"fmt"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"irgen/internal/provider"
	"irgen/internal/trace"
)

const (
	usedName         = "llvm.used"
	compilerUsedName = "llvm.compiler.used"
	metadataSection  = "llvm.metadata"
)

type finalizeStep struct {
	name string
	run  func(mod *ir.Module) (string, error)
}

// Finalize seals the unit: global lists, then autolink, then debug info.
// It runs at most once; later calls return ErrFinalized and do nothing.
func (u *Unit) Finalize() error {
	if u.state != StateOpen {
		return ErrFinalized
	}
	u.state = StateFinalizing
	defer func() { u.state = StateClosed }()

	mod := u.prov.Module()
	steps := []finalizeStep{
		{"finalize.global-lists", u.emitGlobalLists},
		{"finalize.autolink", u.emitAutolink},
		{"finalize.debug-info", u.emitDebugInfo},
	}
	for _, st := range steps {
		span := trace.Begin(u.tracer, trace.ScopePass, st.name, u.span.ID())
		detail, err := st.run(mod)
		span.End(detail)
		if err != nil {
			u.span.End("failed")
			return fmt.Errorf("%s: %w", st.name, err)
		}
	}
	u.span.End("finalized")
	return nil
}

func (u *Unit) emitGlobalLists(mod *ir.Module) (string, error) {
	emitGlobalList(mod, usedName, u.used)
	emitGlobalList(mod, compilerUsedName, u.compilerUsed)
	return "used=" + strconv.Itoa(len(u.used)) + " compiler.used=" + strconv.Itoa(len(u.compilerUsed)), nil
}

// emitGlobalList writes an appending [N x i8*] array in llvm.metadata.
// Empty lists are not written.
func emitGlobalList(mod *ir.Module, name string, globals []constant.Constant) {
	if len(globals) == 0 {
		return
	}
	elems := make([]constant.Constant, 0, len(globals))
	for _, g := range globals {
		if g.Type().Equal(types.I8Ptr) {
			elems = append(elems, g)
			continue
		}
		elems = append(elems, constant.NewBitCast(g, types.I8Ptr))
	}
	arr := types.NewArray(uint64(len(elems)), types.I8Ptr)
	g := mod.NewGlobalDef(name, constant.NewArray(arr, elems...))
	g.Linkage = enum.LinkageAppending
	g.Section = metadataSection
}

func (u *Unit) emitAutolink(mod *ir.Module) (string, error) {
	emitted := u.links.Emit(mod)
	return "entries=" + strconv.Itoa(len(emitted)), nil
}

func (u *Unit) emitDebugInfo(mod *ir.Module) (string, error) {
	if u.dbg == nil {
		return "disabled", nil
	}
	return "", u.dbg.Finalize(mod)
}

// ReleaseModule hands the sealed module to the caller. The unit must be
// finalized first.
func (u *Unit) ReleaseModule() (*ir.Module, error) {
	if u.state != StateClosed {
		return nil, ErrNotFinalized
	}
	mod := u.prov.ReleaseModule()
	if mod == nil {
		return nil, provider.ErrNoModule
	}
	return mod, nil
}

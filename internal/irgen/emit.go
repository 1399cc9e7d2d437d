package irgen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"irgen/internal/abi"
	"irgen/internal/autolink"
	"irgen/internal/rtfunc"
)

// Well-known runtime globals.
const (
	EmptyTupleMetadataSymbol = "_rt_EmptyTupleMetadata"
	ObjCEmptyCacheSymbol     = "_objc_empty_cache"
	ObjCEmptyVTableSymbol    = "_objc_empty_vtable"
)

// RuntimeFunction returns the declaration of runtime function id, declaring
// it on first use. Cached handles stay readable after Finalize.
func (u *Unit) RuntimeFunction(id rtfunc.ID) *ir.Func {
	if f, ok := u.rt.Lookup(id); ok {
		return f
	}
	u.mustBeOpen("RuntimeFunction")
	f := u.rt.Handle(id)
	u.point("runtime:"+f.Name(), id.String())
	return f
}

// AddLinkLibrary records a link requirement for the autolink flag.
func (u *Unit) AddLinkLibrary(lib *autolink.Library) {
	u.mustBeOpen("AddLinkLibrary")
	u.links.Record(lib)
	u.point("link:"+lib.Name, lib.Kind.String())
}

// Size returns n as a pointer-width integer constant.
func (u *Unit) Size(n int64) *constant.Int {
	return constant.NewInt(u.tbl.SizeType(), n)
}

// EmptyTupleMetadata returns the external full metadata record of the empty
// tuple type.
func (u *Unit) EmptyTupleMetadata() *ir.Global {
	if u.emptyTupleMetadata == nil {
		u.mustBeOpen("EmptyTupleMetadata")
		u.emptyTupleMetadata = u.getOrInsertGlobal(EmptyTupleMetadataSymbol, u.tbl.Type(abi.StructRef(abi.FullTypeMetadata)))
	}
	return u.emptyTupleMetadata
}

// ObjCEmptyCachePtr returns the ObjC runtime's empty method cache.
func (u *Unit) ObjCEmptyCachePtr() *ir.Global {
	if u.objcEmptyCache == nil {
		u.mustBeOpen("ObjCEmptyCachePtr")
		u.objcEmptyCache = u.getOrInsertGlobal(ObjCEmptyCacheSymbol, u.tbl.Type(abi.StructRef(abi.Opaque)))
	}
	return u.objcEmptyCache
}

// ObjCEmptyVTablePtr returns the ObjC runtime's empty vtable. Targets that
// cannot rely on the runtime's absolute null symbol get a null constant
// instead of a reference to it.
func (u *Unit) ObjCEmptyVTablePtr() constant.Constant {
	if u.objcEmptyVTable == nil {
		u.mustBeOpen("ObjCEmptyVTablePtr")
		if u.target.ObjCNullEmptyVTable {
			u.objcEmptyVTable = constant.NewNull(u.tbl.Layout(abi.Opaque).Ptr())
		} else {
			u.objcEmptyVTable = u.getOrInsertGlobal(ObjCEmptyVTableSymbol, u.tbl.Type(abi.StructRef(abi.Opaque)))
		}
	}
	return u.objcEmptyVTable
}

func (u *Unit) getOrInsertGlobal(name string, typ types.Type) *ir.Global {
	mod := u.prov.Module()
	for _, g := range mod.Globals {
		if g.Name() == name {
			return g
		}
	}
	g := mod.NewGlobal(name, typ)
	g.Linkage = enum.LinkageExternal
	return g
}

// AddUsedGlobal keeps g alive through the linker (llvm.used).
func (u *Unit) AddUsedGlobal(g constant.Constant) {
	u.mustBeOpen("AddUsedGlobal")
	u.used = append(u.used, g)
}

// AddCompilerUsedGlobal keeps g alive through the optimizer only
// (llvm.compiler.used).
func (u *Unit) AddCompilerUsedGlobal(g constant.Constant) {
	u.mustBeOpen("AddCompilerUsedGlobal")
	u.compilerUsed = append(u.compilerUsed, g)
}

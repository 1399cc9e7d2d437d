package rtfunc_test

import (
	"errors"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"irgen/internal/abi"
	"irgen/internal/layout"
	"irgen/internal/rtfunc"
)

func newRegistry(t *testing.T) (*ir.Module, *abi.Table, *rtfunc.Registry) {
	t.Helper()
	mod := ir.NewModule()
	tbl := abi.NewTable(layout.X86_64LinuxGNU())
	return mod, tbl, rtfunc.New(mod, tbl)
}

func countFuncs(mod *ir.Module, name string) int {
	n := 0
	for _, f := range mod.Funcs {
		if f.Name() == name {
			n++
		}
	}
	return n
}

func hasAttr(f *ir.Func, a enum.FuncAttr) bool {
	for _, existing := range f.FuncAttrs {
		if fa, ok := existing.(enum.FuncAttr); ok && fa == a {
			return true
		}
	}
	return false
}

func expectDescriptorPanic(t *testing.T, kind rtfunc.DescriptorErrorKind, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected descriptor panic kind %d, got none", kind)
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("expected error panic value, got %T", r)
		}
		var de *rtfunc.DescriptorError
		if !errors.As(err, &de) || de.Kind != kind {
			t.Fatalf("expected descriptor error kind %d, got %v", kind, err)
		}
	}()
	fn()
}

func TestHandle_Memoized(t *testing.T) {
	mod, _, reg := newRegistry(t)
	first := reg.Handle(rtfunc.Retain)
	second := reg.Handle(rtfunc.Retain)
	if first != second {
		t.Fatal("expected identical handle on second request")
	}
	if got := countFuncs(mod, "rt_retain"); got != 1 {
		t.Fatalf("expected one rt_retain declaration, got %d", got)
	}
	if len(reg.Declared()) != 1 || reg.Declared()[0] != rtfunc.Retain {
		t.Fatalf("unexpected declared list %v", reg.Declared())
	}
}

func TestHandle_AllDescriptorsMaterialize(t *testing.T) {
	mod, _, reg := newRegistry(t)
	descs := rtfunc.Descriptors()
	for _, d := range descs {
		f := reg.Handle(d.ID)
		if f.Name() != d.Symbol {
			t.Fatalf("%s: symbol = %q, want %q", d.ID, f.Name(), d.Symbol)
		}
		if f.CallingConv != enum.CallingConvC {
			t.Fatalf("%s: calling convention = %v", d.ID, f.CallingConv)
		}
		if len(f.Params) != len(d.Args) {
			t.Fatalf("%s: %d params, want %d", d.ID, len(f.Params), len(d.Args))
		}
	}
	if len(mod.Funcs) != len(descs) {
		t.Fatalf("expected %d declarations, got %d", len(descs), len(mod.Funcs))
	}
	for _, d := range descs {
		if got := countFuncs(mod, d.Symbol); got != 1 {
			t.Fatalf("%s declared %d times", d.Symbol, got)
		}
	}
}

func TestHandle_AggregateReturn(t *testing.T) {
	_, tbl, reg := newRegistry(t)
	f := reg.Handle(rtfunc.AllocBox)
	st, ok := f.Sig.RetType.(*types.StructType)
	if !ok {
		t.Fatalf("expected struct return, got %s", f.Sig.RetType)
	}
	if st.Name() != "" {
		t.Fatalf("aggregate return should be anonymous, got %q", st.Name())
	}
	if len(st.Fields) != 2 {
		t.Fatalf("expected 2 return fields, got %d", len(st.Fields))
	}
	if st.Fields[0] != tbl.Layout(abi.RefCounted).Ptr() || st.Fields[1] != tbl.Layout(abi.Opaque).Ptr() {
		t.Fatal("aggregate return fields do not match RefCounted*, Opaque*")
	}
}

func TestHandle_SingleReturnAndArgs(t *testing.T) {
	_, tbl, reg := newRegistry(t)
	f := reg.Handle(rtfunc.AllocObject)
	if f.Sig.RetType != tbl.Layout(abi.RefCounted).Ptr() {
		t.Fatalf("return = %s, want RefCounted*", f.Sig.RetType)
	}
	if f.Sig.Params[1] != tbl.SizeType() {
		t.Fatalf("size argument = %s, want %s", f.Sig.Params[1], tbl.SizeType())
	}
	if !hasAttr(f, enum.FuncAttrNoUnwind) {
		t.Fatal("expected nounwind")
	}
}

func TestHandle_Attributes(t *testing.T) {
	_, _, reg := newRegistry(t)
	if !hasAttr(reg.Handle(rtfunc.GetObjCClassMetadata), enum.FuncAttrReadNone) {
		t.Fatal("getObjCClassMetadata should be readnone")
	}
	if !hasAttr(reg.Handle(rtfunc.GetGenericMetadata), enum.FuncAttrReadNone) {
		t.Fatal("getGenericMetadata should be readnone")
	}
	if !hasAttr(reg.Handle(rtfunc.DynamicCastClass), enum.FuncAttrReadOnly) {
		t.Fatal("dynamicCastClass should be readonly")
	}
	if len(reg.Handle(rtfunc.ObjCMsgSend).FuncAttrs) != 0 {
		t.Fatal("objc_msgSend should carry no attributes")
	}
}

func TestHandle_ReusesExistingDeclaration(t *testing.T) {
	mod, tbl, reg := newRegistry(t)
	rc := tbl.Layout(abi.RefCounted).Ptr()
	existing := mod.NewFunc("rt_release", types.Void, ir.NewParam("obj", rc))
	if got := reg.Handle(rtfunc.Release); got != existing {
		t.Fatal("expected the pre-existing declaration to be reused")
	}
	if countFuncs(mod, "rt_release") != 1 {
		t.Fatal("rt_release declared twice")
	}
	if !hasAttr(existing, enum.FuncAttrNoUnwind) {
		t.Fatal("attributes not applied to reused declaration")
	}
}

func TestHandle_ExistingSignatureMismatch(t *testing.T) {
	mod, _, reg := newRegistry(t)
	mod.NewFunc("rt_release", types.I32)
	expectDescriptorPanic(t, rtfunc.DescSignatureMismatch, func() { reg.Handle(rtfunc.Release) })
}

func TestHandle_InvalidDescriptors(t *testing.T) {
	cases := []struct {
		name string
		desc rtfunc.Descriptor
		kind rtfunc.DescriptorErrorKind
	}{
		{"empty symbol", rtfunc.Descriptor{ID: 1, Returns: []abi.TypeRef{abi.Void}}, rtfunc.DescEmptySymbol},
		{"no returns", rtfunc.Descriptor{ID: 1, Symbol: "f"}, rtfunc.DescNoReturn},
		{"void arg", rtfunc.Descriptor{ID: 1, Symbol: "f", Returns: []abi.TypeRef{abi.Void}, Args: []abi.TypeRef{abi.Size, abi.Void}}, rtfunc.DescVoidArg},
		{"void aggregate", rtfunc.Descriptor{ID: 1, Symbol: "f", Returns: []abi.TypeRef{abi.Int8Ptr, abi.Void}}, rtfunc.DescVoidInAggregate},
		{"invalid ref", rtfunc.Descriptor{ID: 1, Symbol: "f", Returns: []abi.TypeRef{{}}}, rtfunc.DescInvalidType},
		{"conflicting attrs", rtfunc.Descriptor{ID: 1, Symbol: "f", Returns: []abi.TypeRef{abi.Void}, Attrs: []enum.FuncAttr{enum.FuncAttrReadNone, enum.FuncAttrReadOnly}}, rtfunc.DescConflictingAttrs},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mod := ir.NewModule()
			reg := rtfunc.NewWithDescriptors(mod, abi.NewTable(layout.X86_64LinuxGNU()), []rtfunc.Descriptor{tc.desc})
			expectDescriptorPanic(t, tc.kind, func() { reg.Handle(tc.desc.ID) })
			if len(mod.Funcs) != 0 {
				t.Fatal("invalid descriptor must not declare anything")
			}
		})
	}
}

func TestHandle_UnknownID(t *testing.T) {
	_, _, reg := newRegistry(t)
	expectDescriptorPanic(t, rtfunc.DescUnknownID, func() { reg.Handle(rtfunc.ID(999)) })
}

func TestParseID(t *testing.T) {
	cases := map[string]rtfunc.ID{
		"retain":                rtfunc.Retain,
		"rt_retain":             rtfunc.Retain,
		"retain_noresult":       rtfunc.RetainNoResult,
		"objc_msgSend":          rtfunc.ObjCMsgSend,
		"rt_getGenericMetadata": rtfunc.GetGenericMetadata,
	}
	for name, want := range cases {
		got, ok := rtfunc.ParseID(name)
		if !ok || got != want {
			t.Fatalf("ParseID(%q) = %v, %v; want %v", name, got, ok, want)
		}
	}
	if _, ok := rtfunc.ParseID("nope"); ok {
		t.Fatal("expected unknown name to fail")
	}
}

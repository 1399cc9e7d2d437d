package debuginfo_test

import (
	"errors"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"

	"irgen/internal/debuginfo"
	"irgen/internal/irmeta"
)

func TestFinalize_WritesFlags(t *testing.T) {
	mod := ir.NewModule()
	e := debuginfo.New("irgen 1.0", "core.unit", "/src")
	if err := e.Finalize(mod); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range []string{"Dwarf Version", "Debug Info Version"} {
		flag, ok := irmeta.ModuleFlag(mod, key)
		if !ok {
			t.Fatalf("missing %q module flag", key)
		}
		if b, _ := irmeta.FlagBehavior(flag); b != irmeta.BehaviorWarning {
			t.Fatalf("%q behavior = %d, want 2", key, b)
		}
	}
	ident := irmeta.Named(mod, debuginfo.IdentName)
	if len(ident.Nodes) != 1 {
		t.Fatalf("expected one ident, got %d", len(ident.Nodes))
	}
	tup, ok := ident.Nodes[0].(*metadata.Tuple)
	if !ok || irmeta.Strings(tup)[0] != "irgen 1.0" {
		t.Fatalf("unexpected ident node %#v", ident.Nodes[0])
	}
}

func TestFinalize_Twice(t *testing.T) {
	mod := ir.NewModule()
	e := debuginfo.New("p", "f", "")
	if err := e.Finalize(mod); err != nil {
		t.Fatal(err)
	}
	if err := e.Finalize(mod); !errors.Is(err, debuginfo.ErrFinalized) {
		t.Fatalf("expected ErrFinalized, got %v", err)
	}
	if n := len(irmeta.Named(mod, irmeta.ModuleFlagsName).Nodes); n != 2 {
		t.Fatalf("expected 2 module flags after repeated finalize, got %d", n)
	}
}

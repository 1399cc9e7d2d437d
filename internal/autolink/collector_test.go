package autolink_test

import (
	"reflect"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"

	"irgen/internal/autolink"
	"irgen/internal/irmeta"
)

func flagsOf(entries []autolink.Entry) [][]string {
	out := make([][]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Flags())
	}
	return out
}

func linkerOptions(t *testing.T, mod *ir.Module) [][]string {
	t.Helper()
	flag, ok := irmeta.ModuleFlag(mod, autolink.LinkerOptionsKey)
	if !ok {
		t.Fatal("expected Linker Options module flag")
	}
	if b, _ := irmeta.FlagBehavior(flag); b != irmeta.BehaviorAppendUnique {
		t.Fatalf("behavior = %d, want AppendUnique", b)
	}
	outer, ok := flag.Fields[2].(*metadata.Tuple)
	if !ok {
		t.Fatalf("expected tuple value, got %T", flag.Fields[2])
	}
	var out [][]string
	for _, f := range outer.Fields {
		inner, ok := f.(*metadata.Tuple)
		if !ok {
			t.Fatalf("expected nested tuple, got %T", f)
		}
		out = append(out, irmeta.Strings(inner))
	}
	return out
}

func TestEntryFlags(t *testing.T) {
	c := autolink.NewCollector(autolink.DedupByContent)
	c.Record(autolink.NewLibrary(autolink.DynamicLibrary, "m"))
	c.Record(autolink.NewLibrary(autolink.Framework, "Foundation"))
	got := flagsOf(c.Entries())
	want := [][]string{{"-lm"}, {"-framework", "Foundation"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("flags = %v, want %v", got, want)
	}
}

func TestEmit_SameRequestCollapses(t *testing.T) {
	for _, policy := range []autolink.DedupPolicy{autolink.DedupByContent, autolink.DedupByIdentity} {
		t.Run(policy.String(), func(t *testing.T) {
			lib := autolink.NewLibrary(autolink.DynamicLibrary, "z")
			c := autolink.NewCollector(policy)
			c.Record(lib)
			c.Record(lib)
			if len(c.Entries()) != 2 {
				t.Fatalf("pending entries = %d, want 2", len(c.Entries()))
			}
			mod := ir.NewModule()
			c.Emit(mod)
			if got := linkerOptions(t, mod); !reflect.DeepEqual(got, [][]string{{"-lz"}}) {
				t.Fatalf("linker options = %v", got)
			}
		})
	}
}

func TestEmit_ContentEqualDistinctRequests(t *testing.T) {
	a := autolink.NewLibrary(autolink.Framework, "Foundation")
	b := autolink.NewLibrary(autolink.Framework, "Foundation")

	byIdentity := autolink.NewCollector(autolink.DedupByIdentity)
	byIdentity.Record(a)
	byIdentity.Record(b)
	if got := byIdentity.Emit(ir.NewModule()); len(got) != 2 {
		t.Fatalf("identity dedup kept %d entries, want 2", len(got))
	}

	byContent := autolink.NewCollector(autolink.DedupByContent)
	byContent.Record(a)
	byContent.Record(b)
	if got := byContent.Emit(ir.NewModule()); len(got) != 1 {
		t.Fatalf("content dedup kept %d entries, want 1", len(got))
	}
}

func TestEmit_SortsAndCollapses(t *testing.T) {
	c := autolink.NewCollector(autolink.DedupByContent)
	for _, lib := range []*autolink.Library{
		autolink.NewLibrary(autolink.DynamicLibrary, "z"),
		autolink.NewLibrary(autolink.Framework, "UIKit"),
		autolink.NewLibrary(autolink.DynamicLibrary, "m"),
		autolink.NewLibrary(autolink.DynamicLibrary, "z"),
		autolink.NewLibrary(autolink.Framework, "Foundation"),
	} {
		c.Record(lib)
	}
	mod := ir.NewModule()
	c.Emit(mod)
	want := [][]string{
		{"-framework", "Foundation"},
		{"-framework", "UIKit"},
		{"-lm"},
		{"-lz"},
	}
	if got := linkerOptions(t, mod); !reflect.DeepEqual(got, want) {
		t.Fatalf("linker options = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(flagsOf(c.Emitted()), want) {
		t.Fatalf("emitted = %v", flagsOf(c.Emitted()))
	}
}

func TestEmit_IdentityKeepsFirstSightingOrder(t *testing.T) {
	z := autolink.NewLibrary(autolink.DynamicLibrary, "z")
	m := autolink.NewLibrary(autolink.DynamicLibrary, "m")
	c := autolink.NewCollector(autolink.DedupByIdentity)
	c.Record(z)
	c.Record(m)
	c.Record(z)
	got := flagsOf(c.Emit(ir.NewModule()))
	if !reflect.DeepEqual(got, [][]string{{"-lz"}, {"-lm"}}) {
		t.Fatalf("emitted = %v", got)
	}
}

func TestEmit_EmptyWritesEmptyFlag(t *testing.T) {
	mod := ir.NewModule()
	c := autolink.NewCollector(autolink.DedupByContent)
	if got := c.Emit(mod); len(got) != 0 {
		t.Fatalf("emitted = %v", got)
	}
	flag, ok := irmeta.ModuleFlag(mod, autolink.LinkerOptionsKey)
	if !ok {
		t.Fatal("expected Linker Options flag for an empty collector")
	}
	if opts, ok := flag.Fields[2].(*metadata.Tuple); !ok || len(opts.Fields) != 0 {
		t.Fatalf("expected empty options tuple, got %#v", flag.Fields[2])
	}
	if !c.Done() {
		t.Fatal("collector should be done after Emit")
	}
}

func TestEmit_Idempotent(t *testing.T) {
	mod := ir.NewModule()
	c := autolink.NewCollector(autolink.DedupByContent)
	c.Record(autolink.NewLibrary(autolink.DynamicLibrary, "c"))
	c.Emit(mod)
	c.Emit(mod)
	if n := len(irmeta.Named(mod, irmeta.ModuleFlagsName).Nodes); n != 1 {
		t.Fatalf("expected one module flag, got %d", n)
	}
}

func TestRecordAfterEmitPanics(t *testing.T) {
	c := autolink.NewCollector(autolink.DedupByContent)
	c.Emit(ir.NewModule())
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on Record after Emit")
		}
	}()
	c.Record(autolink.NewLibrary(autolink.DynamicLibrary, "m"))
}

func TestParse(t *testing.T) {
	if k, ok := autolink.ParseKind("framework"); !ok || k != autolink.Framework {
		t.Fatalf("ParseKind(framework) = %v, %v", k, ok)
	}
	if _, ok := autolink.ParseKind("static"); ok {
		t.Fatal("unexpected kind accepted")
	}
	if p, ok := autolink.ParseDedupPolicy("identity"); !ok || p != autolink.DedupByIdentity {
		t.Fatalf("ParseDedupPolicy(identity) = %v, %v", p, ok)
	}
}

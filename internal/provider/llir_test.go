package provider_test

import (
	"errors"
	"testing"

	"irgen/internal/irmeta"
	"irgen/internal/layout"
	"irgen/internal/provider"
)

func TestLLIR_NewModule(t *testing.T) {
	p := provider.NewLLIR()
	target := layout.X86_64LinuxGNU()
	if err := p.NewModule("core", provider.Options{Target: target}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := p.Module()
	if m == nil {
		t.Fatal("expected a live module")
	}
	if m.SourceFilename != "core" || m.TargetTriple != target.Triple || m.DataLayout != target.DataLayout {
		t.Fatalf("module header = %q %q %q", m.SourceFilename, m.TargetTriple, m.DataLayout)
	}
	if _, ok := irmeta.ModuleFlag(m, "frame-pointer"); ok {
		t.Fatal("frame-pointer flag should only be set when frame pointer elimination is disabled")
	}
	if err := p.NewModule("again", provider.Options{Target: target}); !errors.Is(err, provider.ErrModuleExists) {
		t.Fatalf("expected ErrModuleExists, got %v", err)
	}
}

func TestLLIR_DisableFPElim(t *testing.T) {
	p := provider.NewLLIR()
	if err := p.NewModule("core", provider.Options{Target: layout.I386LinuxGNU(), DisableFPElim: true}); err != nil {
		t.Fatal(err)
	}
	if _, ok := irmeta.ModuleFlag(p.Module(), "frame-pointer"); !ok {
		t.Fatal("expected frame-pointer module flag")
	}
}

func TestLLIR_Release(t *testing.T) {
	p := provider.NewLLIR()
	if err := p.NewModule("core", provider.Options{Target: layout.Wasm32()}); err != nil {
		t.Fatal(err)
	}
	live := p.Module()
	if got := p.ReleaseModule(); got != live {
		t.Fatal("released module differs from live module")
	}
	if p.Module() != nil {
		t.Fatal("module should be nil after release")
	}
	if p.ReleaseModule() != nil {
		t.Fatal("second release should return nil")
	}
	if err := p.NewModule("next", provider.Options{Target: layout.Wasm32()}); err != nil {
		t.Fatalf("provider should accept a new module after release: %v", err)
	}
}

func TestLLIR_InvalidTarget(t *testing.T) {
	p := provider.NewLLIR()
	if err := p.NewModule("core", provider.Options{}); err == nil {
		t.Fatal("expected error for zero target")
	}
	if p.Module() != nil {
		t.Fatal("no module expected after failure")
	}
}

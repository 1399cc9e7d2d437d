package buildpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/llir/llvm/asm"

	"irgen/internal/diag"
	"irgen/internal/project"
	"irgen/internal/source"
	"irgen/internal/trace"
	"irgen/internal/unitcache"
)

const twoUnits = `
[project]
name = "demo"

[options]
debug-info = true

[[unit]]
name = "core"
runtime = ["allocObject", "retain", "release"]
used = ["rt_retain", "core_anchor"]
link = [{ kind = "library", name = "m" }, { kind = "library", name = "m" }]

[[unit]]
name = "bridge"
runtime = ["objc_retain"]
link = [{ kind = "framework", name = "Foundation" }]
`

func loadManifest(t *testing.T, body string) *project.Manifest {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, project.ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	bag := diag.NewBag(16)
	m, err := project.Load(source.NewFileSet(), path, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("Load: %v (%d diagnostics)", err, bag.Len())
	}
	return m
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) statuses(unit string) []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Status
	for _, ev := range r.events {
		if ev.Unit == unit {
			out = append(out, ev.Status)
		}
	}
	return out
}

func TestBuildWritesUnits(t *testing.T) {
	m := loadManifest(t, twoUnits)
	rec := &recorder{}
	res, err := Build(context.Background(), &Request{Manifest: m, Jobs: 2, Salt: "test", Progress: rec})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Units) != 2 || res.Failed != 0 || res.Cached != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	core := res.Units[0]
	if core.Name != "core" {
		t.Fatalf("results out of manifest order: %q", core.Name)
	}
	data, err := os.ReadFile(core.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	for _, want := range []string{"@rt_allocObject", "@rt_retain", "@core_anchor", "llvm.used", "Linker Options", "Dwarf Version"} {
		if !strings.Contains(text, want) {
			t.Errorf("core.ll lacks %q", want)
		}
	}
	for _, u := range res.Units {
		if _, err := asm.ParseFile(u.Output); err != nil {
			t.Errorf("%s does not parse: %v", filepath.Base(u.Output), err)
		}
	}
	if len(core.Summary.LinkOptions) != 1 {
		t.Fatalf("duplicate link requests not collapsed: %v", core.Summary.LinkOptions)
	}
	if core.Summary.Used != 2 || !core.Summary.DebugInfo {
		t.Fatalf("summary = %+v", core.Summary)
	}

	statuses := rec.statuses("bridge")
	if len(statuses) == 0 || statuses[0] != StatusQueued || statuses[len(statuses)-1] != StatusDone {
		t.Fatalf("bridge events = %v", statuses)
	}
	if !res.Timings.Has(StageEmit) || !res.Timings.Has(StageWrite) {
		t.Fatal("stage timings not aggregated")
	}

	cache, err := unitcache.Open(res.OutDir)
	if err != nil {
		t.Fatal(err)
	}
	rec2, ok, err := cache.Get("bridge")
	if err != nil || !ok {
		t.Fatalf("summary missing: %v", err)
	}
	if rec2.Output != "bridge.ll" || len(rec2.Runtime) != 1 || rec2.Runtime[0] != "objc_retain" {
		t.Fatalf("summary = %+v", rec2)
	}
}

func TestBuildSkipsFreshUnits(t *testing.T) {
	m := loadManifest(t, twoUnits)
	req := &Request{Manifest: m, Salt: "v1"}
	if _, err := Build(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	res, err := Build(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached != 2 {
		t.Fatalf("cached = %d, want 2", res.Cached)
	}
	if res.Units[0].Summary.Name != "core" || res.Units[0].Output == "" {
		t.Fatalf("cached result lacks summary: %+v", res.Units[0])
	}

	req.Force = true
	res, err = Build(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached != 0 {
		t.Fatalf("forced build reused %d units", res.Cached)
	}

	req.Force = false
	req.Salt = "v2"
	res, err = Build(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached != 0 {
		t.Fatal("salt change should invalidate summaries")
	}
}

func TestBuildFailedUnitWritesNothing(t *testing.T) {
	m := loadManifest(t, `
[project]
name = "demo"

[[unit]]
name = "good"
runtime = ["retain"]

[[unit]]
name = "bad"
used = [""]
`)
	res, err := Build(context.Background(), &Request{Manifest: m})
	if !errors.Is(err, ErrUnitsFailed) {
		t.Fatalf("err = %v, want ErrUnitsFailed", err)
	}
	if res.Failed != 1 {
		t.Fatalf("failed = %d", res.Failed)
	}
	bad := res.Units[1]
	if !bad.Failed() || bad.Output != "" {
		t.Fatalf("bad unit = %+v", bad)
	}
	if bad.Bag.Count(diag.IRGenFailure) != 1 {
		t.Fatalf("expected one generation failure, got %d", bad.Bag.Count(diag.IRGenFailure))
	}
	if _, err := os.Stat(filepath.Join(res.OutDir, "bad.ll")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("bad.ll written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(res.OutDir, "good.ll")); err != nil {
		t.Fatalf("good.ll missing: %v", err)
	}
}

func TestBuildRejectsMissingRequest(t *testing.T) {
	if _, err := Build(context.Background(), nil); err == nil {
		t.Fatal("expected an error for a nil request")
	}
}

func TestBuildTracesUnitDiagnostics(t *testing.T) {
	m := loadManifest(t, `
[project]
name = "demo"

[[unit]]
name = "bad"
used = ["", ""]
`)
	ring := trace.NewRingTracer(256, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	res, err := Build(ctx, &Request{Manifest: m})
	if !errors.Is(err, ErrUnitsFailed) {
		t.Fatalf("err = %v, want ErrUnitsFailed", err)
	}
	want := "diag:" + diag.IRGenFailure.ID()
	if got := ring.Names(trace.KindPoint, "diag:"); len(got) != 1 || got[0] != want {
		t.Fatalf("traced diagnostics = %v, want [%s]", got, want)
	}
	if n := res.Units[0].Bag.Count(diag.IRGenFailure); n != 1 {
		t.Fatalf("expected one generation failure in the bag, got %d", n)
	}
}

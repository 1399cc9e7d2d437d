// Package buildpipeline builds every unit of a project manifest: it drives
// one generation context per unit, in parallel, and writes the resulting IR
// and summaries to the output directory.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"golang.org/x/sync/errgroup"

	"irgen/internal/diag"
	"irgen/internal/irgen"
	"irgen/internal/project"
	"irgen/internal/provider"
	"irgen/internal/trace"
	"irgen/internal/unitcache"
)

// ErrUnitsFailed is returned when at least one unit reported errors.
var ErrUnitsFailed = errors.New("one or more units failed")

// Request configures a build.
type Request struct {
	Manifest *project.Manifest
	// OutDir overrides the manifest output directory.
	OutDir         string
	Jobs           int
	MaxDiagnostics int
	// Force rebuilds units whose summaries are still fresh.
	Force bool
	// Salt is mixed into cache keys, typically the tool version.
	Salt     string
	Producer string
	Progress ProgressSink
	// NewProvider creates the module owner for each unit. Defaults to the
	// llir provider.
	NewProvider func() provider.Provider
}

// UnitResult is the outcome of one unit.
type UnitResult struct {
	Name    string
	Output  string // .ll path, empty when the unit failed
	Summary irgen.Summary
	Bag     *diag.Bag
	Cached  bool
	Err     error
	Timings Timings
}

// Failed reports whether the unit produced no output.
func (r *UnitResult) Failed() bool {
	return r.Err != nil || (r.Bag != nil && r.Bag.HasErrors())
}

// Result aggregates a build.
type Result struct {
	OutDir  string
	Units   []UnitResult // manifest order
	Timings Timings
	Failed  int
	Cached  int
}

// Build runs every unit of req.Manifest. Units run concurrently, bounded by
// req.Jobs; a unit whose diagnostics contain errors is reported as failed
// and its module is not written. The returned error is ErrUnitsFailed when
// any unit failed, or the first I/O or cancellation error.
func Build(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil || req.Manifest == nil {
		return result, fmt.Errorf("missing build request")
	}
	m := req.Manifest

	outDir := req.OutDir
	if outDir == "" {
		outDir = m.OutputDir()
	}
	result.OutDir = outDir
	cache, err := unitcache.Open(outDir)
	if err != nil {
		return result, err
	}

	newProvider := req.NewProvider
	if newProvider == nil {
		newProvider = func() provider.Provider { return provider.NewLLIR() }
	}
	opts := irgen.Options{
		OptLevel:      m.Options.OptLevel,
		DisableFPElim: m.Options.DisableFPElim,
		DebugInfo:     m.Options.DebugInfo,
		Dedup:         m.Options.Dedup,
		Producer:      req.Producer,
		SourceDir:     m.Root,
	}
	salt := fmt.Sprintf("%s|%s|%+v", req.Salt, m.Target.DataLayout, m.Options)

	ctx, span := trace.Start(ctx, trace.ScopeDriver, "build:"+m.Name)
	span.WithExtra("units", strconv.Itoa(len(m.Units)))

	for _, u := range m.Units {
		emit(req.Progress, u.Name, StageEmit, StatusQueued, nil)
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]UnitResult, len(m.Units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(m.Units))))
	for i, u := range m.Units {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			b := &unitBuild{
				req:   req,
				m:     m,
				unit:  u,
				opts:  opts,
				key:   m.UnitKey(u, salt),
				cache: cache,
				prov:  newProvider(),
			}
			results[i] = b.run(gctx)
			return results[i].ioErr()
		})
	}
	waitErr := g.Wait()

	for i := range results {
		r := &results[i]
		if r.Name == "" {
			// never started: cancelled before its turn
			r.Name = m.Units[i].Name
			r.Err = context.Canceled
		}
		for _, st := range []Stage{StageEmit, StageFinalize, StageWrite} {
			if r.Timings.Has(st) {
				result.Timings.Add(st, r.Timings.Duration(st))
			}
		}
		switch {
		case r.Failed():
			result.Failed++
		case r.Cached:
			result.Cached++
		}
	}
	result.Units = results

	span.End(fmt.Sprintf("failed=%d cached=%d", result.Failed, result.Cached))
	if waitErr != nil {
		return result, waitErr
	}
	if result.Failed > 0 {
		return result, ErrUnitsFailed
	}
	return result, nil
}

// ioError marks failures that abort the whole build.
type ioError struct{ err error }

func (e *ioError) Error() string { return e.err.Error() }
func (e *ioError) Unwrap() error { return e.err }

func (r *UnitResult) ioErr() error {
	var ioe *ioError
	if errors.As(r.Err, &ioe) {
		return r.Err
	}
	return nil
}

type unitBuild struct {
	req   *Request
	m     *project.Manifest
	unit  project.Unit
	opts  irgen.Options
	key   project.Digest
	cache *unitcache.Cache
	prov  provider.Provider
}

func (b *unitBuild) run(ctx context.Context) UnitResult {
	name := b.unit.Name
	res := UnitResult{Name: name}

	if !b.req.Force {
		if rec, ok := b.cache.Fresh(name, b.key); ok {
			res.Cached = true
			res.Summary = rec.Summary()
			res.Output = filepath.Join(b.cache.Dir(), rec.Output)
			res.Bag = diag.NewBag(b.req.MaxDiagnostics)
			trace.Point(trace.FromContext(ctx), trace.ScopeUnit, "cached:"+name, "", trace.CurrentSpan(ctx))
			emit(b.req.Progress, name, StageWrite, StatusCached, nil)
			return res
		}
	}

	res.Bag = diag.NewBag(b.req.MaxDiagnostics)
	fail := func(stage Stage, err error) UnitResult {
		res.Err = err
		emit(b.req.Progress, name, stage, StatusError, err)
		return res
	}

	start := time.Now()
	emit(b.req.Progress, name, StageEmit, StatusWorking, nil)
	sink := diag.MultiReporter{
		diag.BagReporter{Bag: res.Bag},
		traceReporter{tracer: trace.FromContext(ctx), unit: name, parent: trace.CurrentSpan(ctx)},
	}
	fe := irgen.NewFrontend(diag.NewDedupReporter(sink))
	u, err := irgen.New(ctx, fe, b.prov, name, b.m.Target, b.opts)
	if err != nil {
		return fail(StageEmit, err)
	}
	b.drive(u)
	res.Timings.Add(StageEmit, time.Since(start))

	start = time.Now()
	emit(b.req.Progress, name, StageFinalize, StatusWorking, nil)
	if err := u.Finalize(); err != nil {
		return fail(StageFinalize, err)
	}
	mod, err := u.ReleaseModule()
	if err != nil {
		return fail(StageFinalize, err)
	}
	res.Summary = u.Summary()
	res.Timings.Add(StageFinalize, time.Since(start))

	if res.Bag.HasErrors() {
		if err := b.cache.Drop(name); err != nil {
			return fail(StageWrite, &ioError{err})
		}
		if err := os.Remove(filepath.Join(b.cache.Dir(), name+".ll")); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fail(StageWrite, &ioError{err})
		}
		return fail(StageFinalize, fmt.Errorf("unit %s: %d diagnostics", name, res.Bag.Len()))
	}

	start = time.Now()
	emit(b.req.Progress, name, StageWrite, StatusWorking, nil)
	out, err := b.write(mod, res)
	if err != nil {
		res.Bag.Add(diag.NewError(diag.IOWriteFileError, b.unit.Span, err.Error()))
		return fail(StageWrite, &ioError{err})
	}
	res.Output = out
	res.Timings.Add(StageWrite, time.Since(start))
	emit(b.req.Progress, name, StageWrite, StatusDone, nil)
	return res
}

// drive stands in for a front end: it requests exactly what the manifest
// lists for the unit.
func (b *unitBuild) drive(u *irgen.Unit) {
	for _, id := range b.unit.Runtime {
		u.RuntimeFunction(id)
	}
	for _, lib := range b.unit.Links {
		u.AddLinkLibrary(lib)
	}
	for _, name := range b.unit.Used {
		if name == "" {
			u.Failure(b.unit.Span, "empty name in used list")
			continue
		}
		u.AddUsedGlobal(usedGlobal(u.Module(), name))
	}
}

// usedGlobal resolves name to an existing function or global, defining a
// one-byte placeholder when nothing by that name exists yet.
func usedGlobal(mod *ir.Module, name string) constant.Constant {
	for _, f := range mod.Funcs {
		if f.Name() == name {
			return f
		}
	}
	for _, g := range mod.Globals {
		if g.Name() == name {
			return g
		}
	}
	return mod.NewGlobalDef(name, constant.NewInt(types.I8, 0))
}

func (b *unitBuild) write(mod *ir.Module, res UnitResult) (string, error) {
	rel := b.unit.Name + ".ll"
	path := filepath.Join(b.cache.Dir(), rel)
	if err := writeFileAtomic(path, []byte(mod.String())); err != nil {
		return "", err
	}
	rec, err := unitcache.NewRecord(b.key, res.Summary, res.Bag.Len(), rel)
	if err != nil {
		return "", err
	}
	if err := b.cache.Put(rec); err != nil {
		return "", err
	}
	return path, nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

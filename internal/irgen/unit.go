package irgen

import (
	"context"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"

	"irgen/internal/abi"
	"irgen/internal/autolink"
	"irgen/internal/debuginfo"
	"irgen/internal/diag"
	"irgen/internal/layout"
	"irgen/internal/provider"
	"irgen/internal/rtfunc"
	"irgen/internal/trace"
)

// Unit is the generation context for one output module.
type Unit struct {
	name   string
	fe     Frontend
	prov   provider.Provider
	opts   Options
	target layout.Target
	state  State

	tbl   *abi.Table
	rt    *rtfunc.Registry
	links *autolink.Collector
	dbg   *debuginfo.Emitter

	used         []constant.Constant
	compilerUsed []constant.Constant

	emptyTupleMetadata *ir.Global
	objcEmptyCache     *ir.Global
	objcEmptyVTable    constant.Constant

	tracer trace.Tracer
	span   *trace.Span
}

// New creates a unit named name. The provider creates the module; the
// tracer and parent span are taken from ctx.
func New(ctx context.Context, fe Frontend, prov provider.Provider, name string, target layout.Target, opts Options) (*Unit, error) {
	if fe == nil {
		return nil, &ConfigError{Kind: ConfigNoFrontend, Unit: name}
	}
	if prov == nil {
		return nil, &ConfigError{Kind: ConfigNoProvider, Unit: name}
	}
	if err := target.Validate(); err != nil {
		return nil, &ConfigError{Kind: ConfigInvalidTarget, Unit: name, Err: err}
	}
	err := prov.NewModule(name, provider.Options{
		OptLevel:      opts.OptLevel,
		DisableFPElim: opts.DisableFPElim,
		DebugInfo:     opts.DebugInfo,
		Target:        target,
	})
	if err != nil {
		return nil, &ConfigError{Kind: ConfigModule, Unit: name, Err: err}
	}
	mod := prov.Module()
	if mod == nil {
		return nil, &ConfigError{Kind: ConfigModule, Unit: name, Err: provider.ErrNoModule}
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeUnit, "unit:"+name, trace.CurrentSpan(ctx))
	span.WithExtra("target", target.Triple)

	tbl := abi.NewTable(target)
	for _, s := range tbl.Structs() {
		mod.TypeDefs = append(mod.TypeDefs, s.Type())
	}

	u := &Unit{
		name:   name,
		fe:     fe,
		prov:   prov,
		opts:   opts,
		target: target,
		state:  StateOpen,
		tbl:    tbl,
		rt:     rtfunc.New(mod, tbl),
		links:  autolink.NewCollector(opts.Dedup),
		tracer: tracer,
		span:   span,
	}
	if opts.DebugInfo {
		producer := opts.Producer
		if producer == "" {
			producer = "irgen"
		}
		u.dbg = debuginfo.New(producer, name, opts.SourceDir)
	}
	return u, nil
}

func (u *Unit) Name() string { return u.name }
func (u *Unit) State() State { return u.state }
func (u *Unit) Options() Options { return u.opts }
func (u *Unit) Target() layout.Target { return u.target }

// Types returns the ABI layout table.
func (u *Unit) Types() *abi.Table { return u.tbl }

// Module returns the module under construction. It is nil once released.
func (u *Unit) Module() *ir.Module { return u.prov.Module() }

// Diagnostics returns the front end's diagnostic sink.
func (u *Unit) Diagnostics() diag.Reporter { return u.fe.Diagnostics() }

// DebugInfo returns the debug-info emitter, nil when debug info is off.
func (u *Unit) DebugInfo() *debuginfo.Emitter { return u.dbg }

// RuntimeCC is the calling convention used for runtime entry points.
func (u *Unit) RuntimeCC() enum.CallingConv { return enum.CallingConvC }

// Runtime returns the runtime function registry.
func (u *Unit) Runtime() *rtfunc.Registry { return u.rt }

// Links returns the autolink collector.
func (u *Unit) Links() *autolink.Collector { return u.links }

// mustBeOpen panics when the unit no longer accepts op.
func (u *Unit) mustBeOpen(op string) {
	if u.state != StateOpen {
		panic(&InvariantError{Op: op, State: u.state, Unit: u.name})
	}
}

func (u *Unit) point(name, detail string) {
	trace.Point(u.tracer, trace.ScopeEmit, name, detail, u.span.ID())
}

package rtfunc

import (
	"slices"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"irgen/internal/abi"
)

// Registry materializes runtime function declarations on first use. Each id
// is declared at most once per module; later requests return the cached
// *ir.Func unchanged.
type Registry struct {
	mod     *ir.Module
	tbl     *abi.Table
	descs   map[ID]Descriptor
	handles map[ID]*ir.Func
	order   []ID
}

// New creates a registry over the standard descriptor table.
func New(mod *ir.Module, tbl *abi.Table) *Registry {
	return NewWithDescriptors(mod, tbl, descriptors)
}

// NewWithDescriptors creates a registry over a custom table. Descriptors are
// validated lazily, when their handle is first requested.
func NewWithDescriptors(mod *ir.Module, tbl *abi.Table, descs []Descriptor) *Registry {
	m := make(map[ID]Descriptor, len(descs))
	for _, d := range descs {
		m[d.ID] = d
	}
	return &Registry{
		mod:     mod,
		tbl:     tbl,
		descs:   m,
		handles: make(map[ID]*ir.Func, len(descs)),
	}
}

// Handle returns the declaration for id, creating it on the first call.
func (r *Registry) Handle(id ID) *ir.Func {
	if f, ok := r.handles[id]; ok {
		return f
	}
	d, ok := r.descs[id]
	if !ok {
		panic(&DescriptorError{Kind: DescUnknownID, ID: id})
	}
	sig := r.signature(d)
	f := r.getOrInsert(d, sig)
	f.CallingConv = d.CC
	for _, a := range d.Attrs {
		if !hasFuncAttr(f, a) {
			f.FuncAttrs = append(f.FuncAttrs, a)
		}
	}
	r.handles[id] = f
	r.order = append(r.order, id)
	return f
}

// Lookup returns the cached declaration without creating it.
func (r *Registry) Lookup(id ID) (*ir.Func, bool) {
	f, ok := r.handles[id]
	return f, ok
}

// Declared lists the ids materialized so far, in declaration order.
func (r *Registry) Declared() []ID {
	return slices.Clone(r.order)
}

func (r *Registry) signature(d Descriptor) *types.FuncType {
	if d.Symbol == "" {
		panic(&DescriptorError{Kind: DescEmptySymbol, ID: d.ID})
	}
	if len(d.Returns) == 0 {
		panic(&DescriptorError{Kind: DescNoReturn, ID: d.ID, Symbol: d.Symbol})
	}
	if slices.Contains(d.Attrs, enum.FuncAttrReadNone) && slices.Contains(d.Attrs, enum.FuncAttrReadOnly) {
		panic(&DescriptorError{Kind: DescConflictingAttrs, ID: d.ID, Symbol: d.Symbol})
	}

	var ret types.Type
	if len(d.Returns) == 1 {
		ret = r.resolve(d, d.Returns[0])
	} else {
		fields := make([]types.Type, 0, len(d.Returns))
		for _, ref := range d.Returns {
			if ref.IsVoid() {
				panic(&DescriptorError{Kind: DescVoidInAggregate, ID: d.ID, Symbol: d.Symbol})
			}
			fields = append(fields, r.resolve(d, ref))
		}
		ret = types.NewStruct(fields...)
	}

	params := make([]types.Type, 0, len(d.Args))
	for i, ref := range d.Args {
		if ref.IsVoid() {
			panic(&DescriptorError{Kind: DescVoidArg, ID: d.ID, Symbol: d.Symbol, Detail: "argument " + strconv.Itoa(i)})
		}
		params = append(params, r.resolve(d, ref))
	}
	return types.NewFunc(ret, params...)
}

func (r *Registry) resolve(d Descriptor, ref abi.TypeRef) types.Type {
	if !ref.Valid() {
		panic(&DescriptorError{Kind: DescInvalidType, ID: d.ID, Symbol: d.Symbol, Detail: ref.String()})
	}
	return r.tbl.Type(ref)
}

// getOrInsert reuses a declaration already present in the module under the
// same symbol, so a front end that declared it first keeps its *ir.Func.
func (r *Registry) getOrInsert(d Descriptor, sig *types.FuncType) *ir.Func {
	for _, f := range r.mod.Funcs {
		if f.Name() != d.Symbol {
			continue
		}
		if f.Sig.String() != sig.String() {
			panic(&DescriptorError{
				Kind:   DescSignatureMismatch,
				ID:     d.ID,
				Symbol: d.Symbol,
				Detail: f.Sig.String() + " vs " + sig.String(),
			})
		}
		return f
	}
	params := make([]*ir.Param, 0, len(sig.Params))
	for _, p := range sig.Params {
		params = append(params, ir.NewParam("", p))
	}
	return r.mod.NewFunc(d.Symbol, sig.RetType, params...)
}

func hasFuncAttr(f *ir.Func, a enum.FuncAttr) bool {
	for _, existing := range f.FuncAttrs {
		if fa, ok := existing.(enum.FuncAttr); ok && fa == a {
			return true
		}
	}
	return false
}

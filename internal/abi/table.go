package abi

import (
	"github.com/llir/llvm/ir/types"

	"irgen/internal/layout"
)

// Table is the sealed set of ABI structs for one target. Lookups are pure:
// the same entity always yields the same *Struct and the same IR types.
type Table struct {
	target  layout.Target
	engine  *layout.LayoutEngine
	structs [entityCount]*Struct
	order   []Entity

	sizeTy     *types.IntType
	int8PtrPtr *types.PointerType
	fnPtr      *types.PointerType
	dtorPtr    *types.PointerType
}

func newTable(target layout.Target) *Table {
	return &Table{
		target:     target,
		engine:     layout.New(target),
		sizeTy:     types.NewInt(target.PtrBits()),
		int8PtrPtr: types.NewPointer(types.I8Ptr),
		fnPtr:      types.NewPointer(types.NewFunc(types.Void)),
	}
}

// NewTable builds the standard runtime struct set for target. The order
// matters: RefCounted is declared first because the metadata structs below
// point at it, and it can only be defined once TypeMetadata exists.
func NewTable(target layout.Target) *Table {
	b := NewBuilder(target)

	b.Declare(RefCounted, "rt.refcounted")

	// Native weak references are a single strong pointer for now.
	b.Create(Weak, "rt.weak", b.Type(PtrRef(RefCounted)))

	b.Create(TypeMetadata, "rt.type",
		b.Type(Size), // metadata kind
	)

	b.Create(ProtocolDescriptor, "rt.protocol",
		types.I8Ptr, // objc isa
		types.I8Ptr, // name
		types.I8Ptr, // inherited protocols
		types.I8Ptr, // required objc instance methods
		types.I8Ptr, // required objc class methods
		types.I8Ptr, // optional objc instance methods
		types.I8Ptr, // optional objc class methods
		types.I8Ptr, // objc properties
		types.I32,   // size
		types.I32,   // flags
	)

	b.Create(TupleElement, "rt.tuple_element_type",
		b.Type(PtrRef(TypeMetadata)), // element type
		b.Type(Size),                 // offset
	)
	b.Create(TupleMetadata, "rt.tuple_type",
		b.Type(StructRef(TypeMetadata)),
		b.Type(Size), // element count
		types.I8Ptr,  // labels
		types.NewArray(0, b.Type(StructRef(TupleElement))),
	)

	b.Create(FullTypeMetadata, "rt.full_type",
		b.Type(WitnessTablePtr),
		b.Type(StructRef(TypeMetadata)),
	)

	// Generic metadata is instantiated by the runtime from a pattern the
	// generator never looks inside.
	b.Opaque(TypeMetadataPattern, "rt.type_pattern")

	b.Create(FullHeapMetadata, "rt.full_heapmetadata",
		b.Type(DeallocatingDtorPtr),
		b.Type(WitnessTablePtr),
		b.Type(StructRef(TypeMetadata)),
	)

	b.Define(RefCounted,
		b.Type(PtrRef(TypeMetadata)),
		types.I32, // strong count
		types.I32, // weak count
	)

	b.Create(FunctionPair, "rt.function",
		b.Type(FunctionPtr),
		b.Type(PtrRef(RefCounted)),
	)
	b.Create(WitnessFunctionPair, "rt.witness_function",
		b.Type(FunctionPtr),
		b.Type(PtrRef(TypeMetadata)),
	)

	b.Opaque(Opaque, "rt.opaque")
	b.Opaque(ObjCObject, "objc_object")

	b.Declare(ObjCClass, "objc_class")
	b.Define(ObjCClass,
		b.Type(PtrRef(ObjCClass)), // isa
		b.Type(PtrRef(ObjCClass)), // superclass
		b.Type(PtrRef(Opaque)),    // cache
		b.Type(PtrRef(Opaque)),    // vtable
		b.Type(Size),              // data
	)

	b.Declare(ObjCSuper, "objc_super")
	b.Define(ObjCSuper,
		b.Type(PtrRef(ObjCObject)),
		b.Type(PtrRef(ObjCClass)),
	)

	return b.Seal()
}

// Target returns the target the table was laid out for.
func (t *Table) Target() layout.Target { return t.target }

// Engine returns the layout engine used for sizes and offsets.
func (t *Table) Engine() *layout.LayoutEngine { return t.engine }

// SizeType returns the pointer-width integer type.
func (t *Table) SizeType() *types.IntType { return t.sizeTy }

// Layout returns the struct for entity e. It panics for an unknown entity.
func (t *Table) Layout(e Entity) *Struct {
	s, ok := t.Lookup(e)
	if !ok {
		panic(&InvariantError{Kind: InvUnknownEntity, Entity: e})
	}
	return s
}

// Lookup returns the struct for e, if any.
func (t *Table) Lookup(e Entity) (*Struct, bool) {
	if !e.Valid() {
		return nil, false
	}
	s := t.structs[e]
	return s, s != nil
}

// Structs returns every struct in declaration order.
func (t *Table) Structs() []*Struct {
	out := make([]*Struct, 0, len(t.order))
	for _, e := range t.order {
		out = append(out, t.structs[e])
	}
	return out
}

// Type resolves a TypeRef to its IR type. Repeated calls return identical
// values.
func (t *Table) Type(ref TypeRef) types.Type {
	switch ref.Kind {
	case RefVoid:
		return types.Void
	case RefInt1:
		return types.I1
	case RefInt8:
		return types.I8
	case RefInt16:
		return types.I16
	case RefInt32:
		return types.I32
	case RefInt64:
		return types.I64
	case RefSize:
		return t.sizeTy
	case RefInt8Ptr:
		return types.I8Ptr
	case RefInt8PtrPtr:
		return t.int8PtrPtr
	case RefFunctionPtr:
		return t.fnPtr
	case RefDeallocatingDtorPtr:
		if t.dtorPtr == nil {
			t.dtorPtr = types.NewPointer(types.NewFunc(types.Void, t.Layout(RefCounted).Ptr()))
		}
		return t.dtorPtr
	case RefStruct:
		return t.Layout(ref.Entity).Type()
	case RefPtr:
		return t.Layout(ref.Entity).Ptr()
	default:
		panic(&InvariantError{Kind: InvUnknownEntity, Entity: ref.Entity})
	}
}

// SizeOf returns the allocation size of entity e in bytes.
func (t *Table) SizeOf(e Entity) int {
	return t.Layout(e).Layout().Size
}

// AlignOf returns the ABI alignment of entity e in bytes.
func (t *Table) AlignOf(e Entity) int {
	return t.Layout(e).Layout().Align
}

// OffsetOf returns the byte offset of field idx of entity e.
func (t *Table) OffsetOf(e Entity, idx int) int {
	l := t.Layout(e).Layout()
	if idx < 0 || idx >= len(l.FieldOffsets) {
		panic(&InvariantError{Kind: InvFieldsUnavailable, Entity: e, Name: t.Layout(e).Name()})
	}
	return l.FieldOffsets[idx]
}

package abi

// RefKind selects what a TypeRef resolves to.
type RefKind uint8

const (
	refInvalid RefKind = iota
	RefVoid
	RefInt1
	RefInt8
	RefInt16
	RefInt32
	RefInt64
	// RefSize is the pointer-width integer of the target.
	RefSize
	RefInt8Ptr
	RefInt8PtrPtr
	// RefFunctionPtr is an untyped code pointer, void()*.
	RefFunctionPtr
	// RefDeallocatingDtorPtr is void(RefCounted*)*.
	RefDeallocatingDtorPtr
	RefStruct
	RefPtr
)

// TypeRef names a type in the runtime vocabulary without needing a Table.
// Runtime function descriptors are written in terms of TypeRefs so they can
// stay static across targets.
type TypeRef struct {
	Kind   RefKind
	Entity Entity
}

var (
	Void                = TypeRef{Kind: RefVoid}
	Int1                = TypeRef{Kind: RefInt1}
	Int8                = TypeRef{Kind: RefInt8}
	Int16               = TypeRef{Kind: RefInt16}
	Int32               = TypeRef{Kind: RefInt32}
	Int64               = TypeRef{Kind: RefInt64}
	Size                = TypeRef{Kind: RefSize}
	Int8Ptr             = TypeRef{Kind: RefInt8Ptr}
	Int8PtrPtr          = TypeRef{Kind: RefInt8PtrPtr}
	WitnessTablePtr     = Int8PtrPtr
	FunctionPtr         = TypeRef{Kind: RefFunctionPtr}
	DeallocatingDtorPtr = TypeRef{Kind: RefDeallocatingDtorPtr}
)

// StructRef refers to an entity struct by value.
func StructRef(e Entity) TypeRef { return TypeRef{Kind: RefStruct, Entity: e} }

// PtrRef refers to a pointer to an entity struct.
func PtrRef(e Entity) TypeRef { return TypeRef{Kind: RefPtr, Entity: e} }

// IsVoid reports whether r is the void type.
func (r TypeRef) IsVoid() bool { return r.Kind == RefVoid }

// Valid reports whether r can be resolved by a Table.
func (r TypeRef) Valid() bool {
	switch r.Kind {
	case RefStruct, RefPtr:
		return r.Entity.Valid()
	case refInvalid:
		return false
	default:
		return r.Kind <= RefPtr
	}
}

func (r TypeRef) String() string {
	switch r.Kind {
	case RefVoid:
		return "void"
	case RefInt1:
		return "i1"
	case RefInt8:
		return "i8"
	case RefInt16:
		return "i16"
	case RefInt32:
		return "i32"
	case RefInt64:
		return "i64"
	case RefSize:
		return "size"
	case RefInt8Ptr:
		return "i8*"
	case RefInt8PtrPtr:
		return "i8**"
	case RefFunctionPtr:
		return "fnptr"
	case RefDeallocatingDtorPtr:
		return "dtor*"
	case RefStruct:
		return r.Entity.String()
	case RefPtr:
		return r.Entity.String() + "*"
	default:
		return "<invalid>"
	}
}

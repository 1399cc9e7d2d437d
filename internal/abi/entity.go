package abi

// Entity identifies one runtime ABI structure.
type Entity uint8

const (
	EntityInvalid Entity = iota
	// RefCounted is the header shared by every heap object.
	RefCounted
	Weak
	// TypeMetadata is the record found at a metadata address point.
	TypeMetadata
	ProtocolDescriptor
	TupleElement
	TupleMetadata
	// FullTypeMetadata prefixes TypeMetadata with a value witness table pointer.
	FullTypeMetadata
	// TypeMetadataPattern has no body: generic metadata is instantiated by the runtime.
	TypeMetadataPattern
	FullHeapMetadata
	// FunctionPair is a thick function value: code pointer plus context.
	FunctionPair
	WitnessFunctionPair
	Opaque
	ObjCObject
	ObjCClass
	ObjCSuper

	entityCount
)

var entityNames = [...]string{
	EntityInvalid:       "invalid",
	RefCounted:          "RefCounted",
	Weak:                "Weak",
	TypeMetadata:        "TypeMetadata",
	ProtocolDescriptor:  "ProtocolDescriptor",
	TupleElement:        "TupleElement",
	TupleMetadata:       "TupleMetadata",
	FullTypeMetadata:    "FullTypeMetadata",
	TypeMetadataPattern: "TypeMetadataPattern",
	FullHeapMetadata:    "FullHeapMetadata",
	FunctionPair:        "FunctionPair",
	WitnessFunctionPair: "WitnessFunctionPair",
	Opaque:              "Opaque",
	ObjCObject:          "ObjCObject",
	ObjCClass:           "ObjCClass",
	ObjCSuper:           "ObjCSuper",
}

func (e Entity) String() string {
	if int(e) < len(entityNames) {
		return entityNames[e]
	}
	return "invalid"
}

// Valid reports whether e names a real entity.
func (e Entity) Valid() bool {
	return e > EntityInvalid && e < entityCount
}

// Entities returns every entity in construction order.
func Entities() []Entity {
	out := make([]Entity, 0, int(entityCount)-1)
	for e := RefCounted; e < entityCount; e++ {
		out = append(out, e)
	}
	return out
}

// State is the construction state of an ABI struct.
type State uint8

const (
	// StateDeclared: named and referable, body not yet known.
	StateDeclared State = iota
	// StateDefined: body set, layout available.
	StateDefined
	// StateOpaque: sealed without a body.
	StateOpaque
)

func (s State) String() string {
	switch s {
	case StateDeclared:
		return "declared"
	case StateDefined:
		return "defined"
	case StateOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

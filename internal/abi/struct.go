package abi

import (
	"github.com/llir/llvm/ir/types"

	"irgen/internal/layout"
)

// Struct is one named ABI structure. Its IR type and derived pointer type are
// stable from declaration on, so other structs may refer to it before it has
// a body.
type Struct struct {
	name   string
	entity Entity
	state  State
	typ    *types.StructType
	ptr    *types.PointerType
	layout layout.TypeLayout
	sealed bool
}

func (s *Struct) Name() string { return s.name }
func (s *Struct) Entity() Entity { return s.entity }
func (s *Struct) State() State { return s.state }

// Type returns the named IR struct type.
func (s *Struct) Type() *types.StructType { return s.typ }

// Ptr returns the pointer-to-struct type.
func (s *Struct) Ptr() *types.PointerType { return s.ptr }

// Fields returns the struct body. It panics unless the struct is defined.
func (s *Struct) Fields() []types.Type {
	s.mustBeDefined()
	out := make([]types.Type, len(s.typ.Fields))
	copy(out, s.typ.Fields)
	return out
}

// Layout returns the computed size, alignment and field offsets. It panics
// unless the struct is defined and sealed into a Table.
func (s *Struct) Layout() layout.TypeLayout {
	s.mustBeDefined()
	if !s.sealed {
		panic(&InvariantError{Kind: InvFieldsUnavailable, Entity: s.entity, Name: s.name})
	}
	return s.layout
}

func (s *Struct) mustBeDefined() {
	if s.state != StateDefined {
		panic(&InvariantError{Kind: InvFieldsUnavailable, Entity: s.entity, Name: s.name})
	}
}

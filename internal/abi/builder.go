package abi

import (
	"github.com/llir/llvm/ir/types"

	"irgen/internal/layout"
)

// Builder constructs the ABI struct set in two phases. Declare creates a named
// struct without a body so that self-referential and mutually referential
// structs can point at it. Define supplies the body. Seal checks that nothing
// is left half-built and freezes everything into a Table.
type Builder struct {
	t      *Table
	byName map[string]*Struct
	sealed bool
}

// NewBuilder starts an empty struct set for target.
func NewBuilder(target layout.Target) *Builder {
	return &Builder{
		t:      newTable(target),
		byName: make(map[string]*Struct, int(entityCount)),
	}
}

// Type resolves ref against the structs declared so far. Struct references
// are valid as soon as the struct is declared.
func (b *Builder) Type(ref TypeRef) types.Type {
	return b.t.Type(ref)
}

// Declare registers entity e under name with no body yet.
func (b *Builder) Declare(e Entity, name string) *Struct {
	b.checkOpen()
	if !e.Valid() {
		panic(&InvariantError{Kind: InvUnknownEntity, Entity: e})
	}
	if b.t.structs[e] != nil {
		panic(&InvariantError{Kind: InvDuplicateEntity, Entity: e, Name: name})
	}
	if _, dup := b.byName[name]; dup {
		panic(&InvariantError{Kind: InvDuplicateName, Entity: e, Name: name})
	}
	st := &types.StructType{TypeName: name, Opaque: true}
	s := &Struct{
		name:   name,
		entity: e,
		state:  StateDeclared,
		typ:    st,
		ptr:    types.NewPointer(st),
	}
	b.t.structs[e] = s
	b.t.order = append(b.t.order, e)
	b.byName[name] = s
	return s
}

// Define gives a declared struct its body.
func (b *Builder) Define(e Entity, fields ...types.Type) *Struct {
	b.checkOpen()
	s := b.Struct(e)
	if s.state != StateDeclared {
		panic(&InvariantError{Kind: InvRedefinition, Entity: e, Name: s.name})
	}
	s.typ.Opaque = false
	s.typ.Fields = append([]types.Type(nil), fields...)
	s.state = StateDefined
	return s
}

// Create declares and defines in one step.
func (b *Builder) Create(e Entity, name string, fields ...types.Type) *Struct {
	b.Declare(e, name)
	return b.Define(e, fields...)
}

// Opaque declares a struct that is sealed without a body.
func (b *Builder) Opaque(e Entity, name string) *Struct {
	s := b.Declare(e, name)
	s.state = StateOpaque
	return s
}

// Struct returns the struct registered for e. It panics if e was never declared.
func (b *Builder) Struct(e Entity) *Struct {
	if !e.Valid() {
		panic(&InvariantError{Kind: InvUnknownEntity, Entity: e})
	}
	s := b.t.structs[e]
	if s == nil {
		panic(&InvariantError{Kind: InvNotDeclared, Entity: e})
	}
	return s
}

// Seal freezes the set. Every struct must be Defined or Opaque; layouts are
// computed for the defined ones.
func (b *Builder) Seal() *Table {
	b.checkOpen()
	t := b.t
	for _, e := range t.order {
		if s := t.structs[e]; s.state == StateDeclared {
			panic(&InvariantError{Kind: InvUnsealed, Entity: e, Name: s.name})
		}
	}
	b.sealed = true

	for _, e := range t.order {
		s := t.structs[e]
		if s.state == StateDefined {
			l, err := t.engine.LayoutOf(s.typ)
			if err != nil {
				panic(&InvariantError{Kind: InvLayout, Entity: e, Name: s.name, Err: err})
			}
			s.layout = l
		}
		s.sealed = true
	}
	return t
}

func (b *Builder) checkOpen() {
	if b.sealed {
		panic(&InvariantError{Kind: InvBuilderSealed})
	}
}

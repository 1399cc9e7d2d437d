package abi

import "fmt"

// InvariantKind classifies misuse of the layout table.
type InvariantKind uint8

const (
	InvDuplicateName InvariantKind = iota + 1
	InvDuplicateEntity
	InvRedefinition
	InvNotDeclared
	InvUnsealed
	InvFieldsUnavailable
	InvUnknownEntity
	InvLayout
	InvBuilderSealed
)

// InvariantError is the panic value for internal invariant violations in the
// ABI table. These indicate a generator bug, never bad user input.
type InvariantError struct {
	Kind   InvariantKind
	Entity Entity
	Name   string
	Err    error
}

func (e *InvariantError) Error() string {
	switch e.Kind {
	case InvDuplicateName:
		return fmt.Sprintf("abi: struct name %q already declared", e.Name)
	case InvDuplicateEntity:
		return fmt.Sprintf("abi: entity %s already declared", e.Entity)
	case InvRedefinition:
		return fmt.Sprintf("abi: %s (%s) already has a body", e.Entity, e.Name)
	case InvNotDeclared:
		return fmt.Sprintf("abi: entity %s was never declared", e.Entity)
	case InvUnsealed:
		return fmt.Sprintf("abi: %s (%s) is still declared at seal", e.Entity, e.Name)
	case InvFieldsUnavailable:
		return fmt.Sprintf("abi: fields of %s (%s) read before definition", e.Entity, e.Name)
	case InvUnknownEntity:
		return fmt.Sprintf("abi: unknown entity %d", uint8(e.Entity))
	case InvBuilderSealed:
		return "abi: builder used after Seal"
	case InvLayout:
		return fmt.Sprintf("abi: layout of %s (%s): %v", e.Entity, e.Name, e.Err)
	default:
		return fmt.Sprintf("abi: invariant violation kind=%d", e.Kind)
	}
}

func (e *InvariantError) Unwrap() error { return e.Err }

package rtfunc

import "fmt"

// DescriptorErrorKind classifies malformed runtime descriptors.
type DescriptorErrorKind uint8

const (
	DescUnknownID DescriptorErrorKind = iota + 1
	DescEmptySymbol
	DescNoReturn
	DescVoidArg
	DescVoidInAggregate
	DescInvalidType
	DescConflictingAttrs
	DescSignatureMismatch
)

// DescriptorError is the panic value raised when a descriptor cannot be
// materialized. The table is static, so this is always a generator bug.
type DescriptorError struct {
	Kind   DescriptorErrorKind
	ID     ID
	Symbol string
	Detail string
}

func (e *DescriptorError) Error() string {
	var what string
	switch e.Kind {
	case DescUnknownID:
		what = "unknown runtime function id"
	case DescEmptySymbol:
		what = "empty symbol"
	case DescNoReturn:
		what = "no return types"
	case DescVoidArg:
		what = "void argument"
	case DescVoidInAggregate:
		what = "void inside aggregate return"
	case DescInvalidType:
		what = "invalid type reference"
	case DescConflictingAttrs:
		what = "readnone conflicts with readonly"
	case DescSignatureMismatch:
		what = "existing declaration has a different signature"
	default:
		what = fmt.Sprintf("kind=%d", e.Kind)
	}
	msg := fmt.Sprintf("rtfunc: %s (%d %q): %s", e.ID, uint16(e.ID), e.Symbol, what)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

package layout

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/types"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveUnsized indicates a struct that contains itself by value.
	LayoutErrRecursiveUnsized LayoutErrorKind = iota + 1
	// LayoutErrOpaque indicates a struct whose body is not known (yet).
	LayoutErrOpaque
	// LayoutErrUnsized indicates a type with no storage size (void, function, label).
	LayoutErrUnsized
	LayoutErrLengthConversion
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  types.Type
	Cycle []types.Type // for LayoutErrRecursiveUnsized
	Err   error        // for LayoutErrLengthConversion
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive value type has infinite size (%s)", typeName(e.Type))
		}
		parts := make([]string, 0, len(e.Cycle))
		for _, t := range e.Cycle {
			parts = append(parts, typeName(t))
		}
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(parts, " -> "))
	case LayoutErrOpaque:
		return fmt.Sprintf("struct %s has no body", typeName(e.Type))
	case LayoutErrUnsized:
		return fmt.Sprintf("type %s has no storage size", typeName(e.Type))
	case LayoutErrLengthConversion:
		if e.Err != nil {
			return fmt.Sprintf("array length conversion error (%s): %v", typeName(e.Type), e.Err)
		}
		return fmt.Sprintf("array length conversion error (%s)", typeName(e.Type))
	default:
		return fmt.Sprintf("layout error kind=%d type %s", e.Kind, typeName(e.Type))
	}
}

func typeName(t types.Type) string {
	if t == nil {
		return "<nil>"
	}
	if st, ok := t.(*types.StructType); ok && st.Name() != "" {
		return "%" + st.Name()
	}
	return t.String()
}

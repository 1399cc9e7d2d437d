package autolink

import "fmt"

// Kind is the kind of link requirement.
type Kind uint8

const (
	DynamicLibrary Kind = iota
	Framework
)

func (k Kind) String() string {
	switch k {
	case DynamicLibrary:
		return "library"
	case Framework:
		return "framework"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind accepts the manifest spellings of a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "library", "lib", "dylib":
		return DynamicLibrary, true
	case "framework":
		return Framework, true
	default:
		return 0, false
	}
}

// Library is a request to link against a library or framework. Requests are
// handed around by pointer: two requests with the same content are still
// different requests.
type Library struct {
	Kind Kind
	Name string
}

// NewLibrary creates a link request.
func NewLibrary(kind Kind, name string) *Library {
	return &Library{Kind: kind, Name: name}
}

func (l *Library) String() string {
	return l.Kind.String() + ":" + l.Name
}

package autolink

// Entry is the autolink form of one Library request.
type Entry struct {
	lib  *Library
	kind Kind
	name string
}

func newEntry(lib *Library) Entry {
	return Entry{lib: lib, kind: lib.Kind, name: lib.Name}
}

// Library returns the request the entry was derived from.
func (e Entry) Library() *Library { return e.lib }

func (e Entry) Kind() Kind { return e.kind }
func (e Entry) Name() string { return e.name }

// Flags renders the linker arguments: ["-l<name>"] for a library,
// ["-framework", "<name>"] for a framework.
func (e Entry) Flags() []string {
	switch e.kind {
	case Framework:
		return []string{"-framework", e.name}
	default:
		return []string{"-l" + e.name}
	}
}

// compareContent orders entries by their rendered flags.
func compareContent(a, b Entry) int {
	fa, fb := a.Flags(), b.Flags()
	for i := 0; i < len(fa) && i < len(fb); i++ {
		if fa[i] < fb[i] {
			return -1
		}
		if fa[i] > fb[i] {
			return 1
		}
	}
	return len(fa) - len(fb)
}

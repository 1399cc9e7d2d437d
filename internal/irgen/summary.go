package irgen

import "irgen/internal/abi"

// Summary describes what a unit emitted. The build pipeline caches one per
// unit.
type Summary struct {
	Name         string
	Triple       string
	State        string
	Runtime      []string   // runtime symbols in declaration order
	LinkOptions  [][]string // autolink flags after dedup, empty before Finalize
	Used         int
	CompilerUsed int
	ABIStructs   int
	HeaderSize   int // RefCounted size in bytes
	DebugInfo    bool
}

// Summary reports the unit's current contents.
func (u *Unit) Summary() Summary {
	s := Summary{
		Name:         u.name,
		Triple:       u.target.Triple,
		State:        u.state.String(),
		Used:         len(u.used),
		CompilerUsed: len(u.compilerUsed),
		ABIStructs:   len(u.tbl.Structs()),
		HeaderSize:   u.tbl.SizeOf(abi.RefCounted),
		DebugInfo:    u.dbg != nil,
	}
	for _, id := range u.rt.Declared() {
		if f, ok := u.rt.Lookup(id); ok {
			s.Runtime = append(s.Runtime, f.Name())
		}
	}
	for _, e := range u.links.Emitted() {
		s.LinkOptions = append(s.LinkOptions, e.Flags())
	}
	return s
}

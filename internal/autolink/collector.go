package autolink

import (
	"slices"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"

	"irgen/internal/irmeta"
)

// LinkerOptionsKey is the module flag carrying autolink entries.
const LinkerOptionsKey = "Linker Options"

// DedupPolicy decides which entries count as duplicates at Emit.
type DedupPolicy uint8

const (
	// DedupByContent collapses entries with the same kind and name.
	DedupByContent DedupPolicy = iota
	// DedupByIdentity collapses only repeated records of the same *Library;
	// distinct requests with equal content are both kept.
	DedupByIdentity
)

func (p DedupPolicy) String() string {
	if p == DedupByIdentity {
		return "identity"
	}
	return "content"
}

// ParseDedupPolicy parses "content" or "identity".
func ParseDedupPolicy(s string) (DedupPolicy, bool) {
	switch s {
	case "", "content":
		return DedupByContent, true
	case "identity":
		return DedupByIdentity, true
	default:
		return DedupByContent, false
	}
}

// Collector accumulates autolink entries for one module. Duplicates are
// allowed until Emit, which sorts and collapses them.
type Collector struct {
	policy  DedupPolicy
	pending []Entry
	emitted []Entry
	done    bool
}

// NewCollector creates a collector with the given policy.
func NewCollector(policy DedupPolicy) *Collector {
	return &Collector{policy: policy}
}

func (c *Collector) Policy() DedupPolicy { return c.policy }

// Record appends the entry for lib. Recording after Emit panics.
func (c *Collector) Record(lib *Library) {
	if c.done {
		panic("autolink: Record after Emit")
	}
	if lib == nil {
		panic("autolink: nil library")
	}
	c.pending = append(c.pending, newEntry(lib))
}

// Entries returns the pending entries in record order.
func (c *Collector) Entries() []Entry {
	return slices.Clone(c.pending)
}

// Emitted returns the deduplicated entries written by Emit.
func (c *Collector) Emitted() []Entry {
	return slices.Clone(c.emitted)
}

// Done reports whether Emit has run.
func (c *Collector) Done() bool { return c.done }

// Emit deduplicates the pending entries and writes them as a single
// AppendUnique "Linker Options" module flag. The flag is written even when
// no entries were recorded.
func (c *Collector) Emit(mod *ir.Module) []Entry {
	if c.done {
		return c.Emitted()
	}
	c.done = true
	c.emitted = c.dedup()

	opts := make([]metadata.Field, 0, len(c.emitted))
	for _, e := range c.emitted {
		flags := e.Flags()
		fields := make([]metadata.Field, 0, len(flags))
		for _, f := range flags {
			fields = append(fields, irmeta.Str(f))
		}
		opts = append(opts, irmeta.Tuple(mod, fields...))
	}
	irmeta.AddModuleFlag(mod, irmeta.BehaviorAppendUnique, LinkerOptionsKey, irmeta.Tuple(mod, opts...))
	return c.Emitted()
}

func (c *Collector) dedup() []Entry {
	entries := slices.Clone(c.pending)
	switch c.policy {
	case DedupByIdentity:
		seq := make(map[*Library]int, len(entries))
		for _, e := range entries {
			if _, ok := seq[e.lib]; !ok {
				seq[e.lib] = len(seq)
			}
		}
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return seq[a.lib] - seq[b.lib]
		})
		return slices.CompactFunc(entries, func(a, b Entry) bool {
			return a.lib == b.lib
		})
	default:
		slices.SortStableFunc(entries, compareContent)
		return slices.CompactFunc(entries, func(a, b Entry) bool {
			return compareContent(a, b) == 0
		})
	}
}

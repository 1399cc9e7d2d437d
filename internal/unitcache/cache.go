// Package unitcache stores per-unit build summaries next to the emitted IR.
// A summary whose key matches the current inputs lets the pipeline skip the
// unit.
package unitcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"irgen/internal/irgen"
	"irgen/internal/project"
)

// SchemaVersion is bumped whenever Record changes shape.
const SchemaVersion uint16 = 1

// Suffix is appended to the unit name to form the summary file name.
const Suffix = ".summary.mp"

// ErrSchema reports a summary written by an incompatible version.
var ErrSchema = errors.New("unitcache: schema mismatch")

// Record is the on-disk form of one unit summary.
type Record struct {
	Schema uint16
	Key    project.Digest

	Name         string
	Triple       string
	State        string
	Runtime      []string
	LinkOptions  [][]string
	Used         int
	CompilerUsed int
	ABIStructs   int
	HeaderSize   int
	DebugInfo    bool

	Diagnostics uint32
	Output      string // path of the .ll file, relative to the cache dir
}

// NewRecord converts a unit summary.
func NewRecord(key project.Digest, s irgen.Summary, diagnostics int, output string) (*Record, error) {
	n, err := safecast.Conv[uint32](diagnostics)
	if err != nil {
		return nil, fmt.Errorf("diagnostic count: %w", err)
	}
	return &Record{
		Schema:       SchemaVersion,
		Key:          key,
		Name:         s.Name,
		Triple:       s.Triple,
		State:        s.State,
		Runtime:      s.Runtime,
		LinkOptions:  s.LinkOptions,
		Used:         s.Used,
		CompilerUsed: s.CompilerUsed,
		ABIStructs:   s.ABIStructs,
		HeaderSize:   s.HeaderSize,
		DebugInfo:    s.DebugInfo,
		Diagnostics:  n,
		Output:       output,
	}, nil
}

// Summary converts the record back into a unit summary.
func (r *Record) Summary() irgen.Summary {
	return irgen.Summary{
		Name:         r.Name,
		Triple:       r.Triple,
		State:        r.State,
		Runtime:      r.Runtime,
		LinkOptions:  r.LinkOptions,
		Used:         r.Used,
		CompilerUsed: r.CompilerUsed,
		ABIStructs:   r.ABIStructs,
		HeaderSize:   r.HeaderSize,
		DebugInfo:    r.DebugInfo,
	}
}

// Cache reads and writes summaries under one directory. Safe for
// concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open returns a cache rooted at dir, creating it if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// PathFor returns the summary path for unit.
func (c *Cache) PathFor(unit string) string {
	return filepath.Join(c.dir, unit+Suffix)
}

// Put writes rec through a temp file and an atomic rename.
func (c *Cache) Put(rec *Record) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.PathFor(rec.Name)
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(rec); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads the summary for unit. ok is false when no summary exists.
func (c *Cache) Get(unit string) (rec *Record, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.PathFor(unit))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	rec = new(Record)
	if err := msgpack.NewDecoder(f).Decode(rec); err != nil {
		return nil, false, fmt.Errorf("%s: %w", c.PathFor(unit), err)
	}
	if rec.Schema != SchemaVersion {
		return nil, false, fmt.Errorf("%s: %w (have %d, want %d)", c.PathFor(unit), ErrSchema, rec.Schema, SchemaVersion)
	}
	return rec, true, nil
}

// Fresh reports whether unit has a summary for key with no diagnostics and
// its output file still exists.
func (c *Cache) Fresh(unit string, key project.Digest) (*Record, bool) {
	rec, ok, err := c.Get(unit)
	if err != nil || !ok || rec.Key != key || rec.Diagnostics != 0 {
		return nil, false
	}
	if _, err := os.Stat(filepath.Join(c.dir, rec.Output)); err != nil {
		return nil, false
	}
	return rec, true
}

// Drop removes the summary for unit, if any.
func (c *Cache) Drop(unit string) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.PathFor(unit))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

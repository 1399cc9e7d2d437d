package unitcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"irgen/internal/irgen"
	"irgen/internal/project"
)

func sampleRecord(t *testing.T, key project.Digest) *Record {
	t.Helper()
	rec, err := NewRecord(key, irgen.Summary{
		Name:        "core",
		Triple:      "x86_64-unknown-linux-gnu",
		State:       "closed",
		Runtime:     []string{"rt_retain", "rt_release"},
		LinkOptions: [][]string{{"-lm"}, {"-framework", "Foundation"}},
		Used:        1,
		ABIStructs:  15,
		HeaderSize:  16,
	}, 0, "core.ll")
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	return rec
}

func TestPutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := project.Sum("core", "v1")
	if err := c.Put(sampleRecord(t, key)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get("core")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Key != key || got.HeaderSize != 16 || len(got.LinkOptions) != 2 || got.LinkOptions[1][1] != "Foundation" {
		t.Fatalf("unexpected record %+v", got)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "core"+Suffix {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestGetMissing(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec, ok, err := c.Get("nope")
	if err != nil || ok || rec != nil {
		t.Fatalf("Get(missing) = %v, %v, %v", rec, ok, err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	data, err := msgpack.Marshal(&Record{Schema: SchemaVersion + 1, Name: "old"})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.PathFor("old"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Get("old"); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestFresh(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	key := project.Sum("core", "v1")
	if err := c.Put(sampleRecord(t, key)); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Fresh("core", key); ok {
		t.Fatal("summary without output file should not be fresh")
	}
	if err := os.WriteFile(filepath.Join(dir, "core.ll"), []byte("; ir\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Fresh("core", key); !ok {
		t.Fatal("expected fresh summary")
	}
	if _, ok := c.Fresh("core", project.Sum("core", "v2")); ok {
		t.Fatal("stale key reported fresh")
	}
	if err := c.Drop("core"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Fresh("core", key); ok {
		t.Fatal("dropped summary reported fresh")
	}
}

func TestFreshRejectsDiagnostics(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := project.Sum("core")
	rec := sampleRecord(t, key)
	rec.Diagnostics = 2
	if err := c.Put(rec); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(c.Dir(), "core.ll"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Fresh("core", key); ok {
		t.Fatal("units with diagnostics must be rebuilt")
	}
}

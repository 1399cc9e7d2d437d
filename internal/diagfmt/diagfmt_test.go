package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"irgen/internal/diag"
	"irgen/internal/source"
)

func fixture(t *testing.T) (*source.FileSet, []diag.Diagnostic) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("/work/demo/irgen.toml", []byte("[[unit]]\nname = \"core\"\nruntime = [\"frobnicate\"]\n"))
	sp, ok := fs.Find(id, 0, `"frobnicate"`)
	if !ok {
		t.Fatal("needle not found")
	}
	d := diag.NewError(diag.ProjUnknownRuntimeFunction, sp, "unknown runtime function")
	unit, _ := fs.Find(id, 0, `"core"`)
	d = d.WithNote(unit, "in this unit")
	return fs, []diag.Diagnostic{d, diag.NewError(diag.IRGenFailure, source.NoSpan, "no position")}
}

func TestPrettyUnderlinesSpan(t *testing.T) {
	fs, diags := fixture(t)
	var buf bytes.Buffer
	Pretty(&buf, diags, fs, PrettyOpts{BaseDir: "/work/demo", ShowNotes: true})
	out := buf.String()

	if !strings.Contains(out, "irgen.toml:3:12: ERROR PRJ5003: unknown runtime function") {
		t.Fatalf("missing header:\n%s", out)
	}
	if !strings.Contains(out, ` 3 | runtime = ["frobnicate"]`) {
		t.Fatalf("missing source line:\n%s", out)
	}
	if !strings.Contains(out, "   |            ^~~~~~~~~~~~\n") {
		t.Fatalf("underline misplaced:\n%s", out)
	}
	if !strings.Contains(out, "irgen.toml:2:8: NOTE PRJ5003: in this unit") {
		t.Fatalf("missing note:\n%s", out)
	}
	if !strings.Contains(out, "ERROR IRG1002: no position\n") {
		t.Fatalf("diagnostic without a span should print its header:\n%s", out)
	}
}

func TestPrettyMax(t *testing.T) {
	fs, diags := fixture(t)
	var buf bytes.Buffer
	Pretty(&buf, diags, fs, PrettyOpts{Max: 1})
	if !strings.Contains(buf.String(), "... 1 more diagnostics") {
		t.Fatalf("expected a truncation line:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	fs, diags := fixture(t)
	var buf bytes.Buffer
	err := JSON(&buf, []Group{{Unit: "core", Items: diags}}, fs, JSONOpts{
		IncludePositions: true,
		IncludeNotes:     true,
		PathMode:         PathModeBasename,
	})
	if err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Unit != "core" || first.Code != "PRJ5003" || first.Location.File != "irgen.toml" {
		t.Fatalf("unexpected diagnostic %+v", first)
	}
	if first.Location.StartLine != 3 || first.Location.StartCol != 12 || len(first.Notes) != 1 {
		t.Fatalf("unexpected location %+v", first)
	}
	if out.Diagnostics[1].Location.File != "" {
		t.Fatal("unknown spans should have no file")
	}
}

func TestParsePathMode(t *testing.T) {
	for in, want := range map[string]PathMode{"": PathModeAuto, "abs": PathModeAbsolute, "relative": PathModeRelative, "basename": PathModeBasename} {
		got, err := ParsePathMode(in)
		if err != nil || got != want {
			t.Errorf("ParsePathMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParsePathMode("weird"); err == nil {
		t.Fatal("expected an error")
	}
	if got := formatPath("/a/b/c.toml", PathModeAuto, "/x"); got != "/a/b/c.toml" {
		t.Fatalf("auto mode outside base = %q", got)
	}
}

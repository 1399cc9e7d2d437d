package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"irgen/internal/abi"
	"irgen/internal/autolink"
	"irgen/internal/layout"
	"irgen/internal/project"
	"irgen/internal/rtfunc"
)

func TestRenderLayouts(t *testing.T) {
	var buf bytes.Buffer
	renderLayouts(&buf, abi.NewTable(layout.X86_64LinuxGNU()))
	out := buf.String()
	if !strings.Contains(out, "x86_64-unknown-linux-gnu") {
		t.Fatalf("missing triple:\n%s", out)
	}
	var refcounted string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "%rt.refcounted ") {
			refcounted = line
		}
	}
	if refcounted == "" {
		t.Fatalf("rt.refcounted row missing:\n%s", out)
	}
	if fields := strings.Fields(refcounted); len(fields) < 5 || fields[2] != "16" || fields[3] != "8" {
		t.Fatalf("unexpected refcounted row %q", refcounted)
	}
	if !strings.Contains(out, "opaque") {
		t.Fatal("opaque structs should be listed")
	}
}

func TestRenderRuntime(t *testing.T) {
	var buf bytes.Buffer
	renderRuntime(&buf, rtfunc.Descriptors())
	out := buf.String()
	for _, want := range []string{"rt_retain", "objc_msgSend", "allocBox"} {
		if !strings.Contains(out, want) {
			t.Errorf("runtime listing lacks %q", want)
		}
	}
	if lines := strings.Count(out, "\n"); lines != len(rtfunc.Descriptors()) {
		t.Fatalf("expected one line per descriptor, got %d", lines)
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}

func newEmitFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "emit"}
	addEmitFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestApplyOverridesRejectsBadValues(t *testing.T) {
	m := &project.Manifest{}
	if err := applyOverrides(newEmitFlags(t, "--opt-level=7"), m); err == nil {
		t.Fatal("expected an error for --opt-level=7")
	}
	if err := applyOverrides(newEmitFlags(t, "--dedup=never"), m); err == nil {
		t.Fatal("expected an error for --dedup=never")
	}
}

func TestApplyOverrides(t *testing.T) {
	m := &project.Manifest{Options: project.Options{OptLevel: 1, DebugInfo: true}}
	cmd := newEmitFlags(t, "--opt-level=3", "--dedup=identity")
	if err := applyOverrides(cmd, m); err != nil {
		t.Fatalf("applyOverrides: %v", err)
	}
	if m.Options.OptLevel != 3 || m.Options.Dedup != autolink.DedupByIdentity {
		t.Fatalf("overrides not applied: %+v", m.Options)
	}
	if !m.Options.DebugInfo {
		t.Fatal("unset flags must not override the manifest")
	}
}

func TestEmitCommand(t *testing.T) {
	dir := t.TempDir()
	manifest := `
[project]
name = "cli"
output = "out"

[[unit]]
name = "core"
runtime = ["retain"]
`
	if err := os.WriteFile(filepath.Join(dir, project.ManifestName), []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"emit", "--ui=off", "--color=off", dir})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("emit: %v\n%s", err, out.String())
	}
	exitCleanup()
	if _, err := os.Stat(filepath.Join(dir, "out", "core.ll")); err != nil {
		t.Fatalf("core.ll not written: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "wrote") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	info := versionInfo{Version: "1.2.3", GitCommit: "abc"}
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true}); err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Tool != "irgen" || payload.Version != "1.2.3" || payload.GitCommit != "abc" || payload.BuildDate != "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"irgen/internal/autolink"
	"irgen/internal/diag"
	"irgen/internal/layout"
	"irgen/internal/rtfunc"
	"irgen/internal/source"
)

// ErrInvalidManifest is returned when validation reported errors.
var ErrInvalidManifest = errors.New("invalid manifest")

// Options mirrors the [options] table.
type Options struct {
	OptLevel      int
	DisableFPElim bool
	DebugInfo     bool
	Dedup         autolink.DedupPolicy
}

// Unit is one [[unit]] entry.
type Unit struct {
	Name    string
	Runtime []rtfunc.ID
	Links   []*autolink.Library
	Used    []string
	Span    source.Span
}

// Manifest is a decoded and validated irgen.toml.
type Manifest struct {
	Path    string
	Root    string
	Name    string
	Output  string
	Target  layout.Target
	Options Options
	Units   []Unit
	File    source.FileID
	Hash    Digest
}

type manifestFile struct {
	Project struct {
		Name   string `toml:"name"`
		Output string `toml:"output"`
	} `toml:"project"`
	Target struct {
		Preset     string `toml:"preset"`
		Triple     string `toml:"triple"`
		DataLayout string `toml:"datalayout"`
	} `toml:"target"`
	Options struct {
		OptLevel      int    `toml:"opt-level"`
		DisableFPElim bool   `toml:"disable-fp-elim"`
		DebugInfo     bool   `toml:"debug-info"`
		Dedup         string `toml:"dedup"`
	} `toml:"options"`
	Units []unitFile `toml:"unit"`
}

type unitFile struct {
	Name    string     `toml:"name"`
	Runtime []string   `toml:"runtime"`
	Link    []linkFile `toml:"link"`
	Used    []string   `toml:"used"`
}

type linkFile struct {
	Kind string `toml:"kind"`
	Name string `toml:"name"`
}

type loader struct {
	fs     *source.FileSet
	file   source.FileID
	r      diag.Reporter
	errors int
}

func (l *loader) errorf(code diag.Code, needle, format string, args ...any) {
	sp := source.Span{File: l.file}
	if needle != "" {
		if found, ok := l.fs.Find(l.file, 0, needle); ok {
			sp = found
		}
	}
	l.errorAt(code, sp, format, args...)
}

func (l *loader) errorAt(code diag.Code, sp source.Span, format string, args ...any) {
	l.errors++
	l.r.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), nil)
}

// Load reads and validates the manifest at path. Parse failures are
// returned as errors; validation problems are reported to r with positions
// in the manifest and make Load return ErrInvalidManifest.
func Load(fs *source.FileSet, path string, r diag.Reporter) (*Manifest, error) {
	if r == nil {
		r = diag.NopReporter{}
	}
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file := fs.Get(id)

	var cfg manifestFile
	meta, err := toml.Decode(string(file.Content), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	l := &loader{fs: fs, file: id, r: r}
	m := &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Name:   strings.TrimSpace(cfg.Project.Name),
		Output: strings.TrimSpace(cfg.Project.Output),
		File:   id,
		Hash:   Digest(file.Hash),
	}
	if !meta.IsDefined("project") || m.Name == "" {
		l.errorf(diag.ProjInvalidManifest, "", "missing [project].name")
	}
	if m.Output == "" {
		m.Output = "build"
	}

	m.Target = l.target(meta, cfg)

	m.Options = Options{
		OptLevel:      cfg.Options.OptLevel,
		DisableFPElim: cfg.Options.DisableFPElim,
		DebugInfo:     cfg.Options.DebugInfo,
	}
	if cfg.Options.OptLevel < 0 || cfg.Options.OptLevel > 3 {
		l.errorf(diag.ProjInvalidManifest, "opt-level", "opt-level must be between 0 and 3, got %d", cfg.Options.OptLevel)
	}
	if policy, ok := autolink.ParseDedupPolicy(cfg.Options.Dedup); ok {
		m.Options.Dedup = policy
	} else {
		l.errorf(diag.ProjInvalidManifest, "dedup", "unknown dedup policy %q (expected content|identity)", cfg.Options.Dedup)
	}

	if !meta.IsDefined("unit") || len(cfg.Units) == 0 {
		l.errorf(diag.ProjInvalidManifest, "", "manifest declares no [[unit]]")
	}
	seen := make(map[string]source.Span, len(cfg.Units))
	for _, uf := range cfg.Units {
		if u, ok := l.unit(uf, seen); ok {
			m.Units = append(m.Units, u)
		}
	}

	if l.errors > 0 {
		return m, fmt.Errorf("%s: %w", path, ErrInvalidManifest)
	}
	return m, nil
}

func (l *loader) target(meta toml.MetaData, cfg manifestFile) layout.Target {
	t := cfg.Target
	switch {
	case t.Preset != "":
		mk, ok := layout.Presets()[t.Preset]
		if !ok {
			l.errorf(diag.ProjInvalidTarget, t.Preset, "unknown target preset %q", t.Preset)
			return layout.X86_64LinuxGNU()
		}
		return mk()
	case meta.IsDefined("target", "datalayout"):
		triple := t.Triple
		if triple == "" {
			l.errorf(diag.ProjInvalidTarget, "datalayout", "[target].datalayout requires [target].triple")
		}
		target, err := layout.ParseDataLayout(triple, t.DataLayout)
		if err != nil {
			l.errorf(diag.ProjInvalidTarget, t.DataLayout, "%v", err)
			return layout.X86_64LinuxGNU()
		}
		return target
	case t.Triple != "":
		for _, mk := range layout.Presets() {
			if target := mk(); target.Triple == t.Triple {
				return target
			}
		}
		l.errorf(diag.ProjInvalidTarget, t.Triple, "triple %q has no built-in data layout; set [target].datalayout", t.Triple)
		return layout.X86_64LinuxGNU()
	default:
		return layout.X86_64LinuxGNU()
	}
}

// validUnitName reports whether name can be used as an output file stem
// inside the output directory.
func validUnitName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}

func (l *loader) unit(uf unitFile, seen map[string]source.Span) (Unit, bool) {
	name := strings.TrimSpace(uf.Name)
	if name == "" {
		l.errorf(diag.ProjInvalidManifest, "[[unit]]", "unit without a name")
		return Unit{}, false
	}
	quoted := fmt.Sprintf("%q", name)
	if !validUnitName(name) {
		l.errorf(diag.ProjInvalidUnitName, quoted, "unit name %q must not contain path separators or be . or ..", name)
		return Unit{}, false
	}
	if first, dup := seen[name]; dup {
		sp := first
		if again, ok := l.fs.Find(l.file, first.End, quoted); ok {
			sp = again
		}
		l.errorAt(diag.ProjDuplicateUnit, sp, "unit %q is declared more than once", name)
		return Unit{}, false
	}
	u := Unit{Name: name, Used: uf.Used, Span: source.Span{File: l.file}}
	if sp, ok := l.fs.Find(l.file, 0, quoted); ok {
		u.Span = sp
	}
	seen[name] = u.Span
	for _, fn := range uf.Runtime {
		id, ok := rtfunc.ParseID(fn)
		if !ok {
			l.errorf(diag.ProjUnknownRuntimeFunction, fmt.Sprintf("%q", fn), "unit %q: unknown runtime function %q", name, fn)
			continue
		}
		u.Runtime = append(u.Runtime, id)
	}
	for _, lf := range uf.Link {
		kind, ok := autolink.ParseKind(lf.Kind)
		if !ok {
			l.errorf(diag.ProjInvalidLinkKind, fmt.Sprintf("%q", lf.Kind), "unit %q: unknown link kind %q (expected library|framework)", name, lf.Kind)
			continue
		}
		if strings.TrimSpace(lf.Name) == "" {
			l.errorf(diag.ProjEmptyLinkName, "link", "unit %q: link entry without a name", name)
			continue
		}
		u.Links = append(u.Links, autolink.NewLibrary(kind, strings.TrimSpace(lf.Name)))
	}
	return u, true
}

// OutputDir returns the absolute output directory.
func (m *Manifest) OutputDir() string {
	if filepath.IsAbs(m.Output) {
		return m.Output
	}
	return filepath.Join(m.Root, m.Output)
}

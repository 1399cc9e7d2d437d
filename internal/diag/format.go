package diag

import (
	"fmt"
	"sort"
	"strings"

	"irgen/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShort renders diagnostics one per line as
// "path:line:col: SEVERITY CODE: message", sorted deterministically.
// Diagnostics without a known file render with an empty position.
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		rendered = append(rendered, render(fs, d.Severity.String(), d.Code.ID(), d.Primary, d.Message))
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			rendered = append(rendered, render(fs, "NOTE", d.Code.ID(), n.Span, n.Msg))
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var sb strings.Builder
	for _, d := range rendered {
		if d.Path != "" {
			fmt.Fprintf(&sb, "%s:%d:%d: ", d.Path, d.Line, d.Column)
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", d.Severity, d.Code, d.Message)
	}
	return sb.String()
}

func render(fs *source.FileSet, sev, code string, sp source.Span, msg string) shortDiagnostic {
	out := shortDiagnostic{Severity: sev, Code: code, Message: msg}
	if fs == nil || !sp.Known() {
		return out
	}
	f := fs.Get(sp.File)
	if f == nil {
		return out
	}
	start, _ := fs.Resolve(sp)
	out.Path = f.Path
	out.Line = start.Line
	out.Column = start.Col
	return out
}

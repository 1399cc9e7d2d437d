package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"irgen/internal/diag"
	"irgen/internal/source"
)

// Pretty prints each diagnostic as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with the span underlined as ^~~~, then its
// notes in the same form. Diagnostics without a position print the header
// only.
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	p := printer{w: w, fs: fs, opts: opts}
	n := len(diags)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	for i := range n {
		d := &diags[i]
		p.entry(d.Severity.String(), d.Severity, d.Code.ID(), d.Primary, d.Message)
		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			p.entry("NOTE", diag.SevInfo, d.Code.ID(), note.Span, note.Msg)
		}
	}
	if n < len(diags) {
		fmt.Fprintf(w, "... %d more diagnostics\n", len(diags)-n)
	}
}

type printer struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
}

func (p *printer) paint(c *color.Color, s string) string {
	if !p.opts.Color {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func sevColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

func (p *printer) entry(label string, sev diag.Severity, code string, sp source.Span, msg string) {
	var f *source.File
	if p.fs != nil && sp.Known() {
		f = p.fs.Get(sp.File)
	}
	if f != nil {
		start, _ := p.fs.Resolve(sp)
		fmt.Fprintf(p.w, "%s:%d:%d: ", formatPath(f.Path, p.opts.PathMode, p.opts.BaseDir), start.Line, start.Col)
	}
	fmt.Fprintf(p.w, "%s %s: %s\n", p.paint(sevColor(sev), label), code, msg)
	if f == nil {
		return
	}
	p.snippet(f, sp, sev)
}

func (p *printer) snippet(f *source.File, sp source.Span, sev diag.Severity) {
	start, end := p.fs.Resolve(sp)
	text := strings.ReplaceAll(lineText(f, start.Line), "\t", " ")
	gutter := fmt.Sprintf("%d", start.Line)
	pad := strings.Repeat(" ", len(gutter))

	fmt.Fprintf(p.w, " %s |\n", pad)
	fmt.Fprintf(p.w, " %s | %s\n", gutter, text)

	width := 1
	switch {
	case end.Line == start.Line && end.Col > start.Col:
		width = int(end.Col - start.Col)
	case end.Line > start.Line:
		// underline to the end of the first line
		width = max(1, len(text)-int(start.Col)+1)
	}
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(p.w, " %s | %s%s\n", pad, strings.Repeat(" ", int(start.Col)-1), p.paint(sevColor(sev), marker))
}

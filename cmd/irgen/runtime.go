package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/llir/llvm/ir/enum"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"irgen/internal/abi"
	"irgen/internal/rtfunc"
)

var runtimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "List the runtime support functions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		renderRuntime(cmd.OutOrStdout(), rtfunc.Descriptors())
		return nil
	},
}

func renderRuntime(w io.Writer, descs []rtfunc.Descriptor) {
	nameW, symW := 0, 0
	for _, d := range descs {
		nameW = max(nameW, runewidth.StringWidth(d.ID.String()))
		symW = max(symW, runewidth.StringWidth(d.Symbol))
	}
	for _, d := range descs {
		line := fmt.Sprintf("%s  %s  %s", runewidth.FillRight(d.ID.String(), nameW),
			runewidth.FillRight(d.Symbol, symW), signature(d))
		if len(d.Attrs) > 0 {
			attrs := make([]string, len(d.Attrs))
			for i, a := range d.Attrs {
				attrs[i] = fmt.Sprint(a)
			}
			line += "  " + dimStyle.Render(strings.Join(attrs, " "))
		}
		if d.CC != enum.CallingConvC {
			line += "  " + dimStyle.Render("cc="+fmt.Sprint(d.CC))
		}
		fmt.Fprintln(w, line)
	}
}

func signature(d rtfunc.Descriptor) string {
	ret := "void"
	switch len(d.Returns) {
	case 0:
	case 1:
		ret = d.Returns[0].String()
	default:
		ret = "{" + joinRefs(d.Returns) + "}"
	}
	return ret + " (" + joinRefs(d.Args) + ")"
}

func joinRefs(refs []abi.TypeRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

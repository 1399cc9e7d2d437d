package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"irgen/internal/abi"
	"irgen/internal/layout"
)

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "Print the runtime ABI structs for a target",
	Long:  "Print every runtime ABI struct with its size, alignment and field offsets for the selected target.",
	Args:  cobra.NoArgs,
	RunE:  layoutsExecution,
}

func init() {
	layoutsCmd.Flags().String("target", "x86_64", "target preset ("+strings.Join(presetNames(), "|")+")")
	layoutsCmd.Flags().String("triple", "", "target triple used with --datalayout")
	layoutsCmd.Flags().String("datalayout", "", "LLVM data-layout string (overrides --target)")
}

func presetNames() []string {
	names := make([]string, 0, len(layout.Presets()))
	for name := range layout.Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func layoutsExecution(cmd *cobra.Command, args []string) error {
	target, err := targetFromFlags(cmd)
	if err != nil {
		return err
	}
	tbl := abi.NewTable(target)
	renderLayouts(cmd.OutOrStdout(), tbl)
	return nil
}

func targetFromFlags(cmd *cobra.Command) (layout.Target, error) {
	dl, err := cmd.Flags().GetString("datalayout")
	if err != nil {
		return layout.Target{}, err
	}
	if dl != "" {
		triple, err := cmd.Flags().GetString("triple")
		if err != nil {
			return layout.Target{}, err
		}
		return layout.ParseDataLayout(triple, dl)
	}
	preset, err := cmd.Flags().GetString("target")
	if err != nil {
		return layout.Target{}, err
	}
	mk, ok := layout.Presets()[preset]
	if !ok {
		return layout.Target{}, errInvalidFlag("--target", preset, strings.Join(presetNames(), "|"))
	}
	return mk(), nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

type layoutRow struct {
	name, entity, size, align, offsets string
}

func renderLayouts(w io.Writer, tbl *abi.Table) {
	target := tbl.Target()
	fmt.Fprintln(w, headerStyle.Render(target.Triple))
	fmt.Fprintln(w, dimStyle.Render(target.DataLayout))
	fmt.Fprintln(w)

	rows := []layoutRow{{"type", "entity", "size", "align", "field offsets"}}
	for _, s := range tbl.Structs() {
		row := layoutRow{name: "%" + s.Name(), entity: s.Entity().String()}
		if s.State() != abi.StateDefined {
			row.size, row.align, row.offsets = "-", "-", "opaque"
		} else {
			l := s.Layout()
			row.size = strconv.Itoa(l.Size)
			row.align = strconv.Itoa(l.Align)
			offs := make([]string, len(l.FieldOffsets))
			for i, off := range l.FieldOffsets {
				offs[i] = strconv.Itoa(off)
			}
			row.offsets = strings.Join(offs, " ")
		}
		rows = append(rows, row)
	}

	nameW, entityW := 0, 0
	for _, r := range rows {
		nameW = max(nameW, runewidth.StringWidth(r.name))
		entityW = max(entityW, runewidth.StringWidth(r.entity))
	}
	for i, r := range rows {
		line := fmt.Sprintf("%s  %s  %5s  %5s  %s",
			runewidth.FillRight(r.name, nameW),
			runewidth.FillRight(r.entity, entityW),
			r.size, r.align, r.offsets)
		if i == 0 {
			line = headerStyle.Render(line)
		}
		fmt.Fprintln(w, line)
	}
}

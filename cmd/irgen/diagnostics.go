package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"irgen/internal/buildpipeline"
	"irgen/internal/diag"
	"irgen/internal/diagfmt"
	"irgen/internal/source"
)

// reportDiagnostics prints groups in the format selected by --diag-format.
func reportDiagnostics(cmd *cobra.Command, fs *source.FileSet, baseDir string, groups []diagfmt.Group) error {
	flags := cmd.Root().PersistentFlags()
	format, err := flags.GetString("diag-format")
	if err != nil {
		return err
	}
	pathModeStr, err := flags.GetString("path-mode")
	if err != nil {
		return err
	}
	pathMode, err := diagfmt.ParsePathMode(pathModeStr)
	if err != nil {
		return err
	}
	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return err
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr))

	w := cmd.ErrOrStderr()
	switch format {
	case "json":
		return diagfmt.JSON(cmd.OutOrStdout(), groups, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
			PathMode:         pathMode,
			BaseDir:          baseDir,
			Max:              maxDiagnostics,
		})
	case "pretty":
		for _, g := range groups {
			if len(g.Items) == 0 {
				continue
			}
			if g.Unit != "" {
				fmt.Fprintf(w, "unit %s:\n", g.Unit)
			}
			diagfmt.Pretty(w, g.Items, fs, diagfmt.PrettyOpts{
				Color:     useColor,
				PathMode:  pathMode,
				BaseDir:   baseDir,
				ShowNotes: true,
				Max:       maxDiagnostics,
			})
		}
		return nil
	case "short":
		for _, g := range groups {
			if len(g.Items) == 0 {
				continue
			}
			if g.Unit != "" {
				fmt.Fprintf(w, "unit %s:\n", g.Unit)
			}
			fmt.Fprint(w, diag.FormatShort(g.Items, fs, true))
		}
		return nil
	default:
		return errInvalidFlag("--diag-format", format, "pretty|short|json")
	}
}

func unitGroups(res buildpipeline.Result) []diagfmt.Group {
	groups := make([]diagfmt.Group, 0, len(res.Units))
	for _, u := range res.Units {
		if u.Bag == nil || u.Bag.Len() == 0 {
			continue
		}
		u.Bag.Sort()
		groups = append(groups, diagfmt.Group{Unit: u.Name, Items: u.Bag.Items()})
	}
	return groups
}

// jsonDiagnostics reports whether stdout is reserved for JSON diagnostics.
func jsonDiagnostics(cmd *cobra.Command) bool {
	format, err := cmd.Root().PersistentFlags().GetString("diag-format")
	return err == nil && format == "json"
}

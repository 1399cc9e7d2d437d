package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"irgen/internal/autolink"
	"irgen/internal/buildpipeline"
	"irgen/internal/diag"
	"irgen/internal/diagfmt"
	"irgen/internal/project"
	"irgen/internal/source"
	"irgen/internal/version"
)

var emitCmd = &cobra.Command{
	Use:   "emit [flags] [path]",
	Short: "Build every unit of an irgen.toml project",
	Long:  "Build every unit listed in irgen.toml, writing <unit>.ll and <unit>.summary.mp to the output directory.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  emitExecution,
}

func init() {
	addEmitFlags(emitCmd)
}

func addEmitFlags(cmd *cobra.Command) {
	cmd.Flags().Int("jobs", 0, "units built in parallel (0 = GOMAXPROCS)")
	cmd.Flags().String("out", "", "output directory (default: [project].output)")
	cmd.Flags().Int("opt-level", 0, "optimization level recorded for the provider (0-3)")
	cmd.Flags().Bool("debug-info", false, "attach debug-info module flags")
	cmd.Flags().Bool("disable-fp-elim", false, "keep frame pointers")
	cmd.Flags().String("dedup", "content", "autolink dedup policy (content|identity)")
	cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	cmd.Flags().Bool("force", false, "rebuild units even when their summaries are fresh")
}

var (
	okColor     = color.New(color.FgGreen, color.Bold)
	cachedColor = color.New(color.FgBlue)
	failColor   = color.New(color.FgRed, color.Bold)
)

func emitExecution(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	arg := "."
	if len(args) == 1 {
		arg = args[0]
	}
	manifestPath, err := project.ResolveManifest(arg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fs := source.NewFileSet()
	loadBag := diag.NewBag(maxDiagnostics)
	m, err := project.Load(fs, manifestPath, diag.BagReporter{Bag: loadBag})
	if err != nil {
		if loadBag.Len() > 0 {
			loadBag.Sort()
			if repErr := reportDiagnostics(cmd, fs, filepath.Dir(manifestPath), []diagfmt.Group{{Items: loadBag.Items()}}); repErr != nil {
				return repErr
			}
		}
		return err
	}
	if err := applyOverrides(cmd, m); err != nil {
		return err
	}

	req := &buildpipeline.Request{
		Manifest:       m,
		OutDir:         outDir,
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
		Force:          force,
		Salt:           version.Version,
		Producer:       "irgen " + version.Version,
	}

	var res buildpipeline.Result
	if shouldUseTUI(uiModeValue) && !quiet(cmd) && len(m.Units) > 0 {
		names := make([]string, 0, len(m.Units))
		for _, u := range m.Units {
			names = append(names, u.Name)
		}
		res, err = runBuildWithUI(cmd.Context(), "irgen emit "+m.Name, names, req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
	}

	if repErr := reportDiagnostics(cmd, fs, m.Root, unitGroups(res)); repErr != nil {
		return repErr
	}
	if !quiet(cmd) && !jsonDiagnostics(cmd) {
		printUnitResults(out, res)
		printStageTimings(out, res.Timings)
	}
	if err != nil {
		if errors.Is(err, buildpipeline.ErrUnitsFailed) {
			return fmt.Errorf("%d of %d units failed", res.Failed, len(res.Units))
		}
		return err
	}
	return nil
}

// applyOverrides copies explicitly set flags over the manifest options.
func applyOverrides(cmd *cobra.Command, m *project.Manifest) error {
	flags := cmd.Flags()
	if flags.Changed("opt-level") {
		level, err := flags.GetInt("opt-level")
		if err != nil {
			return err
		}
		if level < 0 || level > 3 {
			return errInvalidFlag("--opt-level", fmt.Sprint(level), "0-3")
		}
		m.Options.OptLevel = level
	}
	if flags.Changed("debug-info") {
		v, err := flags.GetBool("debug-info")
		if err != nil {
			return err
		}
		m.Options.DebugInfo = v
	}
	if flags.Changed("disable-fp-elim") {
		v, err := flags.GetBool("disable-fp-elim")
		if err != nil {
			return err
		}
		m.Options.DisableFPElim = v
	}
	if flags.Changed("dedup") {
		v, err := flags.GetString("dedup")
		if err != nil {
			return err
		}
		policy, ok := autolink.ParseDedupPolicy(v)
		if !ok {
			return errInvalidFlag("--dedup", v, "content|identity")
		}
		m.Options.Dedup = policy
	}
	return nil
}

func printUnitResults(w io.Writer, res buildpipeline.Result) {
	for _, u := range res.Units {
		switch {
		case u.Failed():
			reason := "diagnostics reported errors"
			if u.Err != nil {
				reason = u.Err.Error()
			}
			fmt.Fprintf(w, "%s %s: %s\n", failColor.Sprint("failed"), u.Name, reason)
		case u.Cached:
			fmt.Fprintf(w, "%s %s\n", cachedColor.Sprint("cached"), formatPathForOutput(res.OutDir, u.Output))
		default:
			fmt.Fprintf(w, "%s  %s (%d runtime, %d link)\n", okColor.Sprint("wrote"),
				formatPathForOutput(res.OutDir, u.Output), len(u.Summary.Runtime), len(u.Summary.LinkOptions))
		}
	}
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

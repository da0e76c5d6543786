package commands

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/apilevel/apilevel/internal/api"
	"github.com/apilevel/apilevel/internal/cli/config"
	"github.com/apilevel/apilevel/internal/compat"
	"github.com/apilevel/apilevel/internal/report"
	"github.com/apilevel/apilevel/internal/session"
	"github.com/apilevel/apilevel/internal/snapshot"
)

// NewDiffCommand creates the diff command
func NewDiffCommand() *cobra.Command {
	var (
		fixturesDir string
		pattern     string
		prefix      string
		verbose     bool
		noColor     bool
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare two metadata snapshots",
		Long: `Compare two metadata snapshots and report incompatible changes.

Each argument is either an archived level number or the path to a msgpack
metadata dump. Signatures are normalized before comparison, so renamed type
tokens and parameter names never count as differences. Members that only
exist in the newer snapshot are listed separately; additions are not
violations.

Examples:
  # What broke between two archived levels?
  apilevel diff 10 11

  # Compare the newest archive against a fresh dump
  apilevel diff 11 api_info.mpack
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if fixturesDir != "" {
				cfg.Fixtures.Dir = fixturesDir
			}
			if pattern != "" {
				cfg.Fixtures.Pattern = pattern
			}
			if prefix != "" {
				cfg.API.Prefix = prefix
			}

			store := snapshot.NewStore(cfg.Fixtures.Dir, cfg.Fixtures.Pattern)

			before, beforeLabel, beforeLevel, err := resolveSnapshot(cmd, store, args[0])
			if err != nil {
				return err
			}
			after, afterLabel, _, err := resolveSnapshot(cmd, store, args[1])
			if err != nil {
				return err
			}

			norm := compat.NewNormalizer(cfg.API.Prefix)
			violations := diffSnapshots(norm, before, after, beforeLevel, afterLabel)
			added := addedMembers(before, after)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "comparing %s against %s\n\n", beforeLabel, afterLabel)

			if len(violations) == 0 {
				color.New(color.FgGreen, color.Bold).Fprintf(out, "✓ no incompatible changes\n")
			} else {
				color.New(color.FgRed, color.Bold).Fprintf(out, "❌ %d incompatible change%s\n\n", len(violations), plural(len(violations)))
				report.WriteViolations(out, violations, noColor, verbose)
			}

			if len(added) > 0 {
				fmt.Fprintf(out, "\n%d member%s only in %s:\n", len(added), plural(len(added)), afterLabel)
				for _, name := range added {
					fmt.Fprintf(out, "  + %s\n", name)
				}
			}

			if len(violations) > 0 {
				return fmt.Errorf("found %d incompatible change%s", len(violations), plural(len(violations)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fixturesDir, "fixtures", "", "Directory holding the archived metadata (overrides config)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Archive file name pattern (overrides config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Reserved API name prefix (overrides config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include signature diffs in the output")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

// resolveSnapshot loads one diff argument, which is either an archived level
// number or the path to a metadata dump file.
func resolveSnapshot(cmd *cobra.Command, store *snapshot.Store, arg string) (*api.Metadata, string, int, error) {
	if level, err := strconv.Atoi(arg); err == nil {
		meta, err := store.Load(level)
		if err != nil {
			return nil, "", 0, err
		}
		return meta, fmt.Sprintf("level %d", level), level, nil
	}

	src := &session.File{Path: arg}
	meta, err := src.Fetch(cmd.Context())
	if err != nil {
		return nil, "", 0, err
	}
	return meta, arg, meta.Version.APILevel, nil
}

// diffSnapshots runs the member comparators over every function, UI event,
// and UI option of the older snapshot.
func diffSnapshots(norm *compat.Normalizer, before, after *api.Metadata, beforeLevel int, afterLabel string) []compat.Violation {
	var violations []compat.Violation

	afterFuncs := after.FunctionsByName()
	for _, fn := range before.Functions {
		live, ok := afterFuncs[fn.Name]
		if !ok {
			violations = append(violations, compat.Violation{
				Kind:    compat.FunctionRemoved,
				Subject: fn.Name,
				Levels:  []int{beforeLevel},
				Message: fmt.Sprintf("not present in %s", afterLabel),
			})
			continue
		}
		if v := compat.CompareFunctions(norm, fn, live, beforeLevel); v != nil {
			violations = append(violations, *v)
		}
	}

	afterEvents := after.UIEventsByName()
	for _, ev := range before.UIEvents {
		live, ok := afterEvents[ev.Name]
		if !ok {
			violations = append(violations, compat.Violation{
				Kind:    compat.EventRemoved,
				Subject: ev.Name,
				Levels:  []int{beforeLevel},
				Message: fmt.Sprintf("not present in %s", afterLabel),
			})
			continue
		}
		if v := compat.CompareEvents(ev, live, beforeLevel); v != nil {
			violations = append(violations, *v)
		}
	}

	return append(violations, compat.CompareOptions(before.UIOptions, after.UIOptions, beforeLevel)...)
}

// addedMembers lists names that exist only in the newer snapshot, functions
// first, then UI events, then UI options.
func addedMembers(before, after *api.Metadata) []string {
	beforeFuncs := before.FunctionsByName()
	beforeEvents := before.UIEventsByName()

	added := lo.FilterMap(after.Functions, func(f api.Function, _ int) (string, bool) {
		_, known := beforeFuncs[f.Name]
		return f.Name, !known
	})
	added = append(added, lo.FilterMap(after.UIEvents, func(e api.UIEvent, _ int) (string, bool) {
		_, known := beforeEvents[e.Name]
		return e.Name, !known
	})...)
	return append(added, lo.Without(after.UIOptions, before.UIOptions...)...)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

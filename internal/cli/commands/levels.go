package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/apilevel/apilevel/internal/cli/config"
	"github.com/apilevel/apilevel/internal/cli/ui"
	"github.com/apilevel/apilevel/internal/snapshot"
)

// NewLevelsCommand creates the levels command
func NewLevelsCommand() *cobra.Command {
	var (
		fixturesDir string
		pattern     string
		noColor     bool
	)

	cmd := &cobra.Command{
		Use:   "levels",
		Short: "List the archived API levels",
		Long: `List every API level that has an archived metadata fixture.

Each archive is decoded so the listing can show how many functions,
UI events, and UI options the level published. Unreadable archives are
reported below the table.`,
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

			store := snapshot.NewStore(cfg.Fixtures.Dir, cfg.Fixtures.Pattern)
			levels, err := store.Levels()
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", cfg.Fixtures.Dir, err)
			}

			out := cmd.OutOrStdout()
			if len(levels) == 0 {
				fmt.Fprintf(out, "no archives matching %s in %s\n", cfg.Fixtures.Pattern, cfg.Fixtures.Dir)
				return nil
			}

			color.New(color.FgCyan, color.Bold).Fprintf(out, "Archived API levels in %s:\n\n", cfg.Fixtures.Dir)

			table := ui.NewTable(out, []string{"LEVEL", "ARCHIVE", "FUNCTIONS", "UI EVENTS", "UI OPTIONS"}, noColor)
			unreadable := make(map[int]error)
			for _, level := range levels {
				name := filepath.Base(store.Path(level))
				meta, err := store.Load(level)
				if err != nil {
					unreadable[level] = err
					table.AddRow(strconv.Itoa(level), name, "-", "-", "-")
					continue
				}
				table.AddRow(strconv.Itoa(level), name,
					strconv.Itoa(len(meta.Functions)),
					strconv.Itoa(len(meta.UIEvents)),
					strconv.Itoa(len(meta.UIOptions)))
			}
			table.Render()

			for _, level := range levels {
				if err, ok := unreadable[level]; ok {
					fmt.Fprintf(out, "\nlevel %d is unreadable: %v\n", level, err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&fixturesDir, "fixtures", "", "Directory holding the archived metadata (overrides config)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Archive file name pattern (overrides config)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

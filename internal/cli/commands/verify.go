package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apilevel/apilevel/internal/cli/config"
	"github.com/apilevel/apilevel/internal/compat"
	"github.com/apilevel/apilevel/internal/report"
	"github.com/apilevel/apilevel/internal/session"
	"github.com/apilevel/apilevel/internal/snapshot"
	"github.com/apilevel/apilevel/internal/watch"
)

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	var (
		metadataPath string
		commandLine  string
		fixturesDir  string
		pattern      string
		prefix       string
		format       string
		compact      bool
		verbose      bool
		noColor      bool
		watchMode    bool
		debug        bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the live API against all archived levels",
		Long: `Verify that the live API is backward-compatible with every archived level.

The verify command queries the configured binary for its current metadata,
loads the archived metadata for every level in the supported range, and
checks that no function, UI event, or UI option regressed. It also validates
the since value of every member that is newer than the last stable level.

The supported range runs from the compatible level the binary reports up to
the current level. A missing archive inside that range aborts verification.

Examples:
  # Verify the binary from apilevel.yml (nvim --api-info by default)
  apilevel verify

  # Verify a pre-captured metadata dump instead of running the binary
  apilevel verify --metadata api_info.mpack

  # Query a different binary
  apilevel verify --command "build/bin/nvim --api-info"

  # Machine-readable report for CI
  apilevel verify --format json

  # Re-verify whenever an archive fixture changes
  apilevel verify --watch
`,
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

			logger := zap.NewNop()
			if debug {
				logger, err = zap.NewDevelopment()
				if err != nil {
					return fmt.Errorf("failed to create logger: %w", err)
				}
				defer logger.Sync()
			}

			writer, err := newReportWriter(format, compact, verbose, noColor)
			if err != nil {
				return err
			}

			source, err := newMetadataSource(cfg, metadataPath, commandLine, logger)
			if err != nil {
				return err
			}

			store := snapshot.NewStore(cfg.Fixtures.Dir, cfg.Fixtures.Pattern)
			verifier := compat.NewVerifier(store, cfg.API.Prefix, logger)
			out := cmd.OutOrStdout()

			runOnce := func(ctx context.Context) (*compat.Report, error) {
				live, err := source.Fetch(ctx)
				if err != nil {
					return nil, err
				}
				rep, err := verifier.Run(ctx, live)
				if err != nil {
					return nil, err
				}
				if err := writer.Write(out, rep); err != nil {
					return nil, err
				}
				return rep, nil
			}

			ctx := cmd.Context()

			if !watchMode {
				rep, err := runOnce(ctx)
				if err != nil {
					return err
				}
				if !rep.OK() {
					if len(rep.Violations) == 1 {
						return fmt.Errorf("found 1 compatibility violation")
					}
					return fmt.Errorf("found %d compatibility violations", len(rep.Violations))
				}
				return nil
			}

			// Watch mode: verify now, then re-verify whenever an archive changes.
			// Failed runs are reported but keep the watcher alive.
			if _, err := runOnce(ctx); err != nil {
				color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "verification failed: %v\n", err)
			}

			watcher, err := watch.NewWatcher([]string{cfg.Fixtures.Dir}, cfg.Fixtures.Pattern, func(files []string) error {
				fmt.Fprintf(out, "\narchive change detected (%s), re-verifying\n\n", strings.Join(files, ", "))
				if _, err := runOnce(ctx); err != nil {
					color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "verification failed: %v\n", err)
				}
				return nil
			}, logger)
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}

			if err := watcher.Start(); err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "\nWatching %s for archive changes. Press Ctrl+C to stop\n", cfg.Fixtures.Dir)

			<-sigChan

			return watcher.Stop()
		},
	}

	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Verify a metadata dump file instead of querying the binary")
	cmd.Flags().StringVar(&commandLine, "command", "", "Override the command used to query the live binary")
	cmd.Flags().StringVar(&fixturesDir, "fixtures", "", "Directory holding the archived metadata (overrides config)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Archive file name pattern (overrides config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Reserved API name prefix (overrides config)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Report format: text or json")
	cmd.Flags().BoolVar(&compact, "compact", false, "Single-line JSON output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include signature diffs in the report")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Re-verify whenever an archive changes")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	return cmd
}

// newMetadataSource picks where the live metadata comes from: an explicit
// dump file, an overridden command line, or the configured binary.
func newMetadataSource(cfg *config.Config, metadataPath, commandLine string, logger *zap.Logger) (session.Source, error) {
	if metadataPath != "" {
		return &session.File{Path: metadataPath}, nil
	}
	if commandLine != "" {
		words, err := shellquote.Split(commandLine)
		if err != nil {
			return nil, fmt.Errorf("invalid --command %q: %w", commandLine, err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("invalid --command %q: no command given", commandLine)
		}
		return session.NewCommand(words[0], words[1:], logger), nil
	}
	return session.NewCommand(cfg.Binary.Path, cfg.Binary.Args, logger), nil
}

// newReportWriter selects the report renderer for the requested format.
func newReportWriter(format string, compact, verbose, noColor bool) (report.Writer, error) {
	switch format {
	case "text":
		return &report.Text{NoColor: noColor, Verbose: verbose}, nil
	case "json":
		return &report.JSON{Compact: compact}, nil
	}
	return nil, fmt.Errorf("unknown report format %q (expected text or json)", format)
}

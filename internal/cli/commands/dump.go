package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/apilevel/apilevel/internal/api"
	"github.com/apilevel/apilevel/internal/cli/config"
	"github.com/apilevel/apilevel/internal/snapshot"
)

// NewDumpCommand creates the dump command
func NewDumpCommand() *cobra.Command {
	var (
		metadataPath string
		commandLine  string
		level        int
		fixturesDir  string
		pattern      string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print API metadata in a readable format",
		Long: `Print API metadata as YAML or JSON.

By default the configured binary is queried for its live metadata. Use
--metadata to read a pre-captured msgpack dump, or --level to print an
archived fixture instead. Level 0 archives are shown with the legacy
flags already scrubbed, exactly as the verifier sees them.

Examples:
  # Dump the live metadata of the configured binary
  apilevel dump

  # Inspect the archived level 7 fixture
  apilevel dump --level 7

  # Convert a captured msgpack dump to JSON
  apilevel dump --metadata api_info.mpack --format json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			var meta *api.Metadata
			if level >= 0 {
				store := snapshot.NewStore(cfg.Fixtures.Dir, cfg.Fixtures.Pattern)
				meta, err = store.Load(level)
			} else {
				src, srcErr := newMetadataSource(cfg, metadataPath, commandLine, zap.NewNop())
				if srcErr != nil {
					return srcErr
				}
				meta, err = src.Fetch(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(meta); err != nil {
					return fmt.Errorf("failed to encode metadata: %w", err)
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(meta)
			}
			return fmt.Errorf("unknown dump format %q (expected yaml or json)", format)
		},
	}

	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Read a metadata dump file instead of querying the binary")
	cmd.Flags().StringVar(&commandLine, "command", "", "Override the command used to query the live binary")
	cmd.Flags().IntVar(&level, "level", -1, "Print the archived fixture for this level")
	cmd.Flags().StringVar(&fixturesDir, "fixtures", "", "Directory holding the archived metadata (overrides config)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Archive file name pattern (overrides config)")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")

	return cmd
}

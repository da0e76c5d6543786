package commands

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/apilevel/apilevel/internal/cli/config"
)

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	var (
		useDefaults bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an apilevel.yml in the current directory",
		Long: `Create an apilevel.yml configuration file.

Prompts for the command that dumps the API metadata, the fixtures
directory, and the reserved API prefix. Use --defaults to write the
standard nvim configuration without prompting.

Examples:
  apilevel init
  apilevel init --defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, useDefaults, force)
		},
	}

	cmd.Flags().BoolVar(&useDefaults, "defaults", false, "Write the default configuration without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing apilevel.yml")

	return cmd
}

func runInit(cmd *cobra.Command, useDefaults, force bool) error {
	if _, err := os.Stat("apilevel.yml"); err == nil && !force {
		if useDefaults {
			return fmt.Errorf("apilevel.yml already exists (use --force to overwrite)")
		}
		overwrite := false
		prompt := &survey.Confirm{
			Message: "apilevel.yml already exists. Overwrite?",
			Default: false,
		}
		if err := survey.AskOne(prompt, &overwrite); err != nil {
			return err
		}
		if !overwrite {
			return nil
		}
	}

	cfg := &config.Config{
		API:      config.APIConfig{Prefix: "nvim_"},
		Binary:   config.BinaryConfig{Path: "nvim", Args: []string{"--api-info"}},
		Fixtures: config.FixturesConfig{Dir: "test/functional/fixtures", Pattern: "api_level_*.mpack"},
	}

	if !useDefaults {
		questions := []*survey.Question{
			{
				Name: "command",
				Prompt: &survey.Input{
					Message: "Command that prints the API metadata:",
					Default: "nvim --api-info",
				},
				Validate: survey.Required,
			},
			{
				Name: "fixtures",
				Prompt: &survey.Input{
					Message: "Directory holding the archived metadata:",
					Default: cfg.Fixtures.Dir,
				},
				Validate: survey.Required,
			},
			{
				Name: "pattern",
				Prompt: &survey.Input{
					Message: "Archive file name pattern:",
					Default: cfg.Fixtures.Pattern,
				},
				Validate: func(ans interface{}) error {
					s, _ := ans.(string)
					if strings.Count(s, "*") != 1 {
						return fmt.Errorf("pattern must contain exactly one '*'")
					}
					return nil
				},
			},
			{
				Name: "prefix",
				Prompt: &survey.Input{
					Message: "Reserved API name prefix:",
					Default: cfg.API.Prefix,
				},
				Validate: survey.Required,
			},
		}

		answers := struct {
			Command  string
			Fixtures string
			Pattern  string
			Prefix   string
		}{}

		if err := survey.Ask(questions, &answers); err != nil {
			return err
		}

		words, err := shellquote.Split(answers.Command)
		if err != nil {
			return fmt.Errorf("invalid command %q: %w", answers.Command, err)
		}
		if len(words) == 0 {
			return fmt.Errorf("invalid command %q: no command given", answers.Command)
		}

		cfg.Binary.Path = words[0]
		cfg.Binary.Args = words[1:]
		cfg.Fixtures.Dir = answers.Fixtures
		cfg.Fixtures.Pattern = answers.Pattern
		cfg.API.Prefix = answers.Prefix
	}

	var buf bytes.Buffer
	buf.WriteString("# apilevel configuration\n")
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	buf.Write(data)

	if err := os.WriteFile("apilevel.yml", buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write apilevel.yml: %w", err)
	}

	color.New(color.FgGreen, color.Bold).Fprintln(cmd.OutOrStdout(), "✓ Created apilevel.yml")
	return nil
}

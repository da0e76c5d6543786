package commands

import (
	"testing"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "apilevel" {
		t.Errorf("expected Use to be 'apilevel', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if cmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	// Check subcommands are registered
	expectedCommands := []string{
		"version",
		"verify",
		"dump",
		"levels",
		"diff",
		"init",
		"completion",
	}

	for _, expected := range expectedCommands {
		found := false
		for _, cmd := range cmd.Commands() {
			if cmd.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", expected)
		}
	}
}

func TestNewVersionCommand(t *testing.T) {
	// Set test version info
	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-01-01"
	GoVersion = "go1.23"

	cmd := NewVersionCommand()

	if cmd.Use != "version" {
		t.Errorf("expected Use to be 'version', got %s", cmd.Use)
	}

	if cmd.Run == nil {
		t.Fatal("version command Run function is nil")
	}

	// Call the Run function directly
	cmd.Run(cmd, []string{})
}

func TestVerifyCommandFlags(t *testing.T) {
	cmd := NewVerifyCommand()

	flags := map[string]string{
		"metadata": "",
		"command":  "",
		"fixtures": "",
		"pattern":  "",
		"prefix":   "",
		"format":   "text",
		"watch":    "false",
		"verbose":  "false",
		"no-color": "false",
		"debug":    "false",
	}

	for name, def := range flags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected flag --%s to be registered", name)
			continue
		}
		if flag.DefValue != def {
			t.Errorf("expected --%s default %q, got %q", name, def, flag.DefValue)
		}
	}
}

func TestDumpCommandFlags(t *testing.T) {
	cmd := NewDumpCommand()

	if flag := cmd.Flags().Lookup("format"); flag == nil || flag.DefValue != "yaml" {
		t.Error("expected --format to default to yaml")
	}

	if flag := cmd.Flags().Lookup("level"); flag == nil || flag.DefValue != "-1" {
		t.Error("expected --level to default to -1")
	}
}

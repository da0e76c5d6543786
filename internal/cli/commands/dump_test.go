package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpCommandMetadataFile(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, dir, "api_info.mpack", metaFixture(5, 0, false, fnRecord("nvim_test", 5, "Integer")))

	var out bytes.Buffer
	cmd := NewDumpCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--metadata", dump})

	require.NoError(t, cmd.Execute())

	// Default format is yaml
	assert.Contains(t, out.String(), "functions:")
	assert.Contains(t, out.String(), "name: nvim_test")
	assert.Contains(t, out.String(), "api_level: 5")
}

func TestDumpCommandArchivedLevel(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, 7, metaFixture(7, 0, false, fnRecord("nvim_test", 7, "Integer")))

	var out bytes.Buffer
	cmd := NewDumpCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--level", "7", "--fixtures", dir, "--format", "json"})

	require.NoError(t, cmd.Execute())

	var meta struct {
		Functions []struct {
			Name  string `json:"name"`
			Since int    `json:"since"`
		} `json:"functions"`
		Version struct {
			APILevel int `json:"api_level"`
		} `json:"version"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &meta))
	require.Len(t, meta.Functions, 1)
	assert.Equal(t, "nvim_test", meta.Functions[0].Name)
	assert.Equal(t, 7, meta.Version.APILevel)
}

func TestDumpCommandScrubsLevelZero(t *testing.T) {
	dir := t.TempDir()

	legacy := fnRecord("buffer_line_count", 3, "Integer")
	legacy["can_fail"] = true
	legacy["receives_channel_id"] = true
	writeArchive(t, dir, 0, metaFixture(0, 0, false, legacy))

	var out bytes.Buffer
	cmd := NewDumpCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--level", "0", "--fixtures", dir, "--format", "json"})

	require.NoError(t, cmd.Execute())

	var meta struct {
		Functions []struct {
			Name    string `json:"name"`
			Since   int    `json:"since"`
			CanFail bool   `json:"can_fail"`
		} `json:"functions"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &meta))
	require.Len(t, meta.Functions, 1)

	// Level 0 predates since tracking and the legacy flags.
	assert.Zero(t, meta.Functions[0].Since)
	assert.False(t, meta.Functions[0].CanFail)
}

func TestDumpCommandUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, dir, "api_info.mpack", metaFixture(5, 0, false))

	cmd := NewDumpCommand()
	cmd.SilenceUsage = true
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--metadata", dump, "--format", "toml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dump format")
}

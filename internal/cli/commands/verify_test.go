package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// fnRecord builds one wire-format function record.
func fnRecord(name string, since int, returnType string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"since":       since,
		"return_type": returnType,
		"parameters":  []interface{}{[]interface{}{"Buffer", "buffer"}},
		"method":      true,
	}
}

// metaFixture builds one wire-format metadata dump.
func metaFixture(level, compatible int, prerelease bool, funcs ...map[string]interface{}) map[string]interface{} {
	records := make([]interface{}, len(funcs))
	for i, f := range funcs {
		records[i] = f
	}
	return map[string]interface{}{
		"version": map[string]interface{}{
			"api_level":      level,
			"api_compatible": compatible,
			"api_prerelease": prerelease,
		},
		"functions":  records,
		"ui_events":  []interface{}{},
		"ui_options": []interface{}{"rgb"},
	}
}

// writeArchive writes the msgpack fixture for one archived level.
func writeArchive(t *testing.T, dir string, level int, meta map[string]interface{}) {
	t.Helper()
	data, err := msgpack.Marshal(meta)
	require.NoError(t, err)
	path := filepath.Join(dir, fmt.Sprintf("api_level_%d.mpack", level))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// writeDump writes a live metadata dump and returns its path.
func writeDump(t *testing.T, dir, name string, meta map[string]interface{}) string {
	t.Helper()
	data, err := msgpack.Marshal(meta)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestVerifyCommandCompatible(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, 5, metaFixture(5, 5, false, fnRecord("nvim_test", 5, "Integer")))
	dump := writeDump(t, dir, "api_info.mpack", metaFixture(5, 5, false, fnRecord("nvim_test", 5, "Integer")))

	var out bytes.Buffer
	cmd := NewVerifyCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--metadata", dump, "--fixtures", dir, "--format", "json", "--no-color"})

	require.NoError(t, cmd.Execute())

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &payload))
	assert.Equal(t, "compatible", payload["status"])
	assert.Empty(t, payload["violations"])
}

func TestVerifyCommandReportsViolations(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, 5, metaFixture(5, 5, false, fnRecord("nvim_gone", 5, "Integer")))
	dump := writeDump(t, dir, "api_info.mpack", metaFixture(5, 5, false))

	var out, errOut bytes.Buffer
	cmd := NewVerifyCommand()
	cmd.SilenceUsage = true
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--metadata", dump, "--fixtures", dir, "--format", "json", "--no-color"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 1 compatibility violation")

	var payload struct {
		Status     string `json:"status"`
		Violations []struct {
			Kind    string `json:"kind"`
			Subject string `json:"subject"`
		} `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &payload))
	assert.Equal(t, "incompatible", payload.Status)
	require.Len(t, payload.Violations, 1)
	assert.Equal(t, "function_removed", payload.Violations[0].Kind)
	assert.Equal(t, "nvim_gone", payload.Violations[0].Subject)
}

func TestVerifyCommandMissingArchiveAborts(t *testing.T) {
	dir := t.TempDir()
	// Window is 4..5 but only level 5 is archived.
	writeArchive(t, dir, 5, metaFixture(5, 4, false, fnRecord("nvim_test", 5, "Integer")))
	dump := writeDump(t, dir, "api_info.mpack", metaFixture(5, 4, false, fnRecord("nvim_test", 5, "Integer")))

	var out bytes.Buffer
	cmd := NewVerifyCommand()
	cmd.SilenceUsage = true
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--metadata", dump, "--fixtures", dir, "--no-color"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing metadata archive for level 4")

	// A fatal error must not leave a partial report behind.
	assert.Zero(t, out.Len())
}

func TestVerifyCommandTextReport(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, 5, metaFixture(5, 5, false, fnRecord("nvim_test", 5, "Integer")))
	dump := writeDump(t, dir, "api_info.mpack", metaFixture(5, 5, false, fnRecord("nvim_test", 5, "Integer")))

	var out bytes.Buffer
	cmd := NewVerifyCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--metadata", dump, "--fixtures", dir, "--no-color"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "✓ backward-compatible")
	assert.Contains(t, out.String(), "level 5 (compatible >= 5)")
}

func TestVerifyCommandFromCommandSource(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on cat")
	}

	dir := t.TempDir()
	writeArchive(t, dir, 5, metaFixture(5, 5, false, fnRecord("nvim_test", 5, "Integer")))
	dump := writeDump(t, dir, "api_info.mpack", metaFixture(5, 5, false, fnRecord("nvim_test", 5, "Integer")))

	var out bytes.Buffer
	cmd := NewVerifyCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--command", "cat " + dump, "--fixtures", dir, "--no-color"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "✓ backward-compatible")
}

func TestVerifyCommandUnknownFormat(t *testing.T) {
	cmd := NewVerifyCommand()
	cmd.SilenceUsage = true
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
}

package session

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func writeDump(t *testing.T) string {
	t.Helper()
	data, err := msgpack.Marshal(map[string]any{
		"functions": []any{
			map[string]any{
				"name":        "nvim_get_current_line",
				"since":       1,
				"return_type": "String",
				"parameters":  []any{},
			},
		},
		"version": map[string]any{"api_level": 5, "api_compatible": 0},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "api-info.mpack")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestFileFetch(t *testing.T) {
	src := &File{Path: writeDump(t)}

	meta, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, meta.Functions, 1)
	assert.Equal(t, 5, meta.Version.APILevel)
}

func TestFileFetchMissing(t *testing.T) {
	src := &File{Path: filepath.Join(t.TempDir(), "nope.mpack")}

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read metadata dump")
}

func TestFileFetchGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.mpack")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))
	src := &File{Path: path}

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a usable dump")
}

func TestCommandFetch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on cat")
	}
	src := NewCommand("cat", []string{writeDump(t)}, nil)

	meta, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nvim_get_current_line", meta.Functions[0].Name)
}

func TestCommandFetchFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
	src := NewCommand("sh", []string{"-c", "echo metadata unavailable >&2; exit 3"}, nil)

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata unavailable")
}

func TestCommandFetchBadOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on echo")
	}
	src := NewCommand("echo", []string{"not msgpack"}, nil)

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unusable dump")
}

func TestCommandString(t *testing.T) {
	src := NewCommand("nvim", []string{"--api-info"}, nil)
	assert.Equal(t, "nvim --api-info", src.String())
}

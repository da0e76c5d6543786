// Package session obtains the live metadata dump of the API build under
// verification, either by querying the binary itself or by reading a dump
// captured earlier.
package session

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/apilevel/apilevel/internal/api"
)

// Source yields the current metadata of the API under verification.
type Source interface {
	Fetch(ctx context.Context) (*api.Metadata, error)
}

// Command queries a binary that prints its metadata dump on stdout, the way
// nvim --api-info does.
type Command struct {
	Path   string
	Args   []string
	logger *zap.Logger
}

// NewCommand returns a Command source. logger may be nil.
func NewCommand(path string, args []string, logger *zap.Logger) *Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Command{Path: path, Args: args, logger: logger}
}

// Fetch runs the binary and decodes its stdout. The process is killed when
// ctx is cancelled.
func (c *Command) Fetch(ctx context.Context) (*api.Metadata, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("querying api metadata", zap.String("command", c.String()))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("failed to run %s: %w: %s", c.Path, err, msg)
		}
		return nil, fmt.Errorf("failed to run %s: %w", c.Path, err)
	}

	meta, err := api.Decode(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s produced an unusable dump: %w", c.Path, err)
	}
	return meta, nil
}

// String renders the full command line.
func (c *Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// File reads a previously captured metadata dump from disk.
type File struct {
	Path string
}

// Fetch decodes the dump file.
func (f *File) Fetch(_ context.Context) (*api.Metadata, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata dump: %w", err)
	}
	meta, err := api.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s is not a usable dump: %w", f.Path, err)
	}
	return meta, nil
}

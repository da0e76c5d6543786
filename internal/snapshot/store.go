// Package snapshot resolves archived metadata fixtures by API level.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/apilevel/apilevel/internal/api"
)

// MissingError reports that a level has no usable archive: the fixture file
// does not exist or cannot be decoded. For any level inside the compatibility
// window this is fatal, since the level cannot be verified at all.
type MissingError struct {
	Level int
	Err   error
}

func (e *MissingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing metadata archive for level %d: %v", e.Level, e.Err)
	}
	return fmt.Sprintf("missing metadata archive for level %d", e.Level)
}

func (e *MissingError) Unwrap() error {
	return e.Err
}

// Store loads archived metadata snapshots from a fixture directory. Archives
// are named by substituting the level number into a glob-style pattern, e.g.
// api_level_*.mpack for api_level_7.mpack.
type Store struct {
	dir     string
	pattern string
}

// NewStore returns a Store over the given directory. The pattern must
// contain exactly one "*", standing in for the level number.
func NewStore(dir, pattern string) *Store {
	return &Store{dir: dir, pattern: pattern}
}

// Path returns the file path an archive for the level is expected at.
func (s *Store) Path(level int) string {
	name := strings.Replace(s.pattern, "*", strconv.Itoa(level), 1)
	return filepath.Join(s.dir, name)
}

// Load reads and decodes the archive for a level. Any failure to produce a
// snapshot, be it an absent file or a decode error, is reported as a
// *MissingError for that level.
//
// Level 0 archives predate version tagging and metadata filtering, so they
// receive a legacy cleanup before being returned: the can_fail, async and
// receives_channel_id flags are cleared and since is forced to 0 on every
// function.
func (s *Store) Load(level int) (*api.Metadata, error) {
	data, err := os.ReadFile(s.Path(level))
	if err != nil {
		return nil, &MissingError{Level: level, Err: err}
	}
	meta, err := api.Decode(data)
	if err != nil {
		return nil, &MissingError{Level: level, Err: err}
	}
	if level == 0 {
		cleanLevel0(meta)
	}
	return meta, nil
}

// Levels lists the levels that have an archive in the store's directory,
// in ascending order. Files matching the pattern with a non-numeric level
// part are ignored.
func (s *Store) Levels() ([]int, error) {
	names, err := doublestar.Glob(os.DirFS(s.dir), s.pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.dir, err)
	}

	star := strings.Index(s.pattern, "*")
	prefix, suffix := s.pattern[:star], s.pattern[star+1:]

	levels := make([]int, 0, len(names))
	for _, name := range names {
		level, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
		if err != nil {
			continue
		}
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels, nil
}

func cleanLevel0(meta *api.Metadata) {
	for i := range meta.Functions {
		meta.Functions[i].CanFail = false
		meta.Functions[i].Fast = false
		meta.Functions[i].ReceivesChannelID = false
		meta.Functions[i].Since = 0
	}
}

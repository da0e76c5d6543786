// Package api defines the metadata records reported by an RPC API instance:
// callable functions, UI events, UI options, and the version block that ties
// them to a published API level. Records are decoded once at the boundary
// (see Decode) and treated as immutable for the rest of a verification run.
package api

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Parameter is one positional parameter of a function or UI event.
// On the wire it is a two-element array: [type token, parameter name].
// Position and type are part of the signature; the name is cosmetic.
type Parameter struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// Function describes one callable API function.
type Function struct {
	Name            string      `json:"name" yaml:"name"`
	Since           int         `json:"since" yaml:"since"`                                           // level the function was introduced or last redefined at
	DeprecatedSince *int        `json:"deprecated_since,omitempty" yaml:"deprecated_since,omitempty"` // level the function was deprecated at, if any
	ReturnType      string      `json:"return_type" yaml:"return_type"`
	Parameters      []Parameter `json:"parameters" yaml:"parameters"`
	Method          bool        `json:"method" yaml:"method"` // dispatchable as a method on its first argument

	// Legacy flags. Only level-0 era metadata carries these on the wire;
	// Fast also accepts the old spelling "async".
	Fast              bool `json:"fast,omitempty" yaml:"fast,omitempty"`
	CanFail           bool `json:"can_fail,omitempty" yaml:"can_fail,omitempty"`
	ReceivesChannelID bool `json:"receives_channel_id,omitempty" yaml:"receives_channel_id,omitempty"`
}

// UIEvent describes one event the API pushes to attached UIs.
type UIEvent struct {
	Name       string      `json:"name" yaml:"name"`
	Since      int         `json:"since" yaml:"since"`
	Parameters []Parameter `json:"parameters" yaml:"parameters"`
}

// Version is the version block of a metadata dump. The engine reads only
// APILevel, APICompatible and APIPrerelease; the release fields are carried
// through for reports and dumps.
type Version struct {
	APILevel      int  `json:"api_level" yaml:"api_level"`
	APICompatible int  `json:"api_compatible" yaml:"api_compatible"`
	APIPrerelease bool `json:"api_prerelease" yaml:"api_prerelease"`

	Major      int    `json:"major,omitempty" yaml:"major,omitempty"`
	Minor      int    `json:"minor,omitempty" yaml:"minor,omitempty"`
	Patch      int    `json:"patch,omitempty" yaml:"patch,omitempty"`
	Prerelease bool   `json:"prerelease,omitempty" yaml:"prerelease,omitempty"`
	Build      string `json:"build,omitempty" yaml:"build,omitempty"`
}

// Metadata is one complete metadata snapshot: either the dump of a running
// API instance or an archived fixture for a published level.
type Metadata struct {
	Functions []Function `json:"functions" yaml:"functions"`
	UIEvents  []UIEvent  `json:"ui_events" yaml:"ui_events"`
	UIOptions []string   `json:"ui_options" yaml:"ui_options"`
	Version   Version    `json:"version" yaml:"version"`
}

// FunctionsByName indexes the snapshot's functions by name.
func (m *Metadata) FunctionsByName() map[string]Function {
	return lo.KeyBy(m.Functions, func(f Function) string { return f.Name })
}

// UIEventsByName indexes the snapshot's UI events by name.
func (m *Metadata) UIEventsByName() map[string]UIEvent {
	return lo.KeyBy(m.UIEvents, func(e UIEvent) string { return e.Name })
}

// HasUIOption reports whether the snapshot lists the named UI option.
func (m *Metadata) HasUIOption(name string) bool {
	return lo.Contains(m.UIOptions, name)
}

// String renders the function as a compact signature, e.g.
//
//	nvim_buf_line_count(Buffer) -> Integer [method]
//
// Parameter names are included only when present, so normalized records
// render with bare type tokens.
func (f Function) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, p := range f.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type)
		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
	}
	b.WriteString(") -> ")
	b.WriteString(f.ReturnType)
	for _, flag := range f.flags() {
		b.WriteString(" [")
		b.WriteString(flag)
		b.WriteByte(']')
	}
	return b.String()
}

func (f Function) flags() []string {
	var flags []string
	if f.Method {
		flags = append(flags, "method")
	}
	if f.Fast {
		flags = append(flags, "fast")
	}
	if f.CanFail {
		flags = append(flags, "can_fail")
	}
	if f.ReceivesChannelID {
		flags = append(flags, "receives_channel_id")
	}
	if f.DeprecatedSince != nil {
		flags = append(flags, fmt.Sprintf("deprecated_since %d", *f.DeprecatedSince))
	}
	return flags
}

// String renders the event with its parameter types and introduction level.
func (e UIEvent) String() string {
	types := lo.Map(e.Parameters, func(p Parameter, _ int) string { return p.Type })
	return fmt.Sprintf("%s(%s) since %d", e.Name, strings.Join(types, ", "), e.Since)
}

// String renders the version block as "level 11 (compatible >= 0)" with a
// prerelease marker when the current level is not yet finalized.
func (v Version) String() string {
	s := fmt.Sprintf("level %d (compatible >= %d)", v.APILevel, v.APICompatible)
	if v.APIPrerelease {
		s += " prerelease"
	}
	return s
}

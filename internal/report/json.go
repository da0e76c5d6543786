package report

import (
	"encoding/json"
	"io"

	"github.com/apilevel/apilevel/internal/api"
	"github.com/apilevel/apilevel/internal/compat"
)

// JSONOutput is the machine-readable report shape.
type JSONOutput struct {
	Status     string             `json:"status"` // "compatible" or "incompatible"
	RunID      string             `json:"run_id"`
	Version    api.Version        `json:"version"`
	Compatible int                `json:"compatible"`
	Stable     int                `json:"stable"`
	Levels     []int              `json:"levels"`
	Violations []compat.Violation `json:"violations"`
	Summary    Summary            `json:"summary"`
}

// Summary carries the counts a CI job usually keys on.
type Summary struct {
	Levels     int `json:"levels"`
	Functions  int `json:"functions"`
	UIEvents   int `json:"ui_events"`
	UIOptions  int `json:"ui_options"`
	Violations int `json:"violations"`
}

// JSON renders a report as indented JSON.
type JSON struct {
	Compact bool
}

// Write implements Writer.
func (j *JSON) Write(w io.Writer, r *compat.Report) error {
	status := "compatible"
	if !r.OK() {
		status = "incompatible"
	}
	violations := r.Violations
	if violations == nil {
		violations = []compat.Violation{}
	}
	out := JSONOutput{
		Status:     status,
		RunID:      r.RunID,
		Version:    r.Version,
		Compatible: r.Compatible,
		Stable:     r.Stable,
		Levels:     r.Levels,
		Violations: violations,
		Summary: Summary{
			Levels:     len(r.Levels),
			Functions:  r.Checked.Functions,
			UIEvents:   r.Checked.UIEvents,
			UIOptions:  r.Checked.UIOptions,
			Violations: len(r.Violations),
		},
	}

	enc := json.NewEncoder(w)
	if !j.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

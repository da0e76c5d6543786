package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/apilevel/apilevel/internal/compat"
)

// Text renders a report for terminals, one block per violation.
type Text struct {
	NoColor bool
	// Verbose adds the rendered field diff under each violation.
	Verbose bool
}

// Write implements Writer.
func (t *Text) Write(w io.Writer, r *compat.Report) error {
	header := color.New(color.FgRed, color.Bold)
	success := color.New(color.FgGreen, color.Bold)
	if t.NoColor {
		header.DisableColor()
		success.DisableColor()
	}

	fmt.Fprintf(w, "api %s\n", r.Version)
	fmt.Fprintf(w, "checked %d functions, %d ui events, %d ui options against %s\n\n",
		r.Checked.Functions, r.Checked.UIEvents, r.Checked.UIOptions, levelRange(r.Levels))

	if r.OK() {
		success.Fprintf(w, "✓ backward-compatible\n")
		return nil
	}

	header.Fprintf(w, "❌ %d compatibility violation%s\n\n", len(r.Violations), plural(len(r.Violations)))
	WriteViolations(w, r.Violations, t.NoColor, t.Verbose)
	return nil
}

// WriteViolations renders a violation list in the standard text layout, one
// block per violation with the kind and subject as the heading.
func WriteViolations(w io.Writer, violations []compat.Violation, noColor, verbose bool) {
	header := color.New(color.FgRed, color.Bold)
	body := color.New(color.FgRed)
	dim := color.New(color.Faint)
	if noColor {
		header.DisableColor()
		body.DisableColor()
		dim.DisableColor()
	}

	for _, v := range violations {
		header.Fprintf(w, "%s: %s\n", strings.ToUpper(v.Kind.String()), v.Subject)
		body.Fprintf(w, "   %s\n", v.Message)
		if v.Expected != "" {
			fmt.Fprintf(w, "   expected: %s\n", v.Expected)
		}
		if v.Actual != "" {
			fmt.Fprintf(w, "   actual:   %s\n", v.Actual)
		}
		if verbose && v.Detail != "" {
			for _, line := range strings.Split(strings.TrimRight(v.Detail, "\n"), "\n") {
				dim.Fprintf(w, "   %s\n", line)
			}
		}
		fmt.Fprintln(w)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Package report renders verification outcomes for terminals and machines.
package report

import (
	"fmt"
	"io"

	"github.com/apilevel/apilevel/internal/compat"
)

// Writer renders one verification report to w.
type Writer interface {
	Write(w io.Writer, r *compat.Report) error
}

// levelRange renders the verified window compactly.
func levelRange(levels []int) string {
	switch len(levels) {
	case 0:
		return "no archived levels"
	case 1:
		return fmt.Sprintf("level %d", levels[0])
	default:
		return fmt.Sprintf("levels %d-%d", levels[0], levels[len(levels)-1])
	}
}

package compat

import (
	"fmt"

	"github.com/samber/lo"
)

// CompareOptions checks that every UI option listed at the given level is
// still listed by the live instance. The option set only grows; extra live
// options are fine. One violation is returned per missing option so a run
// surfaces all of them at once.
func CompareOptions(old, live []string, level int) []Violation {
	missing := lo.Filter(old, func(opt string, _ int) bool {
		return !lo.Contains(live, opt)
	})

	violations := make([]Violation, 0, len(missing))
	for _, opt := range missing {
		violations = append(violations, Violation{
			Kind:    OptionMissing,
			Subject: opt,
			Levels:  []int{level},
			Message: fmt.Sprintf("ui option listed at level %d is no longer reported", level),
		})
	}
	return violations
}

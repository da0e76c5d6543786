package compat

import (
	"fmt"
	"strconv"

	"github.com/apilevel/apilevel/internal/api"
)

// CompareEvents checks that live can still be consumed by UIs built against
// old, the event archived at the given level. An event's introduction level
// never changes, existing parameters keep their type and position, and new
// parameters may only be appended after the archived ones. Parameter names
// are not part of the contract. Returns nil when compatible.
func CompareEvents(old, live api.UIEvent, level int) *Violation {
	if old.Since != live.Since {
		return &Violation{
			Kind:     BadSince,
			Subject:  old.Name,
			Levels:   []int{level},
			Expected: strconv.Itoa(old.Since),
			Actual:   strconv.Itoa(live.Since),
			Message:  fmt.Sprintf("introduction level changed from %d to %d, but since is immutable once published", old.Since, live.Since),
		}
	}

	if len(live.Parameters) < len(old.Parameters) {
		return &Violation{
			Kind:     EventParamRemoved,
			Subject:  old.Name,
			Levels:   []int{level},
			Expected: old.String(),
			Actual:   live.String(),
			Message:  fmt.Sprintf("lost %d trailing parameter(s) present at level %d", len(old.Parameters)-len(live.Parameters), level),
		}
	}

	for i, p := range old.Parameters {
		if live.Parameters[i].Type != p.Type {
			return &Violation{
				Kind:     EventParamMismatch,
				Subject:  old.Name,
				Levels:   []int{level},
				Expected: p.Type,
				Actual:   live.Parameters[i].Type,
				Message:  fmt.Sprintf("parameter %d changed type from %s to %s", i, p.Type, live.Parameters[i].Type),
			}
		}
	}
	return nil
}

package compat

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/apilevel/apilevel/internal/api"
)

// CompareFunctions checks that live can still serve clients built against
// old, the record archived at the given level. Both records are normalized
// first. A void return type in the archive matches any live return type; an
// unconstrained historical return is compatible with any refinement. After
// that the normalized records must be equal field for field, parameter order
// and flags included. Returns nil when compatible.
func CompareFunctions(norm *Normalizer, old, live api.Function, level int) *Violation {
	archived := norm.Function(old)
	current := norm.Function(live)

	if archived.ReturnType == "void" {
		archived.ReturnType = current.ReturnType
	}

	diff := cmp.Diff(archived, current)
	if diff == "" {
		return nil
	}
	return &Violation{
		Kind:     SignatureMismatch,
		Subject:  old.Name,
		Levels:   []int{level},
		Expected: archived.String(),
		Actual:   current.String(),
		Message:  fmt.Sprintf("signature differs from the one published at level %d", level),
		Detail:   diff,
	}
}

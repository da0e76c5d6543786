// Package compat implements the backward-compatibility verification engine:
// normalization of function records, the comparison rules for functions, UI
// events and UI options, and the verifier that applies them across every
// API level the live instance claims compatibility with.
package compat

import (
	"fmt"
	"strings"
)

// Kind classifies a compatibility violation.
type Kind int

const (
	// SignatureMismatch: a function's normalized signature differs from the
	// archived one.
	SignatureMismatch Kind = iota
	// FunctionRemoved: a function from a still-compatible level is gone.
	FunctionRemoved
	// EventRemoved: a UI event from a still-compatible level is gone.
	EventRemoved
	// EventParamMismatch: a UI event parameter changed type at some index.
	EventParamMismatch
	// EventParamRemoved: a UI event lost trailing parameters.
	EventParamRemoved
	// OptionMissing: a UI option from a still-compatible level is gone.
	OptionMissing
	// BadSince: a member's since value contradicts the level history.
	BadSince
	// InvalidName: a member's name does not fit the namespace rules its
	// metadata claims.
	InvalidName
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case SignatureMismatch:
		return "signature_mismatch"
	case FunctionRemoved:
		return "function_removed"
	case EventRemoved:
		return "event_removed"
	case EventParamMismatch:
		return "event_param_mismatch"
	case EventParamRemoved:
		return "event_param_removed"
	case OptionMissing:
		return "option_missing"
	case BadSince:
		return "bad_since"
	case InvalidName:
		return "invalid_name"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Kind
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Kind
func (k *Kind) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	switch str {
	case "signature_mismatch":
		*k = SignatureMismatch
	case "function_removed":
		*k = FunctionRemoved
	case "event_removed":
		*k = EventRemoved
	case "event_param_mismatch":
		*k = EventParamMismatch
	case "event_param_removed":
		*k = EventParamRemoved
	case "option_missing":
		*k = OptionMissing
	case "bad_since":
		*k = BadSince
	case "invalid_name":
		*k = InvalidName
	default:
		return fmt.Errorf("unknown violation kind %q", str)
	}
	return nil
}

// Violation is one recorded compatibility finding. Violations are plain
// values, not errors: comparators return them and the verifier accumulates
// them so a run always surfaces every regression it can find.
type Violation struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`          // member name the finding is about
	Levels  []int  `json:"levels,omitempty"` // levels involved, oldest first
	// Expected and Actual carry the two sides of a mismatch in rendered
	// form; empty for findings with only one side (removals, bad since).
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Message  string `json:"message"`
	Detail   string `json:"detail,omitempty"` // rendered diff, when one exists
}

// String renders the violation on one line for logs and terminal output.
func (v Violation) String() string {
	return fmt.Sprintf("%s: %s: %s", v.Kind, v.Subject, v.Message)
}

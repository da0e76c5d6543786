package compat

import (
	"strings"

	"github.com/apilevel/apilevel/internal/api"
)

// typeRewrites maps legacy type tokens to their current names. Renames listed
// here are known not to break clients, so they must not register as signature
// changes. The table is deliberately explicit so the rule set stays small and
// reviewable.
var typeRewrites = map[string]string{
	"Dictionary": "Dict",
}

// arrayOfPrefix marks parameterized array tokens such as ArrayOf(Integer) or
// ArrayOf(Integer, 2). The element annotation is documentation only; on the
// wire every one of them is a plain Array.
const arrayOfPrefix = "ArrayOf("

// Normalizer rewrites function records into a comparison-stable form. Fields
// that cannot affect a client are erased and cosmetically renamed type tokens
// are mapped to one spelling, so the comparators can require exact equality
// on what remains.
type Normalizer struct {
	prefix string
}

// NewNormalizer returns a Normalizer for an API whose namespaced members
// carry the given name prefix.
func NewNormalizer(prefix string) *Normalizer {
	return &Normalizer{prefix: prefix}
}

// Function returns a normalized copy of f. The input is not modified.
//
// Steps, in order: rewrite the return type token, clear deprecated_since,
// rewrite every parameter type and erase its name, and clear the method flag
// on functions outside the reserved namespace (the flag only means something
// for namespaced, method-dispatchable functions). Normalizing twice yields
// the same record.
func (n *Normalizer) Function(f api.Function) api.Function {
	f.ReturnType = n.rewriteType(f.ReturnType)
	f.DeprecatedSince = nil

	params := make([]api.Parameter, len(f.Parameters))
	for i, p := range f.Parameters {
		params[i] = api.Parameter{Type: n.rewriteType(p.Type)}
	}
	f.Parameters = params

	if !strings.HasPrefix(f.Name, n.prefix) {
		f.Method = false
	}
	return f
}

// rewriteType canonicalizes one type token.
func (n *Normalizer) rewriteType(token string) string {
	if current, ok := typeRewrites[token]; ok {
		return current
	}
	if strings.HasPrefix(token, arrayOfPrefix) {
		return "Array"
	}
	return token
}

package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apilevel/apilevel/internal/api"
)

func TestCompareFunctions_Reflexive(t *testing.T) {
	norm := NewNormalizer("nvim_")
	fn := api.Function{
		Name:       "nvim_buf_get_lines",
		Since:      1,
		ReturnType: "ArrayOf(String)",
		Parameters: []api.Parameter{
			{Type: "Buffer", Name: "buffer"},
			{Type: "Integer", Name: "start"},
			{Type: "Integer", Name: "end"},
			{Type: "Boolean", Name: "strict_indexing"},
		},
		Method: true,
	}

	assert.Nil(t, CompareFunctions(norm, fn, fn, 1))
}

func TestCompareFunctions_VoidReturnMatchesAnything(t *testing.T) {
	norm := NewNormalizer("nvim_")
	old := api.Function{
		Name:       "nvim_win_close",
		Since:      6,
		ReturnType: "void",
		Parameters: []api.Parameter{{Type: "Window", Name: "window"}, {Type: "Boolean", Name: "force"}},
		Method:     true,
	}
	live := old
	live.ReturnType = "Boolean"

	assert.Nil(t, CompareFunctions(norm, old, live, 6))

	// The exemption only runs old to new, a live void against an archived
	// concrete type is still a change.
	reversed := CompareFunctions(norm, live, old, 6)
	require.NotNil(t, reversed)
	assert.Equal(t, SignatureMismatch, reversed.Kind)
}

func TestCompareFunctions_AbsorbsTokenRename(t *testing.T) {
	norm := NewNormalizer("nvim_")
	old := api.Function{
		Name:       "nvim_get_mode",
		Since:      2,
		ReturnType: "Dictionary",
		Parameters: []api.Parameter{},
	}
	live := api.Function{
		Name:       "nvim_get_mode",
		Since:      2,
		ReturnType: "Dict",
		Parameters: []api.Parameter{},
	}

	assert.Nil(t, CompareFunctions(norm, old, live, 2))
}

func TestCompareFunctions_IgnoresCosmeticDifferences(t *testing.T) {
	norm := NewNormalizer("nvim_")
	deprecated := 7
	old := api.Function{
		Name:       "nvim_buf_set_name",
		Since:      1,
		ReturnType: "void",
		Parameters: []api.Parameter{{Type: "Buffer", Name: "buffer"}, {Type: "String", Name: "name"}},
		Method:     true,
	}
	live := api.Function{
		Name:            "nvim_buf_set_name",
		Since:           1,
		DeprecatedSince: &deprecated,
		ReturnType:      "void",
		Parameters:      []api.Parameter{{Type: "Buffer", Name: "buf"}, {Type: "String", Name: "new_name"}},
		Method:          true,
	}

	assert.Nil(t, CompareFunctions(norm, old, live, 1))
}

func TestCompareFunctions_Violations(t *testing.T) {
	norm := NewNormalizer("nvim_")
	base := api.Function{
		Name:       "nvim_open_win",
		Since:      6,
		ReturnType: "Window",
		Parameters: []api.Parameter{
			{Type: "Buffer", Name: "buffer"},
			{Type: "Boolean", Name: "enter"},
			{Type: "Dict", Name: "config"},
		},
		Method: false,
	}

	tests := []struct {
		name   string
		mutate func(f *api.Function)
	}{
		{
			name:   "return type changed",
			mutate: func(f *api.Function) { f.ReturnType = "Integer" },
		},
		{
			name:   "parameter type changed",
			mutate: func(f *api.Function) { f.Parameters[1].Type = "Integer" },
		},
		{
			name: "parameter appended",
			mutate: func(f *api.Function) {
				f.Parameters = append(f.Parameters, api.Parameter{Type: "Boolean", Name: "noautocmd"})
			},
		},
		{
			name:   "parameter removed",
			mutate: func(f *api.Function) { f.Parameters = f.Parameters[:2] },
		},
		{
			name:   "parameters reordered",
			mutate: func(f *api.Function) { f.Parameters[0], f.Parameters[1] = f.Parameters[1], f.Parameters[0] },
		},
		{
			name:   "since changed",
			mutate: func(f *api.Function) { f.Since = 7 },
		},
		{
			name:   "method flag flipped",
			mutate: func(f *api.Function) { f.Method = true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live := base
			live.Parameters = append([]api.Parameter(nil), base.Parameters...)
			tt.mutate(&live)

			v := CompareFunctions(norm, base, live, 6)
			require.NotNil(t, v)
			assert.Equal(t, SignatureMismatch, v.Kind)
			assert.Equal(t, "nvim_open_win", v.Subject)
			assert.Equal(t, []int{6}, v.Levels)
			assert.NotEmpty(t, v.Detail)
		})
	}
}

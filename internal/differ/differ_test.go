// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package differ

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/locspoof/internal/country"
)

const before = `[
 {"name":{"common":"Malaysia"},"cca2":"MY","flags":{"png":"https://x/my.png"}},
 {"name":{"common":"Swaziland"},"cca2":"SZ","flags":{"png":"https://x/sz.png"}},
 {"name":{"common":"Yugoslavia"},"cca2":"YU","flags":{"png":"https://x/yu.png"}}
]`

const after = `[
 {"name":{"common":"Malaysia"},"cca2":"MY","flags":{"png":"https://x/my.png"}},
 {"name":{"common":"Eswatini"},"cca2":"SZ","flags":{"png":"https://x/sz.png"}},
 {"name":{"common":"Serbia"},"cca2":"RS","flags":{"png":"https://x/rs.png"}}
]`

func TestIndex(t *testing.T) {
	idx, err := Index([]byte(before))
	require.NoError(t, err)
	assert.Len(t, idx, 3)
	assert.Contains(t, idx, "SZ")

	idx, err = Index(nil)
	require.NoError(t, err)
	assert.Empty(t, idx)

	_, err = Index([]byte(`{"cca2":"MY"}`))
	assert.ErrorIs(t, err, country.ErrMalformed)

	_, err = Index([]byte(`[{`))
	assert.ErrorIs(t, err, country.ErrMalformed)
}

func TestIndex_DuplicateKeepsFirst(t *testing.T) {
	idx, err := Index([]byte(`[{"cca2":"MY","n":1},{"cca2":"MY","n":2},{"n":3}]`))
	require.NoError(t, err)
	require.Len(t, idx, 1)
	assert.Equal(t, float64(1), idx["MY"].(map[string]interface{})["n"])
}

func TestDiff(t *testing.T) {
	var buf bytes.Buffer
	s, err := Diff(&buf, []byte(before), []byte(after), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"RS"}, s.Added)
	assert.Equal(t, []string{"YU"}, s.Removed)
	assert.Equal(t, []string{"SZ"}, s.Changed)
	assert.Equal(t, "1 added, 1 removed, 1 changed", s.String())

	out := buf.String()
	assert.Contains(t, out, "Eswatini")
	assert.Contains(t, out, "Yugoslavia")
	assert.NotContains(t, out, "\x1b[", "no color codes when coloring is off")
}

func TestDiff_NoChanges(t *testing.T) {
	var buf bytes.Buffer
	s, err := Diff(&buf, []byte(before), []byte(before), true)
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Empty(t, buf.String())
}

func TestDiff_NoPrevious(t *testing.T) {
	var buf bytes.Buffer
	s, err := Diff(&buf, nil, []byte(after), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"MY", "RS", "SZ"}, s.Added)
	assert.NotEmpty(t, buf.String())
}

package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping_OverwriteKeepsPosition(t *testing.T) {
	m := NewMapping()
	m.Set("b", "1")
	m.Set("a", "2")
	m.Set("b", "3")

	assert.Equal(t, []Pair{{"b", "3"}, {"a", "2"}}, m.Pairs())
	assert.Equal(t, 2, m.Len())
}

func TestMapping_JSONOrder(t *testing.T) {
	m := NewMapping()
	m.Set("zeta", "last letter")
	m.Set("alpha", "first letter")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta":"last letter","alpha":"first letter"}`, string(data))
	assert.Less(t, strings.Index(string(data), "zeta"), strings.Index(string(data), "alpha"))

	decoded := NewMapping()
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, []string{"zeta", "alpha"}, decoded.Keys())
}

func TestMapping_EmptyEncodesAsObject(t *testing.T) {
	data, err := json.Marshal(NewMapping())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestMapping_ZeroValue(t *testing.T) {
	var m Mapping

	_, ok := m.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Pairs())

	m.Set("k", "v")
	v, ok := m.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMapping_NilGet(t *testing.T) {
	var m *Mapping

	_, ok := m.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

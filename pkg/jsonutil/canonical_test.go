package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalMarshal_SortsKeys(t *testing.T) {
	out, err := CanonicalMarshal(map[string]any{"b": 1, "a": 2, "c": []any{"x", nil}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":["x",null]}`, string(out))
}

func TestCanonicalMarshal_Deterministic(t *testing.T) {
	v := map[string]any{"username": "demo", "level": "immediate", "count": 3}
	first, err := CanonicalMarshal(v)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := CanonicalMarshal(v)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestCanonicalMarshal_Struct(t *testing.T) {
	type rec struct {
		B string `json:"b"`
		A string `json:"a"`
	}
	out, err := CanonicalMarshal(rec{B: "2", A: "1"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"1","b":"2"}`, string(out))
}

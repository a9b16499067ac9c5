package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"String", "abc", "abc"},
		{"Number", json.Number("42"), "42"},
		{"WholeFloat", float64(1000000), "1000000"},
		{"Fraction", 1.5, "1.5"},
		{"Nil", nil, ""},
		{"Int", 7, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToString(tt.in))
		})
	}
}

func TestToFloat(t *testing.T) {
	f, ok := ToFloat(json.Number("499"))
	assert.True(t, ok)
	assert.Equal(t, 499.0, f)

	f, ok = ToFloat("501")
	assert.True(t, ok)
	assert.Equal(t, 501.0, f)

	_, ok = ToFloat(map[string]any{})
	assert.False(t, ok)
}

func TestToIntAndBool(t *testing.T) {
	assert.Equal(t, 12, ToInt(json.Number("12")))
	assert.Equal(t, 3, ToInt("3"))
	assert.True(t, ToBool(true))
	assert.True(t, ToBool("true"))
	assert.False(t, ToBool("no"))
}

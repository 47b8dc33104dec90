package click

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Int(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
	}{
		{"Plain", "1", 1},
		{"Leading zeros stay decimal", "010", 10},
		{"Negative", "-5", -5},
		{"Spaces", " 7 ", 7},
		{"Decimal truncates", "1.5", 1},
		{"Negative decimal", "-9.99", -9},
		{"Exponent", "1e3", 1000},
		{"Numeric prefix", "12abc", 12},
		{"JSON number", json.Number("42"), 42},
		{"Float", 3.0, 3},
		{"Garbage", "junk", 0},
		{"Empty", "", 0},
		{"Hex is not special", "0x10", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Params{"v": tt.value}
			assert.Equal(t, tt.want, p.Int64("v"))
			assert.Equal(t, int(tt.want), p.Int("v"))
		})
	}

	t.Run("Missing", func(t *testing.T) {
		assert.Equal(t, 0, Params{}.Int("v"))
	})
}

func TestParams_HasAndFilled(t *testing.T) {
	p := Params{"a": "", "b": nil, "c": "x"}

	assert.True(t, p.Has("a"))
	assert.False(t, p.Has("b"))
	assert.False(t, p.Has("missing"))

	assert.False(t, p.Filled("a"))
	assert.True(t, p.Filled("c"))
}

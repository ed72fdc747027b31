package redact

import (
	"strings"
	"testing"

	"github.com/pansweep/pansweep/internal/types"
	"github.com/stretchr/testify/assert"
)

func match(pan, raw string) types.CardMatch {
	return types.NewCardMatch("Visa", pan, "f.txt", 1, raw)
}

func TestMaskedPAN(t *testing.T) {
	m := match("4532015112830366", "")
	assert.Equal(t, "453201XXXXXX0366", MaskedPAN(m))
}

func TestMaskedPAN_PreservesShapeForAllLengths(t *testing.T) {
	for n := 13; n <= 19; n++ {
		pan := "4" + strings.Repeat("1", n-2) + "7"
		got := MaskedPAN(match(pan, ""))
		assert.Len(t, got, n)
		assert.Equal(t, pan[:6], got[:6])
		assert.Equal(t, pan[n-4:], got[n-4:])
		assert.Equal(t, strings.Repeat("X", n-10), got[6:n-4])
	}
}

func TestMaskedLine(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     string
		complete bool
	}{
		{"contiguous", "card 4532015112830366 ok", "card 453201XXXXXX0366 ok", true},
		{"repeated", "4532015112830366/4532015112830366", "453201XXXXXX0366/453201XXXXXX0366", true},
		{"spaced 4-4-4-4", "card 4532 0151 1283 0366 ok", "card 453201XXXXXX0366 ok", true},
		{"dashed 4-4-4-4", "4532-0151-1283-0366", "453201XXXXXX0366", true},
		{"unusual grouping", "4532 015112 830366", "4532 015112 830366", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MaskedLine(match("4532015112830366", tt.raw))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.complete, ok)
		})
	}
}

func TestMaskedLine_GroupingOnlyFor16Digits(t *testing.T) {
	m := types.NewCardMatch("American Express", "378282246310005", "f", 1, "3782 822463 10005")
	got, ok := MaskedLine(m)
	assert.False(t, ok)
	assert.Equal(t, m.RawLine, got)
}

func TestRedactLine_MultipleMatches(t *testing.T) {
	line := "a 4532015112830366 b 378282246310005 c 4532015112830366"
	ms := []types.CardMatch{
		match("4532015112830366", line),
		types.NewCardMatch("American Express", "378282246310005", "f.txt", 1, line),
		match("4532015112830366", line),
	}
	got, ok := RedactLine(line, ms)
	assert.True(t, ok)
	assert.Equal(t, "a 453201XXXXXX0366 b 378282XXXXX0005 c 453201XXXXXX0366", got)
}

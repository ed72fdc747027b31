package detectors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		digits string
		want   string
	}{
		{"4532015112830366", "Visa"},
		{"4222222222222", "Visa"},
		{"4444444444444444442", "Visa"},
		{"5555555555554444", "Mastercard"},
		{"2223003122003222", "Mastercard"},
		{"378282246310005", "American Express"},
		{"6011111111111117", "Discover"},
		{"3566002020360505", "JCB"},
		{"30569309025904", "Diners Club"},
		{"38520000023237", "Diners Club"},
		{"6200000000000005", "UnionPay"},
		{"1000000000000008", UnknownBrand},
		{"41111111111111113", UnknownBrand},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.digits, func(t *testing.T) {
			got, ok := Classify(tt.digits)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_StripsSeparators(t *testing.T) {
	got, ok := Classify("4532-0151 1283-0366")
	require.True(t, ok)
	assert.Equal(t, "Visa", got)
}

func TestClassify_Deterministic(t *testing.T) {
	first, _ := Classify("4532015112830366")
	for i := 0; i < 50; i++ {
		_, _ = Classify("378282246310005")
		got, _ := Classify("4532015112830366")
		assert.Equal(t, first, got)
	}
	assert.NotEqual(t, UnknownBrand, first)
}

func TestClassify_NoRuleIsDefinedOutcome(t *testing.T) {
	got, ok := Classify("12345")
	assert.False(t, ok)
	assert.Empty(t, got)

	onlyVisa := []BrandRule{{Name: "Visa", Prefix: regexp.MustCompile(`^4\d+`), Lengths: []int{16}}}
	got, ok = classifyWith(onlyVisa, "5555555555554444")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestValidateRules(t *testing.T) {
	require.NoError(t, validateRules(Rules()))

	misplaced := append([]BrandRule{rules[len(rules)-1]}, rules[:len(rules)-1]...)
	assert.Error(t, validateRules(misplaced))
	assert.Error(t, validateRules(rules[:len(rules)-1]))
}

func TestBrandNames_CatchAllLast(t *testing.T) {
	names := BrandNames()
	require.NotEmpty(t, names)
	assert.Equal(t, "Visa", names[0])
	assert.Equal(t, UnknownBrand, names[len(names)-1])
}

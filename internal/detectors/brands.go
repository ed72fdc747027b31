package detectors

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/pansweep/pansweep/internal/validate"
)

// UnknownBrand is the catch-all brand for Luhn-valid numbers no issuer rule claims.
const UnknownBrand = "Unknown"

// BrandRule classifies a digit string when Prefix matches and its length is
// one of Lengths.
type BrandRule struct {
	Name    string
	Prefix  *regexp.Regexp
	Lengths []int
}

func (r BrandRule) matches(digits string) bool {
	return slices.Contains(r.Lengths, len(digits)) && r.Prefix.MatchString(digits)
}

// rules are evaluated in order; the first match wins.
var rules = []BrandRule{
	{Name: "Visa", Prefix: regexp.MustCompile(`^4\d+`), Lengths: []int{13, 16, 19}},
	{Name: "Mastercard", Prefix: regexp.MustCompile(`^5[1-5]\d+|^2[2-7]\d+`), Lengths: []int{16}},
	{Name: "American Express", Prefix: regexp.MustCompile(`^3[47]\d+`), Lengths: []int{15}},
	{Name: "Discover", Prefix: regexp.MustCompile(`^6(?:011|5\d{2}|4[4-9]\d)\d+`), Lengths: []int{16, 19}},
	{Name: "JCB", Prefix: regexp.MustCompile(`^35\d+`), Lengths: []int{16, 19}},
	{Name: "Diners Club", Prefix: regexp.MustCompile(`^3(?:0[0-5]|[68]\d)\d+`), Lengths: []int{14, 16, 19}},
	{Name: "UnionPay", Prefix: regexp.MustCompile(`^62\d+`), Lengths: []int{16, 19}},
	{Name: UnknownBrand, Prefix: regexp.MustCompile(`^\d+`), Lengths: []int{13, 14, 15, 16, 17, 18, 19}},
}

func init() {
	if err := validateRules(rules); err != nil {
		panic(err)
	}
}

// validateRules rejects a table whose catch-all is missing or not last, since
// it would shadow every issuer rule after it.
func validateRules(rs []BrandRule) error {
	for i, r := range rs {
		if r.Name == UnknownBrand && i != len(rs)-1 {
			return fmt.Errorf("brand table: %q must be the last rule (found at %d of %d)", UnknownBrand, i, len(rs))
		}
	}
	if len(rs) == 0 || rs[len(rs)-1].Name != UnknownBrand {
		return fmt.Errorf("brand table: missing trailing %q rule", UnknownBrand)
	}
	return nil
}

// Rules returns a copy of the brand table in evaluation order.
func Rules() []BrandRule {
	return slices.Clone(rules)
}

// BrandNames returns the brand names in evaluation order.
func BrandNames() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Name
	}
	return out
}

// Classify returns the brand for a digit string. Space and dash separators are
// removed first. The second result is false when no rule applies.
func Classify(s string) (string, bool) {
	return classifyWith(rules, s)
}

func classifyWith(rs []BrandRule, s string) (string, bool) {
	digits := validate.StripSeparators(s)
	for _, r := range rs {
		if r.matches(digits) {
			return r.Name, true
		}
	}
	return "", false
}

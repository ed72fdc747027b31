package detectors

import (
	"errors"

	"github.com/pansweep/pansweep/internal/validate"
)

var (
	// ErrNotDigits is returned when the input contains anything but ASCII digits.
	ErrNotDigits = errors.New("luhn: input is not all digits")
	// ErrChecksum is returned when the digits do not sum to a positive multiple of 10.
	ErrChecksum = errors.New("luhn: checksum mismatch")
)

// LuhnCheck validates s with the Luhn mod-10 algorithm. An all-zero string
// sums to zero and is rejected.
func LuhnCheck(s string) error {
	if !validate.IsDigits(s) {
		return ErrNotDigits
	}
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		d := int(s[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	if sum == 0 || sum%10 != 0 {
		return ErrChecksum
	}
	return nil
}

// ValidLuhn reports whether s passes LuhnCheck.
func ValidLuhn(s string) bool { return LuhnCheck(s) == nil }

package detectors

// knownTestCards are published sandbox PANs from the major processors. They
// pass Luhn and classify normally, so they are only dropped on request.
var knownTestCards = map[string]bool{
	"4111111111111111": true, // Visa
	"4242424242424242": true, // Stripe Visa
	"4012888888881881": true, // Visa
	"4222222222222":    true, // Visa 13
	"5555555555554444": true, // Mastercard
	"5105105105105100": true, // Mastercard
	"2223003122003222": true, // Mastercard 2-series
	"378282246310005":  true, // Amex
	"371449635398431":  true, // Amex
	"6011111111111117": true, // Discover
	"6011000990139424": true, // Discover
	"3566002020360505": true, // JCB
	"3530111333300000": true, // JCB
	"30569309025904":   true, // Diners
	"38520000023237":   true, // Diners
	"6200000000000005": true, // UnionPay
}

// IsKnownTestCard reports whether digits is a well-known processor test number.
func IsKnownTestCard(digits string) bool { return knownTestCards[digits] }

// Package core provides a small, stable facade over pansweep's internal
// engine for programs that embed the scanner. It re-exports a narrow API so
// callers can depend on a stable import path without importing internal
// packages.
//
// Example:
//
//	matches, sum, err := core.Scan(ctx, []string{"./logs"})
//	if err != nil { /* handle */ }
//	for _, m := range matches {
//		fmt.Println(m.Path, m.Line, core.MaskedPAN(m))
//	}
//	_ = sum
package core

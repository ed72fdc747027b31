// Package pansweep provides the command-line interface for pansweep. It wires
// subcommands (scan, show, history, baseline, redact, etc.), resolves flags
// against config files, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/pansweep/pansweep/cmd/pansweep"
//	func main() { pansweep.Execute() }
package pansweep

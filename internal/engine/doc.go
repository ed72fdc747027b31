// Package engine contains the core scanning logic for pansweep. It enumerates
// input paths, scans every target file concurrently for payment card numbers,
// and aggregates the results into a summary. This package is internal;
// external consumers should use the stable facade in pkg/core.
package engine

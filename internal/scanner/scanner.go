package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pansweep/pansweep/internal/detectors"
	"github.com/pansweep/pansweep/internal/types"
)

// Scanner scans one file and reports its matches through emit.
type Scanner interface {
	ScanFile(ctx context.Context, path string, emit func(types.CardMatch)) Result
}

// Result is the outcome of scanning one file. Skip is set when the file could
// not be read to the end; matches emitted before the failure still count.
type Result struct {
	Path    string
	Matches int
	Lines   int
	Skip    *types.SkipRecord
}

// LineScanner reads a file as UTF-8 text, one line at a time, and runs the
// detector pipeline on each line.
type LineScanner struct {
	Detector *detectors.Detector
}

// New returns a LineScanner using a detector built from opts.
func New(opts detectors.Options) *LineScanner {
	return &LineScanner{Detector: detectors.New(opts)}
}

// ScanFile scans path. Lines are numbered from 1 and carry no terminator.
// A line that is not valid UTF-8 ends the scan of the file with a decode skip.
// Cancelling ctx stops the scan between lines with a read skip.
func (s *LineScanner) ScanFile(ctx context.Context, path string, emit func(types.CardMatch)) Result {
	res := Result{Path: path}
	f, err := os.Open(path)
	if err != nil {
		res.Skip = &types.SkipRecord{Path: path, Reason: types.SkipOpen, Detail: err.Error()}
		return res
	}
	defer f.Close()

	fs := s.Detector.ForFile(path)
	r := bufio.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			res.Skip = s.skip(path, types.SkipRead, err, res.Matches, res.Lines+1)
			return res
		}
		line, readErr := r.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			res.Skip = s.skip(path, types.SkipRead, readErr, res.Matches, res.Lines+1)
			return res
		}
		if line == "" && readErr != nil {
			return res
		}
		res.Lines++
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if !utf8.ValidString(line) {
			res.Skip = s.skip(path, types.SkipDecode, fmt.Errorf("line %d is not valid UTF-8", res.Lines), res.Matches, res.Lines)
			return res
		}
		for _, m := range fs.ScanLine(res.Lines, line) {
			emit(m)
			res.Matches++
		}
		if readErr != nil {
			return res
		}
	}
}

func (s *LineScanner) skip(path, reason string, err error, matches, line int) *types.SkipRecord {
	return &types.SkipRecord{Path: path, Reason: reason, Detail: err.Error(), Partial: matches > 0, Line: line}
}

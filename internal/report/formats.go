package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned by Write for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the names accepted by Write.
var Formats = []string{"table", "text", "json", "yaml", "csv", "sarif"}

// Write renders doc in the named format.
func Write(w io.Writer, format string, doc Document, opts PrintOptions, version string) error {
	switch strings.ToLower(format) {
	case "", "table":
		return PrintTable(w, doc, opts)
	case "text":
		PrintText(w, doc, opts)
		return nil
	case "json":
		return WriteJSON(w, doc)
	case "yaml", "yml":
		return WriteYAML(w, doc)
	case "csv":
		return WriteCSV(w, doc)
	case "sarif":
		return WriteSARIF(w, doc, version)
	default:
		return fmt.Errorf("%w %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

var csvHeader = []string{"file_path", "line_number", "brand", "pan", "bin", "last_four", "length", "risk", "fully_redacted", "line_content"}

// WriteCSV writes one row per match. The summary is not included.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range doc.Matches {
		rec := []string{
			r.Path,
			strconv.Itoa(r.Line),
			r.Brand,
			r.PAN,
			r.BIN,
			r.LastFour,
			strconv.Itoa(r.Length),
			string(r.Risk),
			strconv.FormatBool(r.FullyRedacted),
			r.Content,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

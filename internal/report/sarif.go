package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pansweep/pansweep/internal/types"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int           `json:"startLine"`
	Snippet   *sarifMessage `json:"snippet,omitempty"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	default:
		return "note"
	}
}

func ruleID(brand string) string {
	return "pan/" + strings.ReplaceAll(strings.ToLower(brand), " ", "-")
}

// WriteSARIF writes doc as SARIF 2.1.0. There is one rule per card brand and
// the result level follows the file's risk. Snippets are omitted from
// unmasked documents.
func WriteSARIF(w io.Writer, doc Document, version string) error {
	if version == "" {
		version = "dev"
	}
	index := map[string]int{}
	var brands []string
	for _, r := range doc.Matches {
		if _, ok := index[r.Brand]; !ok {
			index[r.Brand] = 0
			brands = append(brands, r.Brand)
		}
	}
	sort.Strings(brands)
	run := sarifRun{Tool: sarifTool{Driver: sarifDriver{Name: "pansweep", Version: version, Rules: []sarifRule{}}}}
	for i, b := range brands {
		index[b] = i
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
			ID:               ruleID(b),
			ShortDescription: sarifMessage{Text: b + " card number"},
		})
	}

	run.Results = []sarifResult{}
	for _, r := range doc.Matches {
		region := sarifRegion{StartLine: r.Line}
		if doc.Masked {
			region.Snippet = &sarifMessage{Text: content(r)}
		}
		run.Results = append(run.Results, sarifResult{
			RuleID:    ruleID(r.Brand),
			RuleIndex: index[r.Brand],
			Level:     sevToLevel(r.Risk),
			Message:   sarifMessage{Text: fmt.Sprintf("%s card number %s", r.Brand, maskedForMessage(r))},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: r.Path},
					Region:           region,
				},
			}},
			PartialFingerprints: map[string]string{"pansweep/v1": r.Fingerprint},
		})
	}
	run.Properties = map[string]any{
		"filesScanned":     doc.Summary.FilesScanned,
		"filesSkipped":     doc.Summary.SkippedCount(),
		"unredactedLines":  doc.Unredacted,
		"cardTypeCounts":   doc.Summary.CardTypeCounts,
		"partiallyScanned": len(doc.Summary.PartialFiles),
	}

	out := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// SARIF messages never carry a full PAN, even for unmasked documents.
func maskedForMessage(r Row) string {
	if r.Length <= 10 {
		return strings.Repeat("X", r.Length)
	}
	return r.BIN + strings.Repeat("X", r.Length-10) + r.LastFour
}

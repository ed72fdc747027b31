package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestWriteSARIF_Structure(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, sampleDoc(false), "1.2.3"); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Properties map[string]any `json:"properties"`
			Tool       struct {
				Driver struct {
					Name    string `json:"name"`
					Version string `json:"version"`
					Rules   []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				RuleIndex int    `json:"ruleIndex"`
				Level     string `json:"level"`
				Message   struct {
					Text string `json:"text"`
				} `json:"message"`
				Locations []struct {
					PhysicalLocation struct {
						Region struct {
							StartLine int `json:"startLine"`
							Snippet   *struct {
								Text string `json:"text"`
							} `json:"snippet"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v; body=%s", err, buf.String())
	}
	if doc.Version != "2.1.0" || len(doc.Runs) != 1 {
		t.Fatalf("expected SARIF 2.1.0 with one run")
	}
	run := doc.Runs[0]
	if run.Tool.Driver.Name != "pansweep" || run.Tool.Driver.Version != "1.2.3" {
		t.Fatalf("unexpected driver %+v", run.Tool.Driver)
	}
	if len(run.Tool.Driver.Rules) != 1 || run.Tool.Driver.Rules[0].ID != "pan/visa" {
		t.Fatalf("expected one visa rule, got %+v", run.Tool.Driver.Rules)
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	res := run.Results[0]
	if res.RuleID != "pan/visa" || res.RuleIndex != 0 || res.Level != "note" {
		t.Fatalf("unexpected result %+v", res)
	}
	snip := res.Locations[0].PhysicalLocation.Region.Snippet
	if snip == nil || snip.Text != "paid with 453201XXXXXX0366" {
		t.Fatalf("expected masked snippet, got %+v", snip)
	}
	if run.Properties["unredactedLines"].(float64) != 1 {
		t.Fatalf("expected caveat count in properties: %#v", run.Properties)
	}
}

func TestWriteSARIF_UnmaskedHasNoSnippetOrPAN(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, sampleDoc(true), ""); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, visa) {
		t.Fatal("SARIF must not contain a full PAN")
	}
	if strings.Contains(out, "snippet") {
		t.Fatal("unmasked SARIF should omit snippets")
	}
}

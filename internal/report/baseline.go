package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/pansweep/pansweep/internal/types"
)

// BaselineFile is the default baseline path, relative to the scan root.
const BaselineFile = "pansweep.baseline.json"

// Baseline is a set of match fingerprints accepted as known. It never stores
// card numbers.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return b, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, matches []types.CardMatch) error {
	b := Baseline{Items: map[string]bool{}}
	for _, m := range matches {
		b.Items[Fingerprint(m)] = true
	}
	return b.Save(path)
}

// Save writes b to path as indented JSON.
func (b Baseline) Save(path string) error {
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o600)
}

// FilterNew drops matches already recorded in base.
func FilterNew(matches []types.CardMatch, base Baseline) []types.CardMatch {
	var out []types.CardMatch
	for _, m := range matches {
		if !base.Items[Fingerprint(m)] {
			out = append(out, m)
		}
	}
	return out
}

// Fingerprint identifies a match by path, line and PAN without revealing the PAN.
func Fingerprint(m types.CardMatch) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(m.Path+"\x00"+strconv.Itoa(m.Line)+"\x00"+m.PAN))
}

// ShouldFail reports whether any file's risk, computed from matches alone,
// reaches failOn. An empty level means medium; "none" never fails.
func ShouldFail(matches []types.CardMatch, failOn string) bool {
	level := map[string]int{"low": 1, "medium": 2, "high": 3}
	if failOn == "none" {
		return false
	}
	th := level[failOn]
	if th == 0 {
		th = 2
	}
	perFile := map[string]int{}
	for _, m := range matches {
		perFile[m.Path]++
	}
	for _, n := range perFile {
		if level[string(types.RiskForCount(n))] >= th {
			return true
		}
	}
	return false
}

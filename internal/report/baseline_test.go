package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pansweep/pansweep/internal/types"
)

func TestBaseline_SaveLoadFilter(t *testing.T) {
	p := filepath.Join(t.TempDir(), BaselineFile)
	old := types.NewCardMatch("Visa", visa, "a.log", 5, visa)
	if err := SaveBaseline(p, []types.CardMatch{old}); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), visa) {
		t.Fatal("baseline must not store card numbers")
	}

	b, err := LoadBaseline(p)
	if err != nil {
		t.Fatal(err)
	}
	moved := types.NewCardMatch("Visa", visa, "a.log", 6, visa)
	got := FilterNew([]types.CardMatch{old, moved}, b)
	if len(got) != 1 || got[0].Line != 6 {
		t.Fatalf("expected only the moved match to be new, got %+v", got)
	}
}

func TestLoadBaseline_Missing(t *testing.T) {
	b, err := LoadBaseline(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing baseline")
	}
	if b.Items == nil {
		t.Fatal("expected usable empty baseline")
	}
}

func TestFingerprint_Stable(t *testing.T) {
	m := types.NewCardMatch("Visa", visa, "a.log", 5, "x")
	if Fingerprint(m) != Fingerprint(m) || len(Fingerprint(m)) != 16 {
		t.Fatalf("unexpected fingerprint %q", Fingerprint(m))
	}
	other := m
	other.Path = "b.log"
	if Fingerprint(m) == Fingerprint(other) {
		t.Fatal("fingerprint must depend on path")
	}
}

func TestShouldFail(t *testing.T) {
	n := func(k int) []types.CardMatch {
		var out []types.CardMatch
		for i := 0; i < k; i++ {
			out = append(out, types.NewCardMatch("Visa", visa, "f.log", i+1, visa))
		}
		return out
	}
	cases := []struct {
		matches []types.CardMatch
		level   string
		want    bool
	}{
		{nil, "low", false},
		{n(1), "", false},
		{n(1), "low", true},
		{n(4), "", true},
		{n(4), "high", false},
		{n(11), "high", true},
		{n(11), "none", false},
	}
	for _, c := range cases {
		if got := ShouldFail(c.matches, c.level); got != c.want {
			t.Fatalf("ShouldFail(%d matches, %q)=%v want %v", len(c.matches), c.level, got, c.want)
		}
	}
}

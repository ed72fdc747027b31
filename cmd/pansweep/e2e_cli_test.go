package pansweep

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pansweep/pansweep/internal/audit"
	"github.com/pansweep/pansweep/internal/config"
	"github.com/pansweep/pansweep/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	visa       = "4111111111111111"
	maskedVisa = "411111XXXXXX1111"
)

// resetFlags restores every flag to its default so commands can run more
// than once in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errb bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errb)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errb.String(), err
}

func cliFixture(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CI", "1")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.txt"), []byte("id,card\n1,"+visa+"\n2,none\n"), 0o644))
	return dir
}

func decodeDoc(t *testing.T, s string) report.Document {
	t.Helper()
	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(s), &doc), s)
	return doc
}

func TestCLI_ScanJSONIsMasked(t *testing.T) {
	dir := cliFixture(t)
	out, _, err := run(t, "scan", dir, "--format", "json")
	require.NoError(t, err)
	assert.NotContains(t, out, visa)

	doc := decodeDoc(t, out)
	assert.True(t, doc.Masked)
	require.Len(t, doc.Matches, 1)
	assert.Equal(t, maskedVisa, doc.Matches[0].PAN)
	assert.Equal(t, "Visa", doc.Matches[0].Brand)
	assert.Equal(t, 2, doc.Matches[0].Line)
	assert.Equal(t, 1, doc.Summary.FilesScanned)
}

func TestCLI_ScanUnmasked(t *testing.T) {
	dir := cliFixture(t)
	out, _, err := run(t, "scan", dir, "--format", "json", "--unmasked")
	require.NoError(t, err)
	doc := decodeDoc(t, out)
	assert.False(t, doc.Masked)
	require.Len(t, doc.Matches, 1)
	assert.Equal(t, visa, doc.Matches[0].PAN)
}

func TestCLI_FailOn(t *testing.T) {
	dir := cliFixture(t)
	_, _, err := run(t, "scan", dir, "--format", "json")
	require.NoError(t, err, "one match is low risk, below the medium default")

	_, _, err = run(t, "scan", dir, "--format", "json", "--fail-on", "low")
	assert.ErrorIs(t, err, errThreshold)

	_, _, err = run(t, "scan", dir, "--format", "json", "--fail-on", "none")
	assert.NoError(t, err)
}

func TestCLI_OutputFile(t *testing.T) {
	dir := cliFixture(t)
	dest := filepath.Join(t.TempDir(), "report.sarif")
	out, _, err := run(t, "scan", dir, "--format", "sarif", "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	st, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	var sarif map[string]any
	require.NoError(t, json.Unmarshal(b, &sarif))
	assert.Equal(t, "2.1.0", sarif["version"])
	assert.NotContains(t, string(b), visa)
}

func TestCLI_UnknownFormat(t *testing.T) {
	dir := cliFixture(t)
	_, _, err := run(t, "scan", dir, "--format", "xml")
	assert.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestCLI_TableDefault(t *testing.T) {
	dir := cliFixture(t)
	out, _, err := run(t, "scan", dir, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, maskedVisa)
	assert.NotContains(t, out, visa)
}

func TestCLI_BaselineHidesKnownMatches(t *testing.T) {
	dir := cliFixture(t)
	out, _, err := run(t, "baseline", "update", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Baseline updated: 1 match(es)")
	assert.FileExists(t, filepath.Join(dir, report.BaselineFile))

	out, _, err = run(t, "scan", dir, "--format", "json", "--fail-on", "low")
	require.NoError(t, err)
	assert.Empty(t, decodeDoc(t, out).Matches)

	out, _, err = run(t, "scan", dir, "--format", "json", "--no-baseline")
	require.NoError(t, err)
	assert.Len(t, decodeDoc(t, out).Matches, 1)
}

func TestCLI_HistoryAndShow(t *testing.T) {
	dir := cliFixture(t)
	_, _, err := run(t, "show", "--root", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no saved scan")

	out, _, err := run(t, "history", "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No scan history yet")

	_, _, err = run(t, "scan", dir, "--format", "json")
	require.NoError(t, err)

	out, _, err = run(t, "history", "--root", dir, "--json")
	require.NoError(t, err)
	var recs []audit.ScanRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].TotalCards)
	assert.Equal(t, 1, recs[0].CardTypeCounts["Visa"])
	assert.NotContains(t, out, visa)

	out, _, err = run(t, "show", "--root", dir, "--format", "json")
	require.NoError(t, err)
	doc := decodeDoc(t, out)
	assert.True(t, doc.Masked)
	require.Len(t, doc.Matches, 1)
	assert.Equal(t, maskedVisa, doc.Matches[0].PAN)

	out, _, err = run(t, "history", "delete", "0", "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted record 0")
	recs, err = audit.NewAuditLog(dir).LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCLI_NoAuditNoCache(t *testing.T) {
	dir := cliFixture(t)
	_, _, err := run(t, "scan", dir, "--format", "json", "--no-audit", "--no-cache")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, ".pansweep_audit.jsonl"))
	assert.NoFileExists(t, filepath.Join(dir, ".pansweep_last_scan.json"))
}

func TestCLI_LocalConfig(t *testing.T) {
	dir := cliFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".pansweep.yml"), []byte("fail_on: low\nformat: json\n"), 0o644))
	out, _, err := run(t, "scan", dir)
	assert.ErrorIs(t, err, errThreshold)
	assert.Len(t, decodeDoc(t, out).Matches, 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".pansweep.yml"), []byte("fail_on: sometimes\n"), 0o644))
	_, _, err = run(t, "scan", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local config")
}

func TestCLI_Redact(t *testing.T) {
	dir := cliFixture(t)
	outDir := t.TempDir()
	out, _, err := run(t, "redact", dir, "--out", outDir)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	b, err := os.ReadFile(filepath.Join(outDir, "orders.txt"))
	require.NoError(t, err)
	assert.Equal(t, "id,card\n1,"+maskedVisa+"\n2,none\n", string(b))

	src, err := os.ReadFile(filepath.Join(dir, "orders.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(src), visa)
}

func TestCLI_RedactDryRun(t *testing.T) {
	dir := cliFixture(t)
	outDir := filepath.Join(t.TempDir(), "copies")
	out, _, err := run(t, "redact", dir, "--out", outDir, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "(dry-run)")
	assert.NoDirExists(t, outDir)
}

func TestCLI_RedactStopsAtUnscannedLines(t *testing.T) {
	dir := cliFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dump.txt"), []byte("a "+visa+"\n\xff\xfe\nb 5555555555554444\n"), 0o644))
	outDir := t.TempDir()

	out, stderr, err := run(t, "redact", dir, "--out", outDir, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "truncated before line 2")

	out, stderr, err = run(t, "redact", dir, "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "2+ (not copied)")
	assert.Contains(t, stderr, "was not fully scanned")

	b, err := os.ReadFile(filepath.Join(outDir, "dump.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a "+maskedVisa+"\n", string(b))
	assert.NotContains(t, string(b), "5555555555554444")
}

func TestCLI_RedactDryRunPatterns(t *testing.T) {
	dir := cliFixture(t)
	out, _, err := run(t, "redact", dir, "--out", t.TempDir(), "--dry-run", "--pattern", `id,\w+`)
	require.NoError(t, err)
	assert.Contains(t, out, "--pattern matches")
}

func TestCLI_InlineIgnore(t *testing.T) {
	dir := cliFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.txt"), []byte("1,"+visa+" # pansweep:ignore\n"), 0o644))

	out, _, err := run(t, "scan", dir, "--format", "json")
	require.NoError(t, err)
	assert.Empty(t, decodeDoc(t, out).Matches)

	out, _, err = run(t, "scan", dir, "--format", "json", "--no-inline-ignore")
	require.NoError(t, err)
	assert.Len(t, decodeDoc(t, out).Matches, 1)
}

func TestCLI_Brands(t *testing.T) {
	out, _, err := run(t, "brands")
	require.NoError(t, err)
	for _, b := range []string{"Visa", "Mastercard", "American Express", "Unknown"} {
		assert.Contains(t, out, b)
	}
}

func TestCLI_ConfigInit(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), ".pansweep.yml")
	_, _, err := run(t, "config", "init", "--output", path)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Template, string(b))

	_, _, err = run(t, "config", "init", "--output", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = run(t, "config", "init", "--output", path, "--force")
	assert.NoError(t, err)

	_, err = config.LoadFile(path)
	assert.NoError(t, err, "template must validate")
}

func TestCLI_ConfigShow(t *testing.T) {
	dir := cliFixture(t)
	out, _, err := run(t, "config", "show", "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "no configuration found")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".pansweep.yml"), []byte("threads: 2\n"), 0o644))
	out, _, err = run(t, "config", "show", "--root", dir)
	require.NoError(t, err)
	assert.Equal(t, "threads: 2\n", out)
}

func TestCLI_Ignore(t *testing.T) {
	dir := cliFixture(t)
	_, _, err := run(t, "ignore", "--root", dir, "orders.txt")
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, ".pansweepignore"))
	require.NoError(t, err)
	assert.Equal(t, "orders.txt\n", string(b))

	out, _, err := run(t, "scan", dir, "--format", "json")
	require.NoError(t, err)
	assert.Empty(t, decodeDoc(t, out).Matches)

	_, _, err = run(t, "ignore", "--root", dir)
	assert.Error(t, err)
}

func TestCLI_CIInit(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, _, err = run(t, "ci", "init", "--provider", "github")
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, ".github", "workflows", "pansweep.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "--format sarif")

	_, _, err = run(t, "ci", "init", "--provider", "jenkins")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Supported")
}

func TestCLI_Completion(t *testing.T) {
	out, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "pansweep"))
}

func TestCLI_Version(t *testing.T) {
	t.Setenv("CI", "1")
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pansweep "+version+"\n", out)
}

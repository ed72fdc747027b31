package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteJSON_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleDoc(false)))
	var got Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleDoc(false), got)
	assert.NotContains(t, buf.String(), visa)
}

func TestWriteYAML_HasSummaryKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, sampleDoc(false)))
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	sum, ok := got["summary"].(map[string]any)
	require.True(t, ok, "summary missing: %s", buf.String())
	assert.Equal(t, 3, sum["files_scanned"])
	assert.Equal(t, 1, got["unredacted_lines"])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleDoc(false)))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, csvHeader, recs[0])
	assert.Equal(t, []string{"a.log", "5", "Visa", "453201XXXXXX0366", "453201", "0366", "16", "low", "true", "paid with 453201XXXXXX0366"}, recs[1])
	assert.Equal(t, "false", recs[2][8])
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "xml", sampleDoc(false), PrintOptions{}, "")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestWrite_Dispatch(t *testing.T) {
	for _, f := range Formats {
		t.Run(f, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, f, sampleDoc(false), PrintOptions{NoColor: true}, "test"))
			assert.NotEmpty(t, buf.String())
		})
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,sales,store\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%s,%d,north\n", start.AddDate(0, 0, i).Format("2006-01-02"), 100+i%7*5+i)
	}
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestReadCSVRows(t *testing.T) {
	rows, err := readCSVRows(strings.NewReader("date, sales\n2024-01-01,10\n2024-01-02,\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-01", rows[0]["date"])
	assert.Equal(t, "10", rows[0]["sales"])
	assert.Nil(t, rows[1]["sales"])
}

func TestReadJSONRows(t *testing.T) {
	rows, err := readJSONRows(strings.NewReader(`[{"date":"2024-01-01","value":12.5}]`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("12.5"), rows[0]["value"])

	_, err = readJSONRows(strings.NewReader(`{"date":"2024-01-01"}`))
	assert.Error(t, err)
}

func TestReadRowsFileMissing(t *testing.T) {
	_, err := readRowsFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestRunCommandForest(t *testing.T) {
	input := writeCSV(t, 90)
	report := filepath.Join(t.TempDir(), "out.xlsx")

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"run", "--input", input, "--target-col", "sales", "--horizon", "7", "--model", "forest", "--xlsx", report})
	require.NoError(t, cmd.Execute())

	var rec struct {
		FutureValues []float64 `json:"future_values"`
		Insights     struct {
			ModelUsed string `json:"model_used"`
		} `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Len(t, rec.FutureValues, 7)
	assert.Equal(t, "Random Forest", rec.Insights.ModelUsed)

	info, err := os.Stat(report)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunCommandErrorRecord(t *testing.T) {
	input := writeCSV(t, 30)

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"run", "--input", input, "--target-col", "revenue"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, out.String(), `"error"`)
}

func TestBackendsCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"backends", "--disable", "boosted"})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "boosted")
	assert.Contains(t, lines[1], "unavailable")
	assert.Contains(t, lines[2], "available")
	assert.Contains(t, lines[2], "Random Forest")
}

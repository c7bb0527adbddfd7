package trace

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows(runID string) ([]EventRow, []RoutingRecord) {
	events := []EventRow{
		{RunID: runID, Customer: "Customer-0", Log: "waiting", Seq: 0, Time: 0, Label: "enqueue Waiting Queue"},
		{RunID: runID, Customer: "Customer-0", Log: "waiting", Seq: 1, Time: 0.5, Label: "dequeue Waiting Queue"},
		{RunID: runID, Customer: "Customer-0", Log: "service", Seq: 0, Time: 0.5, Label: "served by Waiting Server"},
	}
	routings := []RoutingRecord{
		{Customer: "Customer-0", Clock: 1.5, Stage: "Waiting Stage", Server: "Waiting Server", Outcome: "order", Target: "Order Queue 1"},
	}
	return events, routings
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriter_WritesEventsAndRoutings(t *testing.T) {
	// GIVEN a CSV writer in a fresh directory
	path := filepath.Join(t.TempDir(), "run.csv")
	w, err := NewWriter("csv", path)
	require.NoError(t, err)
	runID := NewRunID()
	events, routings := sampleRows(runID)

	// WHEN rows are written and the writer closed
	for _, e := range events {
		require.NoError(t, w.WriteEvent(e))
	}
	for _, r := range routings {
		require.NoError(t, w.WriteRouting(runID, r))
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "Close must be idempotent")

	// THEN both files hold a header plus one line per row
	eventRows := readCSV(t, path)
	require.Len(t, eventRows, 1+len(events))
	assert.Equal(t, []string{"run_id", "customer", "log", "seq", "time", "label"}, eventRows[0])
	assert.Equal(t, []string{runID, "Customer-0", "waiting", "1", "0.5", "dequeue Waiting Queue"}, eventRows[2])

	routingRows := readCSV(t, strings.TrimSuffix(path, ".csv")+"_routing.csv")
	require.Len(t, routingRows, 2)
	assert.Equal(t, []string{runID, "Customer-0", "1.5", "Waiting Stage", "Waiting Server", "order", "Order Queue 1"}, routingRows[1])
}

func TestCSVWriter_ExistingFile_ReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o644))

	_, err := NewCSVWriter(path)

	assert.Error(t, err)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "keep me", string(data))
}

func TestNewWriter_UnknownFormat_ReturnsError(t *testing.T) {
	_, err := NewWriter("parquet", filepath.Join(t.TempDir(), "x"))
	assert.Error(t, err)
}

func TestNewRunID_Unique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 20)
}

func TestSQLiteWriter_WritesEventsAndRoutings(t *testing.T) {
	// GIVEN a SQLite writer in a fresh directory
	path := filepath.Join(t.TempDir(), "run.sqlite3")
	w, err := NewSQLiteWriter(path)
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("sqlite3 driver needs cgo")
	}
	require.NoError(t, err)
	runID := NewRunID()
	events, routings := sampleRows(runID)

	// WHEN rows are written and the writer closed
	for _, e := range events {
		require.NoError(t, w.WriteEvent(e))
	}
	for _, r := range routings {
		require.NoError(t, w.WriteRouting(runID, r))
	}
	require.NoError(t, w.Close())

	// THEN the tables hold every row
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM customer_event WHERE run_id = ?`, runID).Scan(&n))
	assert.Equal(t, len(events), n)
	var target string
	require.NoError(t, db.QueryRow(`SELECT target FROM routing WHERE customer = ?`, "Customer-0").Scan(&target))
	assert.Equal(t, "Order Queue 1", target)

	// THEN the file cannot be reused
	_, err = NewSQLiteWriter(path)
	assert.Error(t, err)
}

func TestCSVWriter_CloseFiles_ReleasesBothFiles(t *testing.T) {
	// GIVEN a freshly created CSV writer
	w, err := NewCSVWriter(filepath.Join(t.TempDir(), "run.csv"))
	require.NoError(t, err)
	require.Len(t, w.files, 2)

	// WHEN its files are closed on an error path
	require.NoError(t, w.closeFiles())

	// THEN neither file accepts further writes
	for _, f := range w.files {
		_, err := f.Write([]byte("x"))
		assert.ErrorIs(t, err, os.ErrClosed, f.Name())
	}
}

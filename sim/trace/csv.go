package trace

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tebeka/atexit"
)

// CSVWriter writes event rows to <path> and routing rows to
// <path without .csv>_routing.csv.
type CSVWriter struct {
	path        string
	events      *csv.Writer
	routings    *csv.Writer
	files       []*os.File
	bufferSize  int
	pendingRows int
	closed      bool
}

// NewCSVWriter creates both CSV files. Existing files are not overwritten.
func NewCSVWriter(path string) (*CSVWriter, error) {
	path = defaultPath(path, ".csv")
	routingPath := strings.TrimSuffix(path, ".csv") + "_routing.csv"

	w := &CSVWriter{path: path, bufferSize: 1000}
	eventsFile, err := createExclusive(path)
	if err != nil {
		return nil, err
	}
	routingFile, err := createExclusive(routingPath)
	if err != nil {
		_ = eventsFile.Close()
		return nil, err
	}
	w.files = []*os.File{eventsFile, routingFile}
	w.events = csv.NewWriter(eventsFile)
	w.routings = csv.NewWriter(routingFile)

	if err := w.writeHeaders(); err != nil {
		_ = w.closeFiles()
		return nil, err
	}

	atexit.Register(func() { _ = w.Close() })
	return w, nil
}

// Path returns the event file path.
func (w *CSVWriter) Path() string { return w.path }

// WriteEvent buffers one event row.
func (w *CSVWriter) WriteEvent(row EventRow) error {
	err := w.events.Write([]string{
		row.RunID,
		row.Customer,
		row.Log,
		strconv.Itoa(row.Seq),
		strconv.FormatFloat(row.Time, 'f', -1, 64),
		row.Label,
	})
	if err != nil {
		return err
	}
	return w.tick()
}

// WriteRouting buffers one routing decision.
func (w *CSVWriter) WriteRouting(runID string, r RoutingRecord) error {
	err := w.routings.Write([]string{
		runID,
		r.Customer,
		strconv.FormatFloat(r.Clock, 'f', -1, 64),
		r.Stage,
		r.Server,
		r.Outcome,
		r.Target,
	})
	if err != nil {
		return err
	}
	return w.tick()
}

func (w *CSVWriter) tick() error {
	w.pendingRows++
	if w.pendingRows >= w.bufferSize {
		return w.Flush()
	}
	return nil
}

// Flush writes buffered rows to disk.
func (w *CSVWriter) Flush() error {
	w.pendingRows = 0
	w.events.Flush()
	w.routings.Flush()
	if err := w.events.Error(); err != nil {
		return err
	}
	return w.routings.Error()
}

// Close flushes and closes both files.
func (w *CSVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.Flush()
	if closeErr := w.closeFiles(); err == nil {
		err = closeErr
	}
	return err
}

func (w *CSVWriter) writeHeaders() error {
	if err := w.events.Write([]string{"run_id", "customer", "log", "seq", "time", "label"}); err != nil {
		return err
	}
	return w.routings.Write([]string{"run_id", "customer", "time", "stage", "server", "outcome", "target"})
}

// closeFiles closes both files and returns the first error.
func (w *CSVWriter) closeFiles() error {
	var err error
	for _, f := range w.files {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

func createExclusive(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	return f, nil
}

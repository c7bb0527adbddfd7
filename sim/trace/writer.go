package trace

import (
	"fmt"

	"github.com/rs/xid"
)

// Writer exports customer event logs and routing decisions.
// Writes are buffered; Flush pushes buffered rows to the backing store and
// Close flushes and releases it. Close is idempotent.
type Writer interface {
	WriteEvent(row EventRow) error
	WriteRouting(runID string, record RoutingRecord) error
	Flush() error
	Close() error
}

// NewRunID returns a globally unique, time-sortable run identifier.
func NewRunID() string {
	return xid.New().String()
}

// NewWriter creates a writer for the given format ("csv" or "sqlite").
// An empty path derives a unique file name from a fresh xid.
func NewWriter(format, path string) (Writer, error) {
	switch format {
	case "csv":
		return NewCSVWriter(path)
	case "sqlite":
		return NewSQLiteWriter(path)
	default:
		return nil, fmt.Errorf("unknown trace format %q (want csv or sqlite)", format)
	}
}

func defaultPath(path, ext string) string {
	if path == "" {
		return "buffet_trace_" + xid.New().String() + ext
	}
	return path
}

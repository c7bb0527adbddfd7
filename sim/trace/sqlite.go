package trace

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

// SQLiteWriter writes event rows and routing decisions into two tables of a
// SQLite database, batching inserts into transactions.
type SQLiteWriter struct {
	*sql.DB
	path             string
	eventStatement   *sql.Stmt
	routingStatement *sql.Stmt

	eventsToWrite   []EventRow
	routingsToWrite []routingRow
	batchSize       int
	closed          bool
}

type routingRow struct {
	runID  string
	record RoutingRecord
}

// NewSQLiteWriter creates a new database file. An existing file is an error.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	path = defaultPath(path, ".sqlite3")
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	w := &SQLiteWriter{DB: db, path: path, batchSize: 10000}

	if err := w.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := w.prepareStatements(); err != nil {
		_ = db.Close()
		return nil, err
	}
	logrus.Infof("Trace is collected in database %s", path)

	atexit.Register(func() { _ = w.Close() })
	return w, nil
}

// Path returns the database file path.
func (w *SQLiteWriter) Path() string { return w.path }

func (w *SQLiteWriter) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customer_event
		(
			run_id   VARCHAR(32)  NOT NULL,
			customer VARCHAR(64)  NOT NULL,
			log      VARCHAR(16)  NOT NULL,
			seq      INTEGER      NOT NULL,
			time     FLOAT        NOT NULL,
			label    VARCHAR(200) NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS customer_event_customer_index ON customer_event (customer);`,
		`CREATE INDEX IF NOT EXISTS customer_event_time_index ON customer_event (time);`,
		`CREATE TABLE IF NOT EXISTS routing
		(
			run_id   VARCHAR(32)  NOT NULL,
			customer VARCHAR(64)  NOT NULL,
			time     FLOAT        NOT NULL,
			stage    VARCHAR(100) NOT NULL,
			server   VARCHAR(100) NOT NULL,
			outcome  VARCHAR(16)  NOT NULL,
			target   VARCHAR(100)
		);`,
		`CREATE INDEX IF NOT EXISTS routing_stage_index ON routing (stage);`,
	}
	for _, s := range stmts {
		if _, err := w.Exec(s); err != nil {
			return fmt.Errorf("creating trace tables: %w", err)
		}
	}
	return nil
}

func (w *SQLiteWriter) prepareStatements() error {
	var err error
	w.eventStatement, err = w.Prepare(
		`INSERT INTO customer_event (run_id, customer, log, seq, time, label) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing event statement: %w", err)
	}
	w.routingStatement, err = w.Prepare(
		`INSERT INTO routing (run_id, customer, time, stage, server, outcome, target) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing routing statement: %w", err)
	}
	return nil
}

// WriteEvent buffers one event row.
func (w *SQLiteWriter) WriteEvent(row EventRow) error {
	w.eventsToWrite = append(w.eventsToWrite, row)
	if len(w.eventsToWrite)+len(w.routingsToWrite) >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// WriteRouting buffers one routing decision.
func (w *SQLiteWriter) WriteRouting(runID string, r RoutingRecord) error {
	w.routingsToWrite = append(w.routingsToWrite, routingRow{runID: runID, record: r})
	if len(w.eventsToWrite)+len(w.routingsToWrite) >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// Flush inserts all buffered rows in a single transaction.
func (w *SQLiteWriter) Flush() error {
	if len(w.eventsToWrite) == 0 && len(w.routingsToWrite) == 0 {
		return nil
	}

	tx, err := w.Begin()
	if err != nil {
		return err
	}
	eventStmt := tx.Stmt(w.eventStatement)
	for _, e := range w.eventsToWrite {
		if _, err := eventStmt.Exec(e.RunID, e.Customer, e.Log, e.Seq, e.Time, e.Label); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting event %+v: %w", e, err)
		}
	}
	routingStmt := tx.Stmt(w.routingStatement)
	for _, r := range w.routingsToWrite {
		rec := r.record
		if _, err := routingStmt.Exec(r.runID, rec.Customer, rec.Clock, rec.Stage, rec.Server, rec.Outcome, rec.Target); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting routing %+v: %w", rec, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	w.eventsToWrite = nil
	w.routingsToWrite = nil
	return nil
}

// Close flushes and closes the database.
func (w *SQLiteWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.Flush()
	if closeErr := w.DB.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

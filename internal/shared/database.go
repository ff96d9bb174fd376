package shared

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultBusyTimeout is how long a connection waits on a locked database.
const DefaultBusyTimeout = 5 * time.Second

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	return OpenDatabase(path, DefaultBusyTimeout)
}

// OpenDatabase is [NewDatabase] with an explicit busy timeout.
//
// Pragmas go into the DSN so the driver applies them to every pooled connection.
func OpenDatabase(path string, busyTimeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", DSN(path, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to ":memory:" is a separate database
	if isMemory(path) {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// DSN appends the per-connection pragmas to path as go-sqlite3 parameters.
// Foreign keys are always on; WAL is used for file databases.
func DSN(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	if busyTimeout > 0 {
		params.Set("_busy_timeout", fmt.Sprint(busyTimeout.Milliseconds()))
	}
	if !isMemory(path) {
		params.Set("_journal_mode", "WAL")
		params.Set("_synchronous", "NORMAL")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}

// ConfigureDatabase sets connection pool settings.
//
// Writers are serialized through a single connection unless maxOpenConns says otherwise;
// WAL mode lets the status server read while a poll is writing.
func ConfigureDatabase(db *sql.DB, path string, maxOpenConns, maxIdleConns int) {
	if maxOpenConns <= 0 || isMemory(path) {
		maxOpenConns = 1
	}
	if maxIdleConns <= 0 || maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

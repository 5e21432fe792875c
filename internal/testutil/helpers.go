package testutil

import (
	"database/sql"
	"os"
	"testing"
)

// OpenDB opens a database connection and closes it when the test finishes.
func OpenDB(t *testing.T, driver, url string) *sql.DB {
	t.Helper()

	db, err := sql.Open(driver, url)
	if err != nil {
		t.Fatalf("failed to open %s database: %v", driver, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("failed to ping %s database: %v", driver, err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// ExecScript executes every statement of a generated script in order.
// It fails the test on the first statement the database rejects.
func ExecScript(t *testing.T, db *sql.DB, script string) {
	t.Helper()

	if err := TryExecScript(db, script); err != nil {
		t.Fatalf("failed to execute script: %v\nscript:\n%s", err, script)
	}
}

// TryExecScript is ExecScript returning the first failure instead of failing.
func TryExecScript(db *sql.DB, script string) error {
	for _, stmt := range SplitStatements(script) {
		if _, err := db.Exec(stmt); err != nil {
			return &StatementError{Statement: stmt, Err: err}
		}
	}
	return nil
}

// StatementError reports which statement of a script failed.
type StatementError struct {
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return e.Err.Error() + "\nstatement: " + e.Statement
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// SkipIfShort skips the test if running in short mode.
// Use this for integration tests.
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireEnv ensures an environment variable is set, or skips the test.
func RequireEnv(t *testing.T, key string) string {
	t.Helper()

	value := os.Getenv(key)
	if value == "" {
		t.Skipf("Required environment variable %s not set", key)
	}

	return value
}

// Must asserts that err is nil, or fails the test immediately.
//
// Example:
//
//	testutil.Must(t, os.WriteFile(path, data, 0644))
func Must(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// MustValue asserts that err is nil, or fails the test immediately.
// Returns the value on success.
//
// Example:
//
//	content := testutil.MustValue(t, os.ReadFile(path))
func MustValue[T any](t *testing.T, value T, err error) T {
	t.Helper()

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	return value
}

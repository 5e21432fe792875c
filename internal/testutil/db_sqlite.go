//go:build integration || sqlite

package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// SetupSQLite creates an in-memory SQLite database with foreign keys enabled.
// The connection is automatically closed when the test completes.
func SetupSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db := OpenDB(t, "sqlite", ":memory:")

	// A single connection keeps every statement on the same in-memory database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	return db
}

// AssertTableExists checks that a table exists in the SQLite database.
func AssertTableExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()

	var name string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name = ?
	`, table).Scan(&name)
	if err == sql.ErrNoRows {
		t.Errorf("expected table %q to exist, but it does not", table)
		return
	}
	if err != nil {
		t.Fatalf("failed to check if table exists: %v", err)
	}
}

// SQLiteColumn is one row of PRAGMA table_info.
type SQLiteColumn struct {
	Name    string
	Type    string
	NotNull bool
	PK      bool
}

// SQLiteColumns returns the columns of table in declaration order.
func SQLiteColumns(t *testing.T, db *sql.DB, table string) []SQLiteColumn {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to read table info: %v", err)
	}
	defer rows.Close()

	var cols []SQLiteColumn
	for rows.Next() {
		var (
			cid     int
			c       SQLiteColumn
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &c.Name, &c.Type, &notNull, &dflt, &pk); err != nil {
			t.Fatalf("failed to scan table info: %v", err)
		}
		c.NotNull = notNull != 0
		c.PK = pk != 0
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed to iterate table info: %v", err)
	}
	return cols
}

// SQLiteForeignKeys returns "<from> -> <table>(<to>)" for each foreign key of table.
func SQLiteForeignKeys(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA foreign_key_list(" + table + ")")
	if err != nil {
		t.Fatalf("failed to read foreign keys: %v", err)
	}
	defer rows.Close()

	var fks []string
	for rows.Next() {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			t.Fatalf("failed to scan foreign key: %v", err)
		}
		fks = append(fks, from+" -> "+refTable+"("+to+")")
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed to iterate foreign keys: %v", err)
	}
	return fks
}

package testutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/hlop3z/erdlab/internal/alerr"
)

var whitespace = regexp.MustCompile(`\s+`)

// -----------------------------------------------------------------------------
// SQL Assertions
// -----------------------------------------------------------------------------

// NormalizeSQL normalizes a SQL string for comparison.
// It collapses whitespace runs into a single space, trims, and upper-cases.
func NormalizeSQL(sql string) string {
	sql = whitespace.ReplaceAllString(sql, " ")
	return strings.ToUpper(strings.TrimSpace(sql))
}

// AssertSQL compares two SQL strings after normalizing them.
func AssertSQL(t *testing.T, got, want string) {
	t.Helper()

	gotNorm := NormalizeSQL(got)
	wantNorm := NormalizeSQL(want)

	if gotNorm != wantNorm {
		t.Errorf("SQL mismatch:\ngot:  %s\nwant: %s\n\noriginal got:\n%s\n\noriginal want:\n%s",
			gotNorm, wantNorm, got, want)
	}
}

// AssertSQLContains checks if a SQL string contains a substring.
// Both strings are normalized before comparison.
func AssertSQLContains(t *testing.T, sql, substr string) {
	t.Helper()

	sqlNorm := NormalizeSQL(sql)
	substrNorm := NormalizeSQL(substr)

	if !strings.Contains(sqlNorm, substrNorm) {
		t.Errorf("SQL does not contain expected substring:\nsql:    %s\nsubstr: %s\n\noriginal sql:\n%s",
			sqlNorm, substrNorm, sql)
	}
}

// SplitStatements splits a generated script into its statements, dropping
// the terminators and empty trailing text.
func SplitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Error Assertions
// -----------------------------------------------------------------------------

// AssertError checks that an error has the expected error code.
// If err is nil or doesn't have the expected code, the test fails.
func AssertError(t *testing.T, err error, code alerr.Code) {
	t.Helper()

	if err == nil {
		t.Errorf("expected error with code %s, got nil", code)
		return
	}

	gotCode := alerr.GetErrorCode(err)
	if gotCode != code {
		t.Errorf("expected error code %s, got %s\nerror: %v", code, gotCode, err)
	}
}

// AssertNoError checks that an error is nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

// AssertErrorContains checks that an error message contains a substring.
func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()

	if err == nil {
		t.Errorf("expected error containing %q, got nil", substr)
		return
	}

	if !strings.Contains(err.Error(), substr) {
		t.Errorf("error message does not contain %q\ngot: %v", substr, err)
	}
}

// -----------------------------------------------------------------------------
// Test Helpers
// -----------------------------------------------------------------------------

// WriteFile writes content to a file, creating parent directories as needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent directories: %v", err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// AssertEqual is a generic equality check for testing.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()

	if got != want {
		t.Errorf("values not equal:\ngot:  %v\nwant: %v", got, want)
	}
}

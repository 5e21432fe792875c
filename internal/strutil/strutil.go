// Package strutil provides the identifier helpers used when turning model
// names into table and column names.
package strutil

import (
	"strings"
	"unicode"
)

// -----------------------------------------------------------------------------
// SQL Naming
// -----------------------------------------------------------------------------

// TableIdent returns the table identifier for an entity name.
// Names are lower-cased verbatim; no quoting or escaping is applied.
// Example: TableIdent("User") -> "user"
func TableIdent(name string) string {
	return strings.ToLower(name)
}

// ColumnIdent returns the column identifier for an attribute name.
// Example: ColumnIdent("createdAt") -> "createdat"
func ColumnIdent(name string) string {
	return strings.ToLower(name)
}

// FKColumn returns the foreign key column name for a table.
// Example: FKColumn("user") -> "user_id"
func FKColumn(table string) string {
	return table + "_id"
}

// JunctionName returns the junction table name for a pair of entity names.
// Example: JunctionName("Student", "Course") -> "student_course"
func JunctionName(source, target string) string {
	return TableIdent(source) + "_" + TableIdent(target)
}

// -----------------------------------------------------------------------------
// Case Conversion
// -----------------------------------------------------------------------------

// ToSnakeCase converts a string to snake_case.
// Examples: userName -> user_name, UserName -> user_name, HTTPServer -> http_server
func ToSnakeCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(s) + 4)

	for i, r := range s {
		if unicode.IsUpper(r) {
			// Underscore before an upper-case letter that follows a lower-case
			// one, or that starts a new word after an acronym ("HTTPServer").
			if i > 0 {
				prev := rune(s[i-1])
				if unicode.IsLower(prev) {
					result.WriteByte('_')
				} else if i+1 < len(s) && unicode.IsLower(rune(s[i+1])) {
					result.WriteByte('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else if r == '-' || r == ' ' {
			result.WriteByte('_')
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// Slug converts a display name into an id fragment.
// Example: Slug("New Entity") -> "new-entity"
func Slug(s string) string {
	parts := strings.FieldsFunc(ToSnakeCase(strings.TrimSpace(s)), func(r rune) bool {
		return r == '_'
	})
	return strings.Join(parts, "-")
}

// -----------------------------------------------------------------------------
// Formatting
// -----------------------------------------------------------------------------

// Indent indents each non-empty line of text with the given number of spaces.
func Indent(text string, spaces int) string {
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n < 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

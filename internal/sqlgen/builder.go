// Package sqlgen renders a schema as a canonical table-definition script.
//
// There is a single output form: identifiers are lower-cased and written
// verbatim, with no quoting, escaping or reserved-word handling, and type
// labels are passed through unchanged.
package sqlgen

import (
	"strings"
)

// Indent prefixes every column line inside a CREATE TABLE body.
const Indent = "  "

// Builder provides fluent construction of DDL fragments.
type Builder struct {
	buf strings.Builder
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// ----------------------------------------------------------------------------
// DDL Helpers
// ----------------------------------------------------------------------------

// CreateTable appends "CREATE TABLE <name>" to the buffer.
func (b *Builder) CreateTable(name string) *Builder {
	b.buf.WriteString("CREATE TABLE ")
	b.buf.WriteString(name)
	return b
}

// Column appends an indented "<name> <typ>" to the buffer.
func (b *Builder) Column(name, typ string) *Builder {
	b.buf.WriteString(Indent)
	b.buf.WriteString(name)
	b.buf.WriteString(" ")
	b.buf.WriteString(typ)
	return b
}

// ----------------------------------------------------------------------------
// Column Modifiers
// ----------------------------------------------------------------------------

// PrimaryKey appends "PRIMARY KEY" to the buffer.
func (b *Builder) PrimaryKey() *Builder {
	b.buf.WriteString(" PRIMARY KEY")
	return b
}

// NotNull appends "NOT NULL" to the buffer.
func (b *Builder) NotNull() *Builder {
	b.buf.WriteString(" NOT NULL")
	return b
}

// References appends "REFERENCES <table>(<column>)" to the buffer.
func (b *Builder) References(table, column string) *Builder {
	b.buf.WriteString(" REFERENCES ")
	b.buf.WriteString(table)
	b.buf.WriteString("(")
	b.buf.WriteString(column)
	b.buf.WriteString(")")
	return b
}

// ----------------------------------------------------------------------------
// Utilities
// ----------------------------------------------------------------------------

// Raw appends raw SQL to the buffer without any modification.
func (b *Builder) Raw(sql string) *Builder {
	b.buf.WriteString(sql)
	return b
}

// OpenBody appends " (" and a newline, starting a table body.
func (b *Builder) OpenBody() *Builder {
	b.buf.WriteString(" (\n")
	return b
}

// CloseBody appends a newline and ");" followed by a blank line.
func (b *Builder) CloseBody() *Builder {
	b.buf.WriteString("\n);\n\n")
	return b
}

// Lines appends column lines separated by ",\n".
func (b *Builder) Lines(lines []string) *Builder {
	b.buf.WriteString(strings.Join(lines, ",\n"))
	return b
}

// String returns the accumulated SQL string.
func (b *Builder) String() string {
	return b.buf.String()
}

// Reset clears the buffer so the builder can be reused.
func (b *Builder) Reset() *Builder {
	b.buf.Reset()
	return b
}

package sqlgen

import (
	"os"

	"github.com/hlop3z/erdlab/internal/alerr"
	"github.com/hlop3z/erdlab/internal/model"
	"github.com/hlop3z/erdlab/internal/strutil"
)

// DefaultFilename is the name of the exported script.
const DefaultFilename = "database.sql"

// Generate renders one CREATE TABLE block per entity, in stored order.
//
// Each attribute becomes a column. After the attributes, every relationship
// targeting the entity adds a "<source>_id" column referencing the source's
// first primary key. Relationships whose source has no primary key add
// nothing. The output is a pure function of s.
func Generate(s model.Schema) string {
	out := NewBuilder()
	line := NewBuilder()

	for _, ent := range s.Entities {
		table := strutil.TableIdent(ent.Name)
		lines := make([]string, 0, len(ent.Attributes))

		for _, attr := range ent.Attributes {
			lines = append(lines, columnLine(line.Reset(), attr))
		}
		for _, rel := range s.Incoming(ent.ID) {
			if fk, ok := foreignKeyLine(line.Reset(), s, rel); ok {
				lines = append(lines, fk)
			}
		}

		out.CreateTable(table).OpenBody().Lines(lines).CloseBody()
	}

	return out.String()
}

func columnLine(b *Builder, attr model.Attribute) string {
	b.Column(strutil.ColumnIdent(attr.Name), attr.Type)
	if attr.IsPrimary {
		b.PrimaryKey()
	}
	if !attr.IsNullable {
		b.NotNull()
	}
	return b.String()
}

func foreignKeyLine(b *Builder, s model.Schema, rel model.Relationship) (string, bool) {
	src := s.GetEntity(rel.Source)
	if src == nil {
		return "", false
	}
	pk := src.PrimaryKey()
	if pk == nil {
		return "", false
	}

	srcTable := strutil.TableIdent(src.Name)
	b.Column(strutil.FKColumn(srcTable), pk.Type).
		References(srcTable, strutil.ColumnIdent(pk.Name))
	return b.String(), true
}

// WriteFile renders s and writes it to path with mode 0644.
func WriteFile(path string, s model.Schema) error {
	if err := os.WriteFile(path, []byte(Generate(s)), 0o644); err != nil {
		return alerr.Wrap(alerr.ErrFileWrite, err, "cannot write SQL script").WithFile(path, 0)
	}
	return nil
}

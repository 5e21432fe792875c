package testutil

import "github.com/hlop3z/erdlab/internal/model"

// Schema fixtures with stable ids and positions. Each call returns a fresh
// copy that callers may mutate.

// PK returns a non-null "id SERIAL" primary key attribute.
func PK(id string) model.Attribute {
	return model.Attribute{ID: id, Name: "id", Type: "SERIAL", IsPrimary: true}
}

// Column returns a plain attribute.
func Column(id, name, typ string, nullable bool) model.Attribute {
	return model.Attribute{ID: id, Name: name, Type: typ, IsNullable: nullable}
}

// Entity returns an entity placed at (x, y).
func Entity(id, name string, x, y float64, attrs ...model.Attribute) model.Entity {
	return model.Entity{
		ID:         id,
		Name:       name,
		Attributes: attrs,
		Position:   &model.Position{X: x, Y: y},
	}
}

// Rel returns a relationship with the given cardinality label, e.g. "1:n".
// It panics on an invalid label.
func Rel(id, source, target, label string) model.Relationship {
	p, err := model.ParsePair(label)
	if err != nil {
		panic(err)
	}
	return model.Relationship{
		ID:                id,
		Source:            source,
		Target:            target,
		SourceCardinality: p.Source,
		TargetCardinality: p.Target,
	}
}

// StudentCourse is two entities joined by a single 1:n relationship "rel-1".
func StudentCourse() model.Schema {
	return model.Schema{
		Entities: []model.Entity{
			Entity("student", "Student", 100, 100, PK("student-id")),
			Entity("course", "Course", 300, 100, PK("course-id")),
		},
		Relationships: []model.Relationship{
			Rel("rel-1", "student", "course", "1:n"),
		},
	}
}

// Blog is an author -> post -> comment chain with a few typed columns.
func Blog() model.Schema {
	return model.Schema{
		Entities: []model.Entity{
			Entity("author", "Author", 0, 0,
				PK("author-id"),
				Column("author-name", "Name", "VARCHAR(255)", false),
			),
			Entity("post", "Post", 250, 0,
				PK("post-id"),
				Column("post-title", "Title", "VARCHAR(255)", false),
				Column("post-body", "Body", "TEXT", true),
			),
			Entity("comment", "Comment", 500, 0,
				PK("comment-id"),
				Column("comment-body", "Body", "TEXT", false),
			),
		},
		Relationships: []model.Relationship{
			Rel("rel-author-post", "author", "post", "1:n"),
			Rel("rel-post-comment", "post", "comment", "1:n"),
		},
	}
}

package model

import (
	"strings"

	"github.com/hlop3z/erdlab/internal/alerr"
)

// Cardinality is one side of a relationship's multiplicity.
type Cardinality string

const (
	Zero Cardinality = "0"
	One  Cardinality = "1"
	Many Cardinality = "n"
)

// Valid reports whether c is one of 0, 1 or n.
func (c Cardinality) Valid() bool {
	switch c {
	case Zero, One, Many:
		return true
	}
	return false
}

// ParseCardinality accepts "0", "1", "n" (and "N").
func ParseCardinality(s string) (Cardinality, error) {
	c := Cardinality(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", alerr.Newf(alerr.ErrInvalidCardinality, "invalid cardinality %q", s).
			WithHelp("cardinality must be one of 0, 1, n")
	}
	return c, nil
}

// Pair is a (source, target) cardinality pair.
type Pair struct {
	Source Cardinality
	Target Cardinality
}

// String renders the pair as its label, e.g. "1:n".
func (p Pair) String() string {
	return string(p.Source) + ":" + string(p.Target)
}

// Valid reports whether both sides are valid.
func (p Pair) Valid() bool {
	return p.Source.Valid() && p.Target.Valid()
}

// ManyToMany reports whether the pair is n:n.
func (p Pair) ManyToMany() bool {
	return p.Source == Many && p.Target == Many
}

// ParsePair parses a label of the form "<source>:<target>".
func ParsePair(label string) (Pair, error) {
	src, tgt, ok := strings.Cut(label, ":")
	if !ok {
		return Pair{}, alerr.Newf(alerr.ErrInvalidCardinality, "invalid cardinality label %q", label).
			WithHelp("labels look like 1:n")
	}
	s, err := ParseCardinality(src)
	if err != nil {
		return Pair{}, err
	}
	t, err := ParseCardinality(tgt)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Source: s, Target: t}, nil
}

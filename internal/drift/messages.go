package drift

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize/english"
)

// FormatComparison formats a comparison for CLI output.
func FormatComparison(c *Comparison) string {
	if c == nil {
		return "No comparison available."
	}
	if c.Match {
		return fmt.Sprintf("No changes  %s\n", ShortHash(c.AfterRoot))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  Before: %s\n", ShortHash(c.BeforeRoot))
	fmt.Fprintf(&b, "  After:  %s\n\n", ShortHash(c.AfterRoot))

	writeList(&b, "Entities added:", "+", c.AddedEntities)
	writeList(&b, "Entities removed:", "-", c.RemovedEntities)

	if len(c.EntityDiffs) > 0 {
		b.WriteString("  Entities modified:\n")
		ids := make([]string, 0, len(c.EntityDiffs))
		for id := range c.EntityDiffs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			formatEntityDiff(&b, c.EntityDiffs[id], "    ")
		}
		b.WriteString("\n")
	}

	writeList(&b, "Relationships added:", "+", c.AddedRelationships)
	writeList(&b, "Relationships removed:", "-", c.RemovedRelationships)
	writeList(&b, "Relationships modified:", "~", c.ModifiedRelationships)

	if c.Reordered {
		b.WriteString("  Entity order changed\n")
	}

	return b.String()
}

func writeList(b *strings.Builder, title, marker string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s\n", title)
	for _, id := range ids {
		fmt.Fprintf(b, "    %s %s\n", marker, id)
	}
	b.WriteString("\n")
}

// formatEntityDiff formats differences for a single entity.
func formatEntityDiff(b *strings.Builder, d *EntityDiff, indent string) {
	fmt.Fprintf(b, "%s~ %s", indent, d.ID)
	var flags []string
	if d.Renamed {
		flags = append(flags, "renamed")
	}
	if d.Moved {
		flags = append(flags, "moved")
	}
	if len(flags) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(flags, ", "))
	}
	b.WriteString("\n")

	for _, id := range d.AddedAttributes {
		fmt.Fprintf(b, "%s    + %s\n", indent, id)
	}
	for _, id := range d.RemovedAttributes {
		fmt.Fprintf(b, "%s    - %s\n", indent, id)
	}
	for _, id := range d.ModifiedAttributes {
		fmt.Fprintf(b, "%s    ~ %s\n", indent, id)
	}
}

// FormatSummary formats a comparison as one brief line, e.g.
// "+1 entity, -2 relationships, ~1 entity".
func FormatSummary(c *Comparison) string {
	if c == nil || c.Match {
		return "no changes"
	}

	var parts []string
	add := func(sign string, n int, singular, plural string) {
		if n > 0 {
			parts = append(parts, sign+english.Plural(n, singular, plural))
		}
	}
	add("+", len(c.AddedEntities), "entity", "entities")
	add("-", len(c.RemovedEntities), "entity", "entities")
	add("~", len(c.EntityDiffs), "entity", "entities")
	add("+", len(c.AddedRelationships), "relationship", "relationships")
	add("-", len(c.RemovedRelationships), "relationship", "relationships")
	add("~", len(c.ModifiedRelationships), "relationship", "relationships")
	if c.Reordered {
		parts = append(parts, "reordered")
	}

	if len(parts) == 0 {
		return "no structural changes"
	}
	return strings.Join(parts, ", ")
}

// ShortHash returns the first 12 characters of a hash for display.
func ShortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}

// Package ingest implements the spreadsheet ingestion and referential-load
// pipeline: extraction of the six source exports, field normalization,
// gender inference, per-entity cleaning, identity resolution and the
// ordered load into the store.
package ingest

import "strings"

// RawRow is one extracted data row: column label to raw cell value.
// Labels are lower-cased and trimmed at extraction time; when a label
// appears twice in the sheet the first occurrence wins.
type RawRow map[string]string

// pick returns the first non-empty value among the ordered candidate
// labels. The source exports are not schema-stable, so every logical
// field is looked up through a synonym list rather than a single header.
func pick(row RawRow, candidates ...string) string {
	for _, label := range candidates {
		if v, ok := row[normalizeLabel(label)]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// normalizeLabel canonicalizes a header label for lookup.
func normalizeLabel(label string) string {
	label = strings.TrimPrefix(label, "\uFEFF")
	return strings.ToLower(strings.TrimSpace(label))
}

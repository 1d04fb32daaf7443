// Package tabular turns heterogeneous CSV/XLSX/JSON input into an ordered
// sequence of canonical key-value rows suitable for bulk ingestion.
package tabular

import (
	"strings"
)

// Ignored marks a header that is recognized but carries no data
// (serial numbers, separators). Columns mapped to it are dropped.
const Ignored = "-"

// Row is one candidate record. Index is the 1-based position of the row
// in the submitted input, preserved across dropped rows so error entries
// always reference the position the caller sees.
type Row struct {
	Index  int
	Values map[string]string
}

// Coercer rewrites a single cell value after header mapping.
type Coercer func(string) string

// Mapping describes how raw input columns become canonical fields for one
// entity type.
type Mapping struct {
	// Synonyms maps normalized header spellings to canonical field names.
	// Map a spelling to Ignored to drop the column.
	Synonyms map[string]string
	// Required lists canonical fields a row must have a non-empty value
	// for to survive normalization. Rows missing one are dropped without
	// an error entry; callers receive a count of dropped rows.
	Required []string
	// Coerce holds per-field value rewrites applied after mapping.
	Coerce map[string]Coercer
}

// normalizeHeader folds case and strips whitespace and separator
// characters so "Contact Number", "contact_number" and "CONTACT-NUMBER"
// all match one synonym entry.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch r {
		case ' ', '\t', '_', '-', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Canonical resolves a raw header to its canonical field name. Unrecognized
// headers pass through trimmed but otherwise unchanged; a later validation
// schema decides whether to use or ignore them.
func (m *Mapping) Canonical(header string) string {
	if canonical, ok := m.Synonyms[normalizeHeader(header)]; ok {
		return canonical
	}
	return strings.TrimSpace(header)
}

// Apply maps one raw record onto canonical fields, runs per-field
// coercion and checks the survival rule. It returns false when the row
// must be dropped.
func (m *Mapping) Apply(index int, raw map[string]string) (Row, bool) {
	values := make(map[string]string, len(raw))
	for header, value := range raw {
		field := m.Canonical(header)
		if field == Ignored || field == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if coerce, ok := m.Coerce[field]; ok {
			value = coerce(value)
		}
		if value == "" {
			continue
		}
		values[field] = value
	}

	for _, field := range m.Required {
		if values[field] == "" {
			return Row{}, false
		}
	}
	return Row{Index: index, Values: values}, true
}

package sheet

import "time"

// Row is one raw sheet-backed record. Fields carries the original
// human-readable column labels untouched; the set of labels varies from row
// to row and over time, which is why consumers go through a Profile instead
// of reading labels directly.
type Row struct {
	ID          string
	AirtableID  *string
	CreatedTime time.Time
	Fields      map[string]any
}

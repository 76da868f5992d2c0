package printing

import "time"

// Document is the printable model shared by every report: a title block,
// labelled fields, tables and totals.
type Document struct {
	Organization string
	Title        string
	Subtitle     string
	Number       string
	Fields       []Field
	Tables       []Table
	Totals       []Field
	Notes        []string
	// Signatures are the captions of the signature boxes at the bottom
	Signatures  []string
	Landscape   bool
	GeneratedAt time.Time
	GeneratedBy string
}

// Field is a label and its already formatted value
type Field struct {
	Label string
	Value string
	// Strong highlights the value (balances, totals)
	Strong bool
}

// Column describes a table column. Numeric columns are right aligned.
type Column struct {
	Title   string
	Numeric bool
}

// Table is a titled grid of formatted cells
type Table struct {
	Title     string
	Columns   []Column
	Rows      [][]string
	Footer    []string
	EmptyText string
}

// AddRow appends a row of cells
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// MissionOrder is the printable mission order
type MissionOrder struct {
	Organization  string
	Number        string
	FullName      string
	Function      string
	Address       string
	Destination   string
	Purpose       string
	Transport     string
	Registrations []string
	Departure     time.Time
	Return        *time.Time
	AccompaniedBy string
	IssuedAt      time.Time
}

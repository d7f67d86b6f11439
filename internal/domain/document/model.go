// Package document turns edited Word documents into records.  The Parser
// port isolates the OOXML mechanics; this package owns the mapping from
// document structure to profile fields.
package document

import "strings"

// Run is a contiguous stretch of identically formatted paragraph text.
// Colored marks a font color that differs from the document's inherited
// default, which reviewers use to flag their corrections.
type Run struct {
	Text    string
	Colored bool
	Color   string
}

// Paragraph is one block of running text.
type Paragraph struct {
	Runs []Run
}

// Text concatenates the paragraph's runs.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// HasColoredRun reports whether any run carries a correction marker.
func (p Paragraph) HasColoredRun() bool {
	for _, r := range p.Runs {
		if r.Colored {
			return true
		}
	}
	return false
}

// Cell is one table cell.
type Cell struct {
	Text    string
	Colored bool
}

// Table is rows of cells.  The first row is treated as the header when its
// cells map to profile fields.
type Table struct {
	Rows [][]Cell
}

// Document is the structural content of a parsed file: the three channels
// field mapping works from.
type Document struct {
	Paragraphs []Paragraph
	Tables     []Table
}

// Parser opens raw document bytes into structural content.  A file that
// cannot be opened at all fails with an unsupported-format error.
type Parser interface {
	Parse(data []byte) (*Document, error)
}

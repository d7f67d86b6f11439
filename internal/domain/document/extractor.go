package document

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
	"github.com/wucy1/ProDocuX/pkg/types/record"
)

// DefaultTableField is the record key row-records of a headered table are
// collected under when no field name is configured for it.
const DefaultTableField = "rows"

// Extraction is the outcome of parsing one corrected document: the
// normalized record plus the set of field paths a reviewer marked with a
// colored run.
type Extraction struct {
	Record record.Record

	// MarkedFields pins the confidence of these fields' corrections to
	// 1.0 downstream.
	MarkedFields map[string]bool
}

// Extractor builds records from corrected Word documents by mapping
// document structure onto a profile's field list.
type Extractor struct {
	parser     Parser
	tableField string
	logger     logging.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithTableField overrides the record key headered table rows are stored
// under.
func WithTableField(name string) ExtractorOption {
	return func(x *Extractor) { x.tableField = name }
}

// NewExtractor constructs an Extractor over the given parser.
func NewExtractor(parser Parser, logger logging.Logger, opts ...ExtractorOption) *Extractor {
	x := &Extractor{
		parser:     parser,
		tableField: DefaultTableField,
		logger:     logger.Named("extractor"),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract parses the document and builds a record against the profile's
// field list.
//
// Paragraphs split on the first colon-like separator into a label/value
// pair; the label maps to a field by exact name, declared alias, or
// case-insensitive substring match.  Tables map their header row to fields
// the same way and yield one row-record per data row; a two-column table
// whose header does not map falls back to per-row label/value extraction.
// Unmappable content is skipped and logged, never fatal; only a document
// that cannot be opened at all is an error.
func (x *Extractor) Extract(data []byte, fields []profile.Field) (*Extraction, error) {
	doc, err := x.parser.Parse(data)
	if err != nil {
		return nil, err
	}
	if len(doc.Paragraphs) == 0 && len(doc.Tables) == 0 {
		return nil, errors.New(errors.ErrCodeDocEmptyContent, "document has no extractable content")
	}

	out := &Extraction{
		Record:       record.Record{},
		MarkedFields: map[string]bool{},
	}
	for _, p := range doc.Paragraphs {
		x.extractParagraph(p, fields, out)
	}
	tableCount := 0
	for i, tbl := range doc.Tables {
		x.extractTable(i, tbl, fields, &tableCount, out)
	}
	return out, nil
}

func (x *Extractor) extractParagraph(p Paragraph, fields []profile.Field, out *Extraction) {
	label, value, ok := splitLabelValue(p.Text())
	if !ok {
		return
	}
	field := matchField(label, fields)
	if field == "" {
		x.logger.Debug("paragraph label maps to no field", logging.String("label", label))
		return
	}
	out.Record[field] = value
	if p.HasColoredRun() {
		out.MarkedFields[field] = true
	}
}

func (x *Extractor) extractTable(index int, tbl Table, fields []profile.Field, tableCount *int, out *Extraction) {
	if len(tbl.Rows) == 0 {
		return
	}

	header := tbl.Rows[0]
	columns := make([]string, len(header))
	mapped := 0
	for i, cell := range header {
		if f := matchField(cell.Text, fields); f != "" {
			columns[i] = f
			mapped++
		}
	}

	if mapped == 0 {
		if len(header) == 2 {
			x.extractLabelValueTable(tbl, fields, out)
			return
		}
		x.logger.Warn("table header maps to no fields, skipping table",
			logging.Int("table", index))
		return
	}

	// Each mapped table gets its own record field; a second headered table
	// lands under rows_2 instead of overwriting the first.
	*tableCount++
	fieldName := x.tableField
	if *tableCount > 1 {
		fieldName = fmt.Sprintf("%s_%d", x.tableField, *tableCount)
	}
	keyCols := naturalKeyColumns(columns, fields)

	var rows []interface{}
	for rowIdx, row := range tbl.Rows[1:] {
		if len(row) != len(columns) {
			x.logger.Warn("table row width differs from header, skipping row",
				logging.Int("table", index), logging.Int("row", rowIdx+1))
			continue
		}
		rowRec := map[string]interface{}{}
		var coloredCols []string
		for i, cell := range row {
			if columns[i] == "" {
				continue
			}
			rowRec[columns[i]] = strings.TrimSpace(cell.Text)
			if cell.Colored {
				coloredCols = append(coloredCols, columns[i])
			}
		}
		if len(rowRec) == 0 {
			continue
		}
		x.markRowCells(fieldName, len(rows), rowRec, coloredCols, keyCols, out)
		rows = append(rows, rowRec)
	}
	if len(rows) > 0 {
		out.Record[fieldName] = rows
	}
}

// markRowCells records a marker for every colored cell, both by the row's
// position and by each row-identity value, so the marker matches the diff
// path whichever way the rows were aligned.
func (x *Extractor) markRowCells(fieldName string, rowIdx int, rowRec map[string]interface{}, coloredCols, keyCols []string, out *Extraction) {
	for _, col := range coloredCols {
		out.MarkedFields[record.JoinPath(record.IndexPath(fieldName, rowIdx), col)] = true
		for _, key := range keyCols {
			v := record.KeyString(rowRec[key])
			if v == "" {
				continue
			}
			out.MarkedFields[record.JoinPath(record.KeyedPath(fieldName, key, v), col)] = true
		}
	}
}

// naturalKeyColumns returns the mapped columns whose field carries the
// natural_key hint.
func naturalKeyColumns(columns []string, fields []profile.Field) []string {
	var keys []string
	for _, col := range columns {
		if col == "" {
			continue
		}
		for _, f := range fields {
			if f.Name != col {
				continue
			}
			if flag, ok := f.Hints["natural_key"].(bool); ok && flag {
				keys = append(keys, col)
			}
			break
		}
	}
	return keys
}

// extractLabelValueTable treats each row of a two-column table as a
// label/value pair, the common layout of summary tables.
func (x *Extractor) extractLabelValueTable(tbl Table, fields []profile.Field, out *Extraction) {
	for _, row := range tbl.Rows {
		if len(row) != 2 {
			continue
		}
		field := matchField(row[0].Text, fields)
		if field == "" {
			continue
		}
		out.Record[field] = strings.TrimSpace(row[1].Text)
		if row[0].Colored || row[1].Colored {
			out.MarkedFields[field] = true
		}
	}
}

// splitLabelValue splits text on the first ASCII or full-width colon.
func splitLabelValue(text string) (label, value string, ok bool) {
	idx := strings.IndexAny(text, ":：")
	if idx < 0 {
		return "", "", false
	}
	sep := 1
	if strings.HasPrefix(text[idx:], "：") {
		sep = len("：")
	}
	label = strings.TrimSpace(text[:idx])
	value = strings.TrimSpace(text[idx+sep:])
	if label == "" || value == "" {
		return "", "", false
	}
	return label, value, true
}

// matchField maps a document label to a profile field name: exact name,
// then declared alias, then substring in either direction.  Matching is
// case-insensitive and ignores space/underscore/hyphen separators, so
// "Product Name" still finds product_name.
func matchField(label string, fields []profile.Field) string {
	l := strings.TrimSpace(label)
	if l == "" {
		return ""
	}
	for _, f := range fields {
		if strings.EqualFold(l, f.Name) {
			return f.Name
		}
		for _, a := range f.Aliases {
			if strings.EqualFold(l, a) {
				return f.Name
			}
		}
	}
	norm := normalizeLabel(l)
	for _, f := range fields {
		for _, candidate := range append([]string{f.Name}, f.Aliases...) {
			c := normalizeLabel(candidate)
			if c == "" {
				continue
			}
			if strings.Contains(norm, c) || strings.Contains(c, norm) {
				return f.Name
			}
		}
	}
	return ""
}

func normalizeLabel(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		default:
			return unicode.ToLower(r)
		}
	}, s)
}

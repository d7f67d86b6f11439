package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
)

// stubParser returns a prebuilt document regardless of input.
type stubParser struct {
	doc *Document
	err error
}

func (s *stubParser) Parse([]byte) (*Document, error) { return s.doc, s.err }

func testFields() []profile.Field {
	return []profile.Field{
		{Name: "product_name", Aliases: []string{"品名", "產品名稱"}},
		{Name: "manufacturer", Aliases: []string{"製造商"}},
		{Name: "cas_number", Aliases: []string{"CAS No."}},
		{Name: "concentration", Aliases: []string{"含量"}},
	}
}

func para(colored bool, text string) Paragraph {
	return Paragraph{Runs: []Run{{Text: text, Colored: colored}}}
}

func newExtractorFor(doc *Document) *Extractor {
	return NewExtractor(&stubParser{doc: doc}, logging.NewNopLogger())
}

func TestExtract_ParagraphLabelValue(t *testing.T) {
	x := newExtractorFor(&Document{
		Paragraphs: []Paragraph{
			para(false, "product_name: Hydra Serum"),
			para(false, "品名：保濕精華"),
			para(false, "no separator here"),
			para(false, "unknown label: value"),
		},
	})

	out, err := x.Extract(nil, testFields())
	require.NoError(t, err)
	// The later paragraph for the same field wins.
	assert.Equal(t, "保濕精華", out.Record["product_name"])
	assert.Empty(t, out.MarkedFields)
}

func TestExtract_ColoredRunMarksField(t *testing.T) {
	x := newExtractorFor(&Document{
		Paragraphs: []Paragraph{
			{Runs: []Run{
				{Text: "manufacturer: "},
				{Text: "Acme Labs", Colored: true, Color: "FF0000"},
			}},
		},
	})

	out, err := x.Extract(nil, testFields())
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs", out.Record["manufacturer"])
	assert.True(t, out.MarkedFields["manufacturer"])
}

func TestExtract_HeaderedTableRows(t *testing.T) {
	x := newExtractorFor(&Document{
		Tables: []Table{{Rows: [][]Cell{
			{{Text: "CAS No."}, {Text: "含量"}},
			{{Text: "7732-18-5"}, {Text: "80%"}},
			{{Text: "56-81-5"}, {Text: "5%", Colored: true}},
		}}},
	})

	out, err := x.Extract(nil, testFields())
	require.NoError(t, err)

	rows, ok := out.Record[DefaultTableField].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]interface{})
	assert.Equal(t, "7732-18-5", first["cas_number"])
	assert.Equal(t, "80%", first["concentration"])

	// The marker names the colored cell, not just its row.
	assert.True(t, out.MarkedFields["rows[1].concentration"])
	assert.False(t, out.MarkedFields["rows[1].cas_number"])
	assert.False(t, out.MarkedFields["rows[0].concentration"])
}

// A colored cell in a table with a row-identity column is also marked by
// that identity, matching the path row-aligned comparison produces.
func TestExtract_ColoredCellMarkedByRowIdentity(t *testing.T) {
	fields := testFields()
	for i := range fields {
		if fields[i].Name == "cas_number" {
			fields[i].Hints = map[string]interface{}{"natural_key": true}
		}
	}
	x := newExtractorFor(&Document{
		Tables: []Table{{Rows: [][]Cell{
			{{Text: "CAS No."}, {Text: "含量"}},
			{{Text: "7732-18-5"}, {Text: "80%"}},
			{{Text: "56-81-5"}, {Text: "5%", Colored: true}},
		}}},
	})

	out, err := x.Extract(nil, fields)
	require.NoError(t, err)
	assert.True(t, out.MarkedFields["rows[1].concentration"])
	assert.True(t, out.MarkedFields["rows[cas_number=56-81-5].concentration"])
}

func TestExtract_SecondHeaderedTableKeepsOwnField(t *testing.T) {
	x := newExtractorFor(&Document{
		Tables: []Table{
			{Rows: [][]Cell{
				{{Text: "CAS No."}, {Text: "含量"}},
				{{Text: "7732-18-5"}, {Text: "80%"}},
			}},
			{Rows: [][]Cell{
				{{Text: "CAS No."}, {Text: "含量"}},
				{{Text: "56-81-5"}, {Text: "5%", Colored: true}},
			}},
		},
	})

	out, err := x.Extract(nil, testFields())
	require.NoError(t, err)

	first := out.Record["rows"].([]interface{})
	require.Len(t, first, 1)
	assert.Equal(t, "7732-18-5", first[0].(map[string]interface{})["cas_number"])

	second := out.Record["rows_2"].([]interface{})
	require.Len(t, second, 1)
	assert.Equal(t, "56-81-5", second[0].(map[string]interface{})["cas_number"])
	assert.True(t, out.MarkedFields["rows_2[0].concentration"])
}

func TestExtract_MalformedRowSkippedNotFatal(t *testing.T) {
	x := newExtractorFor(&Document{
		Tables: []Table{{Rows: [][]Cell{
			{{Text: "CAS No."}, {Text: "含量"}},
			{{Text: "7732-18-5"}}, // merged cells collapse the row
			{{Text: "56-81-5"}, {Text: "5%"}},
		}}},
	})

	out, err := x.Extract(nil, testFields())
	require.NoError(t, err)
	rows := out.Record[DefaultTableField].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "56-81-5", rows[0].(map[string]interface{})["cas_number"])
}

func TestExtract_TwoColumnLabelValueTable(t *testing.T) {
	x := newExtractorFor(&Document{
		Tables: []Table{{Rows: [][]Cell{
			{{Text: "產品名稱"}, {Text: "保濕精華"}},
			{{Text: "製造商"}, {Text: "Acme", Colored: true}},
			{{Text: "unrelated"}, {Text: "ignored"}},
		}}},
	})

	out, err := x.Extract(nil, testFields())
	require.NoError(t, err)
	assert.Equal(t, "保濕精華", out.Record["product_name"])
	assert.Equal(t, "Acme", out.Record["manufacturer"])
	assert.True(t, out.MarkedFields["manufacturer"])
}

func TestExtract_FuzzySubstringMatch(t *testing.T) {
	x := newExtractorFor(&Document{
		Paragraphs: []Paragraph{
			para(false, "Product Name (English): Hydra Serum"),
		},
	})

	out, err := x.Extract(nil, testFields())
	require.NoError(t, err)
	assert.Equal(t, "Hydra Serum", out.Record["product_name"])
}

func TestExtract_EmptyDocument(t *testing.T) {
	x := newExtractorFor(&Document{})

	_, err := x.Extract(nil, testFields())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocEmptyContent))
}

func TestExtract_ParserErrorPropagates(t *testing.T) {
	parseErr := errors.UnsupportedFormat("not a docx file")
	x := NewExtractor(&stubParser{err: parseErr}, logging.NewNopLogger())

	_, err := x.Extract([]byte("junk"), testFields())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDocUnsupportedFormat))
}

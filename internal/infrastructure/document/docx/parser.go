// Package docx reads OOXML word-processing files into the structural
// document model.  Only the pieces field mapping needs are extracted:
// paragraph runs with their font color, and table cell text.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/wucy1/ProDocuX/internal/domain/document"
	"github.com/wucy1/ProDocuX/pkg/errors"
)

const documentEntry = "word/document.xml"

// defaultColors are run colors treated as the inherited body default.
var defaultColors = map[string]bool{
	"":       true,
	"auto":   true,
	"000000": true,
}

// Parser opens .docx bytes into the structural document model.
type Parser struct{}

// NewParser constructs a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse opens the document.  Input that is not a readable OOXML package
// fails with an unsupported-format error; nothing is partially returned.
func (p *Parser) Parse(data []byte) (*document.Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.UnsupportedFormat("not an OOXML package").WithCause(err)
	}

	payload, err := readEntry(zr, documentEntry)
	if err != nil {
		return nil, err
	}

	var doc xmlDocument
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, errors.New(errors.ErrCodeDocParseFailed, "malformed document body").WithCause(err)
	}
	return doc.Body.toModel(), nil
}

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.New(errors.ErrCodeDocParseFailed, "unreadable package entry").
				WithDetail(name).WithCause(err)
		}
		defer rc.Close()
		payload, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.New(errors.ErrCodeDocParseFailed, "unreadable package entry").
				WithDetail(name).WithCause(err)
		}
		return payload, nil
	}
	return nil, errors.UnsupportedFormat("package has no word/document.xml")
}

// Element tags are matched by local name, so the usual w: namespace prefix
// needs no special handling.

type xmlDocument struct {
	Body xmlBody `xml:"body"`
}

type xmlBody struct {
	Paragraphs []xmlParagraph `xml:"p"`
	Tables     []xmlTable     `xml:"tbl"`
}

type xmlParagraph struct {
	Runs []xmlRun `xml:"r"`
}

type xmlRun struct {
	Props *xmlRunProps `xml:"rPr"`
	Texts []string     `xml:"t"`
}

type xmlRunProps struct {
	Color *xmlColor `xml:"color"`
}

type xmlColor struct {
	Val string `xml:"val,attr"`
}

type xmlTable struct {
	Rows []xmlTableRow `xml:"tr"`
}

type xmlTableRow struct {
	Cells []xmlTableCell `xml:"tc"`
}

type xmlTableCell struct {
	Paragraphs []xmlParagraph `xml:"p"`
}

func (b xmlBody) toModel() *document.Document {
	doc := &document.Document{}
	for _, p := range b.Paragraphs {
		if para := p.toModel(); len(para.Runs) > 0 {
			doc.Paragraphs = append(doc.Paragraphs, para)
		}
	}
	for _, t := range b.Tables {
		if tbl := t.toModel(); len(tbl.Rows) > 0 {
			doc.Tables = append(doc.Tables, tbl)
		}
	}
	return doc
}

func (p xmlParagraph) toModel() document.Paragraph {
	var para document.Paragraph
	for _, r := range p.Runs {
		text := strings.Join(r.Texts, "")
		if text == "" {
			continue
		}
		para.Runs = append(para.Runs, document.Run{
			Text:    text,
			Colored: r.colored(),
			Color:   r.color(),
		})
	}
	return para
}

func (r xmlRun) color() string {
	if r.Props == nil || r.Props.Color == nil {
		return ""
	}
	return r.Props.Color.Val
}

func (r xmlRun) colored() bool {
	return !defaultColors[strings.ToLower(r.color())]
}

func (t xmlTable) toModel() document.Table {
	var tbl document.Table
	for _, row := range t.Rows {
		cells := make([]document.Cell, 0, len(row.Cells))
		for _, c := range row.Cells {
			cells = append(cells, c.toModel())
		}
		if len(cells) > 0 {
			tbl.Rows = append(tbl.Rows, cells)
		}
	}
	return tbl
}

func (c xmlTableCell) toModel() document.Cell {
	var texts []string
	colored := false
	for _, p := range c.Paragraphs {
		para := p.toModel()
		if text := para.Text(); text != "" {
			texts = append(texts, text)
		}
		colored = colored || para.HasColoredRun()
	}
	return document.Cell{
		Text:    strings.TrimSpace(strings.Join(texts, "\n")),
		Colored: colored,
	}
}

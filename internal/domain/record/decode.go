// Package record decodes raw extraction output into structured records.
// Extraction backends return anything from clean JSON to prose with an
// embedded JSON block, so decoding tries progressively looser strategies
// in a fixed order and never fails outright: unparseable input degrades
// to a raw-text record.
package record

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/wucy1/ProDocuX/pkg/errors"
	"github.com/wucy1/ProDocuX/pkg/types/record"
)

// RawTextField is the single field of the fallback record produced when no
// JSON object can be recovered from the input.
const RawTextField = "raw_text"

// DecodeExtracted decodes raw extraction output into a Record.  Strategies
// are applied in order:
//
//  1. the whole input as a strict JSON object
//  2. the first fenced ```json code block
//  3. the first balanced {...} slice
//  4. a record with the input under the raw_text field
//
// Only empty input is an error; any non-empty input yields a record.
func DecodeExtracted(raw []byte) (record.Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New(errors.ErrCodeRecordDecodeFailed, "extraction output is empty")
	}

	if rec, ok := decodeStrict(trimmed); ok {
		return rec, nil
	}
	if rec, ok := decodeFenced(trimmed); ok {
		return rec, nil
	}
	if rec, ok := decodeBraceSlice(trimmed); ok {
		return rec, nil
	}
	return record.Record{RawTextField: string(trimmed)}, nil
}

func decodeStrict(raw []byte) (record.Record, bool) {
	var rec record.Record
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&rec); err != nil {
		return nil, false
	}
	// Reject trailing non-whitespace content so prose wrapping a JSON
	// object falls through to the looser strategies.
	if dec.More() {
		return nil, false
	}
	return rec, rec != nil
}

// decodeFenced extracts the first ```json fenced block.  A bare ``` fence
// is also accepted since extraction backends are inconsistent about the
// language tag.
func decodeFenced(raw []byte) (record.Record, bool) {
	s := string(raw)
	for _, opener := range []string{"```json", "```"} {
		start := strings.Index(s, opener)
		if start < 0 {
			continue
		}
		body := s[start+len(opener):]
		end := strings.Index(body, "```")
		if end < 0 {
			continue
		}
		if rec, ok := decodeStrict([]byte(strings.TrimSpace(body[:end]))); ok {
			return rec, true
		}
	}
	return nil, false
}

// decodeBraceSlice scans for the first balanced top-level {...} run and
// decodes it.  Braces inside JSON strings are skipped by tracking string
// state, including escape sequences.
func decodeBraceSlice(raw []byte) (record.Record, bool) {
	s := string(raw)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return decodeStrict([]byte(s[start : i+1]))
			}
		}
	}
	return nil, false
}

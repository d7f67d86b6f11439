// Package record defines the shared data model for extracted document
// records and field-level differences.  A Record is the unit exchanged
// between the extraction producer, the learning engine, and the profile
// layer; it is owned transiently by the caller and never mutated by the
// engine.
package record

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is a mapping from field name to value.  Values are scalars
// (string, float64, bool, nil), nested Records (map[string]interface{}),
// or ordered sequences of row-Records ([]interface{} of
// map[string]interface{}), e.g. ingredient tables.
//
// Determinism over the unordered map is provided by lexicographic path
// ordering at comparison time, not by the container itself.
type Record map[string]interface{}

// AbsentValue is the sentinel marking the missing side of an added/removed
// Diff.  It is deliberately distinct from nil so that an explicit JSON null
// in a record is never confused with a field that does not exist.
type AbsentValue struct{}

// Absent is the canonical AbsentValue instance.
var Absent = AbsentValue{}

// MarshalJSON renders the sentinel as the string "__absent__" so serialized
// diffs remain unambiguous.
func (AbsentValue) MarshalJSON() ([]byte, error) {
	return []byte(`"__absent__"`), nil
}

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v interface{}) bool {
	_, ok := v.(AbsentValue)
	return ok
}

// DiffKind classifies a field-level difference.
type DiffKind string

const (
	DiffModified DiffKind = "modified"
	DiffAdded    DiffKind = "added"
	DiffRemoved  DiffKind = "removed"
)

// Diff is a single field-level difference between two Records.  Path is a
// dotted/indexed locator (e.g. "ingredients[2].cas_number") unique within
// one comparison.  The missing side of an added/removed Diff carries the
// Absent sentinel.
type Diff struct {
	Path      string      `json:"path"`
	Kind      DiffKind    `json:"kind"`
	Original  interface{} `json:"original"`
	Corrected interface{} `json:"corrected"`
}

// Clone returns a deep copy of the Record.  Sequence and nested-map values
// are copied recursively; scalar values are shared (they are immutable).
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case Record:
		return map[string]interface{}(t.Clone())
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// SortedKeys returns the record's top-level keys in lexicographic order.
func (r Record) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JoinPath appends a key segment to a dotted path.
func JoinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

// IndexPath appends a sequence index to a dotted path.
func IndexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

// KeyedPath appends a sequence segment addressed by a row-identity value
// instead of a position, e.g. "ingredients[cas_number=7732-18-5]".  The
// segment names the same row from either side of a comparison, so it stays
// stable when rows are reordered.
func KeyedPath(base, key, value string) string {
	return fmt.Sprintf("%s[%s=%s]", base, key, value)
}

// KeyString renders a scalar as a row-identity value.  Non-scalars render
// empty, which disqualifies the value as a key.
func KeyString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64, float32, int, int64, bool:
		return fmt.Sprintf("%v", t)
	default:
		return ""
	}
}

// Resolve walks a dotted/indexed path (e.g. "ingredients[2].cas_number")
// and returns the value it addresses.  The second return is false when any
// segment of the path does not exist in the record.
func (r Record) Resolve(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(r)
	for _, seg := range splitPath(path) {
		if seg.index >= 0 {
			seq, ok := cur.([]interface{})
			if !ok || seg.index >= len(seq) {
				return nil, false
			}
			cur = seq[seg.index]
			continue
		}
		if seg.keyField != "" {
			seq, ok := cur.([]interface{})
			if !ok {
				return nil, false
			}
			found := false
			for _, row := range seq {
				if m, ok := asMap(row); ok && KeyString(m[seg.keyField]) == seg.keyValue {
					cur = row
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}
			continue
		}
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg.key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case Record:
		return map[string]interface{}(t), true
	default:
		return nil, false
	}
}

type pathSegment struct {
	key   string
	index int // -1 for map keys

	// keyField/keyValue are set for key-addressed sequence segments such
	// as "[cas_number=7732-18-5]".
	keyField string
	keyValue string
}

// splitPath tokenizes "a.b[2].c" into {a,-1} {b,-1} {,2} {c,-1}.
func splitPath(path string) []pathSegment {
	var segs []pathSegment
	for _, part := range strings.Split(path, ".") {
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				if part != "" {
					segs = append(segs, pathSegment{key: part, index: -1})
				}
				break
			}
			if open > 0 {
				segs = append(segs, pathSegment{key: part[:open], index: -1})
			}
			closeIdx := strings.IndexByte(part[open:], ']')
			if closeIdx < 0 {
				// Unclosed bracket; treat the remainder as a literal key.
				segs = append(segs, pathSegment{key: part[open:], index: -1})
				break
			}
			inner := part[open+1 : open+closeIdx]
			if idx, err := strconv.Atoi(inner); err == nil && idx >= 0 {
				segs = append(segs, pathSegment{index: idx})
			} else if eq := strings.IndexByte(inner, '='); eq > 0 {
				segs = append(segs, pathSegment{index: -1, keyField: inner[:eq], keyValue: inner[eq+1:]})
			} else {
				segs = append(segs, pathSegment{key: part[open : open+closeIdx+1], index: -1})
			}
			part = part[open+closeIdx+1:]
			if part == "" {
				break
			}
		}
	}
	return segs
}

// String renders the record as compact JSON; used in log fields and tests.
func (r Record) String() string {
	b, err := json.Marshal(map[string]interface{}(r))
	if err != nil {
		return "<unencodable record>"
	}
	return string(b)
}

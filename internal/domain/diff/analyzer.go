// Package diff implements structural comparison of two extracted records
// into field-level differences.  It is the entry point of every learning
// path: the differences it produces feed pattern classification,
// transformation inference, and confidence scoring.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wucy1/ProDocuX/pkg/errors"
	"github.com/wucy1/ProDocuX/pkg/types/record"
)

// DefaultMaxDepth bounds the nesting depth of compared records.  Extraction
// output is shallow in practice; the bound exists to reject adversarial
// input rather than to accommodate real documents.
const DefaultMaxDepth = 64

// Analyzer compares two records and reports their field-level differences.
// The zero-value Analyzer is not usable; construct one with NewAnalyzer.
type Analyzer struct {
	naturalKeys []string
	maxDepth    int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithNaturalKeys declares candidate row-identity fields, in preference
// order, used to align table rows whose order changed between the original
// and the corrected record (e.g. "cas_number" for ingredient tables).
func WithNaturalKeys(keys ...string) Option {
	return func(a *Analyzer) { a.naturalKeys = keys }
}

// WithMaxDepth overrides the nesting-depth bound.
func WithMaxDepth(depth int) Option {
	return func(a *Analyzer) { a.maxDepth = depth }
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// frame is one unit of pending comparison work.  Traversal uses an explicit
// stack so adversarially nested input cannot exhaust the goroutine stack.
type frame struct {
	path      string
	original  interface{}
	corrected interface{}
	depth     int
}

// Compare returns the field-level differences between original and corrected,
// ordered lexicographically by path.  Neither input is mutated.
//
// Properties maintained for any pair of records A, B:
//   - Compare(A, A) is empty.
//   - Compare(A, B) and Compare(B, A) contain the same paths with the
//     original/corrected values swapped.
func (a *Analyzer) Compare(original, corrected record.Record) ([]record.Diff, error) {
	var diffs []record.Diff

	stack := []frame{{
		original:  map[string]interface{}(original),
		corrected: map[string]interface{}(corrected),
	}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > a.maxDepth {
			return nil, errors.New(errors.ErrCodeRecordDepthExceeded,
				fmt.Sprintf("record nesting exceeds %d levels", a.maxDepth)).
				WithDetail("path=" + f.path)
		}

		origMap, origIsMap := asMap(f.original)
		corrMap, corrIsMap := asMap(f.corrected)

		switch {
		case origIsMap && corrIsMap:
			stack, diffs = a.pushMapChildren(stack, diffs, f, origMap, corrMap)

		case isSequence(f.original) && isSequence(f.corrected):
			var err error
			stack, diffs, err = a.compareSequences(stack, diffs, f)
			if err != nil {
				return nil, err
			}

		default:
			if !scalarsEqual(f.original, f.corrected) {
				diffs = append(diffs, record.Diff{
					Path:      f.path,
					Kind:      record.DiffModified,
					Original:  f.original,
					Corrected: f.corrected,
				})
			}
		}
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })
	return diffs, nil
}

// pushMapChildren schedules comparison of the union of both maps' keys.
// A key present on only one side yields an added/removed Diff immediately,
// with the Absent sentinel marking the missing side; shared keys are pushed
// for deeper comparison.
func (a *Analyzer) pushMapChildren(stack []frame, diffs []record.Diff, f frame, orig, corr map[string]interface{}) ([]frame, []record.Diff) {
	for key := range unionKeys(orig, corr) {
		childPath := record.JoinPath(f.path, key)
		ov, inOrig := orig[key]
		cv, inCorr := corr[key]
		switch {
		case inOrig && inCorr:
			stack = append(stack, frame{path: childPath, original: ov, corrected: cv, depth: f.depth + 1})
		case inCorr:
			diffs = append(diffs, record.Diff{
				Path:      childPath,
				Kind:      record.DiffAdded,
				Original:  record.Absent,
				Corrected: cv,
			})
		default:
			diffs = append(diffs, record.Diff{
				Path:      childPath,
				Kind:      record.DiffRemoved,
				Original:  ov,
				Corrected: record.Absent,
			})
		}
	}
	return stack, diffs
}

func (a *Analyzer) compareSequences(stack []frame, diffs []record.Diff, f frame) ([]frame, []record.Diff, error) {
	orig := f.original.([]interface{})
	corr := f.corrected.([]interface{})

	if key := a.pickAlignmentKey(orig, corr); key != "" {
		stack, diffs = a.alignByKey(stack, diffs, f, orig, corr, key)
		return stack, diffs, nil
	}

	// Positional fallback: pairwise up to the shorter length, the overhang is
	// reported as added/removed rows.
	n := len(orig)
	if len(corr) < n {
		n = len(corr)
	}
	for i := 0; i < n; i++ {
		stack = append(stack, frame{
			path:      record.IndexPath(f.path, i),
			original:  orig[i],
			corrected: corr[i],
			depth:     f.depth + 1,
		})
	}
	for i := n; i < len(orig); i++ {
		diffs = append(diffs, record.Diff{
			Path:      record.IndexPath(f.path, i),
			Kind:      record.DiffRemoved,
			Original:  orig[i],
			Corrected: record.Absent,
		})
	}
	for i := n; i < len(corr); i++ {
		diffs = append(diffs, record.Diff{
			Path:      record.IndexPath(f.path, i),
			Kind:      record.DiffAdded,
			Original:  record.Absent,
			Corrected: corr[i],
		})
	}
	return stack, diffs, nil
}

// pickAlignmentKey returns the first declared natural key that is a
// non-empty scalar on every row of both sequences and unique within each
// side.  An empty return selects positional alignment.
func (a *Analyzer) pickAlignmentKey(orig, corr []interface{}) string {
	if len(orig) == 0 || len(corr) == 0 {
		return ""
	}
	for _, key := range a.naturalKeys {
		if keyUsable(orig, key) && keyUsable(corr, key) {
			return key
		}
	}
	return ""
}

func keyUsable(rows []interface{}, key string) bool {
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		m, ok := asMap(r)
		if !ok {
			return false
		}
		v, ok := m[key]
		if !ok {
			return false
		}
		s := record.KeyString(v)
		if s == "" || seen[s] {
			return false
		}
		seen[s] = true
	}
	return true
}

// alignByKey matches rows across the two sequences by the natural key.
// Every row path is the key-addressed segment rows[key=value], which names
// the same row from either comparison direction, so Compare stays
// symmetric even when rows are reordered and edited at once.
func (a *Analyzer) alignByKey(stack []frame, diffs []record.Diff, f frame, orig, corr []interface{}, key string) ([]frame, []record.Diff) {
	corrByKey := make(map[string]int, len(corr))
	for i, r := range corr {
		m, _ := asMap(r)
		corrByKey[record.KeyString(m[key])] = i
	}

	matchedCorr := make(map[int]bool, len(corr))
	for i, r := range orig {
		m, _ := asMap(r)
		k := record.KeyString(m[key])
		if j, ok := corrByKey[k]; ok {
			matchedCorr[j] = true
			stack = append(stack, frame{
				path:      record.KeyedPath(f.path, key, k),
				original:  orig[i],
				corrected: corr[j],
				depth:     f.depth + 1,
			})
			continue
		}
		diffs = append(diffs, record.Diff{
			Path:      record.KeyedPath(f.path, key, k),
			Kind:      record.DiffRemoved,
			Original:  orig[i],
			Corrected: record.Absent,
		})
	}
	for j, r := range corr {
		if matchedCorr[j] {
			continue
		}
		m, _ := asMap(r)
		diffs = append(diffs, record.Diff{
			Path:      record.KeyedPath(f.path, key, record.KeyString(m[key])),
			Kind:      record.DiffAdded,
			Original:  record.Absent,
			Corrected: corr[j],
		})
	}
	return stack, diffs
}

// ── helpers ──────────────────────────────────────────────────────────────────

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case record.Record:
		return map[string]interface{}(t), true
	default:
		return nil, false
	}
}

func isSequence(v interface{}) bool {
	_, ok := v.([]interface{})
	return ok
}

func unionKeys(a, b map[string]interface{}) map[string]struct{} {
	u := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		u[k] = struct{}{}
	}
	for k := range b {
		u[k] = struct{}{}
	}
	return u
}

// scalarsEqual compares two leaf values.  String leaves are compared after
// trimming surrounding whitespace, so a whitespace-only edit is not a
// difference.  Numeric leaves compare by value regardless of the concrete
// numeric type produced by decoding.
func scalarsEqual(a, b interface{}) bool {
	if record.IsAbsent(a) || record.IsAbsent(b) {
		return record.IsAbsent(a) && record.IsAbsent(b)
	}
	if sa, aok := a.(string); aok {
		if sb, bok := b.(string); bok {
			return strings.TrimSpace(sa) == strings.TrimSpace(sb)
		}
	}
	if fa, aok := toFloat(a); aok {
		if fb, bok := toFloat(b); bok {
			return fa == fb
		}
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

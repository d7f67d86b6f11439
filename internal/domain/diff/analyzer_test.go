package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wucy1/ProDocuX/pkg/errors"
	"github.com/wucy1/ProDocuX/pkg/types/record"
)

func TestCompare_IdenticalRecords(t *testing.T) {
	a := NewAnalyzer()
	rec := record.Record{
		"product_name": "Hydra Serum",
		"net_content":  30.0,
		"ingredients": []interface{}{
			map[string]interface{}{"cas_number": "7732-18-5", "name": "Water"},
		},
	}

	diffs, err := a.Compare(rec, rec.Clone())
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestCompare_ModifiedScalar(t *testing.T) {
	a := NewAnalyzer()
	orig := record.Record{"product_name": "hydra serum"}
	corr := record.Record{"product_name": "Hydra Serum"}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "product_name", diffs[0].Path)
	assert.Equal(t, record.DiffModified, diffs[0].Kind)
	assert.Equal(t, "hydra serum", diffs[0].Original)
	assert.Equal(t, "Hydra Serum", diffs[0].Corrected)
}

func TestCompare_WhitespaceOnlyEditIgnored(t *testing.T) {
	a := NewAnalyzer()
	orig := record.Record{"manufacturer": "  Acme Labs "}
	corr := record.Record{"manufacturer": "Acme Labs"}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestCompare_AddedAndRemovedFields(t *testing.T) {
	a := NewAnalyzer()
	orig := record.Record{"old_field": "legacy", "shared": "same"}
	corr := record.Record{"new_field": "fresh", "shared": "same"}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	require.Len(t, diffs, 2)

	// Lexicographic path order: new_field before old_field.
	assert.Equal(t, "new_field", diffs[0].Path)
	assert.Equal(t, record.DiffAdded, diffs[0].Kind)
	assert.True(t, record.IsAbsent(diffs[0].Original))
	assert.Equal(t, "fresh", diffs[0].Corrected)

	assert.Equal(t, "old_field", diffs[1].Path)
	assert.Equal(t, record.DiffRemoved, diffs[1].Kind)
	assert.Equal(t, "legacy", diffs[1].Original)
	assert.True(t, record.IsAbsent(diffs[1].Corrected))
}

func TestCompare_AbsentIsNotNull(t *testing.T) {
	a := NewAnalyzer()
	orig := record.Record{"note": nil}
	corr := record.Record{}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, record.DiffRemoved, diffs[0].Kind)
	assert.Nil(t, diffs[0].Original)
	assert.True(t, record.IsAbsent(diffs[0].Corrected))
}

func TestCompare_NestedMaps(t *testing.T) {
	a := NewAnalyzer()
	orig := record.Record{
		"supplier": map[string]interface{}{
			"address": map[string]interface{}{"city": "taipei", "zip": "110"},
		},
	}
	corr := record.Record{
		"supplier": map[string]interface{}{
			"address": map[string]interface{}{"city": "Taipei", "zip": "110"},
		},
	}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "supplier.address.city", diffs[0].Path)
}

func TestCompare_Symmetry(t *testing.T) {
	a := NewAnalyzer()
	orig := record.Record{
		"name":    "aqua cream",
		"only_in": "original",
		"nested":  map[string]interface{}{"pH": 5.5},
	}
	corr := record.Record{
		"name":   "Aqua Cream",
		"added":  "later",
		"nested": map[string]interface{}{"pH": 6.0},
	}

	forward, err := a.Compare(orig, corr)
	require.NoError(t, err)
	backward, err := a.Compare(corr, orig)
	require.NoError(t, err)
	require.Len(t, backward, len(forward))

	byPath := make(map[string]record.Diff, len(backward))
	for _, d := range backward {
		byPath[d.Path] = d
	}
	for _, fd := range forward {
		bd, ok := byPath[fd.Path]
		require.True(t, ok, "path %s missing in reverse comparison", fd.Path)
		assert.Equal(t, fd.Original, bd.Corrected, "path %s", fd.Path)
		assert.Equal(t, fd.Corrected, bd.Original, "path %s", fd.Path)
	}
}

func TestCompare_PositionalSequenceAlignment(t *testing.T) {
	a := NewAnalyzer()
	orig := record.Record{"tags": []interface{}{"cream", "moisturizer"}}
	corr := record.Record{"tags": []interface{}{"cream", "moisturiser", "vegan"}}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	require.Len(t, diffs, 2)

	assert.Equal(t, "tags[1]", diffs[0].Path)
	assert.Equal(t, record.DiffModified, diffs[0].Kind)

	assert.Equal(t, "tags[2]", diffs[1].Path)
	assert.Equal(t, record.DiffAdded, diffs[1].Kind)
	assert.Equal(t, "vegan", diffs[1].Corrected)
}

func TestCompare_NaturalKeyAlignmentSurvivesReorder(t *testing.T) {
	a := NewAnalyzer(WithNaturalKeys("cas_number"))
	orig := record.Record{
		"ingredients": []interface{}{
			map[string]interface{}{"cas_number": "7732-18-5", "name": "water"},
			map[string]interface{}{"cas_number": "56-81-5", "name": "glycerin"},
		},
	}
	// Corrected record reorders the rows and fixes one name.
	corr := record.Record{
		"ingredients": []interface{}{
			map[string]interface{}{"cas_number": "56-81-5", "name": "Glycerin"},
			map[string]interface{}{"cas_number": "7732-18-5", "name": "water"},
		},
	}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "ingredients[cas_number=56-81-5].name", diffs[0].Path)
	assert.Equal(t, "glycerin", diffs[0].Original)
	assert.Equal(t, "Glycerin", diffs[0].Corrected)

	// The key-addressed path resolves against both records.
	v, ok := corr.Resolve(diffs[0].Path)
	require.True(t, ok)
	assert.Equal(t, "Glycerin", v)
}

// Comparing in either direction must name the edited row by the same path,
// even when the correction also moved the row.
func TestCompare_NaturalKeySymmetryUnderReorderAndEdit(t *testing.T) {
	a := NewAnalyzer(WithNaturalKeys("cas_number"))
	orig := record.Record{
		"ingredients": []interface{}{
			map[string]interface{}{"cas_number": "7732-18-5", "name": "water"},
			map[string]interface{}{"cas_number": "56-81-5", "name": "glycerin"},
		},
	}
	corr := record.Record{
		"ingredients": []interface{}{
			map[string]interface{}{"cas_number": "56-81-5", "name": "Glycerin"},
			map[string]interface{}{"cas_number": "7732-18-5", "name": "water"},
		},
	}

	forward, err := a.Compare(orig, corr)
	require.NoError(t, err)
	backward, err := a.Compare(corr, orig)
	require.NoError(t, err)

	require.Len(t, forward, 1)
	require.Len(t, backward, 1)
	assert.Equal(t, forward[0].Path, backward[0].Path)
	assert.Equal(t, forward[0].Original, backward[0].Corrected)
	assert.Equal(t, forward[0].Corrected, backward[0].Original)
}

func TestCompare_NaturalKeyRowAddedAndRemoved(t *testing.T) {
	a := NewAnalyzer(WithNaturalKeys("cas_number"))
	orig := record.Record{
		"ingredients": []interface{}{
			map[string]interface{}{"cas_number": "7732-18-5", "name": "Water"},
			map[string]interface{}{"cas_number": "50-00-0", "name": "Formaldehyde"},
		},
	}
	corr := record.Record{
		"ingredients": []interface{}{
			map[string]interface{}{"cas_number": "7732-18-5", "name": "Water"},
			map[string]interface{}{"cas_number": "56-81-5", "name": "Glycerin"},
		},
	}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	require.Len(t, diffs, 2)

	kinds := map[record.DiffKind]string{}
	for _, d := range diffs {
		kinds[d.Kind] = d.Path
	}
	assert.Equal(t, "ingredients[cas_number=50-00-0]", kinds[record.DiffRemoved])
	assert.Equal(t, "ingredients[cas_number=56-81-5]", kinds[record.DiffAdded])
}

func TestCompare_NaturalKeyFallsBackWhenDuplicated(t *testing.T) {
	a := NewAnalyzer(WithNaturalKeys("cas_number"))
	rows := func(names ...string) []interface{} {
		out := make([]interface{}, len(names))
		for i, n := range names {
			out[i] = map[string]interface{}{"cas_number": "7732-18-5", "name": n}
		}
		return out
	}
	orig := record.Record{"ingredients": rows("Water", "Aqua")}
	corr := record.Record{"ingredients": rows("Water", "Purified Aqua")}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "ingredients[1].name", diffs[0].Path)
}

func TestCompare_NumericValueEquality(t *testing.T) {
	a := NewAnalyzer()
	orig := record.Record{"net_content": 30}
	corr := record.Record{"net_content": 30.0}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestCompare_TypeChangeIsModified(t *testing.T) {
	a := NewAnalyzer()
	orig := record.Record{"ingredients": "water, glycerin"}
	corr := record.Record{"ingredients": []interface{}{"water", "glycerin"}}

	diffs, err := a.Compare(orig, corr)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, record.DiffModified, diffs[0].Kind)
}

func TestCompare_DepthBound(t *testing.T) {
	a := NewAnalyzer(WithMaxDepth(3))

	deep := func() record.Record {
		leaf := map[string]interface{}{"v": 1.0}
		for i := 0; i < 6; i++ {
			leaf = map[string]interface{}{"n": leaf}
		}
		return record.Record{"root": leaf}
	}

	_, err := a.Compare(deep(), record.Record{"root": "flat"})
	require.NoError(t, err, "depth is only probed where both sides nest")

	_, err = a.Compare(deep(), deep())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecordDepthExceeded))
}

func TestCompare_DeterministicOrdering(t *testing.T) {
	a := NewAnalyzer()
	orig := record.Record{"zeta": "1", "alpha": "1", "mid": map[string]interface{}{"b": "1", "a": "1"}}
	corr := record.Record{"zeta": "2", "alpha": "2", "mid": map[string]interface{}{"b": "2", "a": "2"}}

	for i := 0; i < 20; i++ {
		diffs, err := a.Compare(orig, corr)
		require.NoError(t, err)
		require.Len(t, diffs, 4)
		assert.Equal(t, "alpha", diffs[0].Path)
		assert.Equal(t, "mid.a", diffs[1].Path)
		assert.Equal(t, "mid.b", diffs[2].Path)
		assert.Equal(t, "zeta", diffs[3].Path)
	}
}

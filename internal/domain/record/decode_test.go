package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wucy1/ProDocuX/pkg/errors"
)

func TestDecodeExtracted_StrictJSON(t *testing.T) {
	rec, err := DecodeExtracted([]byte(`{"product_name": "Hydra Serum", "net_content": 30}`))
	require.NoError(t, err)
	assert.Equal(t, "Hydra Serum", rec["product_name"])
	assert.Equal(t, float64(30), rec["net_content"])
}

func TestDecodeExtracted_FencedBlock(t *testing.T) {
	raw := "Here is the extracted data:\n```json\n{\"product_name\": \"Hydra Serum\"}\n```\nLet me know if you need anything else."
	rec, err := DecodeExtracted([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Hydra Serum", rec["product_name"])
}

func TestDecodeExtracted_FencedBlockWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"manufacturer\": \"Acme\"}\n```"
	rec, err := DecodeExtracted([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec["manufacturer"])
}

func TestDecodeExtracted_BraceSlice(t *testing.T) {
	raw := `The result is {"name": "Aqua {Plus}", "note": "brace \" inside"} as requested.`
	rec, err := DecodeExtracted([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Aqua {Plus}", rec["name"])
	assert.Equal(t, `brace " inside`, rec["note"])
}

func TestDecodeExtracted_RawTextFallback(t *testing.T) {
	rec, err := DecodeExtracted([]byte("no structured data here"))
	require.NoError(t, err)
	require.Len(t, rec, 1)
	assert.Equal(t, "no structured data here", rec[RawTextField])
}

func TestDecodeExtracted_UnbalancedBracesFallBack(t *testing.T) {
	rec, err := DecodeExtracted([]byte(`broken {"name": "unterminated`))
	require.NoError(t, err)
	assert.Equal(t, `broken {"name": "unterminated`, rec[RawTextField])
}

func TestDecodeExtracted_EmptyInput(t *testing.T) {
	_, err := DecodeExtracted([]byte("  \n\t"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecordDecodeFailed))
}

func TestDecodeExtracted_TopLevelArrayFallsBack(t *testing.T) {
	rec, err := DecodeExtracted([]byte(`[{"a": 1}]`))
	require.NoError(t, err)
	// Array input is not a record; the embedded object is recovered by the
	// brace-slice scan.
	assert.Equal(t, float64(1), rec["a"])
}

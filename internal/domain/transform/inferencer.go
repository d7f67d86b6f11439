// Package transform infers what kind of edit turned an original field value
// into its corrected value, and scores how trustworthy that inference is.
package transform

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/wucy1/ProDocuX/pkg/types/learning"
)

var decimalFormRe = regexp.MustCompile(`^-?\d+\.\d+$`)
var integerFormRe = regexp.MustCompile(`^-?\d+$`)

// Translation length-ratio tolerance band.  A CJK string carries roughly
// 1.5-4x the information density of its Latin rendering, so translations
// whose rune-length ratio falls far outside that band are treated as
// unrelated rewrites instead.
const (
	minTranslationRatio = 0.2
	maxTranslationRatio = 5.0
)

// Inferencer classifies the edit between an original and a corrected value.
type Inferencer struct{}

// NewInferencer constructs an Inferencer.
func NewInferencer() *Inferencer {
	return &Inferencer{}
}

// Infer returns the transformation tag for the edit from original to
// corrected, and the raw textual similarity of the two values in [0,1].
// Checks run in priority order: case conversion, integer/decimal recast,
// script translation, then the custom catch-all.
func (in *Inferencer) Infer(original, corrected string) (learning.TransformationTag, float64) {
	o := strings.TrimSpace(original)
	c := strings.TrimSpace(corrected)
	sim := rawSimilarity(o, c)

	switch {
	case strings.EqualFold(o, c):
		return learning.TransformCaseConversion, sim
	case isDecimalRecast(o, c):
		return learning.TransformIntToDecimal, sim
	}

	if tag, ok := translationTag(o, c); ok {
		return tag, sim
	}
	return learning.TransformCustom, sim
}

// rawSimilarity is 1 - editDistance/max(len), computed on runes and clipped
// to [0,1].  Case-insensitively equal strings score 1.0 so that pure case
// conversions carry full similarity.
func rawSimilarity(o, c string) float64 {
	if strings.EqualFold(o, c) {
		return 1.0
	}
	maxLen := len([]rune(o))
	if l := len([]rune(c)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	sim := 1.0 - float64(levenshtein.ComputeDistance(o, c))/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

// isDecimalRecast reports whether one value is the decimal-formatted cast
// of the other, e.g. "5" and "5.0".
func isDecimalRecast(o, c string) bool {
	pair := func(intSide, decSide string) bool {
		if !integerFormRe.MatchString(intSide) || !decimalFormRe.MatchString(decSide) {
			return false
		}
		iv, err1 := strconv.ParseFloat(intSide, 64)
		dv, err2 := strconv.ParseFloat(decSide, 64)
		return err1 == nil && err2 == nil && iv == dv
	}
	return pair(o, c) || pair(c, o)
}

// translationTag detects a script change between the two values.  The tag
// follows the direction of the correction: a corrected value that is
// dominantly CJK means the field was translated to Chinese.
func translationTag(o, c string) (learning.TransformationTag, bool) {
	oCJK := dominantlyCJK(o)
	cCJK := dominantlyCJK(c)
	if oCJK == cCJK {
		return "", false
	}
	if !lengthRatioPlausible(o, c) {
		return "", false
	}
	if cCJK {
		return learning.TransformTranslateToChinese, true
	}
	return learning.TransformTranslateToEnglish, true
}

// dominantlyCJK reports whether more than half of the letter runes are Han
// characters.  Digits and punctuation are ignored so part numbers and units
// embedded in a name do not sway the result.
func dominantlyCJK(s string) bool {
	letters, han := 0, 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	return letters > 0 && han*2 > letters
}

func lengthRatioPlausible(o, c string) bool {
	lo := len([]rune(o))
	lc := len([]rune(c))
	if lo == 0 || lc == 0 {
		return false
	}
	ratio := float64(lc) / float64(lo)
	return ratio >= minTranslationRatio && ratio <= maxTranslationRatio
}

package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wucy1/ProDocuX/internal/config"
	"github.com/wucy1/ProDocuX/pkg/types/learning"
)

func newTestClassifier() *Classifier {
	return NewClassifier(config.DefaultDateLayouts)
}

func TestClassify_PriorityOrder(t *testing.T) {
	c := newTestClassifier()

	cases := []struct {
		value string
		want  learning.PatternTag
	}{
		{"user@example.com", learning.PatternEmail},
		{"+886 2 1234 5678", learning.PatternPhone},
		{"(02) 2345-6789", learning.PatternPhone},
		{"2024-01-15", learning.PatternDate},
		{"01/15/2024", learning.PatternDate},
		{"2024年01月15日", learning.PatternDate},
		{"50%", learning.PatternPercentage},
		{"12.5%", learning.PatternPercentage},
		{"12.5", learning.PatternDecimal},
		{"123", learning.PatternNumber},
		{"-42", learning.PatternNumber},
		{"ABC Cream", learning.PatternShortText},
		{strings.Repeat("a", 45), learning.PatternMediumText},
		{strings.Repeat("a", 61), learning.PatternLongText},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Classify(tc.value), "value %q", tc.value)
	}
}

func TestClassify_DateOutranksPhoneShape(t *testing.T) {
	c := newTestClassifier()
	// Digits and dashes only, eight digits total: shaped like a phone
	// number, but it parses as a date and must classify as one.
	assert.Equal(t, learning.PatternDate, c.Classify("2024-01-15"))
}

func TestClassify_ShortDigitRunsAreNotPhones(t *testing.T) {
	c := newTestClassifier()
	// Six digits is below the phone threshold; falls through to NUMBER.
	assert.Equal(t, learning.PatternNumber, c.Classify("123456"))
}

func TestClassify_CJKWidthBoundary(t *testing.T) {
	c := newTestClassifier()

	// 10 CJK characters = display width 20: the upper edge of SHORT_TEXT.
	assert.Equal(t, learning.PatternShortText, c.Classify(strings.Repeat("化", 10)))
	// 11 CJK characters = display width 22: MEDIUM_TEXT.
	assert.Equal(t, learning.PatternMediumText, c.Classify(strings.Repeat("化", 11)))
	// 30 CJK characters = display width 60: still MEDIUM_TEXT.
	assert.Equal(t, learning.PatternMediumText, c.Classify(strings.Repeat("化", 30)))
	// 31 CJK characters = display width 62: LONG_TEXT.
	assert.Equal(t, learning.PatternLongText, c.Classify(strings.Repeat("化", 31)))
}

func TestClassify_TrimsSurroundingWhitespace(t *testing.T) {
	c := newTestClassifier()
	assert.Equal(t, learning.PatternNumber, c.Classify("  123  "))
	assert.Equal(t, learning.PatternEmail, c.Classify(" user@example.com "))
}

func TestClassify_MixedWidthText(t *testing.T) {
	c := newTestClassifier()
	// 8 CJK characters (width 16) plus 5 ASCII = width 21: MEDIUM_TEXT.
	assert.Equal(t, learning.PatternMediumText, c.Classify(strings.Repeat("保", 8)+"cream"))
}

// Package pattern assigns semantic tags to scalar field values.  Tags feed
// transformation scoring and decide when repeated corrections of a field
// are consistent enough to promote into a profile rule.
package pattern

import (
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/wucy1/ProDocuX/pkg/types/learning"
)

// Display-width bucket thresholds.  CJK and other fullwidth codepoints
// count as width 2, everything else as width 1.
const (
	ShortTextMaxWidth  = 20
	MediumTextMaxWidth = 60
)

var (
	emailRe      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneShapeRe = regexp.MustCompile(`^\+?[\d\s\-().]+$`)
	percentageRe = regexp.MustCompile(`^-?\d+(\.\d+)?%$`)
	decimalRe    = regexp.MustCompile(`^-?\d+\.\d+$`)
	integerRe    = regexp.MustCompile(`^-?\d+$`)
)

// minPhoneDigits is the least digit count accepted as a phone number.
const minPhoneDigits = 7

// Classifier tags scalar values.  Classification is evaluated in a fixed
// priority order, first match wins: EMAIL, PHONE, DATE, PERCENTAGE,
// DECIMAL, NUMBER, then a display-width bucket.
type Classifier struct {
	dateLayouts []string
}

// NewClassifier constructs a Classifier that recognizes dates in the given
// layouts, attempted in order.
func NewClassifier(dateLayouts []string) *Classifier {
	return &Classifier{dateLayouts: dateLayouts}
}

// Classify tags a single scalar value.
func (c *Classifier) Classify(value string) learning.PatternTag {
	v := strings.TrimSpace(value)

	switch {
	case emailRe.MatchString(v):
		return learning.PatternEmail
	case c.isPhone(v):
		return learning.PatternPhone
	case c.isDate(v):
		return learning.PatternDate
	case percentageRe.MatchString(v):
		return learning.PatternPercentage
	case decimalRe.MatchString(v):
		return learning.PatternDecimal
	case integerRe.MatchString(v):
		return learning.PatternNumber
	}

	switch w := runewidth.StringWidth(v); {
	case w <= ShortTextMaxWidth:
		return learning.PatternShortText
	case w <= MediumTextMaxWidth:
		return learning.PatternMediumText
	default:
		return learning.PatternLongText
	}
}

// isPhone accepts strings made of digits and common phone punctuation with
// at least minPhoneDigits digits.  Date-shaped strings are excluded here:
// PHONE outranks DATE in the priority order, and without the exclusion
// every ISO date would classify as a phone number.
func (c *Classifier) isPhone(v string) bool {
	if !phoneShapeRe.MatchString(v) {
		return false
	}
	digits := 0
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < minPhoneDigits {
		return false
	}
	return !c.isDate(v)
}

func (c *Classifier) isDate(v string) bool {
	for _, layout := range c.dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

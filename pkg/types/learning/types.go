// Package learning defines the shared enumerations and DTOs of the learning
// engine: semantic pattern tags, transformation tags, learning-event statuses
// and their legal transitions, candidate rules, and the LearningResult
// returned to callers.
package learning

import (
	"time"

	"github.com/wucy1/ProDocuX/pkg/types/record"
)

// PatternTag is a semantic classification of a scalar value.  The set is
// closed; classification evaluates tags in a fixed priority order and the
// first match wins.
type PatternTag string

const (
	PatternEmail      PatternTag = "EMAIL"
	PatternPhone      PatternTag = "PHONE"
	PatternDate       PatternTag = "DATE"
	PatternPercentage PatternTag = "PERCENTAGE"
	PatternDecimal    PatternTag = "DECIMAL"
	PatternNumber     PatternTag = "NUMBER"
	PatternShortText  PatternTag = "SHORT_TEXT"
	PatternMediumText PatternTag = "MEDIUM_TEXT"
	PatternLongText   PatternTag = "LONG_TEXT"
)

func (t PatternTag) String() string { return string(t) }

// TransformationTag identifies the inferred edit operation that turned an
// original value into a corrected one.
type TransformationTag string

const (
	TransformCaseConversion     TransformationTag = "CASE_CONVERSION"
	TransformIntToDecimal       TransformationTag = "INT_TO_DECIMAL"
	TransformTranslateToChinese TransformationTag = "TRANSLATE_TO_CHINESE"
	TransformTranslateToEnglish TransformationTag = "TRANSLATE_TO_ENGLISH"
	TransformCustom             TransformationTag = "CUSTOM_TRANSFORMATION"
)

func (t TransformationTag) String() string { return string(t) }

// EventSource identifies which learning path produced an event.
type EventSource string

const (
	SourceJSON     EventSource = "json"
	SourceWord     EventSource = "word"
	SourceRepeated EventSource = "repeated"
)

// EventStatus is the lifecycle state of a LearningEvent.
//
//	PENDING ──► CLASSIFIED ──► SCORED ──► APPLIED
//	                              │
//	                              └─────► REJECTED
//
// APPLIED and REJECTED are terminal.
type EventStatus string

const (
	StatusPending    EventStatus = "PENDING"
	StatusClassified EventStatus = "CLASSIFIED"
	StatusScored     EventStatus = "SCORED"
	StatusApplied    EventStatus = "APPLIED"
	StatusRejected   EventStatus = "REJECTED"
)

func (s EventStatus) String() string { return string(s) }

// allowedTransitions defines the valid next states reachable from each
// status.  Transitions not listed are illegal.
var allowedTransitions = map[EventStatus][]EventStatus{
	StatusPending:    {StatusClassified},
	StatusClassified: {StatusScored},
	StatusScored:     {StatusApplied, StatusRejected},
	StatusApplied:    {},
	StatusRejected:   {},
}

// CanTransition reports whether moving from s to next is a legal transition.
func (s EventStatus) CanTransition(next EventStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s admits no further transitions.
func (s EventStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// Pattern is the semantic classification of one field's value.
type Pattern struct {
	Path       string     `json:"path"`
	Tag        PatternTag `json:"tag"`
	Confidence float64    `json:"confidence"`
}

// Transformation is one scored inference: the edit that turned a field's
// original value into its corrected value, plus the evidence behind it.
type Transformation struct {
	Path             string            `json:"path"`
	Tag              TransformationTag `json:"tag"`
	OriginalPattern  PatternTag        `json:"original_pattern"`
	CorrectedPattern PatternTag        `json:"corrected_pattern"`
	RawSimilarity    float64           `json:"raw_similarity"`
	Confidence       float64           `json:"confidence"`
	// ForcedByMarker is true when a colored-run correction marker pinned the
	// confidence to 1.0 regardless of the scored value.
	ForcedByMarker bool `json:"forced_by_marker,omitempty"`
}

// TransformationRule is a candidate or stable rule describing how values of a
// given field tend to be corrected.  Confidence is the mean confidence of the
// observations backing the rule.
type TransformationRule struct {
	FieldPath     string            `json:"field_path"`
	Tag           TransformationTag `json:"transformation_tag"`
	Confidence    float64           `json:"confidence"`
	ObservedCount int               `json:"observed_count"`
	LastObserved  time.Time         `json:"last_observed"`
}

// FieldCorrectionCount ranks a field path by how often it was corrected.
type FieldCorrectionCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// TrendMetrics summarizes correction history for one workflow.
// ImprovementRate is the least-squares slope of corrections-per-event over
// event index; a negative slope means extraction quality is improving.
type TrendMetrics struct {
	TotalCorrections    int                    `json:"total_corrections"`
	AverageCorrections  float64                `json:"average_corrections_per_event"`
	ImprovementRate     float64                `json:"improvement_rate"`
	MostCorrectedFields []FieldCorrectionCount `json:"most_corrected_fields"`
	LearningCurve       []int                  `json:"learning_curve"`
}

// LearningResult is returned to callers of every learning operation.
// Applied=false with a Reason reports a soft rejection (confidence below
// threshold, no repeatable patterns); it is not an error.
type LearningResult struct {
	EventID         string           `json:"event_id"`
	Status          EventStatus      `json:"status"`
	Diffs           []record.Diff    `json:"diffs"`
	Patterns        []Pattern        `json:"patterns"`
	Transformations []Transformation `json:"transformations"`
	Applied         bool             `json:"applied"`
	Reason          string           `json:"reason,omitempty"`
	ProfileVersion  int              `json:"profile_version,omitempty"`
	Trends          *TrendMetrics    `json:"trends,omitempty"`
}

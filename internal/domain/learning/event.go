// Package learning holds the learning-event aggregate and the aggregation
// logic that turns a workflow's correction history into stable rules and
// trend metrics.
package learning

import (
	"time"

	"github.com/google/uuid"

	"github.com/wucy1/ProDocuX/pkg/errors"
	"github.com/wucy1/ProDocuX/pkg/types/learning"
	"github.com/wucy1/ProDocuX/pkg/types/record"
)

// Event is one learning submission: the differences found between an
// original and a corrected record, enriched step by step with patterns,
// transformations, and a final status.
//
// An Event is immutable once created.  Enrichment methods return a new
// Event value; the receiver is never modified, so a caller holding an
// earlier stage can never observe a later one.
type Event struct {
	ID        string
	WorkID    string
	Profile   string
	Source    learning.EventSource
	Status    learning.EventStatus
	CreatedAt time.Time

	Diffs           []record.Diff
	Patterns        []learning.Pattern
	Transformations []learning.Transformation

	// Reason is set on rejection.
	Reason string
}

// NewEvent creates a PENDING event from collected diffs.
func NewEvent(workID, profile string, source learning.EventSource, diffs []record.Diff) (*Event, error) {
	if workID == "" {
		return nil, errors.New(errors.ErrCodeLearningEventInvalid, "work id is required")
	}
	if profile == "" {
		return nil, errors.New(errors.ErrCodeLearningEventInvalid, "profile name is required")
	}
	return &Event{
		ID:        uuid.NewString(),
		WorkID:    workID,
		Profile:   profile,
		Source:    source,
		Status:    learning.StatusPending,
		CreatedAt: time.Now().UTC(),
		Diffs:     diffs,
	}, nil
}

// WithPatterns returns a CLASSIFIED copy of the event carrying the assigned
// patterns.
func (e *Event) WithPatterns(patterns []learning.Pattern) (*Event, error) {
	next, err := e.transition(learning.StatusClassified)
	if err != nil {
		return nil, err
	}
	next.Patterns = patterns
	return next, nil
}

// WithTransformations returns a SCORED copy of the event carrying the
// scored transformations.
func (e *Event) WithTransformations(transformations []learning.Transformation) (*Event, error) {
	next, err := e.transition(learning.StatusScored)
	if err != nil {
		return nil, err
	}
	next.Transformations = transformations
	return next, nil
}

// Applied returns a terminal APPLIED copy of the event.
func (e *Event) Applied() (*Event, error) {
	return e.transition(learning.StatusApplied)
}

// Rejected returns a terminal REJECTED copy carrying the rejection reason.
func (e *Event) Rejected(reason string) (*Event, error) {
	next, err := e.transition(learning.StatusRejected)
	if err != nil {
		return nil, err
	}
	next.Reason = reason
	return next, nil
}

func (e *Event) transition(to learning.EventStatus) (*Event, error) {
	if !e.Status.CanTransition(to) {
		return nil, errors.New(errors.ErrCodeLearningIllegalTransition,
			"illegal status transition").
			WithDetail(string(e.Status) + " -> " + string(to))
	}
	next := *e
	next.Status = to
	return &next, nil
}

// CorrectionCount is the number of field-level differences the event holds.
func (e *Event) CorrectionCount() int {
	return len(e.Diffs)
}

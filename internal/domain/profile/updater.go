package profile

import (
	"sort"
	"time"

	"github.com/wucy1/ProDocuX/pkg/errors"
	"github.com/wucy1/ProDocuX/pkg/types/learning"
)

// Updater merges stable rules into a profile, producing the next version.
type Updater struct{}

// NewUpdater constructs an Updater.
func NewUpdater() *Updater {
	return &Updater{}
}

// Apply merges the given rules into current and returns version N+1.
// current is not mutated.
//
// Merge semantics: rules for previously unseen field paths are added;
// a rule for an already-ruled path wins only if it carries higher
// confidence, or equal confidence with a more recent observation.  Fields
// and rules untouched by the new rules are carried over unchanged.
func (u *Updater) Apply(current *RuleSet, rules []learning.TransformationRule) (*RuleSet, error) {
	if current == nil {
		return nil, errors.InvalidParam("current profile is required")
	}
	if current.Version < 1 {
		return nil, errors.New(errors.ErrCodeProfileVersionInvalid, "profile version must be >= 1")
	}
	for _, r := range rules {
		if r.Confidence < 0 || r.Confidence > 1 {
			return nil, errors.Validation("rule confidence out of range").
				WithDetail("field=" + r.FieldPath)
		}
	}

	next := current.Clone()
	next.Version = current.Version + 1
	next.UpdatedAt = time.Now().UTC()

	byPath := make(map[string]int, len(next.Rules))
	for i, r := range next.Rules {
		byPath[r.FieldPath] = i
	}
	for _, incoming := range rules {
		i, exists := byPath[incoming.FieldPath]
		if !exists {
			byPath[incoming.FieldPath] = len(next.Rules)
			next.Rules = append(next.Rules, incoming)
			continue
		}
		if supersedes(incoming, next.Rules[i]) {
			next.Rules[i] = incoming
		}
	}
	sort.Slice(next.Rules, func(i, j int) bool { return next.Rules[i].FieldPath < next.Rules[j].FieldPath })

	return next, nil
}

// supersedes decides a conflict between a new and an existing rule for the
// same field path: higher confidence wins, ties go to the more recent
// observation.
func supersedes(incoming, existing learning.TransformationRule) bool {
	if incoming.Confidence != existing.Confidence {
		return incoming.Confidence > existing.Confidence
	}
	return incoming.LastObserved.After(existing.LastObserved)
}

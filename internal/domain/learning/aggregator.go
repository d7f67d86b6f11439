package learning

import (
	"sort"
	"time"

	"github.com/wucy1/ProDocuX/pkg/types/learning"
)

// Promotion defaults.
const (
	DefaultMinRepeat       = 3
	DefaultStableThreshold = 0.6
)

// Aggregator finds stable, repeatable correction patterns across the
// learning events of one workflow.
type Aggregator struct {
	minRepeat       int
	stableThreshold float64
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithMinRepeat overrides the observation count required for promotion.
func WithMinRepeat(n int) AggregatorOption {
	return func(a *Aggregator) { a.minRepeat = n }
}

// WithStableThreshold overrides the average confidence required for
// promotion.
func WithStableThreshold(v float64) AggregatorOption {
	return func(a *Aggregator) { a.stableThreshold = v }
}

// NewAggregator constructs an Aggregator with default promotion gates.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		minRepeat:       DefaultMinRepeat,
		stableThreshold: DefaultStableThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// observation is one transformation sighting with its event timestamp.
type observation struct {
	tag        learning.TransformationTag
	confidence float64
	seenAt     time.Time
}

// Aggregate groups the history's transformation observations by field path
// and promotes the repeatable ones to stable rules.
//
// Within a field, the majority transformation tag wins; observations of
// minority tags are excluded from the stable rule and do not block
// promotion.  A field promotes only when the majority tag was observed at
// least minRepeat times with an average confidence at or above the stable
// threshold.  Trend metrics are derived from the same history.
func (a *Aggregator) Aggregate(history *WorkHistory) ([]learning.TransformationRule, learning.TrendMetrics) {
	byField := map[string][]observation{}
	for _, e := range history.Events {
		for _, tr := range e.Transformations {
			byField[tr.Path] = append(byField[tr.Path], observation{
				tag:        tr.Tag,
				confidence: tr.Confidence,
				seenAt:     e.CreatedAt,
			})
		}
	}

	var stable []learning.TransformationRule
	for path, obs := range byField {
		tag, majority := majorityTag(obs)
		if len(majority) < a.minRepeat {
			continue
		}
		avg := meanConfidence(majority)
		if avg < a.stableThreshold {
			continue
		}
		stable = append(stable, learning.TransformationRule{
			FieldPath:     path,
			Tag:           tag,
			Confidence:    avg,
			ObservedCount: len(majority),
			LastObserved:  latest(majority),
		})
	}
	sort.Slice(stable, func(i, j int) bool { return stable[i].FieldPath < stable[j].FieldPath })

	return stable, history.Trends()
}

// majorityTag selects the most frequent tag among the observations and
// returns only the observations carrying it.  Frequency ties break
// lexicographically on the tag so the outcome is deterministic.
func majorityTag(obs []observation) (learning.TransformationTag, []observation) {
	counts := map[learning.TransformationTag]int{}
	for _, o := range obs {
		counts[o.tag]++
	}
	var winner learning.TransformationTag
	best := -1
	for tag, n := range counts {
		if n > best || (n == best && tag < winner) {
			winner, best = tag, n
		}
	}
	kept := make([]observation, 0, best)
	for _, o := range obs {
		if o.tag == winner {
			kept = append(kept, o)
		}
	}
	return winner, kept
}

func meanConfidence(obs []observation) float64 {
	sum := 0.0
	for _, o := range obs {
		sum += o.confidence
	}
	return sum / float64(len(obs))
}

func latest(obs []observation) time.Time {
	var t time.Time
	for _, o := range obs {
		if o.seenAt.After(t) {
			t = o.seenAt
		}
	}
	return t
}

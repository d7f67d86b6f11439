package transform

import "math"

// Confidence weighting.  The three weights sum to 1.0 so the score stays in
// [0,1] without clamping in the common case.
const (
	DefaultSimilarityWeight = 0.4
	DefaultPatternWeight    = 0.3
	DefaultRepetitionWeight = 0.3

	// DefaultRepeatCap is the repetition count at which the repetition
	// bonus saturates at 1.0.
	DefaultRepeatCap = 10
)

// Scorer computes the confidence of an inferred transformation.
type Scorer struct {
	similarityWeight float64
	patternWeight    float64
	repetitionWeight float64
	repeatCap        int
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithWeights overrides the similarity/pattern/repetition weights.
func WithWeights(similarity, pattern, repetition float64) ScorerOption {
	return func(s *Scorer) {
		s.similarityWeight = similarity
		s.patternWeight = pattern
		s.repetitionWeight = repetition
	}
}

// WithRepeatCap overrides the repetition saturation point.
func WithRepeatCap(n int) ScorerOption {
	return func(s *Scorer) { s.repeatCap = n }
}

// NewScorer constructs a Scorer with the default weighting.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{
		similarityWeight: DefaultSimilarityWeight,
		patternWeight:    DefaultPatternWeight,
		repetitionWeight: DefaultRepetitionWeight,
		repeatCap:        DefaultRepeatCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input carries everything a single confidence computation depends on.
type Input struct {
	RawSimilarity float64
	PatternsMatch bool
	Repetitions   int

	// ForcedByMarker is set when a colored run in a corrected Word
	// document marked this field.  A human highlighted the correction, so
	// confidence is 1.0 no matter how small the textual change is.
	ForcedByMarker bool
}

// Score returns the confidence for one inferred transformation, in [0,1].
// It is monotonically non-decreasing in Repetitions when the other inputs
// are held fixed.
func (s *Scorer) Score(in Input) float64 {
	if in.ForcedByMarker {
		return 1.0
	}

	patternBonus := 0.0
	if in.PatternsMatch {
		patternBonus = 1.0
	}

	confidence := s.similarityWeight*clamp01(in.RawSimilarity) +
		s.patternWeight*patternBonus +
		s.repetitionWeight*s.repetitionBonus(in.Repetitions)
	return clamp01(confidence)
}

// repetitionBonus grows logarithmically with the observation count and
// saturates at 1.0 once the count reaches the repeat cap.
func (s *Scorer) repetitionBonus(repetitions int) float64 {
	if repetitions <= 0 {
		return 0
	}
	bonus := math.Log2(1+float64(repetitions)) / math.Log2(1+float64(s.repeatCap))
	return math.Min(1.0, bonus)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

package learning

import (
	"sort"

	"github.com/wucy1/ProDocuX/pkg/types/learning"
)

// WorkHistory is the ordered correction history of one workflow.  Events
// are kept in submission order; the aggregator depends on that order for
// its trend computation.
type WorkHistory struct {
	WorkID string
	Events []*Event
}

// NewWorkHistory builds a history from events already ordered by
// submission.
func NewWorkHistory(workID string, events []*Event) *WorkHistory {
	return &WorkHistory{WorkID: workID, Events: events}
}

// Len returns the number of recorded events.
func (h *WorkHistory) Len() int { return len(h.Events) }

// CorrectionCurve returns corrections-per-event in submission order.
func (h *WorkHistory) CorrectionCurve() []int {
	curve := make([]int, len(h.Events))
	for i, e := range h.Events {
		curve[i] = e.CorrectionCount()
	}
	return curve
}

// Trends derives the aggregate metrics for the history.
func (h *WorkHistory) Trends() learning.TrendMetrics {
	curve := h.CorrectionCurve()

	total := 0
	for _, n := range curve {
		total += n
	}
	avg := 0.0
	if len(curve) > 0 {
		avg = float64(total) / float64(len(curve))
	}

	return learning.TrendMetrics{
		TotalCorrections:    total,
		AverageCorrections:  avg,
		ImprovementRate:     regressionSlope(curve),
		MostCorrectedFields: h.mostCorrectedFields(),
		LearningCurve:       curve,
	}
}

// mostCorrectedFields ranks field paths by correction frequency, most
// corrected first; ties break lexicographically so the ranking is stable.
func (h *WorkHistory) mostCorrectedFields() []learning.FieldCorrectionCount {
	counts := map[string]int{}
	for _, e := range h.Events {
		for _, d := range e.Diffs {
			counts[d.Path]++
		}
	}
	ranked := make([]learning.FieldCorrectionCount, 0, len(counts))
	for path, n := range counts {
		ranked = append(ranked, learning.FieldCorrectionCount{Path: path, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Path < ranked[j].Path
	})
	return ranked
}

// regressionSlope is the least-squares slope of y over its index.  A
// negative slope over a correction curve means later events needed fewer
// corrections.
func regressionSlope(y []int) float64 {
	n := len(y)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += float64(v)
		sumXY += x * float64(v)
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}

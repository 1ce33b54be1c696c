package stats

import (
	"math"

	"github.com/gkobilansky/janus-goat/internal/analysis"
)

// SelectBest returns the variant with the highest probability of being
// best. Ties go to the first variant in input order. A missing probability
// counts as -Inf, so it is only ever picked by nobody: when no stat carries
// a probability, ok is false.
func SelectBest(stats []analysis.MetricStat) (variant string, ok bool) {
	bestValue := math.Inf(-1)
	for _, s := range stats {
		p, present := s.Prob()
		if !present {
			continue
		}
		if p > bestValue {
			bestValue = p
			variant = s.Variant
			ok = true
		}
	}
	return variant, ok
}

// BestByMetric runs SelectBest for every ranked metric of a result.
func BestByMetric(result *analysis.Result) map[analysis.Metric]string {
	best := make(map[analysis.Metric]string, len(analysis.Metrics))
	for _, m := range analysis.Metrics {
		if v, ok := SelectBest(result.Stats(m)); ok {
			best[m] = v
		}
	}
	return best
}

package stats

import (
	"fmt"

	mstats "github.com/montanaflynn/stats"
)

// CredibleInterval returns the equal-tailed interval holding level of the
// posterior samples, e.g. level 0.95 gives the 2.5th and 97.5th percentiles.
func CredibleInterval(samples []float64, level float64) (lower, upper float64, err error) {
	if level <= 0 || level >= 1 {
		return 0, 0, fmt.Errorf("invalid credible level %v", level)
	}

	tail := (1 - level) / 2 * 100
	lower, err = mstats.Percentile(samples, tail)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute lower bound: %w", err)
	}
	upper, err = mstats.Percentile(samples, 100-tail)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute upper bound: %w", err)
	}
	return lower, upper, nil
}

// Mean returns the sample mean.
func Mean(samples []float64) (float64, error) {
	m, err := mstats.Mean(samples)
	if err != nil {
		return 0, fmt.Errorf("failed to compute mean: %w", err)
	}
	return m, nil
}

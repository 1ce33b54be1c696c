// Package density turns posterior sample sets into drawable curves with a
// fixed-bandwidth Gaussian kernel density estimate.
package density

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// Bandwidth is the kernel standard deviation. It is not data-adaptive.
	Bandwidth = 0.005
	// Padding extends the evaluation domain on both sides of the samples.
	Padding = 0.01
	// NumPoints is the number of evenly spaced grid points evaluated.
	NumPoints = 100
)

var ErrNoSamples = errors.New("density: no samples")

// Point is one evaluated grid point.
type Point struct {
	X float64
	Y float64
}

// Curve is a density curve ordered by X.
type Curve []Point

// Estimate evaluates the KDE of samples on NumPoints grid points spanning
// [max(0, min-Padding), max+Padding]. The cost is len(samples)*NumPoints
// kernel evaluations; sample counts are bounded by the service's draw count.
func Estimate(samples []float64) (Curve, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	lo := math.Max(0, sorted[0]-Padding)
	hi := sorted[len(sorted)-1] + Padding
	xs := floats.Span(make([]float64, NumPoints), lo, hi)

	kernel := distuv.Normal{Mu: 0, Sigma: Bandwidth}
	n := float64(len(sorted))

	curve := make(Curve, NumPoints)
	for i, x := range xs {
		var sum float64
		for _, s := range sorted {
			sum += kernel.Prob(x - s)
		}
		curve[i] = Point{X: x, Y: sum / n}
	}
	return curve, nil
}

// Peak returns the grid point with the highest density. The first one wins
// on ties.
func (c Curve) Peak() Point {
	var best Point
	for i, p := range c {
		if i == 0 || p.Y > best.Y {
			best = p
		}
	}
	return best
}

// Step returns the spacing between grid points.
func (c Curve) Step() float64 {
	if len(c) < 2 {
		return 0
	}
	return (c[len(c)-1].X - c[0].X) / float64(len(c)-1)
}

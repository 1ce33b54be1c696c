package present

import (
	"fmt"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/density"
)

// Color is an RGBA colour with alpha in [0,1].
type Color struct {
	R, G, B uint8
	A       float64
}

func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, c.A)
}

// BaselineColor is reserved for the baseline variant.
var BaselineColor = Color{220, 53, 69, 0.7}

// Palette is cycled through for every non-baseline variant.
var Palette = []Color{
	{0, 123, 255, 0.7},  // blue
	{40, 167, 69, 0.7},  // green
	{255, 193, 7, 0.7},  // yellow
	{165, 42, 42, 0.7},  // brown
	{111, 66, 193, 0.7}, // purple
	{23, 162, 184, 0.7}, // cyan
	{255, 102, 0, 0.7},  // orange
	{0, 128, 128, 0.7},  // teal
	{128, 0, 128, 0.7},  // magenta
}

// FillAlpha is the alpha of the area under a density curve.
const FillAlpha = 0.2

// AssignColors returns one colour per name, in order. The baseline gets
// BaselineColor; the others take the next palette entry, wrapping around.
func AssignColors(order []string, baseline string) []Color {
	colors := make([]Color, len(order))
	next := 0
	for i, name := range order {
		if name == baseline {
			colors[i] = BaselineColor
			continue
		}
		colors[i] = Palette[next%len(Palette)]
		next++
	}
	return colors
}

type SeriesKind int

const (
	SeriesDensity SeriesKind = iota
	SeriesMeanMarker
)

// Series is one drawable line of a chart.
type Series struct {
	Label   string
	Variant string
	Kind    SeriesKind
	Points  []density.Point
	Color   Color
	Fill    *Color
	Dashed  bool
}

// InLegend reports whether the series is listed in the legend; mean markers
// are not.
func (s Series) InLegend() bool {
	return s.Kind == SeriesDensity
}

// ChartSpec is everything a renderer needs to draw one metric's chart.
type ChartSpec struct {
	Metric analysis.Metric
	Title  string
	XLabel string
	YLabel string
	Series []Series
}

// ChartTitle returns the chart title of metric m.
func ChartTitle(m analysis.Metric) string {
	switch m {
	case analysis.MetricConversion:
		return "Conversion Rate Distributions"
	case analysis.MetricARPU:
		return "ARPU Distributions"
	case analysis.MetricRevenuePerSale:
		return "Revenue Per Sale Distributions"
	}
	return string(m)
}

// AxisLabel returns the x-axis label of metric m.
func AxisLabel(m analysis.Metric) string {
	switch m {
	case analysis.MetricConversion:
		return "Conversion Rate"
	case analysis.MetricARPU:
		return "ARPU (Average Revenue Per User)"
	case analysis.MetricRevenuePerSale:
		return "Revenue Per Sale"
	}
	return string(m)
}

// BuildChart smooths every distribution of metric m and adds a dashed mean
// marker for each variant whose posterior mean (or summary fallback) is
// known. Series follow the order of the distributions in the response.
func BuildChart(ctx Context, m analysis.Metric) (ChartSpec, error) {
	spec := ChartSpec{
		Metric: m,
		Title:  ChartTitle(m),
		XLabel: AxisLabel(m),
		YLabel: "Density",
	}

	dists := ctx.Result.DistributionsFor(m)
	colors := AssignColors(dists.Variants(), ctx.Baseline)

	curves := make([]density.Curve, len(dists))
	var peak float64
	for i, dist := range dists {
		curve, err := density.Estimate(dist.Samples)
		if err != nil {
			return ChartSpec{}, fmt.Errorf("failed to smooth %s distribution of %q: %w", m, dist.Variant, err)
		}
		if p := curve.Peak().Y; p > peak {
			peak = p
		}
		curves[i] = curve
	}

	for i, dist := range dists {
		fill := colors[i].WithAlpha(FillAlpha)
		spec.Series = append(spec.Series, Series{
			Label:   dist.Variant,
			Variant: dist.Variant,
			Kind:    SeriesDensity,
			Points:  curves[i],
			Color:   colors[i],
			Fill:    &fill,
		})

		stat, ok := ctx.Result.StatFor(m, dist.Variant)
		if !ok {
			continue
		}
		mean, ok := ctx.Result.PosteriorMean(m, stat)
		if !ok {
			continue
		}
		// The marker spans the full height of the tallest curve.
		spec.Series = append(spec.Series, Series{
			Label:   dist.Variant + " Mean",
			Variant: dist.Variant,
			Kind:    SeriesMeanMarker,
			Points:  []density.Point{{X: mean, Y: 0}, {X: mean, Y: peak}},
			Color:   colors[i],
			Dashed:  true,
		})
	}

	return spec, nil
}

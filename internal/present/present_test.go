package present_test

import (
	"errors"
	"testing"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/present"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *analysis.Result {
	return &analysis.Result{
		Summary: []analysis.SummaryRow{
			{Variant: "A", Impressions: 1000, Conversions: 100, Revenue: 100, Conversion: 0.1, AvgTicket: 1, ARPU: 0.1},
			{Variant: "B", Impressions: 1000, Conversions: 120, Revenue: 110, Conversion: 0.12, AvgTicket: 0.9167, ARPU: 0.11},
		},
		ConversionStats: []analysis.MetricStat{
			{Variant: "A", PosteriorMean: analysis.Float(0.1008), ExpectedLoss: 0.02, ProbBeingBest: analysis.Float(0.08), Lift: 0},
			{Variant: "B", PosteriorMean: analysis.Float(0.1208), ExpectedLoss: 0.0001, ProbBeingBest: analysis.Float(0.92), Lift: 0.2},
		},
		ARPUStats: []analysis.MetricStat{
			{Variant: "A", ExpectedLoss: 0.01, ProbBeingBest: analysis.Float(0.3), Lift: 0},
			{Variant: "B", ExpectedLoss: 0.001, ProbBeingBest: analysis.Float(0.7), Lift: 0.1},
		},
		RevenuePerSaleStats: []analysis.MetricStat{
			{Variant: "A", ExpectedLoss: 0.01, ProbBeingBest: analysis.Float(0.6), Lift: 0},
			{Variant: "B", ExpectedLoss: 0.1, Lift: -0.0833},
		},
		ConversionDistributions: analysis.Distributions{
			{Variant: "A", Samples: []float64{0.09, 0.1, 0.11}},
			{Variant: "B", Samples: []float64{0.11, 0.12, 0.13}},
		},
		ARPUDistributions: analysis.Distributions{
			{Variant: "A", Samples: []float64{0.09, 0.1}},
			{Variant: "B", Samples: []float64{0.1, 0.11}},
		},
		RevenuePerSaleDistributions: analysis.Distributions{
			{Variant: "A", Samples: []float64{0.95, 1.0}},
			{Variant: "B", Samples: []float64{0.9, 0.93}},
		},
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "10.0000%", present.FormatPercent(0.1))
	assert.Equal(t, "12.3400%", present.FormatPercent(0.1234))

	assert.Equal(t, present.Cell{Text: "+0.0000%", Tag: present.TagPositive}, present.FormatLift(0))
	assert.Equal(t, present.Cell{Text: "+20.0000%", Tag: present.TagPositive}, present.FormatLift(0.2))
	assert.Equal(t, present.Cell{Text: "-1.0000%", Tag: present.TagNegative}, present.FormatLift(-0.01))

	assert.Equal(t, "1,000", present.FormatCount(1000))
	assert.Equal(t, "999", present.FormatCount(999))
	assert.Equal(t, "1,234,567", present.FormatCount(1234567))
	assert.Equal(t, "-12,345", present.FormatCount(-12345))

	assert.Equal(t, "0.9167", present.FormatFixed(0.91666))
	assert.Equal(t, "110", present.FormatNumber(110))
	assert.Equal(t, "0.11", present.FormatNumber(0.11))
}

func TestProbabilityTier(t *testing.T) {
	tests := []struct {
		p    float64
		want present.Tag
	}{
		{0.95, present.TagHigh},
		{0.80, present.TagHigh},
		{0.7999, present.TagMedium},
		{0.50, present.TagMedium},
		{0.4999, present.TagLow},
		{0, present.TagLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, present.ProbabilityTier(tt.p), "p=%v", tt.p)
	}
}

func TestBuildSummaryTable(t *testing.T) {
	table := present.BuildSummaryTable(present.Context{Result: sampleResult(), Baseline: "A"})

	assert.Equal(t, "Summary", table.Title)
	assert.Equal(t, present.SummaryHeaders, table.Headers)
	require.Len(t, table.Rows, 2)

	assert.True(t, table.Rows[0].Baseline)
	assert.False(t, table.Rows[1].Baseline)
	assert.Equal(t, "10.0000%", table.Rows[0].Cells[4].Text)
	assert.Equal(t, "12.0000%", table.Rows[1].Cells[4].Text)
	assert.Equal(t, "1,000", table.Rows[0].Cells[1].Text)
}

func TestBuildMetricTable(t *testing.T) {
	ctx := present.Context{Result: sampleResult(), Baseline: "A"}

	table, best := present.BuildMetricTable(ctx, analysis.MetricConversion)
	assert.Equal(t, "B", best)
	assert.Equal(t, "Conversion Statistics", table.Title)
	require.Len(t, table.Rows, 2)

	a, b := table.Rows[0], table.Rows[1]
	assert.True(t, a.Baseline)
	assert.False(t, a.Best)
	assert.True(t, b.Best)
	assert.Equal(t, "10.0800%", a.Cells[1].Text)
	assert.Equal(t, present.TagLow, a.Cells[3].Tag)
	assert.Equal(t, present.TagHigh, b.Cells[3].Tag)
	assert.Equal(t, "+20.0000%", b.Cells[4].Text)

	// ARPU means fall back to the summary.
	table, best = present.BuildMetricTable(ctx, analysis.MetricARPU)
	assert.Equal(t, "B", best)
	assert.Equal(t, "0.1000", table.Rows[0].Cells[1].Text)
	assert.Equal(t, "0.1100", table.Rows[1].Cells[1].Text)
	assert.Equal(t, present.TagMedium, table.Rows[1].Cells[3].Tag)

	// A missing probability is shown but never ranked.
	table, best = present.BuildMetricTable(ctx, analysis.MetricRevenuePerSale)
	assert.Equal(t, "A", best)
	assert.Equal(t, "N/A", table.Rows[1].Cells[3].Text)
	assert.Equal(t, present.TagNegative, table.Rows[1].Cells[4].Tag)
	assert.Equal(t, "0.9167", table.Rows[1].Cells[1].Text)
}

func TestBuildMetricTable_NoProbabilities(t *testing.T) {
	result := sampleResult()
	for i := range result.ConversionStats {
		result.ConversionStats[i].ProbBeingBest = nil
	}

	table, best := present.BuildMetricTable(present.Context{Result: result, Baseline: "A"}, analysis.MetricConversion)
	assert.Empty(t, best)
	for _, row := range table.Rows {
		assert.False(t, row.Best)
	}
}

func TestAssignColors(t *testing.T) {
	colors := present.AssignColors([]string{"B", "A", "C"}, "A")
	assert.Equal(t, present.Palette[0], colors[0])
	assert.Equal(t, present.BaselineColor, colors[1])
	assert.Equal(t, present.Palette[1], colors[2])
	assert.Equal(t, "rgba(220, 53, 69, 0.7)", present.BaselineColor.String())

	names := make([]string, len(present.Palette)+1)
	for i := range names {
		names[i] = string(rune('A' + i))
	}
	colors = present.AssignColors(names, "")
	assert.Equal(t, present.Palette[0], colors[len(names)-1])
}

func TestBuildChart(t *testing.T) {
	spec, err := present.BuildChart(present.Context{Result: sampleResult(), Baseline: "A"}, analysis.MetricConversion)
	require.NoError(t, err)

	assert.Equal(t, "Conversion Rate Distributions", spec.Title)
	assert.Equal(t, "Conversion Rate", spec.XLabel)
	require.Len(t, spec.Series, 4)

	density, marker := spec.Series[0], spec.Series[1]
	assert.Equal(t, "A", density.Label)
	assert.True(t, density.InLegend())
	assert.False(t, density.Dashed)
	assert.Equal(t, present.BaselineColor, density.Color)
	require.NotNil(t, density.Fill)
	assert.Equal(t, present.FillAlpha, density.Fill.A)

	assert.Equal(t, "A Mean", marker.Label)
	assert.False(t, marker.InLegend())
	assert.True(t, marker.Dashed)
	require.Len(t, marker.Points, 2)
	assert.Equal(t, 0.1008, marker.Points[0].X)
	assert.Equal(t, 0.0, marker.Points[0].Y)

	var peak float64
	for _, s := range spec.Series {
		if s.Kind == present.SeriesDensity {
			for _, p := range s.Points {
				if p.Y > peak {
					peak = p.Y
				}
			}
		}
	}
	assert.Equal(t, peak, marker.Points[1].Y)
	assert.Equal(t, present.Palette[0], spec.Series[2].Color)
}

func TestBuildChart_FallbackMarker(t *testing.T) {
	spec, err := present.BuildChart(present.Context{Result: sampleResult(), Baseline: "A"}, analysis.MetricRevenuePerSale)
	require.NoError(t, err)
	require.Len(t, spec.Series, 4)
	assert.Equal(t, 0.9167, spec.Series[3].Points[0].X)
}

func TestBuildChart_EmptySamples(t *testing.T) {
	result := sampleResult()
	result.ARPUDistributions[1].Samples = nil

	_, err := present.BuildChart(present.Context{Result: result, Baseline: "A"}, analysis.MetricARPU)
	assert.Error(t, err)
}

type fakeDrawable struct {
	spec      present.ChartSpec
	destroyed bool
	log       *[]string
}

func (d *fakeDrawable) Destroy() error {
	d.destroyed = true
	*d.log = append(*d.log, "destroy "+d.spec.Title)
	return nil
}

type fakeRenderer struct {
	log   []string
	fail  map[analysis.Metric]bool
	drawn []*fakeDrawable
}

func (r *fakeRenderer) Render(spec present.ChartSpec) (present.Drawable, error) {
	if r.fail[spec.Metric] {
		return nil, errors.New("boom")
	}
	r.log = append(r.log, "render "+spec.Title)
	d := &fakeDrawable{spec: spec, log: &r.log}
	r.drawn = append(r.drawn, d)
	return d, nil
}

func TestChartHandle_ReplaceDestroysFirst(t *testing.T) {
	r := &fakeRenderer{}
	h := present.NewChartHandle(r)

	require.NoError(t, h.Replace(present.ChartSpec{Title: "one"}))
	require.NoError(t, h.Replace(present.ChartSpec{Title: "two"}))

	assert.Equal(t, []string{"render one", "destroy one", "render two"}, r.log)
	assert.True(t, r.drawn[0].destroyed)
	assert.Same(t, r.drawn[1], h.Current())

	require.NoError(t, h.Close())
	assert.Nil(t, h.Current())
	require.NoError(t, h.Close())
}

func TestPresenter_Present(t *testing.T) {
	r := &fakeRenderer{}
	p := present.New(r, nil)

	view := p.Present(present.Context{Result: sampleResult(), Baseline: "A"})
	tables := view.Tables()
	require.Len(t, tables, 4)
	assert.Equal(t, []string{"Summary", "Conversion Statistics", "ARPU Statistics", "Revenue Per Sale Statistics"},
		[]string{tables[0].Title, tables[1].Title, tables[2].Title, tables[3].Title})

	conv, ok := view.Metric(analysis.MetricConversion)
	require.True(t, ok)
	assert.Equal(t, "B", conv.Best)
	assert.NotNil(t, p.Chart(analysis.MetricConversion))

	// Presenting again replaces every chart.
	p.Present(present.Context{Result: sampleResult(), Baseline: "A"})
	require.Len(t, r.drawn, 6)
	for _, d := range r.drawn[:3] {
		assert.True(t, d.destroyed)
	}

	require.NoError(t, p.Close())
	for _, d := range r.drawn {
		assert.True(t, d.destroyed)
	}
}

func TestPresenter_ChartFailureKeepsTables(t *testing.T) {
	r := &fakeRenderer{fail: map[analysis.Metric]bool{analysis.MetricARPU: true}}
	p := present.New(r, nil)

	view := p.Present(present.Context{Result: sampleResult(), Baseline: "A"})
	require.Len(t, view.Tables(), 4)

	arpu, _ := view.Metric(analysis.MetricARPU)
	assert.Error(t, arpu.ChartErr)
	assert.Len(t, arpu.Table.Rows, 2)

	conv, _ := view.Metric(analysis.MetricConversion)
	assert.NoError(t, conv.ChartErr)
}

// Package inference is the Bayesian engine behind POST /api/analyze. It draws
// posterior samples for conversion, revenue per sale and ARPU, then ranks the
// variants by probability of being best and expected loss.
package inference

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/stats"
	"github.com/gkobilansky/janus-goat/internal/validate"
)

const (
	DefaultSimCount         = 20000
	DefaultDistributionSize = 2000

	// Reported figures are rounded to this many decimals.
	precision = 4
)

// Options tunes the simulation.
type Options struct {
	SimCount         int
	DistributionSize int
	Seed             uint64
}

func DefaultOptions() Options {
	return Options{
		SimCount:         DefaultSimCount,
		DistributionSize: DefaultDistributionSize,
		Seed:             1,
	}
}

func (o Options) normalized() Options {
	if o.SimCount <= 0 {
		o.SimCount = DefaultSimCount
	}
	if o.DistributionSize <= 0 {
		o.DistributionSize = DefaultDistributionSize
	}
	if o.DistributionSize > o.SimCount {
		o.DistributionSize = o.SimCount
	}
	return o
}

// posterior holds every variant's draws of one metric, indexed [variant][draw].
type posterior [][]float64

// Analyze runs the experiment. The same request and options always give the
// same result.
func Analyze(req analysis.Request, opts Options) (*analysis.Result, error) {
	if err := validate.ValidateRequest(req); err != nil {
		return nil, err
	}
	req = normalize(req)
	opts = opts.normalized()
	src := rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)

	n := len(req.Variants)
	conv := make(posterior, n)
	ticket := make(posterior, n)
	arpu := make(posterior, n)
	for i, v := range req.Variants {
		conv[i] = drawConversion(v, opts.SimCount, src)
		ticket[i] = drawTicket(v, opts.SimCount, src)
		arpu[i] = make([]float64, opts.SimCount)
		for j := range arpu[i] {
			arpu[i][j] = conv[i][j] * ticket[i][j]
		}
	}

	result := &analysis.Result{Summary: summarize(req.Variants)}
	base, _ := result.SummaryFor(req.BaselineVariant)

	var err error
	result.ConversionStats, err = rank(req.Variants, conv, relativeLift(base.Conversion, func(s analysis.SummaryRow) float64 { return s.Conversion }), result.Summary)
	if err != nil {
		return nil, err
	}
	result.ARPUStats, err = rank(req.Variants, arpu, relativeLift(base.ARPU, func(s analysis.SummaryRow) float64 { return s.ARPU }), result.Summary)
	if err != nil {
		return nil, err
	}
	result.RevenuePerSaleStats, err = rank(req.Variants, ticket, ticketLift(base.AvgTicket), result.Summary)
	if err != nil {
		return nil, err
	}

	result.ConversionDistributions = thin(req.Variants, conv, opts.DistributionSize)
	result.ARPUDistributions = thin(req.Variants, arpu, opts.DistributionSize)
	result.RevenuePerSaleDistributions = thin(req.Variants, ticket, opts.DistributionSize)
	return result, nil
}

// drawConversion samples Beta(1+conversions, 1+non-conversions).
func drawConversion(v analysis.Variant, count int, src rand.Source) []float64 {
	dist := distuv.Beta{
		Alpha: 1 + float64(v.Conversions),
		Beta:  1 + float64(v.Impressions-v.Conversions),
		Src:   src,
	}
	draws := make([]float64, count)
	for i := range draws {
		draws[i] = dist.Rand()
	}
	return draws
}

// drawTicket samples the mean ticket size. Tickets are modelled as
// exponential with a Gamma(1+conversions, 1+revenue) posterior on the rate;
// a draw of the mean ticket is the reciprocal of a rate draw. Variants
// without sales have no ticket and draw zero.
func drawTicket(v analysis.Variant, count int, src rand.Source) []float64 {
	draws := make([]float64, count)
	if v.Conversions == 0 {
		return draws
	}
	dist := distuv.Gamma{
		Alpha: 1 + float64(v.Conversions),
		Beta:  1 + v.Revenue,
		Src:   src,
	}
	for i := range draws {
		draws[i] = 1 / dist.Rand()
	}
	return draws
}

// normalize trims names the same way the validator compares them.
func normalize(req analysis.Request) analysis.Request {
	out := analysis.Request{
		Variants:        make([]analysis.Variant, len(req.Variants)),
		BaselineVariant: strings.TrimSpace(req.BaselineVariant),
	}
	for i, v := range req.Variants {
		v.Name = strings.TrimSpace(v.Name)
		out.Variants[i] = v
	}
	return out
}

func summarize(vs []analysis.Variant) []analysis.SummaryRow {
	rows := make([]analysis.SummaryRow, len(vs))
	for i, v := range vs {
		row := analysis.SummaryRow{
			Variant:     v.Name,
			Impressions: v.Impressions,
			Conversions: v.Conversions,
			Revenue:     round(v.Revenue),
		}
		if v.Impressions > 0 {
			row.Conversion = round(float64(v.Conversions) / float64(v.Impressions))
			row.ARPU = round(v.Revenue / float64(v.Impressions))
		}
		if v.Conversions > 0 {
			row.AvgTicket = round(v.Revenue / float64(v.Conversions))
		}
		rows[i] = row
	}
	return rows
}

// rank computes each variant's stats for one metric. On every draw the
// variant with the highest value wins (first one on ties) and every other
// variant loses the gap to it.
func rank(vs []analysis.Variant, draws posterior, lift func(analysis.SummaryRow) float64, summary []analysis.SummaryRow) ([]analysis.MetricStat, error) {
	n := len(vs)
	count := len(draws[0])
	wins := make([]int, n)
	losses := make([][]float64, n)
	for i := range losses {
		losses[i] = make([]float64, count)
	}

	for j := 0; j < count; j++ {
		best := 0
		for i := 1; i < n; i++ {
			if draws[i][j] > draws[best][j] {
				best = i
			}
		}
		wins[best]++
		for i := 0; i < n; i++ {
			losses[i][j] = draws[best][j] - draws[i][j]
		}
	}

	out := make([]analysis.MetricStat, n)
	for i, v := range vs {
		mean, err := stats.Mean(draws[i])
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %q: %w", v.Name, err)
		}
		loss, err := stats.Mean(losses[i])
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %q: %w", v.Name, err)
		}
		out[i] = analysis.MetricStat{
			Variant:       v.Name,
			PosteriorMean: analysis.Float(round(mean)),
			ExpectedLoss:  round(loss),
			ProbBeingBest: analysis.Float(round(float64(wins[i]) / float64(count))),
			Lift:          lift(summary[i]),
		}
	}
	return out, nil
}

// relativeLift compares a summary value with the baseline's. A baseline of
// zero gives no lift.
func relativeLift(baseline float64, value func(analysis.SummaryRow) float64) func(analysis.SummaryRow) float64 {
	return func(s analysis.SummaryRow) float64 {
		if baseline <= 0 {
			return 0
		}
		return round(value(s)/baseline - 1)
	}
}

// ticketLift is like relativeLift but also gives zero for a variant without
// sales.
func ticketLift(baseline float64) func(analysis.SummaryRow) float64 {
	return func(s analysis.SummaryRow) float64 {
		if baseline <= 0 || s.AvgTicket <= 0 {
			return 0
		}
		return round(s.AvgTicket/baseline - 1)
	}
}

// thin keeps size evenly spaced draws per variant, in request order.
func thin(vs []analysis.Variant, draws posterior, size int) analysis.Distributions {
	out := make(analysis.Distributions, len(vs))
	for i, v := range vs {
		step := len(draws[i]) / size
		samples := make([]float64, size)
		for k := range samples {
			samples[k] = draws[i][k*step]
		}
		out[i] = analysis.Distribution{Variant: v.Name, Samples: samples}
	}
	return out
}

func round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Pow(10, precision)
	return math.Round(v*p) / p
}

package analysis

// Metric identifies one of the ranked metrics returned by the inference service.
type Metric string

const (
	MetricConversion     Metric = "conversion"
	MetricARPU           Metric = "arpu"
	MetricRevenuePerSale Metric = "revenue_per_sale"
)

// Metrics lists the ranked metrics in display order.
var Metrics = []Metric{MetricConversion, MetricARPU, MetricRevenuePerSale}

// Variant is one arm of the experiment as sent to the inference service.
type Variant struct {
	Name        string  `json:"name"`
	Impressions int     `json:"impressions"`
	Conversions int     `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Request is the body of POST /api/analyze.
type Request struct {
	Variants        []Variant `json:"variants"`
	BaselineVariant string    `json:"baseline_variant"`
}

// SummaryRow holds the observed (non-posterior) figures for a variant.
type SummaryRow struct {
	Variant     string  `json:"variant"`
	Impressions int     `json:"impressions"`
	Conversions int     `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	Conversion  float64 `json:"conversion"`
	AvgTicket   float64 `json:"avg_ticket"`
	ARPU        float64 `json:"arpu"`
}

// MetricStat is the posterior summary of one variant for one metric.
// PosteriorMean and ProbBeingBest are optional on the wire.
type MetricStat struct {
	Variant       string   `json:"variant"`
	PosteriorMean *float64 `json:"posterior_mean,omitempty"`
	ExpectedLoss  float64  `json:"expected_loss"`
	ProbBeingBest *float64 `json:"prob_being_best,omitempty"`
	Lift          float64  `json:"lift"`
}

// Prob returns the probability of being best and whether it was present.
func (m MetricStat) Prob() (float64, bool) {
	if m.ProbBeingBest == nil {
		return 0, false
	}
	return *m.ProbBeingBest, true
}

// Float returns a pointer to v, for building optional MetricStat fields.
func Float(v float64) *float64 {
	return &v
}

// Result is the response of POST /api/analyze.
type Result struct {
	Summary                     []SummaryRow  `json:"summary"`
	ConversionStats             []MetricStat  `json:"conversion_stats"`
	ARPUStats                   []MetricStat  `json:"arpu_stats"`
	RevenuePerSaleStats         []MetricStat  `json:"revenue_per_sale_stats"`
	ConversionDistributions     Distributions `json:"conversion_distributions"`
	ARPUDistributions           Distributions `json:"arpu_distributions"`
	RevenuePerSaleDistributions Distributions `json:"revenue_per_sale_distributions"`
}

// Stats returns the metric stats for m in response order.
func (r *Result) Stats(m Metric) []MetricStat {
	switch m {
	case MetricConversion:
		return r.ConversionStats
	case MetricARPU:
		return r.ARPUStats
	case MetricRevenuePerSale:
		return r.RevenuePerSaleStats
	}
	return nil
}

// DistributionsFor returns the posterior samples for m in response order.
func (r *Result) DistributionsFor(m Metric) Distributions {
	switch m {
	case MetricConversion:
		return r.ConversionDistributions
	case MetricARPU:
		return r.ARPUDistributions
	case MetricRevenuePerSale:
		return r.RevenuePerSaleDistributions
	}
	return nil
}

// SummaryFor looks up the summary row of a variant.
func (r *Result) SummaryFor(variant string) (SummaryRow, bool) {
	for _, row := range r.Summary {
		if row.Variant == variant {
			return row, true
		}
	}
	return SummaryRow{}, false
}

// StatFor looks up the stat of a variant for metric m.
func (r *Result) StatFor(m Metric, variant string) (MetricStat, bool) {
	for _, s := range r.Stats(m) {
		if s.Variant == variant {
			return s, true
		}
	}
	return MetricStat{}, false
}

// PosteriorMean returns the posterior mean of stat, falling back to the
// matching summary field when the service left it out:
// conversion -> conversion rate, arpu -> arpu, revenue_per_sale -> avg ticket.
// The fallback is resolved per stat, so one missing mean never affects another.
func (r *Result) PosteriorMean(m Metric, stat MetricStat) (float64, bool) {
	if stat.PosteriorMean != nil {
		return *stat.PosteriorMean, true
	}
	row, ok := r.SummaryFor(stat.Variant)
	if !ok {
		return 0, false
	}
	switch m {
	case MetricConversion:
		return row.Conversion, true
	case MetricARPU:
		return row.ARPU, true
	case MetricRevenuePerSale:
		return row.AvgTicket, true
	}
	return 0, false
}

package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for dice rolling.
//
// All collectors are registered in a private registry so several rollers in
// one process never collide on the global default.
type Metrics struct {
	Registry *prometheus.Registry

	RollsTotal      *prometheus.CounterVec
	ResultsTotal    prometheus.Counter
	ParseCacheTotal *prometheus.CounterVec
	RollTotalValue  prometheus.Histogram
}

// NewMetrics creates and registers all dice metrics in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		RollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dice_rolls_total",
			Help: "Total number of notation rolls by outcome.",
		}, []string{"status"}),

		ResultsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dice_results_total",
			Help: "Total number of individual die results produced.",
		}),

		ParseCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dice_parse_cache_total",
			Help: "Parse cache lookups by result.",
		}, []string{"result"}),

		RollTotalValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dice_roll_total_value",
			Help:    "Distribution of roll totals.",
			Buckets: []float64{0, 5, 10, 20, 50, 100, 500, 1000},
		}),
	}

	reg.MustRegister(
		m.RollsTotal,
		m.ResultsTotal,
		m.ParseCacheTotal,
		m.RollTotalValue,
	)

	return m
}

// ObserveRoll records a successful roll.
func (m *Metrics) ObserveRoll(total float64, results int) {
	m.RollsTotal.WithLabelValues("ok").Inc()
	m.ResultsTotal.Add(float64(results))
	m.RollTotalValue.Observe(total)
}

// ObserveFailure records a failed roll labelled by reason.
func (m *Metrics) ObserveFailure(reason string) {
	m.RollsTotal.WithLabelValues(reason).Inc()
}

// ObserveParseCache records a parse cache lookup.
func (m *Metrics) ObserveParseCache(hit bool) {
	if hit {
		m.ParseCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	m.ParseCacheTotal.WithLabelValues("miss").Inc()
}

// Snapshot gathers every counter and histogram sample count into a flat map
// keyed by metric name and labels, e.g. `dice_rolls_total{status="ok"}`.
//
// Postcondition: Returns a non-nil map or a gather error.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	fams, err := m.Registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}
	out := make(map[string]float64)
	for _, fam := range fams {
		for _, metric := range fam.GetMetric() {
			key := fam.GetName()
			if labels := metric.GetLabel(); len(labels) > 0 {
				key += "{"
				for i, l := range labels {
					if i > 0 {
						key += ","
					}
					key += fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
				}
				key += "}"
			}
			switch {
			case metric.GetCounter() != nil:
				out[key] = metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				out[key+"_count"] = float64(metric.GetHistogram().GetSampleCount())
				out[key+"_sum"] = metric.GetHistogram().GetSampleSum()
			}
		}
	}
	return out, nil
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

const namespace = "hre"

// extractionCollectors are shared by every process that runs the pipeline.
type extractionCollectors struct {
	service   string
	total     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	uncertain *prometheus.HistogramVec
	breaker   *prometheus.GaugeVec
}

func newExtractionCollectors(service string) *extractionCollectors {
	return &extractionCollectors{
		service: service,
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extractions_total",
				Help:      "Total extractions by schema kind, provider and outcome.",
			},
			[]string{"service", "kind", "provider", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extraction_duration_seconds",
				Help:      "End to end extraction duration in seconds.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 45, 60},
			},
			[]string{"service", "kind", "provider"},
		),
		uncertain: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extraction_uncertain_fields",
				Help:      "Uncertain field paths per successful extraction.",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
			},
			[]string{"service", "kind"},
		),
		breaker: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state per operation: 0 closed, 1 half-open, 2 open.",
			},
			[]string{"service", "operation"},
		),
	}
}

func (c *extractionCollectors) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.total, c.duration, c.uncertain, c.breaker}
}

func (c *extractionCollectors) observe(
	kind domain.SchemaKind,
	provider domain.ProviderName,
	outcome string,
	uncertainFields int,
	duration time.Duration,
) {
	providerLabel := string(provider)
	if providerLabel == "" {
		providerLabel = "none"
	}
	c.total.WithLabelValues(c.service, string(kind), providerLabel, outcome).Inc()
	c.duration.WithLabelValues(c.service, string(kind), providerLabel).Observe(duration.Seconds())
	if outcome == string(domain.OutcomeSucceeded) {
		c.uncertain.WithLabelValues(c.service, string(kind)).Observe(float64(uncertainFields))
	}
}

func (c *extractionCollectors) observeBreaker(operation, state string) {
	var value float64
	switch state {
	case "half-open":
		value = 1
	case "open":
		value = 2
	}
	c.breaker.WithLabelValues(c.service, operation).Set(value)
}

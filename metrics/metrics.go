// Package metrics provides Prometheus metrics for the overtime engine.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// CALCULATION METRICS
// =============================================================================

// CalculationsTotal counts breakdowns produced, by day type.
var CalculationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "overtime",
	Name:      "calculations_total",
	Help:      "Total overtime breakdowns computed, by day type",
}, []string{"day_type"})

// CalculationsSkippedTotal counts calculations that produced no breakdown.
var CalculationsSkippedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "overtime",
	Name:      "calculations_skipped_total",
	Help:      "Total calculations that produced no breakdown, by reason",
}, []string{"reason"})

// HoursPerRequest tracks the computed hours of each breakdown per tier.
var HoursPerRequest = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "overtime",
	Name:      "hours_per_request",
	Help:      "Overtime hours per computed request, by tier",
	Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 6, 8, 12, 24},
}, []string{"tier"})

// =============================================================================
// CONFIGURATION METRICS
// =============================================================================

// ConfigurationIssuesTotal counts validation issues on rejected saves, by issue code.
var ConfigurationIssuesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "overtime",
	Name:      "configuration_issues_total",
	Help:      "Validation issues found on rejected configuration saves, by issue code",
}, []string{"code"})

// =============================================================================
// OBSERVER
// =============================================================================

// Observer feeds service outcomes into the metrics above.
type Observer struct{}

var _ overtime.Observer = Observer{}

func (Observer) CalculationDone(b overtime.Breakdown) {
	CalculationsTotal.WithLabelValues(string(b.DayType)).Inc()
	for _, t := range overtime.Tiers {
		h := b.Hours(t)
		if h.IsPositive() {
			HoursPerRequest.WithLabelValues(string(t)).Observe(generic.HoursFloat(h))
		}
	}
}

func (Observer) CalculationSkipped(err error) {
	CalculationsSkippedTotal.WithLabelValues(SkipReason(err)).Inc()
}

func (Observer) ConfigurationRejected(issues []overtime.Issue) {
	for _, is := range issues {
		ConfigurationIssuesTotal.WithLabelValues(string(is.Code)).Inc()
	}
}

// SkipReason maps a calculation error to a low-cardinality label.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, overtime.ErrMalformedInterval):
		return "malformed_interval"
	case errors.Is(err, overtime.ErrConfigurationInvalid):
		return "configuration_invalid"
	case errors.Is(err, overtime.ErrRuleNotApplicable):
		return "not_applicable"
	default:
		return "other"
	}
}

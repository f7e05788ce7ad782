package metrics_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/overtime-engine/metrics"
	"github.com/warp/overtime-engine/overtime"
)

func TestObserver_CalculationDone(t *testing.T) {
	before := testutil.ToFloat64(metrics.CalculationsTotal.WithLabelValues("off"))

	metrics.Observer{}.CalculationDone(overtime.Breakdown{
		DayType: overtime.DayOff,
		OT1:     decimal.RequireFromString("2"),
		OT2:     decimal.Zero,
		OT3:     decimal.Zero,
	})

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CalculationsTotal.WithLabelValues("off")))
}

func TestObserver_CalculationSkipped(t *testing.T) {
	counter := metrics.CalculationsSkippedTotal.WithLabelValues("not_applicable")
	before := testutil.ToFloat64(counter)

	metrics.Observer{}.CalculationSkipped(&overtime.NotApplicableError{Reason: "draft"})

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestObserver_ConfigurationRejected(t *testing.T) {
	counter := metrics.ConfigurationIssuesTotal.WithLabelValues(string(overtime.IssueTierOrder))
	before := testutil.ToFloat64(counter)

	metrics.Observer{}.ConfigurationRejected([]overtime.Issue{
		{Code: overtime.IssueTierOrder}, {Code: overtime.IssueTierOrder},
	})

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestSkipReason(t *testing.T) {
	assert.Equal(t, "malformed_interval", metrics.SkipReason(&overtime.MalformedIntervalError{Reason: "x"}))
	assert.Equal(t, "configuration_invalid", metrics.SkipReason(&overtime.ConfigurationInvalidError{Name: "x"}))
	assert.Equal(t, "not_applicable", metrics.SkipReason(&overtime.NotApplicableError{Reason: "x"}))
	assert.Equal(t, "other", metrics.SkipReason(errors.New("boom")))
}

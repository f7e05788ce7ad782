package overtime_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

func TestRequest_CanTransition(t *testing.T) {
	tests := []struct {
		from overtime.RequestStatus
		to   overtime.RequestStatus
		ok   bool
	}{
		{overtime.RequestDraft, overtime.RequestSubmitted, true},
		{overtime.RequestDraft, overtime.RequestApproved, false},
		{overtime.RequestSubmitted, overtime.RequestApproved, true},
		{overtime.RequestSubmitted, overtime.RequestRejected, true},
		{overtime.RequestApproved, overtime.RequestRejected, false},
		{overtime.RequestApproved, overtime.RequestDraft, true},
		{overtime.RequestRejected, overtime.RequestDraft, true},
		{overtime.RequestDraft, overtime.RequestDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			r := overtime.Request{Status: tt.from}
			assert.Equal(t, tt.ok, r.CanTransition(tt.to))
		})
	}
}

func TestRequest_CheckDeletable(t *testing.T) {
	assert.NoError(t, overtime.Request{Status: overtime.RequestDraft}.CheckDeletable())

	err := overtime.Request{Status: overtime.RequestApproved}.CheckDeletable()
	assert.ErrorIs(t, err, generic.ErrConflict)
	assert.Contains(t, err.Error(), "only draft can be deleted")
}

func TestCheckWithinPeriod(t *testing.T) {
	bs := standardConfig()
	calc := overtime.NewCalculator(nil)

	inside := overtime.Request{Start: at(2025, time.June, 2, 18, 0), End: at(2025, time.June, 2, 20, 0)}
	assert.NoError(t, overtime.CheckWithinPeriod(inside, bs, calc))

	// ends on the first day after the validity window
	spill := overtime.Request{Start: at(2025, time.December, 31, 22, 0), End: at(2026, time.January, 1, 1, 0)}
	err := overtime.CheckWithinPeriod(spill, bs, calc)
	assert.ErrorIs(t, err, overtime.ErrRuleNotApplicable)
	assert.Contains(t, err.Error(), "outside the configuration period 2025-01-01 - 2025-12-31")
}

func TestRequest_Computed(t *testing.T) {
	r := overtime.Request{ID: "otr-1"}
	assert.False(t, r.Computed())
	assert.Equal(t, "Overtime Request - otr-1", r.DisplayName(""))

	r.Start = at(2025, time.March, 10, 17, 0)
	r.Breakdown = &overtime.Breakdown{Total: decimal.Zero}
	assert.True(t, r.Computed(), "a zero-hour breakdown is still computed")
	assert.Equal(t, "Dewi - 2025-03-10 17:00", r.DisplayName("Dewi"))
}

package sla

import (
	"testing"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/stretchr/testify/assert"
)

var created = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func at(h float64) time.Time {
	return created.Add(time.Duration(h * float64(time.Hour)))
}

func TestEvaluateOpenComplaintThresholds(t *testing.T) {
	in := Input{CreatedAt: created, SLAHours: 10, ComplaintStatus: catalog.StatusInProgress}

	tests := []struct {
		elapsed float64
		status  Status
		percent float64
	}{
		{0, StatusActive, 0},
		{5, StatusActive, 50},
		{7.9, StatusActive, 79},
		{8, StatusWarning, 80},
		{9.5, StatusWarning, 95},
		{10, StatusBreached, 100},
		{30, StatusBreached, 100},
	}

	for _, tt := range tests {
		res := Evaluate(in, at(tt.elapsed))
		assert.Equal(t, tt.status, res.Status, "elapsed %v", tt.elapsed)
		assert.InDelta(t, tt.percent, res.Percent, 0.001, "elapsed %v", tt.elapsed)
	}
}

func TestEvaluateDefaultsTo48Hours(t *testing.T) {
	res := Evaluate(Input{CreatedAt: created, ComplaintStatus: catalog.StatusSubmitted}, at(24))
	assert.Equal(t, float64(48), res.SLAHours)
	assert.Equal(t, created.Add(48*time.Hour), res.Deadline)
	assert.InDelta(t, 50, res.Percent, 0.001)
	assert.InDelta(t, 24, res.RemainingHours, 0.001)
}

func TestEvaluatePercentIsMonotonic(t *testing.T) {
	in := Input{CreatedAt: created, SLAHours: 12, ComplaintStatus: catalog.StatusAssigned}
	prev := -1.0
	for h := 0.0; h <= 30; h += 0.25 {
		res := Evaluate(in, at(h))
		assert.GreaterOrEqual(t, res.Percent, prev, "percent decreased at %v hours", h)
		assert.LessOrEqual(t, res.Percent, 100.0)
		prev = res.Percent
	}
}

func TestEvaluateBreachedIffElapsedReachesBudget(t *testing.T) {
	for _, status := range []string{catalog.StatusAssigned, catalog.StatusClosed} {
		for h := 0.0; h <= 48; h += 0.5 {
			resolved := at(h)
			in := Input{CreatedAt: created, SLAHours: 24, ComplaintStatus: status, ResolvedAt: &resolved}
			res := Evaluate(in, at(h))
			assert.Equal(t, h >= 24, res.Status == StatusBreached, "status %s elapsed %v", status, h)
			assert.Equal(t, res.Status == StatusBreached, res.Breached)
		}
	}
}

func TestEvaluateBackendFlagForcesBreach(t *testing.T) {
	res := Evaluate(Input{CreatedAt: created, SLAHours: 24, ComplaintStatus: catalog.StatusAssigned, Breached: true}, at(1))
	assert.Equal(t, StatusBreached, res.Status)
	assert.Equal(t, 100.0, res.Percent)
}

func TestEvaluateTerminalDecidedAtResolution(t *testing.T) {
	resolved := at(20)
	in := Input{CreatedAt: created, SLAHours: 24, ComplaintStatus: catalog.StatusResolved, ResolvedAt: &resolved}

	// Evaluated long after the deadline, the complaint still met its SLA.
	res := Evaluate(in, at(500))
	assert.Equal(t, StatusMet, res.Status)
	assert.InDelta(t, 20.0/24.0*100, res.Percent, 0.001)
	assert.Zero(t, res.RemainingHours)

	late := at(30)
	in.ResolvedAt = &late
	res = Evaluate(in, at(31))
	assert.Equal(t, StatusBreached, res.Status)
}

func TestEvaluateDeadlineOverride(t *testing.T) {
	deadline := at(6)
	res := Evaluate(Input{CreatedAt: created, SLAHours: 72, Deadline: &deadline, ComplaintStatus: catalog.StatusAssigned}, at(3))
	assert.Equal(t, 6.0, res.SLAHours)
	assert.InDelta(t, 50, res.Percent, 0.001)
}

func TestEvaluateReopenedRestartsClock(t *testing.T) {
	reopened := at(240)
	deadline := reopened.Add(24 * time.Hour)
	in := Input{
		CreatedAt:       created,
		StartedAt:       reopened,
		SLAHours:        24,
		Deadline:        &deadline,
		ComplaintStatus: catalog.StatusReopened,
	}

	res := Evaluate(in, reopened.Add(time.Minute))
	assert.Equal(t, StatusActive, res.Status)
	assert.Equal(t, 24.0, res.SLAHours)
	assert.Equal(t, deadline, res.Deadline)
	assert.Less(t, res.Percent, 1.0)
	assert.InDelta(t, 24-1.0/60, res.RemainingHours, 0.001)

	assert.Equal(t, StatusWarning, Evaluate(in, at(260)).Status)
	assert.Equal(t, StatusBreached, Evaluate(in, at(264)).Status)
}

func TestEvaluateStartBeforeCreationIgnored(t *testing.T) {
	in := Input{CreatedAt: created, StartedAt: created.Add(-time.Hour), SLAHours: 10, ComplaintStatus: catalog.StatusAssigned}
	res := Evaluate(in, at(5))
	assert.InDelta(t, 50, res.Percent, 0.001)
}

func TestCalculatorCustomWarning(t *testing.T) {
	calc := NewCalculator(50)
	res := calc.Evaluate(Input{CreatedAt: created, SLAHours: 10, ComplaintStatus: catalog.StatusAssigned}, at(6))
	assert.Equal(t, StatusWarning, res.Status)

	assert.Equal(t, DefaultWarningPercent, NewCalculator(0).WarningPercent)
	assert.Equal(t, DefaultWarningPercent, NewCalculator(150).WarningPercent)
}

func TestCompliance(t *testing.T) {
	s := Compliance([]Result{
		{Status: StatusMet}, {Status: StatusMet}, {Status: StatusMet},
		{Status: StatusBreached}, {Status: StatusActive}, {Status: StatusWarning},
	})
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 3, s.Met)
	assert.Equal(t, 1, s.Breached)
	assert.Equal(t, 75.0, s.ComplianceRate)

	assert.Equal(t, 100.0, Compliance(nil).ComplianceRate)
}

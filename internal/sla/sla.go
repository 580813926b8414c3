// Package sla computes complaint SLA deadlines, progress and status.
package sla

import (
	"math"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
)

// Status is the SLA classification of a complaint.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusWarning  Status = "WARNING"
	StatusBreached Status = "BREACHED"
	StatusMet      Status = "MET"
)

// DefaultWarningPercent is the elapsed share of the budget at which an open
// complaint moves to WARNING.
const DefaultWarningPercent = 80.0

// Input is everything needed to evaluate one complaint.
type Input struct {
	CreatedAt time.Time
	// StartedAt is when the current SLA clock started. A reopen restarts it.
	// Zero means CreatedAt.
	StartedAt time.Time
	// SLAHours of the complaint's department; <= 0 falls back to the default.
	SLAHours int
	// Deadline overrides the clock start + SLAHours when set.
	Deadline *time.Time
	// ComplaintStatus is the workflow status of the complaint.
	ComplaintStatus string
	// ResolvedAt is when the clock stopped for a terminal complaint.
	ResolvedAt *time.Time
	// Breached is an explicit breach flag recorded earlier.
	Breached bool
}

// Result is the evaluated SLA state.
type Result struct {
	Status         Status    `json:"status"`
	SLAHours       float64   `json:"slaHours"`
	Deadline       time.Time `json:"deadline"`
	ElapsedHours   float64   `json:"elapsedHours"`
	RemainingHours float64   `json:"remainingHours"`
	Percent        float64   `json:"progressPercent"`
	Breached       bool      `json:"breached"`
}

// Calculator evaluates SLA inputs against a warning threshold.
type Calculator struct {
	WarningPercent float64
}

// NewCalculator returns a Calculator; a non-positive threshold uses DefaultWarningPercent.
func NewCalculator(warningPercent float64) Calculator {
	if warningPercent <= 0 || warningPercent > 100 {
		warningPercent = DefaultWarningPercent
	}
	return Calculator{WarningPercent: warningPercent}
}

// Evaluate computes the SLA state at now using the default warning threshold.
func Evaluate(in Input, now time.Time) Result {
	return NewCalculator(DefaultWarningPercent).Evaluate(in, now)
}

// Evaluate computes the SLA state of in at now. It is a pure function of its
// arguments.
func (c Calculator) Evaluate(in Input, now time.Time) Result {
	start := in.clockStart()
	budget, deadline := budgetOf(in, start)

	end := now
	terminal := workflow.Terminal(in.ComplaintStatus)
	if terminal && in.ResolvedAt != nil {
		end = *in.ResolvedAt
	}

	elapsed := hours(end.Sub(start))
	if elapsed < 0 {
		elapsed = 0
	}

	res := Result{
		SLAHours:     budget,
		Deadline:     deadline,
		ElapsedHours: elapsed,
		Percent:      percent(elapsed, budget),
	}

	breached := in.Breached || elapsed >= budget

	switch {
	case terminal && breached:
		res.Status = StatusBreached
		res.Percent = 100
	case terminal:
		res.Status = StatusMet
	case breached:
		res.Status = StatusBreached
		res.Percent = 100
	case res.Percent >= c.threshold():
		res.Status = StatusWarning
		res.RemainingHours = budget - elapsed
	default:
		res.Status = StatusActive
		res.RemainingHours = budget - elapsed
	}
	res.Breached = res.Status == StatusBreached

	return res
}

func (c Calculator) threshold() float64 {
	if c.WarningPercent <= 0 || c.WarningPercent > 100 {
		return DefaultWarningPercent
	}
	return c.WarningPercent
}

func (in Input) clockStart() time.Time {
	if in.StartedAt.IsZero() || in.StartedAt.Before(in.CreatedAt) {
		return in.CreatedAt
	}
	return in.StartedAt
}

// budgetOf returns the SLA budget in hours and the deadline for a clock
// started at start.
func budgetOf(in Input, start time.Time) (float64, time.Time) {
	if in.Deadline != nil && in.Deadline.After(start) {
		return hours(in.Deadline.Sub(start)), *in.Deadline
	}
	h := in.SLAHours
	if h <= 0 {
		h = catalog.DefaultSLAHours
	}
	return float64(h), start.Add(time.Duration(h) * time.Hour)
}

func percent(elapsed, budget float64) float64 {
	if budget <= 0 {
		return 100
	}
	return math.Min(math.Max(elapsed/budget*100, 0), 100)
}

func hours(d time.Duration) float64 {
	return d.Hours()
}

// Summary aggregates evaluated results for analytics.
type Summary struct {
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	Warning        int     `json:"warning"`
	Breached       int     `json:"breached"`
	Met            int     `json:"met"`
	ComplianceRate float64 `json:"complianceRate"`
}

// Compliance summarises results. The compliance rate is met/(met+breached)
// as a percentage, or 100 when nothing has been decided yet.
func Compliance(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusActive:
			s.Active++
		case StatusWarning:
			s.Warning++
		case StatusBreached:
			s.Breached++
		case StatusMet:
			s.Met++
		}
	}
	decided := s.Met + s.Breached
	if decided == 0 {
		s.ComplianceRate = 100
		return s
	}
	s.ComplianceRate = math.Round(float64(s.Met)/float64(decided)*10000) / 100
	return s
}

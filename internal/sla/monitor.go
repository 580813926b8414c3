package sla

import (
	"context"
	"fmt"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/rs/zerolog"
)

// Tracked is an open complaint as seen by the monitor.
type Tracked struct {
	ComplaintID       int64
	Title             string
	CitizenID         int64
	AssignedOfficerID *int64
	WardID            int64
	Input             Input
	WarningSent       bool
	BreachRecorded    bool
}

// Store is the persistence the monitor needs.
type Store interface {
	ListSLATracked(ctx context.Context) ([]Tracked, error)
	MarkSLAWarning(ctx context.Context, complaintID int64) error
	MarkSLABreached(ctx context.Context, complaintID int64) error
}

// Publisher delivers SLA crossing events.
type Publisher interface {
	Publish(event events.ComplaintEvent) error
}

// Monitor periodically re-evaluates open complaints and records the first
// WARNING and BREACHED crossing of each.
type Monitor struct {
	Store     Store
	Publisher Publisher
	Calc      Calculator
	Interval  time.Duration
	Log       *zerolog.Logger
	Now       func() time.Time
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := m.Sweep(ctx); err != nil {
			m.Log.Error().Err(err).Msg("SLA sweep failed")
		} else if n > 0 {
			m.Log.Info().Int("crossings", n).Msg("SLA sweep recorded crossings")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep evaluates every tracked complaint once and returns the number of
// crossings recorded.
func (m *Monitor) Sweep(ctx context.Context) (int, error) {
	tracked, err := m.Store.ListSLATracked(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing SLA tracked complaints: %w", err)
	}

	now := m.now()
	crossings := 0
	for _, t := range tracked {
		if ctx.Err() != nil {
			return crossings, nil
		}

		res := m.Calc.Evaluate(t.Input, now)
		switch {
		case res.Status == StatusBreached && !t.BreachRecorded:
			if err := m.Store.MarkSLABreached(ctx, t.ComplaintID); err != nil {
				return crossings, fmt.Errorf("error marking complaint %d breached: %w", t.ComplaintID, err)
			}
			m.publish(t, events.TypeSLABreached, res)
			crossings++
		case res.Status == StatusWarning && !t.WarningSent:
			if err := m.Store.MarkSLAWarning(ctx, t.ComplaintID); err != nil {
				return crossings, fmt.Errorf("error marking complaint %d warned: %w", t.ComplaintID, err)
			}
			m.publish(t, events.TypeSLAWarning, res)
			crossings++
		}
	}
	return crossings, nil
}

func (m *Monitor) publish(t Tracked, eventType string, res Result) {
	event := events.NewComplaintEvent(eventType, t.ComplaintID)
	event.Title = t.Title
	event.Status = t.Input.ComplaintStatus
	event.CitizenID = t.CitizenID
	event.AssignedOfficerID = t.AssignedOfficerID
	event.WardID = t.WardID
	event.Remarks = fmt.Sprintf("deadline %s", res.Deadline.UTC().Format(time.RFC3339))

	if err := m.Publisher.Publish(event); err != nil {
		m.Log.Error().Err(err).Int64("complaint_id", t.ComplaintID).Str("event_type", eventType).
			Msg("Failed to publish SLA event")
	}
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

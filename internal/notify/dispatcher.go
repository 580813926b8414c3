// Package notify turns complaint events into in-app notifications and emails.
package notify

import (
	"context"
	"fmt"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/mail"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog"
)

// Store is the persistence the dispatcher needs.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, f models.UserFilter) (models.Page[models.User], error)
}

// Dispatcher creates notifications for the citizen, the assigned officer and
// the ward officers of a complaint. Citizens are also emailed when Mailer is set.
type Dispatcher struct {
	Store  Store
	Mailer mail.Mailer
	Log    *zerolog.Logger
}

type recipient struct {
	userID  int64
	kind    string
	title   string
	message string
	email   bool
}

// Handle implements events.Handler. Notification writes that fail are
// returned so the event is redelivered; email failures are only logged.
func (d *Dispatcher) Handle(ctx context.Context, event events.ComplaintEvent) error {
	recipients, err := d.recipients(ctx, event)
	if err != nil {
		return err
	}

	var complaintID *int64
	if event.ComplaintID > 0 {
		id := event.ComplaintID
		complaintID = &id
	}

	seen := map[int64]bool{}
	for _, r := range recipients {
		if r.userID <= 0 || seen[r.userID] {
			continue
		}
		seen[r.userID] = true

		_, err := d.Store.CreateNotification(ctx, &models.Notification{
			UserID:      r.userID,
			ComplaintID: complaintID,
			Type:        r.kind,
			Title:       r.title,
			Message:     r.message,
		})
		if err != nil {
			return fmt.Errorf("error creating notification for user %d: %w", r.userID, err)
		}

		if r.email && d.Mailer != nil {
			d.email(ctx, r)
		}
	}

	d.Log.Debug().Str("event_type", event.Type).Int64("complaint_id", event.ComplaintID).
		Int("recipients", len(seen)).Msg("Notifications dispatched")
	return nil
}

func (d *Dispatcher) email(ctx context.Context, r recipient) {
	u, err := d.Store.GetUser(ctx, r.userID)
	if err != nil || u == nil {
		d.Log.Warn().Err(err).Int64("user_id", r.userID).Msg("Cannot look up email recipient")
		return
	}
	if err := d.Mailer.Send(ctx, mail.NotificationMessage(u.Email, u.Name, r.title, r.message)); err != nil {
		d.Log.Warn().Err(err).Int64("user_id", r.userID).Msg("Failed to email notification")
	}
}

func (d *Dispatcher) recipients(ctx context.Context, e events.ComplaintEvent) ([]recipient, error) {
	ref := fmt.Sprintf("#%d", e.ComplaintID)
	if e.Title != "" {
		ref = fmt.Sprintf("#%d %q", e.ComplaintID, e.Title)
	}
	officer := int64(0)
	if e.AssignedOfficerID != nil {
		officer = *e.AssignedOfficerID
	}

	switch e.Type {
	case events.TypeCreated:
		out := []recipient{{e.CitizenID, catalog.NotifyComplaintCreated, "Complaint submitted",
			fmt.Sprintf("Your complaint %s has been submitted.", ref), true}}
		return d.withWardOfficers(ctx, out, e.WardID, catalog.NotifyComplaintCreated, "New complaint in your ward",
			fmt.Sprintf("Complaint %s is waiting for assignment.", ref))

	case events.TypeAssigned:
		return []recipient{
			{officer, catalog.NotifyAssignment, "New complaint assigned",
				fmt.Sprintf("Complaint %s has been assigned to you.", ref), false},
			{e.CitizenID, catalog.NotifyStatusUpdate, "Complaint assigned",
				fmt.Sprintf("Your complaint %s has been assigned to an officer.", ref), true},
		}, nil

	case events.TypeStatusChanged:
		out := []recipient{{e.CitizenID, catalog.NotifyStatusUpdate, "Complaint status updated",
			statusMessage(ref, e), true}}
		switch e.Status {
		case catalog.StatusResolved:
			return d.withWardOfficers(ctx, out, e.WardID, catalog.NotifyStatusUpdate, "Resolution awaiting approval",
				fmt.Sprintf("Complaint %s was resolved and needs your approval.", ref))
		case catalog.StatusInProgress:
			if e.PreviousStatus == catalog.StatusResolved {
				out = append(out, recipient{officer, catalog.NotifyStatusUpdate, "Resolution rejected",
					fmt.Sprintf("The resolution of complaint %s was rejected: %s", ref, e.Remarks), false})
			}
		case catalog.StatusClosed:
			out = append(out, recipient{e.CitizenID, catalog.NotifyFeedbackRequest, "Rate the resolution",
				fmt.Sprintf("Complaint %s is closed. Tell us how it was handled.", ref), false})
		}
		return out, nil

	case events.TypeReopened:
		out := []recipient{{officer, catalog.NotifyReopened, "Complaint reopened",
			fmt.Sprintf("Complaint %s was reopened by the citizen: %s", ref, e.Remarks), false}}
		return d.withWardOfficers(ctx, out, e.WardID, catalog.NotifyReopened, "Complaint reopened",
			fmt.Sprintf("Complaint %s was reopened and needs reassignment.", ref))

	case events.TypeFeedback:
		return []recipient{{officer, catalog.NotifySystem, "Feedback received",
			fmt.Sprintf("The citizen rated complaint %s: %s", ref, e.Remarks), false}}, nil

	case events.TypeSLAWarning:
		out := []recipient{{officer, catalog.NotifySLAWarning, "SLA deadline approaching",
			fmt.Sprintf("Complaint %s is close to its SLA %s.", ref, e.Remarks), false}}
		if officer == 0 {
			return d.withWardOfficers(ctx, out, e.WardID, catalog.NotifySLAWarning, "SLA deadline approaching",
				fmt.Sprintf("Unassigned complaint %s is close to its SLA %s.", ref, e.Remarks))
		}
		return out, nil

	case events.TypeSLABreached:
		out := []recipient{{officer, catalog.NotifySLABreached, "SLA breached",
			fmt.Sprintf("Complaint %s has breached its SLA %s.", ref, e.Remarks), false}}
		return d.withWardOfficers(ctx, out, e.WardID, catalog.NotifySLABreached, "SLA breached",
			fmt.Sprintf("Complaint %s in your ward has breached its SLA %s.", ref, e.Remarks))

	case events.TypeWardChangeDecide:
		return []recipient{{e.CitizenID, catalog.NotifySystem, "Ward change " + e.Status,
			wardChangeMessage(e), true}}, nil

	case events.TypeOTPIssued:
		return []recipient{{e.ActorID, catalog.NotifySystem, "Verification code sent",
			"A verification code for your new mobile number was sent to your email.", false}}, nil
	}

	d.Log.Debug().Str("event_type", e.Type).Msg("No notifications for event type")
	return nil, nil
}

func (d *Dispatcher) withWardOfficers(ctx context.Context, out []recipient, wardID int64, kind, title, message string) ([]recipient, error) {
	if wardID <= 0 {
		return out, nil
	}
	active := true
	page, err := d.Store.ListUsers(ctx, models.UserFilter{
		Role:       catalog.RoleWardOfficer,
		WardID:     &wardID,
		Active:     &active,
		Pagination: models.Pagination{Size: models.MaxPageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("error listing ward officers: %w", err)
	}
	for _, u := range page.Content {
		out = append(out, recipient{u.ID, kind, title, message, false})
	}
	return out, nil
}

func statusMessage(ref string, e events.ComplaintEvent) string {
	label := e.Status
	if s, ok := catalog.Status(e.Status); ok {
		label = s.Label
	}
	msg := fmt.Sprintf("Your complaint %s is now %s.", ref, label)
	if e.Remarks != "" {
		msg += " Remarks: " + e.Remarks
	}
	return msg
}

func wardChangeMessage(e events.ComplaintEvent) string {
	if e.Status == models.WardChangeApproved {
		return fmt.Sprintf("Your ward change request was approved. You now belong to ward %d.", e.WardID)
	}
	msg := "Your ward change request was rejected."
	if e.Remarks != "" {
		msg += " Remarks: " + e.Remarks
	}
	return msg
}

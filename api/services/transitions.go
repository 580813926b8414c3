package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/validation"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog"
)

var systemActor = authn.Claims{Role: catalog.RoleSystem}

// transition applies action to cm on behalf of actor and publishes the
// resulting event.
func (svc *Service) transition(ctx context.Context, actor authn.Claims, cm *models.Complaint, action, remarks string, officerID *int64) (*models.Complaint, error) {
	to, err := workflow.Target(cm.Status, action)
	if err != nil {
		return nil, err
	}
	if err := workflow.CanTransition(cm.Status, to, actor.Role); err != nil {
		return nil, err
	}

	updated, err := svc.DB.ApplyTransition(ctx, models.Transition{
		ComplaintID: cm.ID,
		From:        cm.Status,
		To:          to,
		Action:      action,
		ActorID:     actor.UserID(),
		ActorRole:   actor.Role,
		Remarks:     remarks,
		OfficerID:   officerID,
		At:          svc.now(),
	})
	if err != nil {
		return nil, err
	}

	eventType := events.TypeStatusChanged
	switch action {
	case workflow.ActionAssign:
		eventType = events.TypeAssigned
	case workflow.ActionReopen:
		eventType = events.TypeReopened
	}
	svc.publish(ctx, complaintEvent(eventType, updated, cm.Status, actor.UserID(), remarks))

	zerolog.Ctx(ctx).Info().Int64("complaint_id", cm.ID).Str("from", cm.Status).Str("to", to).
		Str("action", action).Msg("Complaint status changed")
	return updated, nil
}

// autoAssign hands a waiting complaint to the least loaded officer of its
// ward and department when enabled. Failures leave the complaint as it is.
func (svc *Service) autoAssign(ctx context.Context, cm *models.Complaint) *models.Complaint {
	if svc.Config == nil || !svc.Config.Workflow.AutoAssign {
		return cm
	}
	logger := zerolog.Ctx(ctx)

	officer, err := svc.DB.LeastLoadedOfficer(ctx, cm.WardID, cm.DepartmentID)
	if err != nil {
		logger.Error().Err(err).Int64("complaint_id", cm.ID).Msg("Failed to select officer for auto-assignment")
		return cm
	}
	if officer == nil {
		logger.Info().Int64("complaint_id", cm.ID).Msg("No officer available for auto-assignment")
		return cm
	}

	assigned, err := svc.transition(ctx, systemActor, cm, workflow.ActionAssign, "Auto-assigned", officer)
	if err != nil {
		logger.Error().Err(err).Int64("complaint_id", cm.ID).Msg("Auto-assignment failed")
		return cm
	}
	return assigned
}

// decodeOptional reads an optional JSON body into dst and validates it.
func decodeOptional(r *http.Request, dst interface{}) error {
	if r.Body != nil && r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return httpError(http.StatusBadRequest, "invalid request payload")
		}
	}
	return validation.Validate(dst)
}

// actionService performs a body-less or remarks-only workflow action on the
// complaint named by the {id} path variable.
func (svc *Service) actionService(w http.ResponseWriter, r *http.Request, action string) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err, "Invalid complaint id")
		return
	}

	var remarks string
	if action == workflow.ActionReject {
		var req models.RejectRequest
		if err := decode(r, &req); err != nil {
			fail(w, r, err, "Invalid reject request")
			return
		}
		remarks = req.Remarks
	} else {
		var req models.ActionRequest
		if err := decodeOptional(r, &req); err != nil {
			fail(w, r, err, "Invalid action request")
			return
		}
		remarks = req.Remarks
	}

	cm, err := svc.loadComplaint(r.Context(), claims, id)
	if err != nil {
		fail(w, r, err, "Failed to load complaint")
		return
	}

	updated, err := svc.transition(r.Context(), claims, cm, action, remarks, nil)
	if err != nil {
		fail(w, r, err, "Failed to "+action+" complaint")
		return
	}

	svc.decorate(updated, claims.Role)
	WriteResponse(w, http.StatusOK, updated)
}

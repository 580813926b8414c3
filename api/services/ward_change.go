package services

import (
	"net/http"
	"strings"

	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog"
)

// RequestWardChangeService files a citizen's request to move ward. A citizen
// may have only one pending request.
func (svc *Service) RequestWardChangeService(w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	var req models.WardChangeCreate
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid ward change request")
		return
	}
	user, err := svc.currentUser(r.Context(), r)
	if err != nil {
		fail(w, r, err, "Failed to retrieve citizen")
		return
	}
	if user.WardID == nil {
		fail(w, r, httpError(http.StatusBadRequest, "you are not registered in any ward"), "Citizen has no ward")
		return
	}
	if *user.WardID == req.RequestedWardID {
		fail(w, r, httpError(http.StatusBadRequest, "you already belong to ward %d", req.RequestedWardID), "Same ward requested")
		return
	}
	if err := svc.requireWard(r, req.RequestedWardID); err != nil {
		fail(w, r, err, "Invalid ward")
		return
	}

	created, err := svc.DB.CreateWardChange(r.Context(), &models.WardChangeRequest{
		CitizenID:       user.ID,
		CurrentWardID:   *user.WardID,
		RequestedWardID: req.RequestedWardID,
		Reason:          strings.TrimSpace(req.Reason),
	})
	if err != nil {
		if isConflictErr(err) {
			err = httpError(http.StatusConflict, "you already have a pending ward change request")
		}
		fail(w, r, err, "Failed to create ward change request")
		return
	}

	logger.Info().Int64("request_id", created.ID).Int64("requested_ward_id", created.RequestedWardID).Msg("Ward change requested")
	WriteResponse(w, http.StatusCreated, created)
}

func (svc *Service) MyWardChangesService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	requests, err := svc.DB.ListWardChangesByCitizen(r.Context(), claims.UserID())
	if err != nil {
		fail(w, r, err, "Database error retrieving ward change requests")
		return
	}
	WriteResponse(w, http.StatusOK, requests)
}

// PendingWardChangesService lists pending requests. Ward officers see those
// leaving or entering their ward; admins see all.
func (svc *Service) PendingWardChangesService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	var scope models.WardChangeScope
	if claims.Role != catalog.RoleAdmin {
		wardID, err := wardOf(claims)
		if err != nil {
			fail(w, r, err, "Ward officer without ward")
			return
		}
		scope.WardID = &wardID
	}

	requests, err := svc.DB.ListPendingWardChanges(r.Context(), scope)
	if err != nil {
		fail(w, r, err, "Database error retrieving ward change requests")
		return
	}
	WriteResponse(w, http.StatusOK, requests)
}

func (svc *Service) ApproveWardChangeService(w http.ResponseWriter, r *http.Request) {
	svc.decideWardChange(w, r, true)
}

func (svc *Service) RejectWardChangeService(w http.ResponseWriter, r *http.Request) {
	svc.decideWardChange(w, r, false)
}

func (svc *Service) decideWardChange(w http.ResponseWriter, r *http.Request, approve bool) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err, "Invalid request id")
		return
	}
	var req models.WardChangeDecision
	if err := decodeOptional(r, &req); err != nil {
		fail(w, r, err, "Invalid ward change decision")
		return
	}

	existing, err := svc.DB.GetWardChange(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Database error retrieving ward change request")
		return
	}
	if existing == nil {
		fail(w, r, httpError(http.StatusNotFound, "ward change request %d not found", id), "Ward change not found")
		return
	}
	if !canDecideWardChange(claims, existing) {
		fail(w, r, httpError(http.StatusForbidden, "you cannot decide ward change requests outside your ward"), "Ward change decision rejected")
		return
	}

	decided, err := svc.DB.DecideWardChange(r.Context(), id, approve, claims.UserID(), claims.Role, strings.TrimSpace(req.Remarks))
	if err != nil {
		if isConflictErr(err) {
			err = httpError(http.StatusConflict, "ward change request %d has already been decided", id)
		}
		fail(w, r, err, "Failed to decide ward change request")
		return
	}

	event := events.NewComplaintEvent(events.TypeWardChangeDecide, 0)
	event.Status = decided.Status
	event.ActorID = claims.UserID()
	event.CitizenID = decided.CitizenID
	event.WardID = decided.RequestedWardID
	event.Remarks = decided.DecisionRemarks
	svc.publish(r.Context(), event)

	zerolog.Ctx(r.Context()).Info().Int64("request_id", id).Str("status", decided.Status).Msg("Ward change decided")
	WriteResponse(w, http.StatusOK, decided)
}

func canDecideWardChange(claims authn.Claims, req *models.WardChangeRequest) bool {
	switch claims.Role {
	case catalog.RoleAdmin:
		return true
	case catalog.RoleWardOfficer:
		return claims.WardID != nil &&
			(*claims.WardID == req.CurrentWardID || *claims.WardID == req.RequestedWardID)
	}
	return false
}

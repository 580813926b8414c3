package handlers

import (
	"net/http"

	services "github.com/civicconnect/civicconnect-services/api/services"
)

// @Summary Request a move to another ward
// @Tags ward-change citizens
// @Accept json
// @Produce json
// @Param body body models.WardChangeCreate true "Request"
// @Success 201 {object} models.WardChangeRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /ward-change/request [post]
func RequestWardChange(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.RequestWardChangeService(w, r)
	}
}

// @Summary The caller's ward change requests
// @Tags ward-change citizens
// @Produce json
// @Success 200 {array} models.WardChangeRequest
// @Router /ward-change/my-requests [get]
func MyWardChanges(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.MyWardChangesService(w, r)
	}
}

// @Summary Pending ward change requests
// @Description Ward officers see requests leaving or entering their ward. Admins see all.
// @Tags ward-change
// @Produce json
// @Success 200 {array} models.WardChangeRequest
// @Router /ward-change/pending [get]
func PendingWardChanges(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.PendingWardChangesService(w, r)
	}
}

// @Summary Approve a ward change
// @Tags ward-change
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param body body models.WardChangeDecision false "Remarks"
// @Success 200 {object} models.WardChangeRequest
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /ward-change/{id}/approve [put]
func ApproveWardChange(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ApproveWardChangeService(w, r)
	}
}

// @Summary Reject a ward change
// @Tags ward-change
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param body body models.WardChangeDecision false "Remarks"
// @Success 200 {object} models.WardChangeRequest
// @Router /ward-change/{id}/reject [put]
func RejectWardChange(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.RejectWardChangeService(w, r)
	}
}

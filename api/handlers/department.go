package handlers

import (
	"net/http"

	services "github.com/civicconnect/civicconnect-services/api/services"
)

// @Summary Complaints assigned to the caller
// @Tags department complaints
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Param status query string false "Status filter"
// @Success 200 {object} models.Page[models.Complaint]
// @Router /department/complaints [get]
func AssignedComplaints(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.AssignedComplaintsService(w, r)
	}
}

// @Summary Start work on an assigned complaint
// @Tags department workflow
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {object} models.Complaint
// @Failure 409 {object} models.ErrorResponse
// @Router /department/complaints/{id}/start [put]
func StartWork(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.StartWorkService(w, r)
	}
}

// @Summary Mark a complaint resolved
// @Tags department workflow
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param body body models.ActionRequest false "Remarks"
// @Success 200 {object} models.Complaint
// @Failure 409 {object} models.ErrorResponse
// @Router /department/complaints/{id}/resolve [put]
func Resolve(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ResolveService(w, r)
	}
}

// @Summary Move a complaint to a target status
// @Tags department workflow
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param body body models.StatusUpdateRequest true "Target status"
// @Success 200 {object} models.Complaint
// @Failure 409 {object} models.ErrorResponse
// @Router /department/complaints/{id}/status [put]
func UpdateStatus(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.UpdateStatusService(w, r)
	}
}

// @Summary Department officer dashboard
// @Tags department dashboards
// @Produce json
// @Success 200 {object} models.DepartmentDashboard
// @Router /department/dashboard [get]
func DepartmentDashboard(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.DepartmentDashboardService(w, r)
	}
}

package handlers

import (
	"net/http"

	services "github.com/civicconnect/civicconnect-services/api/services"
)

// @Summary Complaints in the officer's ward
// @Tags ward-officer complaints
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Param status query string false "Status filter"
// @Param departmentId query int false "Department filter"
// @Param q query string false "Search text"
// @Success 200 {object} models.Page[models.Complaint]
// @Failure 403 {object} models.ErrorResponse
// @Router /ward-officer/complaints [get]
func WardComplaints(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.WardComplaintsService(w, r)
	}
}

// @Summary Resolved complaints awaiting ward approval
// @Tags ward-officer complaints
// @Produce json
// @Success 200 {object} models.Page[models.Complaint]
// @Router /ward-officer/complaints/pending-approval [get]
func PendingApproval(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.PendingApprovalService(w, r)
	}
}

// @Summary Approve a resolved complaint
// @Tags ward-officer workflow
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param body body models.ActionRequest false "Remarks"
// @Success 200 {object} models.Complaint
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /ward-officer/complaints/{id}/approve [put]
func Approve(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ApproveService(w, r)
	}
}

// @Summary Reject a complaint
// @Description A submitted complaint is rejected outright. A resolved complaint is sent back to the department for rework.
// @Tags ward-officer workflow
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param body body models.RejectRequest true "Remarks"
// @Success 200 {object} models.Complaint
// @Failure 409 {object} models.ErrorResponse
// @Router /ward-officer/complaints/{id}/reject [put]
func Reject(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.RejectService(w, r)
	}
}

// @Summary Assign a complaint to a department officer
// @Tags ward-officer workflow
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param body body models.AssignRequest true "Officer"
// @Success 200 {object} models.Complaint
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /ward-officer/complaints/{id}/assign [put]
func Assign(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.AssignService(w, r)
	}
}

// @Summary Department officers in the officer's ward
// @Tags ward-officer users
// @Produce json
// @Param departmentId query int false "Department filter"
// @Success 200 {array} models.User
// @Router /ward-officer/department-officers [get]
func DepartmentOfficers(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.DepartmentOfficersService(w, r)
	}
}

// @Summary Create a department officer in the officer's ward
// @Tags ward-officer users
// @Accept json
// @Produce json
// @Param body body models.OfficerRegistration true "Officer"
// @Success 201 {object} models.User
// @Failure 409 {object} models.ErrorResponse
// @Router /ward-officer/department-officers [post]
func CreateDepartmentOfficer(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CreateDepartmentOfficerService(w, r)
	}
}

// @Summary Ward officer dashboard
// @Tags ward-officer dashboards
// @Produce json
// @Success 200 {object} models.WardDashboard
// @Router /ward-officer/dashboard [get]
func WardDashboard(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.WardDashboardService(w, r)
	}
}

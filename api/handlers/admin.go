package handlers

import (
	"net/http"

	services "github.com/civicconnect/civicconnect-services/api/services"
)

// @Summary Admin dashboard
// @Tags admin dashboards
// @Produce json
// @Success 200 {object} models.AdminDashboard
// @Router /admin/dashboard [get]
func AdminDashboard(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.AdminDashboardService(w, r)
	}
}

// @Summary All complaints
// @Tags admin complaints
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Param status query string false "Status filter"
// @Param wardId query int false "Ward filter"
// @Param departmentId query int false "Department filter"
// @Param q query string false "Search text"
// @Success 200 {object} models.Page[models.Complaint]
// @Router /admin/complaints [get]
func AdminComplaints(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.AdminComplaintsService(w, r)
	}
}

// @Summary Approved complaints awaiting closure
// @Tags admin complaints
// @Produce json
// @Success 200 {object} models.Page[models.Complaint]
// @Router /admin/complaints/pending-closure [get]
func PendingClosure(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.PendingClosureService(w, r)
	}
}

// @Summary Close an approved complaint
// @Tags admin workflow
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param body body models.ActionRequest false "Remarks"
// @Success 200 {object} models.Complaint
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/complaints/{id}/close [put]
func Close(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CloseService(w, r)
	}
}

// @Summary List users
// @Tags admin users
// @Produce json
// @Param role query string false "Role filter"
// @Param wardId query int false "Ward filter"
// @Param active query bool false "Active filter"
// @Param q query string false "Name, email or mobile"
// @Success 200 {object} models.Page[models.User]
// @Router /admin/users [get]
func ListUsers(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ListUsersService(w, r)
	}
}

// @Summary Enable or disable a user
// @Tags admin users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/users/{id}/toggle-status [put]
func ToggleUserStatus(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ToggleUserStatusService(w, r)
	}
}

// @Summary Register a ward officer
// @Tags admin users
// @Accept json
// @Produce json
// @Param body body models.OfficerRegistration true "Officer"
// @Success 201 {object} models.User
// @Router /admin/register/ward-officer [post]
func RegisterWardOfficer(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.RegisterWardOfficerService(w, r)
	}
}

// @Summary Register a department officer
// @Tags admin users
// @Accept json
// @Produce json
// @Param body body models.OfficerRegistration true "Officer"
// @Success 201 {object} models.User
// @Router /admin/register/department-officer [post]
func RegisterDepartmentOfficer(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.RegisterDepartmentOfficerService(w, r)
	}
}

// @Summary Audit log
// @Tags admin audit
// @Produce json
// @Param entityType query string false "Entity type"
// @Param entityId query int false "Entity ID"
// @Param action query string false "Action"
// @Param actorId query int false "Actor"
// @Success 200 {object} models.Page[models.AuditLog]
// @Router /admin/audit/logs [get]
func AuditLogs(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.AuditLogsService(w, r)
	}
}

// @Summary Audit trail of one complaint
// @Tags admin audit
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {object} models.Page[models.AuditLog]
// @Router /admin/audit/complaints/{id} [get]
func ComplaintAudit(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ComplaintAuditService(w, r)
	}
}

// @Summary SLA compliance overall and per department
// @Tags admin analytics
// @Produce json
// @Success 200 {object} models.SLAAnalytics
// @Router /admin/analytics/sla [get]
func SLAAnalytics(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.SLAAnalyticsService(w, r)
	}
}

// @Summary Per ward performance
// @Tags admin analytics
// @Produce json
// @Success 200 {array} models.WardPerformance
// @Router /admin/analytics/ward-performance [get]
func WardPerformance(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.WardPerformanceService(w, r)
	}
}

// @Summary Per department performance
// @Tags admin analytics
// @Produce json
// @Param wardId query int false "Ward filter"
// @Success 200 {array} models.DepartmentPerformance
// @Router /admin/analytics/department-performance [get]
func DepartmentPerformance(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.DepartmentPerformanceService(w, r)
	}
}

// @Summary Open complaints per department officer
// @Tags admin analytics
// @Produce json
// @Param wardId query int false "Ward filter"
// @Success 200 {array} models.OfficerLoad
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/analytics/officer-workload [get]
func OfficerWorkload(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.OfficerWorkloadService(w, r)
	}
}

// @Summary Daily filed and resolved counts
// @Tags admin analytics
// @Produce json
// @Param days query int false "Window in days, 1 to 365" default(30)
// @Param wardId query int false "Ward filter"
// @Success 200 {array} models.TrendPoint
// @Router /admin/analytics/trends [get]
func Trends(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.TrendsService(w, r)
	}
}

// @Summary Complaint report
// @Tags admin reports
// @Produce json,text/csv
// @Param format query string false "json or csv" default(json)
// @Param status query string false "Status filter"
// @Param wardId query int false "Ward filter"
// @Param departmentId query int false "Department filter"
// @Success 200 {array} models.Complaint
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/reports/complaints [get]
func ComplaintReport(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ComplaintReportService(w, r)
	}
}

// @Summary Create a ward
// @Tags admin reference
// @Accept json
// @Produce json
// @Param body body models.WardRequest true "Ward"
// @Success 201 {object} models.Ward
// @Failure 409 {object} models.ErrorResponse
// @Router /wards [post]
func CreateWard(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CreateWardService(w, r)
	}
}

// @Summary Create a department
// @Tags admin reference
// @Accept json
// @Produce json
// @Param body body models.DepartmentRequest true "Department"
// @Success 201 {object} models.Department
// @Failure 409 {object} models.ErrorResponse
// @Router /departments [post]
func CreateDepartment(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CreateDepartmentService(w, r)
	}
}

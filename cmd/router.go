package cmd

import (
	"net/http"
	"path"

	"github.com/civicconnect/civicconnect-services/api/handlers"
	"github.com/civicconnect/civicconnect-services/api/middleware"
	"github.com/civicconnect/civicconnect-services/api/services"
	docs "github.com/civicconnect/civicconnect-services/docs"
	"github.com/civicconnect/civicconnect-services/internal/appconfig"
	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

// newRouter registers every API route under cfg.BasePath. Routes are grouped
// by the roles allowed to call them.
func newRouter(service *services.Service, verifier authn.Verifier, cfg *appconfig.Config) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix(cfg.BasePath).Subrouter()
	api.Use(middleware.WithLogger)

	// Public routes
	public := api.NewRoute().Subrouter()
	public.HandleFunc("/auth/login", handlers.Login(service)).Methods(http.MethodPost)
	public.HandleFunc("/citizens/register", handlers.RegisterCitizen(service)).Methods(http.MethodPost)
	public.HandleFunc("/wards", handlers.ListWards(service)).Methods(http.MethodGet)
	public.HandleFunc("/wards/{id}", handlers.GetWard(service)).Methods(http.MethodGet)
	public.HandleFunc("/departments", handlers.ListDepartments(service)).Methods(http.MethodGet)
	public.HandleFunc("/catalog", handlers.Catalog(service)).Methods(http.MethodGet)
	public.HandleFunc("/health", handlers.Health(service)).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.JWTMiddleware(verifier), middleware.RequireActive(service.DB))

	only := func(roles ...string) *mux.Router {
		s := protected.NewRoute().Subrouter()
		s.Use(middleware.RequireRoles(roles...))
		return s
	}
	citizen := only(catalog.RoleCitizen)
	wardOfficer := only(catalog.RoleWardOfficer)
	department := only(catalog.RoleDepartmentOfficer)
	admin := only(catalog.RoleAdmin)
	wardChangeDeciders := only(catalog.RoleWardOfficer, catalog.RoleAdmin)

	// Profile routes
	protected.HandleFunc("/profile", handlers.GetProfile(service)).Methods(http.MethodGet)
	protected.HandleFunc("/profile", handlers.UpdateProfile(service)).Methods(http.MethodPut)
	protected.HandleFunc("/profile/name", handlers.UpdateName(service)).Methods(http.MethodPut)
	protected.HandleFunc("/profile/password", handlers.ChangePassword(service)).Methods(http.MethodPut)
	protected.HandleFunc("/profile/mobile/request-otp", handlers.RequestOTP(service)).Methods(http.MethodPost)
	protected.HandleFunc("/profile/mobile/verify-otp", handlers.VerifyOTP(service)).Methods(http.MethodPost)
	protected.HandleFunc("/profile/completion-score", handlers.CompletionScore(service)).Methods(http.MethodGet)
	protected.HandleFunc("/profile/password-strength", handlers.PasswordStrength(service)).Methods(http.MethodPost)
	citizen.HandleFunc("/profile/citizen/address", handlers.UpdateAddress(service)).Methods(http.MethodPut)

	// Citizen routes
	citizen.HandleFunc("/citizens/complaints", handlers.CreateComplaint(service)).Methods(http.MethodPost)
	citizen.HandleFunc("/citizens/complaints", handlers.MyComplaints(service)).Methods(http.MethodGet)
	citizen.HandleFunc("/citizens/complaints/{id}/sla", handlers.ComplaintSLA(service)).Methods(http.MethodGet)
	citizen.HandleFunc("/citizen/my-complaints", handlers.MyComplaints(service)).Methods(http.MethodGet)
	citizen.HandleFunc("/citizen/dashboard", handlers.CitizenDashboard(service)).Methods(http.MethodGet)

	// Shared complaint routes, access is checked per complaint
	protected.HandleFunc("/complaints/{id}/details", handlers.ComplaintDetails(service)).Methods(http.MethodGet)
	protected.HandleFunc("/complaints/{id}/timeline", handlers.Timeline(service)).Methods(http.MethodGet)
	protected.HandleFunc("/complaints/{id}/reopen", handlers.Reopen(service)).Methods(http.MethodPut)
	protected.HandleFunc("/complaints/{id}/feedback", handlers.Feedback(service)).Methods(http.MethodPost)
	protected.HandleFunc("/complaints/{id}/images", handlers.UploadImage(service)).Methods(http.MethodPost)
	protected.HandleFunc("/complaints/{id}/images", handlers.ListImages(service)).Methods(http.MethodGet)
	protected.HandleFunc("/complaints/{id}/images/{imageId}", handlers.GetImage(service)).Methods(http.MethodGet)

	// Map routes, scoped to the caller's role
	protected.HandleFunc("/map/complaints", handlers.MapMarkers(service)).Methods(http.MethodGet)
	protected.HandleFunc("/map/markers", handlers.MapMarkers(service)).Methods(http.MethodGet)
	protected.HandleFunc("/map/statistics", handlers.MapStatistics(service)).Methods(http.MethodGet)

	// Ward officer routes
	wardOfficer.HandleFunc("/ward-officer/complaints", handlers.WardComplaints(service)).Methods(http.MethodGet)
	wardOfficer.HandleFunc("/ward-officer/complaints/pending-approval", handlers.PendingApproval(service)).Methods(http.MethodGet)
	wardOfficer.HandleFunc("/ward-officer/complaints/{id}", handlers.GetComplaint(service)).Methods(http.MethodGet)
	wardOfficer.HandleFunc("/ward-officer/complaints/{id}/approve", handlers.Approve(service)).Methods(http.MethodPut)
	wardOfficer.HandleFunc("/ward-officer/complaints/{id}/reject", handlers.Reject(service)).Methods(http.MethodPut)
	wardOfficer.HandleFunc("/ward-officer/complaints/{id}/assign", handlers.Assign(service)).Methods(http.MethodPut)
	wardOfficer.HandleFunc("/ward-officer/department-officers", handlers.DepartmentOfficers(service)).Methods(http.MethodGet)
	wardOfficer.HandleFunc("/ward-officer/department-officers", handlers.CreateDepartmentOfficer(service)).Methods(http.MethodPost)
	wardOfficer.HandleFunc("/ward-officer/dashboard", handlers.WardDashboard(service)).Methods(http.MethodGet)

	// Department officer routes
	department.HandleFunc("/department/complaints", handlers.AssignedComplaints(service)).Methods(http.MethodGet)
	department.HandleFunc("/department/complaints/{id}", handlers.GetComplaint(service)).Methods(http.MethodGet)
	department.HandleFunc("/department/complaints/{id}/start", handlers.StartWork(service)).Methods(http.MethodPut)
	department.HandleFunc("/department/complaints/{id}/resolve", handlers.Resolve(service)).Methods(http.MethodPut)
	department.HandleFunc("/department/complaints/{id}/status", handlers.UpdateStatus(service)).Methods(http.MethodPut)
	department.HandleFunc("/department/dashboard", handlers.DepartmentDashboard(service)).Methods(http.MethodGet)

	// Admin routes
	admin.HandleFunc("/admin/dashboard", handlers.AdminDashboard(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/complaints", handlers.AdminComplaints(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/complaints/pending-closure", handlers.PendingClosure(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/complaints/{id}/close", handlers.Close(service)).Methods(http.MethodPut)
	admin.HandleFunc("/admin/users", handlers.ListUsers(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/users/{id}/toggle-status", handlers.ToggleUserStatus(service)).Methods(http.MethodPut)
	admin.HandleFunc("/admin/register/ward-officer", handlers.RegisterWardOfficer(service)).Methods(http.MethodPost)
	admin.HandleFunc("/admin/register/department-officer", handlers.RegisterDepartmentOfficer(service)).Methods(http.MethodPost)
	admin.HandleFunc("/admin/audit/logs", handlers.AuditLogs(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/audit/complaints/{id}", handlers.ComplaintAudit(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/analytics/sla", handlers.SLAAnalytics(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/analytics/ward-performance", handlers.WardPerformance(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/analytics/department-performance", handlers.DepartmentPerformance(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/analytics/trends", handlers.Trends(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/analytics/officer-workload", handlers.OfficerWorkload(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/reports/complaints", handlers.ComplaintReport(service)).Methods(http.MethodGet)
	admin.HandleFunc("/admin/map/markers", handlers.MapMarkers(service)).Methods(http.MethodGet)
	admin.HandleFunc("/wards", handlers.CreateWard(service)).Methods(http.MethodPost)
	admin.HandleFunc("/departments", handlers.CreateDepartment(service)).Methods(http.MethodPost)

	// Ward change routes
	citizen.HandleFunc("/ward-change/request", handlers.RequestWardChange(service)).Methods(http.MethodPost)
	citizen.HandleFunc("/ward-change/my-requests", handlers.MyWardChanges(service)).Methods(http.MethodGet)
	wardChangeDeciders.HandleFunc("/ward-change/pending", handlers.PendingWardChanges(service)).Methods(http.MethodGet)
	wardChangeDeciders.HandleFunc("/ward-change/{id}/approve", handlers.ApproveWardChange(service)).Methods(http.MethodPut)
	wardChangeDeciders.HandleFunc("/ward-change/{id}/reject", handlers.RejectWardChange(service)).Methods(http.MethodPut)

	// Notification routes
	protected.HandleFunc("/notifications", handlers.ListNotifications(service)).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/unread/count", handlers.UnreadCount(service)).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/mark-all-as-read", handlers.MarkAllRead(service)).Methods(http.MethodPut)
	protected.HandleFunc("/notifications/clear-read", handlers.ClearRead(service)).Methods(http.MethodDelete)
	protected.HandleFunc("/notifications/{id}/read", handlers.MarkRead(service)).Methods(http.MethodPut)
	protected.HandleFunc("/notifications/{id}", handlers.DeleteNotification(service)).Methods(http.MethodDelete)

	// Docs
	docs.SwaggerInfo.Host = cfg.Host
	docs.SwaggerInfo.BasePath = cfg.BasePath
	r.PathPrefix(cfg.DocsPath).Handler(httpSwagger.Handler(
		httpSwagger.URL(path.Join(cfg.DocsPath, "/doc.json")),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	)).Methods(http.MethodGet)

	return middleware.CORS(cfg.CORS.AllowedOrigins)(r)
}

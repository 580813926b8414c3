package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/civicconnect/civicconnect-services/db"
	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTrendDays = 30
	maxTrendDays     = 365
)

func (svc *Service) AdminDashboardService(w http.ResponseWriter, r *http.Request) {
	var dash models.AdminDashboard
	all := models.ComplaintFilter{}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		counts, err := svc.DB.CountComplaintsByStatus(ctx, all)
		if err != nil {
			return err
		}
		dash.ByStatus = counts
		dash.TotalComplaints = counts.Total()
		dash.PendingClosure = counts[catalog.StatusApproved]
		return nil
	})
	g.Go(func() error {
		byRole, err := svc.DB.CountUsersByRole(ctx)
		if err != nil {
			return err
		}
		dash.UsersByRole = byRole
		for _, n := range byRole {
			dash.TotalUsers += n
		}
		return nil
	})
	g.Go(func() error {
		records, err := svc.DB.ListSLARecords(ctx, all)
		if err != nil {
			return err
		}
		dash.SLA = sla.Compliance(db.EvaluateRecords(svc.SLA, records, svc.now()))
		return nil
	})
	g.Go(func() error {
		perf, err := svc.wardPerformance(ctx)
		dash.WardPerformance = perf
		return err
	})
	if err := g.Wait(); err != nil {
		fail(w, r, err, "Failed to build admin dashboard")
		return
	}

	WriteResponse(w, http.StatusOK, dash)
}

// AdminComplaintsService lists all complaints with the common filters.
func (svc *Service) AdminComplaintsService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	f, err := complaintFilter(r)
	if err != nil {
		fail(w, r, err, "Invalid complaint filter")
		return
	}
	svc.listComplaints(w, r, f, claims.Role)
}

// PendingClosureService lists approved complaints waiting to be closed.
func (svc *Service) PendingClosureService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	f, err := complaintFilter(r)
	if err != nil {
		fail(w, r, err, "Invalid complaint filter")
		return
	}
	f.Statuses = []string{catalog.StatusApproved}
	svc.listComplaints(w, r, f, claims.Role)
}

func (svc *Service) CloseService(w http.ResponseWriter, r *http.Request) {
	svc.actionService(w, r, workflow.ActionClose)
}

// ListUsersService supports role, wardId, active and q filters.
func (svc *Service) ListUsersService(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.UserFilter{
		Role:       strings.ToUpper(strings.TrimSpace(q.Get("role"))),
		Query:      strings.TrimSpace(q.Get("q")),
		Pagination: pagination(r),
	}
	if f.Role != "" && !catalog.ValidRole(f.Role) {
		fail(w, r, httpError(http.StatusBadRequest, "invalid role: %q", f.Role), "Invalid user filter")
		return
	}
	var err error
	if f.WardID, err = queryInt64(r, "wardId"); err != nil {
		fail(w, r, err, "Invalid user filter")
		return
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			fail(w, r, httpError(http.StatusBadRequest, "invalid active: %q", raw), "Invalid user filter")
			return
		}
		f.Active = &active
	}

	page, err := svc.DB.ListUsers(r.Context(), f)
	if err != nil {
		fail(w, r, err, "Database error retrieving users")
		return
	}
	WriteResponse(w, http.StatusOK, page)
}

// ToggleUserStatusService activates or deactivates an account. Admins cannot
// deactivate themselves.
func (svc *Service) ToggleUserStatusService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err, "Invalid user id")
		return
	}
	if id == claims.UserID() {
		fail(w, r, httpError(http.StatusBadRequest, "you cannot change the status of your own account"), "Self toggle rejected")
		return
	}

	user, err := svc.DB.ToggleUserActive(r.Context(), id, claims.UserID())
	if err != nil {
		fail(w, r, err, "Failed to toggle user status")
		return
	}
	zerolog.Ctx(r.Context()).Info().Int64("target_user_id", id).Bool("active", user.Active).Msg("User status changed")
	WriteResponse(w, http.StatusOK, user)
}

func (svc *Service) RegisterWardOfficerService(w http.ResponseWriter, r *http.Request) {
	svc.adminRegister(w, r, catalog.RoleWardOfficer)
}

func (svc *Service) RegisterDepartmentOfficerService(w http.ResponseWriter, r *http.Request) {
	svc.adminRegister(w, r, catalog.RoleDepartmentOfficer)
}

func (svc *Service) adminRegister(w http.ResponseWriter, r *http.Request, role string) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	var req models.OfficerRegistration
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err, "Invalid officer registration")
		return
	}

	user, err := svc.registerOfficer(r, claims, role, req)
	if err != nil {
		fail(w, r, err, "Failed to register officer")
		return
	}
	zerolog.Ctx(r.Context()).Info().Int64("user_id", user.ID).Str("new_role", role).Msg("Officer registered")
	WriteResponse(w, http.StatusCreated, user)
}

// AuditLogsService lists audit entries filtered by entityType, entityId,
// actorId and action.
func (svc *Service) AuditLogsService(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.AuditFilter{
		EntityType: strings.ToUpper(strings.TrimSpace(q.Get("entityType"))),
		Action:     strings.ToUpper(strings.TrimSpace(q.Get("action"))),
		Pagination: pagination(r),
	}
	var err error
	if f.EntityID, err = queryInt64(r, "entityId"); err != nil {
		fail(w, r, err, "Invalid audit filter")
		return
	}
	if f.ActorID, err = queryInt64(r, "actorId"); err != nil {
		fail(w, r, err, "Invalid audit filter")
		return
	}
	svc.auditPage(w, r, f)
}

// ComplaintAuditService lists the audit trail of one complaint.
func (svc *Service) ComplaintAuditService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err, "Invalid complaint id")
		return
	}
	svc.auditPage(w, r, models.AuditFilter{EntityType: "COMPLAINT", EntityID: &id, Pagination: pagination(r)})
}

func (svc *Service) auditPage(w http.ResponseWriter, r *http.Request, f models.AuditFilter) {
	page, err := svc.DB.ListAuditLogs(r.Context(), f)
	if err != nil {
		fail(w, r, err, "Database error retrieving audit logs")
		return
	}
	WriteResponse(w, http.StatusOK, page)
}

// SLAAnalyticsService summarises SLA compliance overall and per department.
func (svc *Service) SLAAnalyticsService(w http.ResponseWriter, r *http.Request) {
	f, err := complaintFilter(r)
	if err != nil {
		fail(w, r, err, "Invalid analytics filter")
		return
	}
	ctx := r.Context()

	records, err := svc.DB.ListSLARecords(ctx, f)
	if err != nil {
		fail(w, r, err, "Database error retrieving SLA records")
		return
	}
	depts, err := svc.DB.ListDepartments(ctx)
	if err != nil {
		fail(w, r, err, "Database error retrieving departments")
		return
	}

	results := db.EvaluateRecords(svc.SLA, records, svc.now())
	out := models.SLAAnalytics{
		Summary:      sla.Compliance(results),
		ByDepartment: map[string]sla.Summary{},
	}
	byDept := groupResults(records, results, func(rec models.SLARecord) int64 { return rec.DepartmentID })
	for _, d := range depts {
		out.ByDepartment[d.Name] = sla.Compliance(byDept[d.ID])
	}
	WriteResponse(w, http.StatusOK, out)
}

func (svc *Service) WardPerformanceService(w http.ResponseWriter, r *http.Request) {
	perf, err := svc.wardPerformance(r.Context())
	if err != nil {
		fail(w, r, err, "Failed to compute ward performance")
		return
	}
	WriteResponse(w, http.StatusOK, perf)
}

// DepartmentPerformanceService optionally narrows to one wardId.
func (svc *Service) DepartmentPerformanceService(w http.ResponseWriter, r *http.Request) {
	wardID, err := queryInt64(r, "wardId")
	if err != nil {
		fail(w, r, err, "Invalid analytics filter")
		return
	}
	ctx := r.Context()

	perf, err := svc.DB.DepartmentPerformance(ctx, wardID)
	if err != nil {
		fail(w, r, err, "Database error computing department performance")
		return
	}
	summaries, err := svc.slaSummaries(ctx, models.ComplaintFilter{WardID: wardID},
		func(rec models.SLARecord) int64 { return rec.DepartmentID })
	if err != nil {
		fail(w, r, err, "Database error retrieving SLA records")
		return
	}
	for i := range perf {
		overlaySLA(&perf[i].Performance, summaries[perf[i].DepartmentID])
	}
	WriteResponse(w, http.StatusOK, perf)
}

// OfficerWorkloadService lists department officers by open complaint count,
// optionally for one ward.
func (svc *Service) OfficerWorkloadService(w http.ResponseWriter, r *http.Request) {
	wardID, err := queryInt64(r, "wardId")
	if err != nil {
		fail(w, r, err, "Invalid analytics filter")
		return
	}
	loads, err := svc.DB.OfficerWorkload(r.Context(), wardID)
	if err != nil {
		fail(w, r, err, "Database error computing officer workload")
		return
	}
	if loads == nil {
		loads = []models.OfficerLoad{}
	}
	WriteResponse(w, http.StatusOK, loads)
}

// TrendsService returns daily created and resolved counts for the last
// days (default 30, at most 365).
func (svc *Service) TrendsService(w http.ResponseWriter, r *http.Request) {
	days := defaultTrendDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxTrendDays {
			fail(w, r, httpError(http.StatusBadRequest, "days must be between 1 and %d", maxTrendDays), "Invalid analytics filter")
			return
		}
		days = n
	}
	wardID, err := queryInt64(r, "wardId")
	if err != nil {
		fail(w, r, err, "Invalid analytics filter")
		return
	}

	points, err := svc.DB.Trends(r.Context(), days, wardID)
	if err != nil {
		fail(w, r, err, "Database error computing trends")
		return
	}
	WriteResponse(w, http.StatusOK, points)
}

func (svc *Service) wardPerformance(ctx context.Context) ([]models.WardPerformance, error) {
	perf, err := svc.DB.WardPerformance(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := svc.slaSummaries(ctx, models.ComplaintFilter{},
		func(rec models.SLARecord) int64 { return rec.WardID })
	if err != nil {
		return nil, err
	}
	for i := range perf {
		overlaySLA(&perf[i].Performance, summaries[perf[i].WardID])
	}
	return perf, nil
}

// slaSummaries evaluates the matching SLA records grouped by key.
func (svc *Service) slaSummaries(ctx context.Context, f models.ComplaintFilter, key func(models.SLARecord) int64) (map[int64]sla.Summary, error) {
	records, err := svc.DB.ListSLARecords(ctx, f)
	if err != nil {
		return nil, err
	}
	grouped := groupResults(records, db.EvaluateRecords(svc.SLA, records, svc.now()), key)
	out := make(map[int64]sla.Summary, len(grouped))
	for k, results := range grouped {
		out[k] = sla.Compliance(results)
	}
	return out, nil
}

func groupResults(records []models.SLARecord, results []sla.Result, key func(models.SLARecord) int64) map[int64][]sla.Result {
	out := map[int64][]sla.Result{}
	for i, rec := range records {
		k := key(rec)
		out[k] = append(out[k], results[i])
	}
	return out
}

// overlaySLA copies breach and compliance figures onto p. A group with no
// complaints keeps a compliance rate of 100.
func overlaySLA(p *models.Performance, s sla.Summary) {
	if s.Total == 0 {
		p.ComplianceRate = 100
		return
	}
	p.Breached = s.Breached
	p.ComplianceRate = s.ComplianceRate
}

var reportHeader = []string{
	"ID", "Title", "Status", "Priority", "Ward", "Department", "Citizen",
	"Assigned Officer", "Created At", "SLA Deadline", "SLA Status", "SLA Breached",
	"Resolved At", "Closed At",
}

// ComplaintReportService exports every complaint matching the filters as
// JSON or, with format=csv, as a CSV attachment.
func (svc *Service) ComplaintReportService(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		fail(w, r, httpError(http.StatusBadRequest, "format must be json or csv"), "Invalid report format")
		return
	}
	f, err := complaintFilter(r)
	if err != nil {
		fail(w, r, err, "Invalid report filter")
		return
	}

	complaints, err := svc.allComplaints(r.Context(), f)
	if err != nil {
		fail(w, r, err, "Database error building report")
		return
	}
	svc.decorateAll(complaints, catalog.RoleAdmin)

	if format == "json" {
		WriteResponse(w, http.StatusOK, complaints)
		return
	}

	filename := fmt.Sprintf("complaints-report-%s.csv", svc.now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(reportHeader)
	for _, cm := range complaints {
		_ = cw.Write(reportRow(cm))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to write CSV report")
	}
}

// allComplaints walks every page of f.
func (svc *Service) allComplaints(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, error) {
	f.Pagination = models.Pagination{Page: 0, Size: models.MaxPageSize}
	out := []models.Complaint{}
	for {
		page, err := svc.DB.ListComplaints(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Content...)
		if len(page.Content) == 0 || f.Page+1 >= page.TotalPages {
			return out, nil
		}
		f.Page++
	}
}

func reportRow(cm models.Complaint) []string {
	slaStatus := ""
	if cm.SLA != nil {
		slaStatus = string(cm.SLA.Status)
	}
	return []string{
		strconv.FormatInt(cm.ID, 10),
		csvText(cm.Title),
		cm.Status,
		cm.Priority,
		csvText(cm.WardName),
		csvText(cm.DepartmentName),
		csvText(cm.CitizenName),
		csvText(cm.AssignedOfficerName),
		cm.CreatedAt.Format(time.RFC3339),
		formatTime(cm.SLADeadline),
		slaStatus,
		strconv.FormatBool(cm.SLABreached),
		formatTime(cm.ResolvedAt),
		formatTime(cm.ClosedAt),
	}
}

// csvText quotes user supplied text so spreadsheets do not evaluate it as a
// formula.
func csvText(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func (svc *Service) CreateWardService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	var req models.WardRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid ward request")
		return
	}
	req.AreaName = strings.TrimSpace(req.AreaName)

	ward, err := svc.DB.CreateWard(r.Context(), req, claims.UserID())
	if err != nil {
		if isConflictErr(err) {
			err = httpError(http.StatusConflict, "ward number %d already exists", req.Number)
		}
		fail(w, r, err, "Failed to create ward")
		return
	}
	WriteResponse(w, http.StatusCreated, ward, fmt.Sprintf("%s/wards/%d", svc.Config.BasePath, ward.ID))
}

func (svc *Service) CreateDepartmentService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	var req models.DepartmentRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid department request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	dept, err := svc.DB.CreateDepartment(r.Context(), req, claims.UserID())
	if err != nil {
		if isConflictErr(err) {
			err = httpError(http.StatusConflict, "department %q already exists", req.Name)
		}
		fail(w, r, err, "Failed to create department")
		return
	}
	WriteResponse(w, http.StatusCreated, dept)
}

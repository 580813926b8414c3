package services

import (
	"net/http"
	"strings"

	"github.com/civicconnect/civicconnect-services/db"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
	"golang.org/x/sync/errgroup"
)

// AssignedComplaintsService lists the complaints assigned to the calling
// department officer.
func (svc *Service) AssignedComplaintsService(w http.ResponseWriter, r *http.Request) {
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
	f.AssignedOfficerID = ptr(claims.UserID())
	svc.listComplaints(w, r, f, claims.Role)
}

func (svc *Service) StartWorkService(w http.ResponseWriter, r *http.Request) {
	svc.actionService(w, r, workflow.ActionStart)
}

func (svc *Service) ResolveService(w http.ResponseWriter, r *http.Request) {
	svc.actionService(w, r, workflow.ActionResolve)
}

// UpdateStatusService moves a complaint to the requested status through
// whichever action the caller may take to reach it.
func (svc *Service) UpdateStatusService(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdateRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid status request")
		return
	}
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	claims, _ := claimsFrom(r)

	target := strings.ToUpper(strings.TrimSpace(req.Status))
	action := actionFor(cm.Status, target, claims.Role)
	if action == "" {
		fail(w, r, httpError(http.StatusConflict, "cannot move complaint from %s to %s", cm.Status, target), "Invalid status request")
		return
	}

	updated, err := svc.transition(r.Context(), claims, cm, action, req.Remarks, nil)
	if err != nil {
		fail(w, r, err, "Failed to update complaint status")
		return
	}
	svc.decorate(updated, claims.Role)
	WriteResponse(w, http.StatusOK, updated)
}

// actionFor returns the action role may take to move from one status to
// another, or "" when there is none.
func actionFor(from, to, role string) string {
	for _, action := range workflow.AllowedActions(from, role) {
		if target, err := workflow.Target(from, action); err == nil && target == to {
			return action
		}
	}
	return ""
}

func (svc *Service) DepartmentDashboardService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	uid := claims.UserID()
	mine := models.ComplaintFilter{AssignedOfficerID: &uid}
	dash := models.DepartmentDashboard{OfficerID: uid}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		counts, err := svc.DB.CountComplaintsByStatus(ctx, mine)
		if err != nil {
			return err
		}
		dash.ByStatus = counts
		dash.TotalAssigned = counts.Total()
		return nil
	})
	g.Go(func() error {
		records, err := svc.DB.ListSLARecords(ctx, mine)
		if err != nil {
			return err
		}
		dash.SLA = sla.Compliance(db.EvaluateRecords(svc.SLA, records, svc.now()))
		return nil
	})
	g.Go(func() error {
		recent := mine
		recent.Pagination = models.Pagination{Size: 5}
		page, err := svc.DB.ListComplaints(ctx, recent)
		dash.RecentComplaints = page.Content
		return err
	})
	if err := g.Wait(); err != nil {
		fail(w, r, err, "Failed to build department dashboard")
		return
	}

	svc.decorateAll(dash.RecentComplaints, claims.Role)
	WriteResponse(w, http.StatusOK, dash)
}

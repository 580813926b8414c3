package services

import (
	"fmt"
	"net/http"

	"github.com/civicconnect/civicconnect-services/db"
	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// wardOf returns the ward an officer works in.
func wardOf(claims authn.Claims) (int64, error) {
	if claims.WardID == nil || *claims.WardID <= 0 {
		return 0, httpError(http.StatusForbidden, "no ward is associated with this account")
	}
	return *claims.WardID, nil
}

// WardComplaintsService lists the complaints of the caller's ward.
func (svc *Service) WardComplaintsService(w http.ResponseWriter, r *http.Request) {
	svc.wardComplaints(w, r, nil)
}

// PendingApprovalService lists resolved complaints awaiting the ward
// officer's approval.
func (svc *Service) PendingApprovalService(w http.ResponseWriter, r *http.Request) {
	svc.wardComplaints(w, r, []string{catalog.StatusResolved})
}

func (svc *Service) wardComplaints(w http.ResponseWriter, r *http.Request, statuses []string) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	wardID, err := wardOf(claims)
	if err != nil {
		fail(w, r, err, "Ward officer without ward")
		return
	}
	f, err := complaintFilter(r)
	if err != nil {
		fail(w, r, err, "Invalid complaint filter")
		return
	}
	f.WardID = &wardID
	if statuses != nil {
		f.Statuses = statuses
	}
	svc.listComplaints(w, r, f, claims.Role)
}

func (svc *Service) ApproveService(w http.ResponseWriter, r *http.Request) {
	svc.actionService(w, r, workflow.ActionApprove)
}

// RejectService rejects a new complaint or sends a resolution back to the
// department officer, depending on the complaint's status.
func (svc *Service) RejectService(w http.ResponseWriter, r *http.Request) {
	svc.actionService(w, r, workflow.ActionReject)
}

// AssignService hands a complaint to a department officer of the same ward
// and department.
func (svc *Service) AssignService(w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	var req models.AssignRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid assign request")
		return
	}
	cm, ok := svc.complaintFromPath(w, r)
	if !ok {
		return
	}
	claims, _ := claimsFrom(r)

	officer, err := svc.DB.GetUser(r.Context(), req.OfficerID)
	if err != nil {
		fail(w, r, err, "Database error retrieving officer")
		return
	}
	if err := assignable(officer, cm); err != nil {
		fail(w, r, err, "Officer cannot be assigned")
		return
	}

	remarks := req.Remarks
	if remarks == "" {
		remarks = fmt.Sprintf("Assigned to %s", officer.Name)
	}
	updated, err := svc.transition(r.Context(), claims, cm, workflow.ActionAssign, remarks, &officer.ID)
	if err != nil {
		fail(w, r, err, "Failed to assign complaint")
		return
	}

	logger.Info().Int64("complaint_id", cm.ID).Int64("officer_id", officer.ID).Msg("Complaint assigned")
	svc.decorate(updated, claims.Role)
	WriteResponse(w, http.StatusOK, updated)
}

func assignable(officer *models.User, cm *models.Complaint) error {
	switch {
	case officer == nil:
		return httpError(http.StatusBadRequest, "officer not found")
	case officer.Role != catalog.RoleDepartmentOfficer:
		return httpError(http.StatusBadRequest, "user %d is not a department officer", officer.ID)
	case !officer.Active:
		return httpError(http.StatusBadRequest, "officer %s is inactive", officer.Name)
	case officer.WardID == nil || *officer.WardID != cm.WardID:
		return httpError(http.StatusBadRequest, "officer %s does not work in the complaint's ward", officer.Name)
	case officer.DepartmentID == nil || *officer.DepartmentID != cm.DepartmentID:
		return httpError(http.StatusBadRequest, "officer %s does not belong to the complaint's department", officer.Name)
	}
	return nil
}

// DepartmentOfficersService lists the department officers of the caller's
// ward, optionally for one departmentId.
func (svc *Service) DepartmentOfficersService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	wardID, err := wardOf(claims)
	if err != nil {
		fail(w, r, err, "Ward officer without ward")
		return
	}
	deptID, err := queryInt64(r, "departmentId")
	if err != nil {
		fail(w, r, err, "Invalid department filter")
		return
	}

	officers, err := svc.DB.ListDepartmentOfficers(r.Context(), wardID, deptID)
	if err != nil {
		fail(w, r, err, "Database error retrieving officers")
		return
	}
	WriteResponse(w, http.StatusOK, officers)
}

// CreateDepartmentOfficerService registers a department officer in the
// caller's own ward.
func (svc *Service) CreateDepartmentOfficerService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	wardID, err := wardOf(claims)
	if err != nil {
		fail(w, r, err, "Ward officer without ward")
		return
	}

	var req models.OfficerRegistration
	// validated by registerOfficer once the ward is set
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err, "Invalid officer registration")
		return
	}
	req.WardID = wardID

	user, err := svc.registerOfficer(r, claims, catalog.RoleDepartmentOfficer, req)
	if err != nil {
		fail(w, r, err, "Failed to register department officer")
		return
	}
	zerolog.Ctx(r.Context()).Info().Int64("user_id", user.ID).Int64("ward_id", wardID).Msg("Department officer registered")
	WriteResponse(w, http.StatusCreated, user)
}

func (svc *Service) WardDashboardService(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	wardID, err := wardOf(claims)
	if err != nil {
		fail(w, r, err, "Ward officer without ward")
		return
	}

	dash := models.WardDashboard{WardID: wardID}
	inWard := models.ComplaintFilter{WardID: &wardID}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		counts, err := svc.DB.CountComplaintsByStatus(ctx, inWard)
		if err != nil {
			return err
		}
		dash.ByStatus = counts
		dash.TotalComplaints = counts.Total()
		dash.PendingApproval = counts[catalog.StatusResolved]
		return nil
	})
	g.Go(func() error {
		n, err := svc.DB.CountUnassigned(ctx, wardID)
		dash.Unassigned = n
		return err
	})
	g.Go(func() error {
		n, err := svc.DB.CountPendingWardChanges(ctx, wardID)
		dash.PendingWardMoves = n
		return err
	})
	g.Go(func() error {
		records, err := svc.DB.ListSLARecords(ctx, inWard)
		if err != nil {
			return err
		}
		dash.SLA = sla.Compliance(db.EvaluateRecords(svc.SLA, records, svc.now()))
		return nil
	})
	g.Go(func() error {
		loads, err := svc.DB.OfficerWorkload(ctx, &wardID)
		dash.OfficerWorkload = loads
		return err
	})
	if err := g.Wait(); err != nil {
		fail(w, r, err, "Failed to build ward dashboard")
		return
	}
	if dash.OfficerWorkload == nil {
		dash.OfficerWorkload = []models.OfficerLoad{}
	}

	WriteResponse(w, http.StatusOK, dash)
}

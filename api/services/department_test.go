package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAssignedComplaintsService(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	assigned := complaintFixture(catalog.StatusAssigned)
	assigned.AssignedOfficerID = ptr(int64(21))
	store.On("ListComplaints", mock.Anything, mock.MatchedBy(func(f models.ComplaintFilter) bool {
		return f.AssignedOfficerID != nil && *f.AssignedOfficerID == 21 &&
			len(f.Statuses) == 1 && f.Statuses[0] == catalog.StatusAssigned
	})).Return(models.NewPage([]models.Complaint{*assigned}, models.Pagination{Size: 20}, 1), nil)

	c := claimsFor(21, catalog.RoleDepartmentOfficer, nil)
	w := httptest.NewRecorder()
	svc.AssignedComplaintsService(w, newRequest(t, http.MethodGet, "/department/complaints?status=assigned", nil, &c, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decodeBody[models.Page[models.Complaint]](t, w)
	require.Len(t, page.Content, 1)
	assert.NotNil(t, page.Content[0].SLA)
	assert.Contains(t, page.Content[0].AllowedActions, workflow.ActionStart)
	store.AssertExpectations(t)
}

func TestDepartmentDashboardService(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	mine := func(f models.ComplaintFilter) bool {
		return f.AssignedOfficerID != nil && *f.AssignedOfficerID == 21
	}
	inProgress := complaintFixture(catalog.StatusInProgress)
	store.On("CountComplaintsByStatus", mock.Anything, mock.MatchedBy(mine)).Return(models.StatusCounts{
		catalog.StatusAssigned:   2,
		catalog.StatusInProgress: 1,
	}, nil)
	store.On("ListSLARecords", mock.Anything, mock.MatchedBy(mine)).Return([]models.SLARecord{
		{ComplaintID: 100, Input: inProgress.SLAInput()},
	}, nil)
	store.On("ListComplaints", mock.Anything, mock.MatchedBy(func(f models.ComplaintFilter) bool {
		return mine(f) && f.Size == 5
	})).Return(models.NewPage([]models.Complaint{*inProgress}, models.Pagination{Size: 5}, 1), nil)

	c := claimsFor(21, catalog.RoleDepartmentOfficer, nil)
	w := httptest.NewRecorder()
	svc.DepartmentDashboardService(w, newRequest(t, http.MethodGet, "/department/dashboard", nil, &c, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dash := decodeBody[models.DepartmentDashboard](t, w)
	assert.Equal(t, int64(21), dash.OfficerID)
	assert.Equal(t, int64(3), dash.TotalAssigned)
	assert.Equal(t, 1, dash.SLA.Total)
	assert.Equal(t, 1, dash.SLA.Active)
	require.Len(t, dash.RecentComplaints, 1)
	assert.Contains(t, dash.RecentComplaints[0].AllowedActions, workflow.ActionResolve)
}

func TestGetComplaintService_AssignedOfficerOnly(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	cm := complaintFixture(catalog.StatusAssigned)
	cm.AssignedOfficerID = ptr(int64(21))
	store.On("GetComplaint", mock.Anything, int64(100)).Return(cm, nil)

	vars := map[string]string{"id": "100"}
	assigned := claimsFor(21, catalog.RoleDepartmentOfficer, nil)
	w := httptest.NewRecorder()
	svc.GetComplaintService(w, newRequest(t, http.MethodGet, "/department/complaints/100", nil, &assigned, vars))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{workflow.ActionStart}, decodeBody[models.Complaint](t, w).AllowedActions)

	other := claimsFor(22, catalog.RoleDepartmentOfficer, nil)
	w = httptest.NewRecorder()
	svc.GetComplaintService(w, newRequest(t, http.MethodGet, "/department/complaints/100", nil, &other, vars))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

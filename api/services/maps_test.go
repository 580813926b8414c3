package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func located(cm *models.Complaint, id int64, lat, lng float64) models.Complaint {
	c := *cm
	c.ID = id
	c.Latitude = ptr(lat)
	c.Longitude = ptr(lng)
	return c
}

func mapFixtures() []models.Complaint {
	breached := located(complaintFixture(catalog.StatusSubmitted), 1, 12.97, 77.59)
	breached.CreatedAt = testNow.Add(-30 * time.Hour)
	deadline := breached.CreatedAt.Add(24 * time.Hour)
	breached.SLADeadline = &deadline

	return []models.Complaint{
		breached,
		located(complaintFixture(catalog.StatusInProgress), 2, 12.98, 77.60),
		located(complaintFixture(catalog.StatusClosed), 3, 12.99, 77.61),
		located(complaintFixture(catalog.StatusRejected), 4, 13.00, 77.62),
		*complaintFixture(catalog.StatusSubmitted),
	}
}

func TestMapMarkersService_Admin(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	store.On("ListComplaints", mock.Anything, mock.MatchedBy(func(f models.ComplaintFilter) bool {
		return f.WithLocation && f.CitizenID == nil && f.AssignedOfficerID == nil &&
			f.WardID != nil && *f.WardID == 2
	})).Return(models.NewPage(mapFixtures(), models.Pagination{Size: models.MaxPageSize}, 5), nil)

	c := claimsFor(1, catalog.RoleAdmin, nil)
	w := httptest.NewRecorder()
	svc.MapMarkersService(w, newRequest(t, http.MethodGet, "/admin/map/markers?wardId=2", nil, &c, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeBody[models.MapMarkers](t, w)
	require.Len(t, got.Complaints, 4)
	assert.Equal(t, 12.97, got.Complaints[0].Latitude)
	assert.Equal(t, sla.StatusBreached, got.Complaints[0].SLAStatus)
	assert.Equal(t, models.MapStatistics{Total: 4, Critical: 1, Active: 2, Resolved: 1}, got.Stats)
	store.AssertExpectations(t)
}

func TestMapMarkersService_RoleScope(t *testing.T) {
	ward := int64(3)
	tests := []struct {
		name  string
		role  string
		ward  *int64
		match func(f models.ComplaintFilter) bool
	}{
		{name: "citizen sees own", role: catalog.RoleCitizen, match: func(f models.ComplaintFilter) bool {
			return f.CitizenID != nil && *f.CitizenID == 9
		}},
		{name: "department officer sees assigned", role: catalog.RoleDepartmentOfficer, match: func(f models.ComplaintFilter) bool {
			return f.AssignedOfficerID != nil && *f.AssignedOfficerID == 9
		}},
		{name: "ward officer pinned to ward", role: catalog.RoleWardOfficer, ward: &ward, match: func(f models.ComplaintFilter) bool {
			return f.WardID != nil && *f.WardID == 3
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc, _ := newTestService(t, store)
			store.On("ListComplaints", mock.Anything, mock.MatchedBy(func(f models.ComplaintFilter) bool {
				return f.WithLocation && tt.match(f)
			})).Return(models.NewPage[models.Complaint](nil, models.Pagination{Size: models.MaxPageSize}, 0), nil)

			c := claimsFor(9, tt.role, tt.ward)
			w := httptest.NewRecorder()
			svc.MapMarkersService(w, newRequest(t, http.MethodGet, "/map/markers?wardId=8", nil, &c, nil))

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			got := decodeBody[models.MapMarkers](t, w)
			assert.Empty(t, got.Complaints)
			assert.NotNil(t, got.Complaints)
			store.AssertExpectations(t)
		})
	}
}

func TestMapMarkersService_WardOfficerWithoutWard(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	c := claimsFor(9, catalog.RoleWardOfficer, nil)
	w := httptest.NewRecorder()
	svc.MapMarkersService(w, newRequest(t, http.MethodGet, "/map/markers", nil, &c, nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	store.AssertNotCalled(t, "ListComplaints", mock.Anything, mock.Anything)
}

func TestMapStatisticsService(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)
	store.On("ListComplaints", mock.Anything, mock.Anything).
		Return(models.NewPage(mapFixtures(), models.Pagination{Size: models.MaxPageSize}, 5), nil)

	c := claimsFor(1, catalog.RoleAdmin, nil)
	w := httptest.NewRecorder()
	svc.MapStatisticsService(w, newRequest(t, http.MethodGet, "/map/statistics", nil, &c, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.MapStatistics{Total: 4, Critical: 1, Active: 2, Resolved: 1}, decodeBody[models.MapStatistics](t, w))
}

func TestMapMarkersService_InvalidStatus(t *testing.T) {
	store := new(MockStore)
	svc, _ := newTestService(t, store)

	c := claimsFor(1, catalog.RoleAdmin, nil)
	w := httptest.NewRecorder()
	svc.MapMarkersService(w, newRequest(t, http.MethodGet, "/map/markers?status=LOST", nil, &c, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

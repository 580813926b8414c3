package services

import (
	"net/http"

	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/internal/workflow"
	"github.com/civicconnect/civicconnect-services/models"
)

// MapMarkersService returns the located complaints the caller may see,
// with the counts shown alongside the map.
func (svc *Service) MapMarkersService(w http.ResponseWriter, r *http.Request) {
	markers, err := svc.mapMarkers(r)
	if err != nil {
		fail(w, r, err, "Failed to load map markers")
		return
	}
	WriteResponse(w, http.StatusOK, markers)
}

func (svc *Service) MapStatisticsService(w http.ResponseWriter, r *http.Request) {
	markers, err := svc.mapMarkers(r)
	if err != nil {
		fail(w, r, err, "Failed to load map statistics")
		return
	}
	WriteResponse(w, http.StatusOK, markers.Stats)
}

func (svc *Service) mapMarkers(r *http.Request) (models.MapMarkers, error) {
	claims, err := claimsFrom(r)
	if err != nil {
		return models.MapMarkers{}, err
	}
	f, err := complaintFilter(r)
	if err != nil {
		return models.MapMarkers{}, err
	}
	if err := scopeToCaller(&f, claims); err != nil {
		return models.MapMarkers{}, err
	}
	f.WithLocation = true

	list, err := svc.allComplaints(r.Context(), f)
	if err != nil {
		return models.MapMarkers{}, err
	}
	svc.decorateAll(list, claims.Role)

	out := models.MapMarkers{Complaints: make([]models.MapMarker, 0, len(list))}
	for _, cm := range list {
		if cm.Latitude == nil || cm.Longitude == nil {
			continue
		}
		m := models.MapMarker{
			ID:             cm.ID,
			Title:          cm.Title,
			Status:         cm.Status,
			Priority:       cm.Priority,
			WardID:         cm.WardID,
			WardName:       cm.WardName,
			DepartmentID:   cm.DepartmentID,
			DepartmentName: cm.DepartmentName,
			Location:       cm.Location,
			Latitude:       *cm.Latitude,
			Longitude:      *cm.Longitude,
			CreatedAt:      cm.CreatedAt,
		}
		if cm.SLA != nil {
			m.SLAStatus = cm.SLA.Status
		}
		out.Complaints = append(out.Complaints, m)
		countMarker(&out.Stats, m)
	}
	return out, nil
}

// scopeToCaller narrows f to the complaints the caller may see. A ward
// officer is pinned to their own ward whatever wardId asked for.
func scopeToCaller(f *models.ComplaintFilter, claims authn.Claims) error {
	uid := claims.UserID()
	switch claims.Role {
	case catalog.RoleAdmin:
	case catalog.RoleCitizen:
		f.CitizenID = &uid
	case catalog.RoleDepartmentOfficer:
		f.AssignedOfficerID = &uid
	case catalog.RoleWardOfficer:
		wardID, err := wardOf(claims)
		if err != nil {
			return err
		}
		f.WardID = &wardID
	default:
		return httpError(http.StatusForbidden, "role %s cannot view complaint locations", claims.Role)
	}
	return nil
}

func countMarker(st *models.MapStatistics, m models.MapMarker) {
	st.Total++
	switch {
	case m.Status == catalog.StatusResolved, m.Status == catalog.StatusApproved, m.Status == catalog.StatusClosed:
		st.Resolved++
	case workflow.Open(m.Status):
		st.Active++
		if m.SLAStatus == sla.StatusBreached {
			st.Critical++
		}
	}
}

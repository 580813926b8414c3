package handlers

import (
	"net/http"

	services "github.com/civicconnect/civicconnect-services/api/services"
)

// @Summary Complaint map markers
// @Description Located complaints visible to the caller, with map counts
// @Tags map
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param wardId query int false "Ward (admins only)"
// @Param departmentId query int false "Department"
// @Success 200 {object} models.MapMarkers
// @Failure 403 {object} models.ErrorResponse
// @Router /map/markers [get]
func MapMarkers(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.MapMarkersService(w, r)
	}
}

// @Summary Complaint map statistics
// @Tags map
// @Produce json
// @Success 200 {object} models.MapStatistics
// @Router /map/statistics [get]
func MapStatistics(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.MapStatisticsService(w, r)
	}
}

package handlers

import (
	"net/http"

	services "github.com/civicconnect/civicconnect-services/api/services"
)

// @Summary List wards
// @Tags reference
// @Produce json
// @Success 200 {array} models.Ward
// @Router /wards [get]
func ListWards(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ListWardsService(w, r)
	}
}

// @Summary Get a ward
// @Tags reference
// @Produce json
// @Param id path int true "Ward ID"
// @Success 200 {object} models.Ward
// @Failure 404 {object} models.ErrorResponse
// @Router /wards/{id} [get]
func GetWard(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.GetWardService(w, r)
	}
}

// @Summary List departments
// @Tags reference
// @Produce json
// @Success 200 {array} models.Department
// @Router /departments [get]
func ListDepartments(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ListDepartmentsService(w, r)
	}
}

// @Summary Display catalog
// @Description Status, department, ward, image stage and rating tables used by clients to label values.
// @Tags reference
// @Produce json
// @Router /catalog [get]
func Catalog(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CatalogService(w, r)
	}
}

// @Summary Service health
// @Tags reference
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func Health(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.HealthService(w, r)
	}
}

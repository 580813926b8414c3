package services

import (
	"context"
	"net/http"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog"
)

func (svc *Service) ListWardsService(w http.ResponseWriter, r *http.Request) {
	wards, err := svc.DB.ListWards(r.Context())
	if err != nil {
		fail(w, r, err, "Database error retrieving wards")
		return
	}
	WriteResponse(w, http.StatusOK, wards)
}

func (svc *Service) GetWardService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err, "Invalid ward id")
		return
	}
	ward, err := svc.DB.GetWard(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Database error retrieving ward")
		return
	}
	if ward == nil {
		fail(w, r, httpError(http.StatusNotFound, "ward %d not found", id), "Ward not found")
		return
	}
	WriteResponse(w, http.StatusOK, ward)
}

func (svc *Service) ListDepartmentsService(w http.ResponseWriter, r *http.Request) {
	depts, err := svc.DB.ListDepartments(r.Context())
	if err != nil {
		fail(w, r, err, "Database error retrieving departments")
		return
	}
	WriteResponse(w, http.StatusOK, depts)
}

type catalogResponse struct {
	Statuses          []catalog.Display        `json:"statuses"`
	Departments       []catalog.DepartmentInfo `json:"departments"`
	Wards             []catalog.WardInfo       `json:"wards"`
	ImageStages       []catalog.Display        `json:"imageStages"`
	NotificationTypes []catalog.Display        `json:"notificationTypes"`
	SLAStatuses       []catalog.Display        `json:"slaStatuses"`
	Ratings           []catalog.Rating         `json:"ratings"`
	DashboardRoutes   map[string]string        `json:"dashboardRoutes"`
}

// CatalogService serves the static display tables used by clients.
func (svc *Service) CatalogService(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, http.StatusOK, catalogResponse{
		Statuses:          catalog.Statuses,
		Departments:       catalog.Departments,
		Wards:             catalog.Wards,
		ImageStages:       catalog.ImageStages,
		NotificationTypes: catalog.NotificationTypes,
		SLAStatuses:       catalog.SLAStatuses,
		Ratings:           catalog.Ratings,
		DashboardRoutes:   catalog.RoleRoutes,
	})
}

// HealthService answers 503 when the database cannot be reached.
func (svc *Service) HealthService(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := svc.DB.Ping(ctx); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
		WriteResponse(w, http.StatusServiceUnavailable, models.HealthResponse{Status: "DOWN", Database: "DOWN"})
		return
	}
	WriteResponse(w, http.StatusOK, models.HealthResponse{Status: "UP", Database: "UP"})
}

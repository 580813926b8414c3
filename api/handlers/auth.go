package handlers

import (
	"net/http"

	services "github.com/civicconnect/civicconnect-services/api/services"
)

// @Summary Log in
// @Description Authenticate with an email address or mobile number and a password. Returns a bearer token and the dashboard route for the user's role.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/login [post]
func Login(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.LoginService(w, r)
	}
}

// @Summary Register a citizen
// @Tags auth citizens
// @Accept json
// @Produce json
// @Param body body models.CitizenRegistration true "Registration"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /citizens/register [post]
func RegisterCitizen(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.RegisterCitizenService(w, r)
	}
}

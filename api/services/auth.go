package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/validation"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = &HTTPError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}

// LoginService authenticates by email or mobile and issues a token.
func (svc *Service) LoginService(w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	var req models.LoginRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid login request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" && req.Mobile == "" {
		fail(w, r, httpError(http.StatusBadRequest, "email or mobile is required"), "Invalid login request")
		return
	}

	var user *models.User
	var err error
	if req.Email != "" {
		user, err = svc.DB.GetUserByEmail(r.Context(), req.Email)
	} else {
		user, err = svc.DB.GetUserByMobile(r.Context(), req.Mobile)
	}
	if err != nil {
		fail(w, r, err, "Database error retrieving user")
		return
	}

	// Same answer for unknown users and wrong passwords
	if user == nil || !checkPassword(user.PasswordHash, req.Password) {
		fail(w, r, errInvalidCredentials, "Login failed")
		return
	}

	if !user.Active {
		fail(w, r, httpError(http.StatusForbidden, "Account is deactivated, please contact the administrator"), "Login failed")
		return
	}

	token, expires, err := svc.Tokens.Issue(authn.Identity{
		UserID:       user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		WardID:       user.WardID,
		DepartmentID: user.DepartmentID,
	})
	if err != nil {
		fail(w, r, err, "Failed to issue token")
		return
	}

	logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("User logged in")
	WriteResponse(w, http.StatusOK, models.LoginResponse{
		Token:          token,
		TokenType:      "Bearer",
		ExpiresAt:      expires,
		UserID:         user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		WardID:         user.WardID,
		DepartmentID:   user.DepartmentID,
		DashboardRoute: catalog.RoleRoutes[user.Role],
	})
}

// RegisterCitizenService is the public sign up.
func (svc *Service) RegisterCitizenService(w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	var req models.CitizenRegistration
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid registration request")
		return
	}

	if err := svc.requireWard(r, req.WardID); err != nil {
		fail(w, r, err, "Invalid ward")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		fail(w, r, err, "Failed to hash password")
		return
	}

	user, err := svc.DB.CreateUser(r.Context(), &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Mobile:       req.Mobile,
		PasswordHash: hash,
		Role:         catalog.RoleCitizen,
		WardID:       &req.WardID,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		Pincode:      req.Pincode,
	}, 0, catalog.RoleCitizen)
	if err != nil {
		fail(w, r, registrationError(err), "Failed to register citizen")
		return
	}

	logger.Info().Int64("user_id", user.ID).Msg("Citizen registered")
	WriteResponse(w, http.StatusCreated, user)
}

// registerOfficer creates a ward or department officer on behalf of actor.
func (svc *Service) registerOfficer(r *http.Request, actor authn.Claims, role string, req models.OfficerRegistration) (*models.User, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	if err := svc.requireWard(r, req.WardID); err != nil {
		return nil, err
	}

	u := &models.User{
		Name:   strings.TrimSpace(req.Name),
		Email:  req.Email,
		Mobile: req.Mobile,
		Role:   role,
		WardID: &req.WardID,
	}

	if role == catalog.RoleDepartmentOfficer {
		if req.DepartmentID <= 0 {
			return nil, httpError(http.StatusBadRequest, "departmentId is required for department officers")
		}
		dept, err := svc.DB.GetDepartment(r.Context(), req.DepartmentID)
		if err != nil {
			return nil, err
		}
		if dept == nil {
			return nil, httpError(http.StatusBadRequest, "department %d does not exist", req.DepartmentID)
		}
		u.DepartmentID = &req.DepartmentID
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	created, err := svc.DB.CreateUser(r.Context(), u, actor.UserID(), actor.Role)
	if err != nil {
		return nil, registrationError(err)
	}
	return created, nil
}

func (svc *Service) requireWard(r *http.Request, wardID int64) error {
	ward, err := svc.DB.GetWard(r.Context(), wardID)
	if err != nil {
		return err
	}
	if ward == nil {
		return httpError(http.StatusBadRequest, "ward %d does not exist", wardID)
	}
	return nil
}

func registrationError(err error) error {
	if isConflictErr(err) {
		return httpError(http.StatusConflict, "Email or mobile number is already registered")
	}
	return err
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

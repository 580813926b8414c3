package handlers

import (
	"net/http"

	services "github.com/civicconnect/civicconnect-services/api/services"
)

// @Summary Get the caller's profile
// @Tags profile
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /profile [get]
func GetProfile(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.GetProfileService(w, r)
	}
}

// @Summary Update the caller's profile
// @Tags profile
// @Accept json
// @Produce json
// @Param body body models.UpdateProfileRequest true "Profile"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /profile [put]
func UpdateProfile(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.UpdateProfileService(w, r)
	}
}

// @Summary Update the caller's name
// @Tags profile
// @Accept json
// @Produce json
// @Param body body models.UpdateNameRequest true "Name"
// @Success 200 {object} models.User
// @Router /profile/name [put]
func UpdateName(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.UpdateNameService(w, r)
	}
}

// @Summary Update a citizen's address
// @Tags profile citizens
// @Accept json
// @Produce json
// @Param body body models.UpdateAddressRequest true "Address"
// @Success 200 {object} models.User
// @Router /profile/citizen/address [put]
func UpdateAddress(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.UpdateAddressService(w, r)
	}
}

// @Summary Change the caller's password
// @Tags profile
// @Accept json
// @Produce json
// @Param body body models.ChangePasswordRequest true "Passwords"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/password [put]
func ChangePassword(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ChangePasswordService(w, r)
	}
}

// @Summary Request a verification code for a new mobile number
// @Description The code is sent to the caller's email address and expires after a few minutes.
// @Tags profile
// @Accept json
// @Produce json
// @Param body body models.MobileOTPRequest true "New mobile"
// @Success 200 {object} models.OTPResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /profile/mobile/request-otp [post]
func RequestOTP(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.RequestOTPService(w, r)
	}
}

// @Summary Verify a mobile number change
// @Tags profile
// @Accept json
// @Produce json
// @Param body body models.VerifyOTPRequest true "Code"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/mobile/verify-otp [post]
func VerifyOTP(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.VerifyOTPService(w, r)
	}
}

// @Summary Profile completion score
// @Tags profile
// @Produce json
// @Success 200 {object} models.ProfileCompletionResponse
// @Router /profile/completion-score [get]
func CompletionScore(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CompletionScoreService(w, r)
	}
}

// @Summary Score a candidate password
// @Tags profile
// @Accept json
// @Produce json
// @Param body body models.PasswordStrengthRequest true "Password"
// @Success 200 {object} models.PasswordStrengthResponse
// @Router /profile/password-strength [post]
func PasswordStrength(svc *services.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.PasswordStrengthService(w, r)
	}
}

package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/events"
	"github.com/civicconnect/civicconnect-services/internal/mail"
	"github.com/civicconnect/civicconnect-services/internal/validation"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/rs/zerolog"
)

func (svc *Service) currentUser(ctx context.Context, r *http.Request) (*models.User, error) {
	claims, err := claimsFrom(r)
	if err != nil {
		return nil, err
	}
	user, err := svc.DB.GetUser(ctx, claims.UserID())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, httpError(http.StatusNotFound, "user not found")
	}
	if !user.Active {
		return nil, errInactive
	}
	return user, nil
}

func (svc *Service) GetProfileService(w http.ResponseWriter, r *http.Request) {
	user, err := svc.currentUser(r.Context(), r)
	if err != nil {
		fail(w, r, err, "Failed to retrieve profile")
		return
	}
	WriteResponse(w, http.StatusOK, user)
}

// UpdateProfileService applies the non-empty fields of the request.
func (svc *Service) UpdateProfileService(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid profile update")
		return
	}
	svc.updateProfile(w, r, func(u *models.User) {
		if req.Name != "" {
			u.Name = strings.TrimSpace(req.Name)
		}
		if req.AddressLine1 != "" {
			u.AddressLine1 = req.AddressLine1
		}
		if req.AddressLine2 != "" {
			u.AddressLine2 = req.AddressLine2
		}
		if req.City != "" {
			u.City = req.City
		}
		if req.Pincode != "" {
			u.Pincode = req.Pincode
		}
	})
}

func (svc *Service) UpdateNameService(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateNameRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid name update")
		return
	}
	svc.updateProfile(w, r, func(u *models.User) { u.Name = strings.TrimSpace(req.Name) })
}

func (svc *Service) UpdateAddressService(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateAddressRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid address update")
		return
	}
	svc.updateProfile(w, r, func(u *models.User) {
		u.AddressLine1 = req.AddressLine1
		u.AddressLine2 = req.AddressLine2
		u.City = req.City
		u.Pincode = req.Pincode
	})
}

func (svc *Service) updateProfile(w http.ResponseWriter, r *http.Request, apply func(u *models.User)) {
	user, err := svc.currentUser(r.Context(), r)
	if err != nil {
		fail(w, r, err, "Failed to retrieve profile")
		return
	}
	apply(user)

	updated, err := svc.DB.UpdateProfile(r.Context(), user)
	if err != nil {
		fail(w, r, err, "Failed to update profile")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("Profile updated")
	WriteResponse(w, http.StatusOK, updated)
}

func (svc *Service) ChangePasswordService(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid password change")
		return
	}

	user, err := svc.currentUser(r.Context(), r)
	if err != nil {
		fail(w, r, err, "Failed to retrieve profile")
		return
	}
	if !checkPassword(user.PasswordHash, req.CurrentPassword) {
		fail(w, r, httpError(http.StatusBadRequest, "Current password is incorrect"), "Password change rejected")
		return
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		fail(w, r, err, "Failed to hash password")
		return
	}
	if err := svc.DB.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		fail(w, r, err, "Failed to update password")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("Password changed")
	WriteResponse(w, http.StatusOK, models.MessageResponse{Message: "Password changed successfully"})
}

// RequestOTPService sends a verification code for a new mobile number.
func (svc *Service) RequestOTPService(w http.ResponseWriter, r *http.Request) {
	var req models.MobileOTPRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid OTP request")
		return
	}

	user, err := svc.currentUser(r.Context(), r)
	if err != nil {
		fail(w, r, err, "Failed to retrieve profile")
		return
	}
	if req.NewMobile == user.Mobile {
		fail(w, r, httpError(http.StatusBadRequest, "New mobile number must differ from the current one"), "Invalid OTP request")
		return
	}
	taken, err := svc.DB.GetUserByMobile(r.Context(), req.NewMobile)
	if err != nil {
		fail(w, r, err, "Database error checking mobile")
		return
	}
	if taken != nil {
		fail(w, r, httpError(http.StatusConflict, "Mobile number is already registered"), "Invalid OTP request")
		return
	}

	code, err := generateOTP(svc.Config.OTP.Length)
	if err != nil {
		fail(w, r, err, "Failed to generate verification code")
		return
	}
	hash, err := hashPassword(code)
	if err != nil {
		fail(w, r, err, "Failed to hash verification code")
		return
	}

	ttl := svc.Config.OTP.TTL.Duration
	expires := svc.now().Add(ttl)
	if err := svc.DB.UpsertOTPChallenge(r.Context(), &models.OTPChallenge{
		UserID:    user.ID,
		NewMobile: req.NewMobile,
		CodeHash:  hash,
		ExpiresAt: expires,
	}); err != nil {
		fail(w, r, err, "Failed to store verification code")
		return
	}

	if svc.Mailer != nil {
		msg := mail.OTPMessage(user.Email, user.Name, code, int(ttl/time.Minute))
		if err := svc.Mailer.Send(r.Context(), msg); err != nil {
			fail(w, r, fmt.Errorf("error sending verification code: %w", err), "Failed to send verification code")
			return
		}
	}

	event := events.NewComplaintEvent(events.TypeOTPIssued, 0)
	event.ActorID = user.ID
	svc.publish(r.Context(), event)

	zerolog.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("Verification code issued")
	WriteResponse(w, http.StatusOK, models.OTPResponse{
		Message:   "Verification code sent to your registered email",
		ExpiresAt: expires,
	})
}

// VerifyOTPService checks the code and switches the user's mobile number.
func (svc *Service) VerifyOTPService(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid OTP verification")
		return
	}

	claims, err := claimsFrom(r)
	if err != nil {
		fail(w, r, err, "Missing claims")
		return
	}
	userID := claims.UserID()

	maxAttempts := svc.Config.OTP.MaxAttempts
	ch, err := svc.DB.ClaimOTPAttempt(r.Context(), userID, maxAttempts, svc.now())
	if err != nil {
		fail(w, r, err, "Failed to read verification code")
		return
	}
	if ch == nil {
		svc.discardOTP(r.Context(), userID)
		fail(w, r, httpError(http.StatusBadRequest, "Invalid or expired verification code"), "Verification code missing, expired or exhausted")
		return
	}

	if ch.NewMobile != req.NewMobile || !checkPassword(ch.CodeHash, req.OTP) {
		if ch.Attempts >= maxAttempts {
			svc.discardOTP(r.Context(), userID)
			fail(w, r, httpError(http.StatusBadRequest, "Too many incorrect attempts, please request a new code"), "Verification code exhausted")
			return
		}
		fail(w, r, httpError(http.StatusBadRequest, "Incorrect verification code, %d attempt(s) left", maxAttempts-ch.Attempts), "Incorrect verification code")
		return
	}

	if err := svc.DB.ApplyVerifiedMobile(r.Context(), userID, req.NewMobile); err != nil {
		fail(w, r, registrationError(err), "Failed to update mobile")
		return
	}

	zerolog.Ctx(r.Context()).Info().Int64("user_id", userID).Msg("Mobile number verified")
	WriteResponse(w, http.StatusOK, models.MessageResponse{Message: "Mobile number updated successfully"})
}

func (svc *Service) discardOTP(ctx context.Context, userID int64) {
	if err := svc.DB.DeleteOTPChallenge(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Failed to delete verification code")
	}
}

func (svc *Service) CompletionScoreService(w http.ResponseWriter, r *http.Request) {
	user, err := svc.currentUser(r.Context(), r)
	if err != nil {
		fail(w, r, err, "Failed to retrieve profile")
		return
	}
	p := profileOf(user)
	WriteResponse(w, http.StatusOK, models.ProfileCompletionResponse{
		Score:   validation.ProfileCompletion(p, user.Role),
		Missing: validation.MissingProfileFields(p, user.Role),
	})
}

func (svc *Service) PasswordStrengthService(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordStrengthRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err, "Invalid password strength request")
		return
	}
	score := validation.PasswordStrength(req.Password)
	WriteResponse(w, http.StatusOK, models.PasswordStrengthResponse{Score: score, Label: validation.StrengthLabel(score)})
}

func profileOf(u *models.User) validation.Profile {
	return validation.Profile{
		Name:         u.Name,
		Email:        u.Email,
		Mobile:       u.Mobile,
		WardID:       u.WardID,
		DepartmentID: u.DepartmentID,
		AddressLine1: u.AddressLine1,
		City:         u.City,
		Pincode:      u.Pincode,
	}
}

// generateOTP returns n random decimal digits.
func generateOTP(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("error generating verification code: %w", err)
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

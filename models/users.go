package models

import "time"

// User represents an account of any role.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Mobile         string    `json:"mobile"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	WardID         *int64    `json:"wardId,omitempty"`
	WardName       string    `json:"wardName,omitempty"`
	DepartmentID   *int64    `json:"departmentId,omitempty"`
	DepartmentName string    `json:"departmentName,omitempty"`
	AddressLine1   string    `json:"addressLine1,omitempty"`
	AddressLine2   string    `json:"addressLine2,omitempty"`
	City           string    `json:"city,omitempty"`
	Pincode        string    `json:"pincode,omitempty"`
	Active         bool      `json:"active"`
	MobileVerified bool      `json:"mobileVerified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserFilter narrows the admin user list.
type UserFilter struct {
	Role   string
	WardID *int64
	Active *bool
	Query  string
	Pagination
}

// LoginRequest authenticates by email or mobile. One of them is required.
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Mobile   string `json:"mobile" validate:"omitempty,mobile"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginResponse struct {
	Token          string    `json:"token"`
	TokenType      string    `json:"tokenType"`
	ExpiresAt      time.Time `json:"expiresAt"`
	UserID         int64     `json:"userId"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	WardID         *int64    `json:"wardId,omitempty"`
	DepartmentID   *int64    `json:"departmentId,omitempty"`
	DashboardRoute string    `json:"dashboardRoute"`
}

// CitizenRegistration is the self-service sign up form.
type CitizenRegistration struct {
	Name            string `json:"name" validate:"required,min=2,max=50,personname"`
	Email           string `json:"email" validate:"required,email"`
	Mobile          string `json:"mobile" validate:"required,mobile"`
	Password        string `json:"password" validate:"required,min=8,max=72,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	WardID          int64  `json:"wardId" validate:"required,gte=1"`
	AddressLine1    string `json:"addressLine1" validate:"required,min=5"`
	AddressLine2    string `json:"addressLine2"`
	City            string `json:"city" validate:"required"`
	Pincode         string `json:"pincode" validate:"required,pincode"`
}

// OfficerRegistration is used by admins (and ward officers for department
// officers of their ward).
type OfficerRegistration struct {
	Name            string `json:"name" validate:"required,min=2,max=50,personname"`
	Email           string `json:"email" validate:"required,email"`
	Mobile          string `json:"mobile" validate:"required,mobile"`
	Password        string `json:"password" validate:"required,min=8,max=72,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	WardID          int64  `json:"wardId" validate:"required,gte=1"`
	DepartmentID    int64  `json:"departmentId"`
}

type UpdateProfileRequest struct {
	Name         string `json:"name" validate:"omitempty,min=2,max=50,personname"`
	AddressLine1 string `json:"addressLine1" validate:"omitempty,min=5"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	Pincode      string `json:"pincode" validate:"omitempty,pincode"`
}

type UpdateNameRequest struct {
	Name string `json:"name" validate:"required,min=2,max=50,personname"`
}

type UpdateAddressRequest struct {
	AddressLine1 string `json:"addressLine1" validate:"required,min=5"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city" validate:"required"`
	Pincode      string `json:"pincode" validate:"required,pincode"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,strongpassword,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type MobileOTPRequest struct {
	NewMobile string `json:"newMobile" validate:"required,mobile"`
}

type VerifyOTPRequest struct {
	NewMobile string `json:"newMobile" validate:"required,mobile"`
	OTP       string `json:"otp" validate:"required,otp"`
}

type OTPResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type PasswordStrengthRequest struct {
	Password string `json:"password"`
}

type PasswordStrengthResponse struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

type ProfileCompletionResponse struct {
	Score   int      `json:"score"`
	Missing []string `json:"missingFields"`
}

// OTPChallenge is a pending mobile number verification.
type OTPChallenge struct {
	ID        int64
	UserID    int64
	NewMobile string
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

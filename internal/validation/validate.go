// Package validation holds request validation rules and the derived profile
// and password scores shown to users.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	mobileRe     = regexp.MustCompile(`^[0-9]{10}$`)
	pincodeRe    = regexp.MustCompile(`^[0-9]{6}$`)
	personNameRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	otpRe        = regexp.MustCompile(`^[0-9]{4,8}$`)
	passwordSet  = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)
	allowedSpec  = regexp.MustCompile(`[@$!%*?&]`)
)

var (
	once     sync.Once
	instance *validator.Validate
)

// FieldErrors maps JSON field names to a human readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for k, v := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		mustRegister(v, "mobile", func(fl validator.FieldLevel) bool { return IsMobile(fl.Field().String()) })
		mustRegister(v, "pincode", func(fl validator.FieldLevel) bool { return IsPincode(fl.Field().String()) })
		mustRegister(v, "personname", func(fl validator.FieldLevel) bool { return personNameRe.MatchString(fl.Field().String()) })
		mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool { return IsStrongPassword(fl.Field().String()) })
		mustRegister(v, "otp", func(fl validator.FieldLevel) bool { return otpRe.MatchString(fl.Field().String()) })
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("registering validation %q: %v", tag, err))
	}
}

// Validate checks s against its `validate` tags. It returns FieldErrors when
// any rule fails.
func Validate(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email address"
	case "mobile":
		return "Mobile number must be exactly 10 digits"
	case "pincode":
		return "Pincode must be 6 digits"
	case "personname":
		return "Name can only contain letters and spaces"
	case "strongpassword":
		return "Password must contain uppercase, lowercase, number, and special character"
	case "eqfield":
		return "Passwords must match"
	case "otp":
		return "OTP must be numeric"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "gte", "lte", "oneof":
		return fmt.Sprintf("%s has an invalid value", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}

func IsMobile(s string) bool {
	return mobileRe.MatchString(s)
}

func IsPincode(s string) bool {
	return pincodeRe.MatchString(s)
}

// IsStrongPassword requires lower and upper case letters, a digit and one of
// @$!%*?&, drawn only from that character set.
func IsStrongPassword(s string) bool {
	return passwordSet.MatchString(s) &&
		lowerRe.MatchString(s) &&
		upperRe.MatchString(s) &&
		digitRe.MatchString(s) &&
		allowedSpec.MatchString(s)
}

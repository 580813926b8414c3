package validation

import (
	"regexp"

	"github.com/civicconnect/civicconnect-services/internal/catalog"
)

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// PasswordStrength scores a password in [0,100]. Each satisfied rule adds a
// fixed number of points.
func PasswordStrength(password string) int {
	score := 0
	if len(password) >= 8 {
		score += 25
	}
	if len(password) >= 12 {
		score += 25
	}
	if lowerRe.MatchString(password) && upperRe.MatchString(password) {
		score += 25
	}
	if digitRe.MatchString(password) {
		score += 15
	}
	if specialRe.MatchString(password) {
		score += 10
	}
	return clamp(score)
}

// StrengthLabel buckets a strength score.
func StrengthLabel(score int) string {
	switch {
	case score < 40:
		return "Weak"
	case score < 70:
		return "Medium"
	default:
		return "Strong"
	}
}

// Profile is the subset of a user tracked for completion.
type Profile struct {
	Name         string
	Email        string
	Mobile       string
	WardID       *int64
	DepartmentID *int64
	AddressLine1 string
	City         string
	Pincode      string
}

type field struct {
	weight int
	filled func(p Profile) bool
}

func hasName(p Profile) bool   { return p.Name != "" }
func hasEmail(p Profile) bool  { return p.Email != "" }
func hasMobile(p Profile) bool { return p.Mobile != "" }
func hasWard(p Profile) bool   { return p.WardID != nil && *p.WardID > 0 }
func hasDept(p Profile) bool   { return p.DepartmentID != nil && *p.DepartmentID > 0 }

var completionFields = map[string][]field{
	catalog.RoleCitizen: {
		{20, hasName},
		{20, hasEmail},
		{20, hasMobile},
		{15, hasWard},
		{15, func(p Profile) bool { return p.AddressLine1 != "" }},
		{5, func(p Profile) bool { return p.City != "" }},
		{5, func(p Profile) bool { return p.Pincode != "" }},
	},
	catalog.RoleWardOfficer: {
		{25, hasName},
		{25, hasEmail},
		{25, hasMobile},
		{25, hasWard},
	},
	catalog.RoleDepartmentOfficer: {
		{20, hasName},
		{20, hasEmail},
		{20, hasMobile},
		{20, hasWard},
		{20, hasDept},
	},
	catalog.RoleAdmin: {
		{34, hasName},
		{33, hasEmail},
		{33, hasMobile},
	},
}

// ProfileCompletion returns the weighted share of tracked fields populated for
// role, in [0,100]. Unknown roles score 0.
func ProfileCompletion(p Profile, role string) int {
	score := 0
	for _, f := range completionFields[role] {
		if f.filled(p) {
			score += f.weight
		}
	}
	return clamp(score)
}

// MissingProfileFields names the tracked fields still empty for role.
func MissingProfileFields(p Profile, role string) []string {
	names := map[string][]string{
		catalog.RoleCitizen:           {"name", "email", "mobile", "wardId", "addressLine1", "city", "pincode"},
		catalog.RoleWardOfficer:       {"name", "email", "mobile", "wardId"},
		catalog.RoleDepartmentOfficer: {"name", "email", "mobile", "wardId", "departmentId"},
		catalog.RoleAdmin:             {"name", "email", "mobile"},
	}
	missing := []string{}
	for i, f := range completionFields[role] {
		if !f.filled(p) {
			missing = append(missing, names[role][i])
		}
	}
	return missing
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Package authn issues and verifies the bearer tokens used by the API.
package authn

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

var ErrInvalidJWT = errors.New("invalid jwt token")
var ErrInvalidClaims = errors.New("invalid claims")
var ErrExpiredJWT = errors.New("jwt token expired")

// Claims are the token claims. Subject holds the user id.
type Claims struct {
	jwt.StandardClaims
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	WardID       *int64 `json:"wardId,omitempty"`
	DepartmentID *int64 `json:"departmentId,omitempty"`
}

// UserID returns the numeric subject, or 0 if the subject is not a number.
func (c Claims) UserID() int64 {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// HasRole reports whether the claims carry one of roles.
func (c Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// Identity is the user data written into a token.
type Identity struct {
	UserID       int64
	Name         string
	Email        string
	Role         string
	WardID       *int64
	DepartmentID *int64
}

// Verifier parses a bearer token into claims.
type Verifier interface {
	Parse(token string) (Claims, error)
}

// TokenIssuer signs and verifies HS256 tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for id and its expiry.
func (t *TokenIssuer) Issue(id Identity) (string, time.Time, error) {
	now := t.now().UTC()
	expires := now.Add(t.ttl)

	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   strconv.FormatInt(id.UserID, 10),
			Issuer:    t.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: expires.Unix(),
		},
		Name:         id.Name,
		Email:        id.Email,
		Role:         id.Role,
		WardID:       id.WardID,
		DepartmentID: id.DepartmentID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error signing token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies the signature and expiry of token and returns its claims.
func (t *TokenIssuer) Parse(token string) (Claims, error) {
	claims := Claims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return claims, ErrExpiredJWT
		}
		return claims, ErrInvalidJWT
	}
	if !parsed.Valid || claims.Subject == "" || claims.Role == "" {
		return claims, ErrInvalidClaims
	}
	if t.issuer != "" && claims.Issuer != t.issuer {
		return claims, ErrInvalidClaims
	}
	return claims, nil
}

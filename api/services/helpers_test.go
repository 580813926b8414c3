package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/civicconnect/civicconnect-services/api/middleware"
	"github.com/civicconnect/civicconnect-services/internal/appconfig"
	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/civicconnect/civicconnect-services/internal/catalog"
	"github.com/civicconnect/civicconnect-services/internal/sla"
	"github.com/civicconnect/civicconnect-services/models"
	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store *MockStore) (*Service, *MockPublisher) {
	t.Helper()
	cfg, err := appconfig.Parse(nil)
	require.NoError(t, err)

	issuer, err := authn.NewTokenIssuer("test-secret", cfg.Auth.Issuer, time.Hour)
	require.NoError(t, err)

	pub := &MockPublisher{}
	return &Service{
		Config:    cfg,
		DB:        store,
		Publisher: pub,
		Tokens:    issuer,
		SLA:       sla.NewCalculator(cfg.SLA.WarningPercent),
		Now:       func() time.Time { return testNow },
	}, pub
}

func claimsFor(userID int64, role string, wardID *int64) authn.Claims {
	return authn.Claims{
		StandardClaims: jwt.StandardClaims{Subject: strconv.FormatInt(userID, 10)},
		Role:           role,
		WardID:         wardID,
	}
}

// newRequest builds a request with an optional JSON body, claims and path
// variables.
func newRequest(t *testing.T, method, target string, body interface{}, claims *authn.Claims, vars map[string]string) *http.Request {
	t.Helper()
	var r *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, target, bytes.NewReader(payload))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if claims != nil {
		r = r.WithContext(context.WithValue(r.Context(), middleware.ClaimsKey, *claims))
	}
	if vars != nil {
		r = mux.SetURLVars(r, vars)
	}
	return r
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func complaintFixture(status string) *models.Complaint {
	created := testNow.Add(-10 * time.Hour)
	deadline := created.Add(24 * time.Hour)
	return &models.Complaint{
		ID:           100,
		Title:        "Broken water pipe",
		Description:  "Water has been leaking near the school gate",
		Status:       status,
		Priority:     "HIGH",
		WardID:       1,
		DepartmentID: 1,
		CitizenID:    7,
		SLAHours:     24,
		SLADeadline:  &deadline,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func withStatus(cm *models.Complaint, status string) *models.Complaint {
	c := *cm
	c.Status = status
	return &c
}

func citizenFixture() *models.User {
	ward := int64(1)
	return &models.User{
		ID:     7,
		Name:   "Asha Rao",
		Email:  "asha@example.com",
		Mobile: "9876543210",
		Role:   catalog.RoleCitizen,
		WardID: &ward,
		Active: true,
	}
}

func withClaimsCtx(r *http.Request, claims authn.Claims) context.Context {
	return context.WithValue(r.Context(), middleware.ClaimsKey, claims)
}

func muxVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T) *authn.TokenIssuer {
	issuer, err := authn.NewTokenIssuer("secret", "civicconnect", time.Hour)
	require.NoError(t, err)
	return issuer
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["message"]
}

func TestJWTMiddleware_ValidToken_ClaimsPopulated(t *testing.T) {
	issuer := newIssuer(t)
	token, _, err := issuer.Issue(authn.Identity{UserID: 9, Role: "CITIZEN", Email: "a@b.c"})
	require.NoError(t, err)

	var got authn.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		require.True(t, ok)
		got = claims
		assert.Equal(t, token, r.Context().Value(TokenKey))
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Add("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	JWTMiddleware(issuer)(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(9), got.UserID())
	assert.Equal(t, "CITIZEN", got.Role)
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be reached")
	})

	tests := []struct {
		name   string
		header string
		msg    string
	}{
		{"missing header", "", "authorization header missing"},
		{"not bearer", "Basic abc", "invalid token format"},
		{"invalid token", "Bearer invalid-token", "invalid bearer jwt token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.header != "" {
				req.Header.Add("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			JWTMiddleware(newIssuer(t))(next).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.msg, decodeMessage(t, w))
		})
	}
}

func TestRequireRoles(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequireRoles("ADMIN", "WARD_OFFICER")(next)

	tests := []struct {
		name   string
		claims *authn.Claims
		code   int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"citizen", &authn.Claims{Role: "CITIZEN"}, http.StatusForbidden},
		{"ward officer", &authn.Claims{Role: "WARD_OFFICER"}, http.StatusOK},
		{"admin", &authn.Claims{Role: "ADMIN"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.claims != nil {
				req = req.WithContext(context.WithValue(req.Context(), ClaimsKey, *tt.claims))
			}
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

type activeStub map[int64]bool

func (a activeStub) UserActive(ctx context.Context, userID int64) (bool, error) {
	if userID < 0 {
		return false, errors.New("connection refused")
	}
	return a[userID], nil
}

func TestRequireActive(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequireActive(activeStub{1: true, 2: false})(next)

	tests := []struct {
		name    string
		subject string
		code    int
		msg     string
	}{
		{"active", "1", http.StatusOK, ""},
		{"deactivated", "2", http.StatusForbidden, "account is deactivated"},
		{"removed", "3", http.StatusForbidden, "account is deactivated"},
		{"lookup error", "-1", http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := authn.Claims{Role: "CITIZEN"}
			claims.Subject = tt.subject
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			req = req.WithContext(context.WithValue(req.Context(), ClaimsKey, claims))
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, decodeMessage(t, w))
			}
		})
	}

	w := httptest.NewRecorder()
	mw.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWithLogger_SetsRequestID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	w := httptest.NewRecorder()
	WithLogger(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	WithLogger(next).ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })
	mw := CORS([]string{"http://localhost:5173"})(next)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, reached)

	req = httptest.NewRequest(http.MethodGet, "/wards", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	mw.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, reached)
}

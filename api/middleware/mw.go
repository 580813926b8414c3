package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/civicconnect/civicconnect-services/internal/authn"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string
type tokenKey string

const ClaimsKey contextKey = "claims"
const TokenKey tokenKey = "token"

const requestIDHeader = "X-Request-ID"

// JWTMiddleware verifies the bearer token and adds claims to the request context.
func JWTMiddleware(verifier authn.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				logger := zerolog.Ctx(r.Context()).With().
					Str("handler", "JWTMiddleware").Logger()

				authHeader := r.Header.Get("Authorization")
				if authHeader == "" {
					logger.Debug().Msg("authorization header missing")
					writeError(w, http.StatusUnauthorized, "authorization header missing")
					return
				}

				token := strings.TrimPrefix(authHeader, "Bearer ")
				if token == authHeader {
					logger.Error().Msg("invalid token format")
					writeError(w, http.StatusUnauthorized, "invalid token format")
					return
				}

				claims, err := verifier.Parse(token)
				if err != nil {
					logger.Warn().Err(err).Msg("invalid bearer jwt token")
					msg := "invalid bearer jwt token"
					if errors.Is(err, authn.ErrExpiredJWT) {
						msg = "session expired, please log in again"
					}
					writeError(w, http.StatusUnauthorized, msg)
					return
				}

				ctx := context.WithValue(r.Context(), TokenKey, token)
				ctx = context.WithValue(ctx, ClaimsKey, claims)

				l := zerolog.Ctx(ctx).With().Int64("user_id", claims.UserID()).Str("role", claims.Role).Logger()
				ctx = l.WithContext(ctx)

				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}

// RequireRoles rejects requests whose claims carry none of roles.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				claims, ok := ClaimsFrom(r.Context())
				if !ok {
					writeError(w, http.StatusUnauthorized, "authentication required")
					return
				}
				if !claims.HasRole(roles...) {
					zerolog.Ctx(r.Context()).Warn().Str("role", claims.Role).
						Strs("required", roles).Msg("role not permitted")
					writeError(w, http.StatusForbidden, "you do not have permission to access this resource")
					return
				}
				next.ServeHTTP(w, r)
			},
		)
	}
}

// ActiveChecker reports whether an account may still use the API.
type ActiveChecker interface {
	UserActive(ctx context.Context, userID int64) (bool, error)
}

// RequireActive rejects tokens of accounts that have been deactivated or
// removed since the token was issued. It must run after JWTMiddleware.
func RequireActive(checker ActiveChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				logger := zerolog.Ctx(r.Context())

				claims, ok := ClaimsFrom(r.Context())
				if !ok {
					writeError(w, http.StatusUnauthorized, "authentication required")
					return
				}

				active, err := checker.UserActive(r.Context(), claims.UserID())
				if err != nil {
					logger.Error().Err(err).Msg("Failed to check account status")
					writeError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				if !active {
					logger.Warn().Msg("request from deactivated account")
					writeError(w, http.StatusForbidden, "account is deactivated")
					return
				}
				next.ServeHTTP(w, r)
			},
		)
	}
}

// ClaimsFrom returns the claims placed in ctx by JWTMiddleware.
func ClaimsFrom(ctx context.Context) (authn.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(authn.Claims)
	return claims, ok
}

// WithLogger adds a logger to the context and logs request information.
func WithLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			logger := log.With().
				Str("host", r.Host).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("remote_addr", r.RemoteAddr).
				Str("request_id", requestID).
				Time("timestamp", time.Now()).
				Logger()

			ctx := logger.WithContext(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}

// CORS answers preflight requests and sets CORS headers for allowed origins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				origin := r.Header.Get("Origin")
				if origin != "" && (allowed[origin] || allowed["*"]) {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+requestIDHeader)
					h.Set("Access-Control-Expose-Headers", "Content-Disposition, "+requestIDHeader)
					h.Add("Vary", "Origin")
				}

				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
			},
		)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

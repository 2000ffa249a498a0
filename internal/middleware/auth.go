package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nutritrack/nutritrack-go/internal/crypto"
	"github.com/nutritrack/nutritrack-go/internal/service"
)

type contextKey string

const principalKey contextKey = "principal"

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*crypto.Claims, error)
}

// JWTAuth returns middleware that validates a Bearer token from the Authorization header.
func JWTAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized", "missing authorization header")
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized", "invalid authorization format")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized", tokenErrorMessage(err))
				return
			}

			p := service.Principal{UserID: claims.UserID, Email: claims.Email}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, crypto.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, crypto.ErrTokenSignatureInvalid):
		return "invalid token signature"
	case errors.Is(err, crypto.ErrTokenMalformed):
		return "malformed token"
	default:
		return "invalid token"
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p service.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the authenticated principal from the request context.
func PrincipalFromContext(ctx context.Context) (service.Principal, bool) {
	p, ok := ctx.Value(principalKey).(service.Principal)
	return p, ok
}

func writeJSONError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": msg})
}

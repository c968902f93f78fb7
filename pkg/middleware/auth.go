package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/catalogadmin/pkg/logger"
)

type contextKeyType string

const (
	adminIDKey contextKeyType = "admin_id"
	roleKey    contextKeyType = "role"
)

// Claims are the identity fields the dashboard reads from a bearer token.
type Claims struct {
	AdminID string `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// TokenValidator validates a raw token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

var errMissingSubject = errors.New("token has no subject")

// HMACValidator validates HS256 tokens signed with secret. Tokens must carry
// an expiry; the admin id is read from "user_id" and falls back to "sub".
func HMACValidator(secret string) TokenValidator {
	key := []byte(secret)
	return func(tokenString string) (*Claims, error) {
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			return key, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil {
			return nil, err
		}

		mc, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, jwt.ErrTokenInvalidClaims
		}

		claims := &Claims{}
		claims.AdminID, _ = mc["user_id"].(string)
		if claims.AdminID == "" {
			claims.AdminID, _ = mc["sub"].(string)
		}
		if claims.AdminID == "" {
			return nil, errMissingSubject
		}
		claims.Email, _ = mc["email"].(string)
		claims.Role, _ = mc["role"].(string)
		return claims, nil
	}
}

// Auth validates the bearer token and stores the admin id and role in context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
				return
			}

			claims, err := validate(parts[1])
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), adminIDKey, claims.AdminID)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			ctx = logger.WithAdminID(ctx, claims.AdminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose role is not in roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := roleSet[RoleFromContext(r.Context())]; !ok {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminIDFromContext returns the authenticated admin id.
func AdminIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(adminIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext returns the authenticated role.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

// WithAdmin returns ctx carrying an authenticated admin. Handler tests use it
// to bypass token parsing.
func WithAdmin(ctx context.Context, adminID, role string) context.Context {
	ctx = context.WithValue(ctx, adminIDKey, adminID)
	return context.WithValue(ctx, roleKey, role)
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]map[string]string{
		"error": {"code": code, "message": message},
	})
}

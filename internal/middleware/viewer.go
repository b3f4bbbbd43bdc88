// Package middleware provides the HTTP middleware stack: request ids,
// viewer authentication, and rate limiting.
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// AdminContextHeader marks a request as coming from an administrative
// surface; write-access semantics apply instead of read-access ones.
const AdminContextHeader = "X-Admin-Context"

// Viewer authenticates the request into a domain.Viewer and stores it in the
// context. A Bearer token signed with the HS256 secret yields a logged-in
// viewer; no token yields the anonymous viewer. An invalid token is a 401,
// never a silent downgrade to anonymous.
func Viewer(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := domain.Viewer{
				IP:           ClientIP(r),
				AdminContext: strings.EqualFold(r.Header.Get(AdminContextHeader), "true"),
			}

			if auth := r.Header.Get("Authorization"); auth != "" {
				tokenStr, ok := strings.CutPrefix(auth, "Bearer ")
				if !ok {
					writeUnauthorized(w, "authorization header must be a Bearer token")
					return
				}
				claims, err := parseViewerClaims(tokenStr, jwtSecret)
				if err != nil {
					writeUnauthorized(w, err.Error())
					return
				}
				viewer.UserID = claims.userID
				viewer.Roles = claims.roles
				viewer.Capabilities = claims.capabilities
				viewer.SuperAdmin = claims.superAdmin
			}

			next.ServeHTTP(w, r.WithContext(domain.WithViewer(r.Context(), viewer)))
		})
	}
}

type viewerClaims struct {
	userID       string
	roles        []string
	capabilities []string
	superAdmin   bool
}

func parseViewerClaims(tokenStr string, secret []byte) (*viewerClaims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}

	claims := &viewerClaims{}
	sub, _ := raw["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	claims.userID = sub
	claims.roles = stringClaim(raw["roles"])
	claims.capabilities = stringClaim(raw["caps"])
	claims.superAdmin, _ = raw["super_admin"].(bool)
	return claims, nil
}

func stringClaim(v any) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    401,
		"message": message,
	})
}

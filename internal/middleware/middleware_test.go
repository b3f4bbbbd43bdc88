package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, got)
	assert.Equal(t, got, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", got, "incoming id is reused")
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestViewerFromToken(t *testing.T) {
	var viewer domain.Viewer
	h := Viewer([]byte("secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, _ = domain.ViewerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:44832"
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", jwt.MapClaims{
		"sub":         "42",
		"roles":       []any{"editor"},
		"caps":        []any{"edit_posts"},
		"super_admin": true,
	}))
	req.Header.Set(AdminContextHeader, "true")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", viewer.UserID)
	assert.Equal(t, []string{"editor"}, viewer.Roles)
	assert.Equal(t, []string{"edit_posts"}, viewer.Capabilities)
	assert.True(t, viewer.SuperAdmin)
	assert.True(t, viewer.AdminContext)
	assert.Equal(t, "10.0.0.5", viewer.IP)
}

func TestViewerAnonymousWithoutToken(t *testing.T) {
	var viewer domain.Viewer
	h := Viewer([]byte("secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, _ = domain.ViewerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.7:55000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, viewer.LoggedIn())
	assert.Equal(t, "192.168.1.7", viewer.IP)
}

func TestViewerRejectsBadToken(t *testing.T) {
	h := Viewer([]byte("secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for name, header := range map[string]string{
		"wrong secret": "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": "42"}),
		"no subject":   "Bearer " + signToken(t, "secret", jwt.MapClaims{"roles": []any{"editor"}}),
		"not bearer":   "Basic dXNlcjpwYXNz",
		"garbage":      "Bearer not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	h := RateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1000"), "burst exhausted")
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"), "limits are per client")
}

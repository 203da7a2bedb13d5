package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/mirontsev/gamekeys-backend/pkg/auth"
	"github.com/mirontsev/gamekeys-backend/pkg/config"
	"github.com/mirontsev/gamekeys-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "gamekeys",
		ExpirationMinutes: 30,
		CookieName:        "token",
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID int64, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Email:  "user@example.com",
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	cfg := testJWTConfig()
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	cfg := testJWTConfig()
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthSeedsContextFromBearerToken(t *testing.T) {
	cfg := testJWTConfig()
	var gotUserID int64
	var gotRole string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, cfg, 42, enums.UserRoleCustomer))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 42, gotUserID)
	assert.Equal(t, "customer", gotRole)
}

func TestAuthAcceptsSessionCookie(t *testing.T) {
	cfg := testJWTConfig()
	var gotUserID int64
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: mintTestToken(t, cfg, 7, enums.UserRoleAdmin)})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, gotUserID)
}

func TestRequireRoleForbidsOthers(t *testing.T) {
	handler := RequireRole("admin", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req = req.WithContext(WithRole(req.Context(), "customer"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req = req.WithContext(WithRole(req.Context(), "admin"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

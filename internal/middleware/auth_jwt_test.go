package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop/internal/config"
	"shop/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func doRequest(authz string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	h := func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	_ = h(c)
	if captured != nil {
		c = captured
	}
	return rec, c
}

func TestAuthJWT_ValidToken(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  int64(7),
		"role": "user",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, c := doRequest("Bearer "+token, middleware.AuthJWT(cfg))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), c.Get(middleware.CtxUserIDKey))
	assert.Equal(t, "user", c.Get(middleware.CtxUserRoleKey))
}

func TestAuthJWT_RejectsMissingAndMalformedHeader(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	for _, authz := range []string{"", "Token abc", "Bearer "} {
		rec, _ := doRequest(authz, middleware.AuthJWT(cfg))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "authz=%q", authz)
	}
}

func TestAuthJWT_RejectsWrongSecret(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, "other-secret", jwt.MapClaims{
		"sub":  int64(7),
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := doRequest("Bearer "+token, middleware.AuthJWT(cfg))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_RejectsExpiredToken(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  int64(7),
		"role": "user",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	rec, _ := doRequest("Bearer "+token, middleware.AuthJWT(cfg))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleGuard(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	adminToken := signToken(t, testSecret, jwt.MapClaims{
		"sub":  int64(1),
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	userToken := signToken(t, testSecret, jwt.MapClaims{
		"sub":  int64(2),
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := doRequest("Bearer "+adminToken, middleware.AuthJWT(cfg), middleware.AdminRoleGuard())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doRequest("Bearer "+userToken, middleware.AuthJWT(cfg), middleware.AdminRoleGuard())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

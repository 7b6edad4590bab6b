package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	seen   string
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.seen = token
	return s.claims, s.err
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	router.Any("/items/:id", handlers...)
	return router
}

func serve(router *gin.Engine, method, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/items/42", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTMissingHeader(t *testing.T) {
	rec := serve(newRouter(JWT(&stubValidator{})), http.MethodGet, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMalformedHeader(t *testing.T) {
	validator := &stubValidator{}
	rec := serve(newRouter(JWT(validator)), http.MethodGet, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, validator.seen)
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	validator := &stubValidator{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}
	rec := serve(newRouter(JWT(validator)), http.MethodGet, "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "bad", validator.seen)
}

func TestJWTStoresClaims(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1"}}
	var stored *models.JWTClaims
	rec := serve(newRouter(JWT(validator), func(c *gin.Context) {
		stored, _ = Claims(c)
	}), http.MethodGet, "bearer good")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stored)
	assert.Equal(t, "u1", stored.UserID)
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func TestRequireAdmin(t *testing.T) {
	cases := map[string]struct {
		claims *models.JWTClaims
		status int
	}{
		"admin":     {&models.JWTClaims{UserID: "a", IsAdmin: true}, http.StatusOK},
		"student":   {&models.JWTClaims{UserID: "s"}, http.StatusForbidden},
		"anonymous": {nil, http.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(newRouter(withClaims(tc.claims), RequireAdmin()), http.MethodPost, "")
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireStudentRejectsAdmin(t *testing.T) {
	rec := serve(newRouter(withClaims(&models.JWTClaims{UserID: "a", IsAdmin: true}), RequireStudent()), http.MethodPost, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(newRouter(withClaims(&models.JWTClaims{UserID: "s"}), RequireStudent()), http.MethodPost, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPerUserRateLimitIsPerUser(t *testing.T) {
	limit := PerUserRateLimit(0.001, 2)
	alice := newRouter(withClaims(&models.JWTClaims{UserID: "alice"}), limit)
	bob := newRouter(withClaims(&models.JWTClaims{UserID: "bob"}), limit)

	assert.Equal(t, http.StatusOK, serve(alice, http.MethodPost, "").Code)
	assert.Equal(t, http.StatusOK, serve(alice, http.MethodPost, "").Code)

	rec := serve(alice, http.MethodPost, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, serve(bob, http.MethodPost, "").Code)
}

func TestPerUserRateLimitDisabled(t *testing.T) {
	router := newRouter(PerUserRateLimit(0, 0))
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "").Code)
	}
}

func TestLimiterCacheReusesLimiter(t *testing.T) {
	cache := newLimiterCache[string](1, 1)
	assert.Same(t, cache.get("k"), cache.get("k"))
	assert.NotSame(t, cache.get("k"), cache.get("other"))
}

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := newRouter(withClaims(&models.JWTClaims{UserID: "admin-1"}), Audit(zap.New(core), "announcements"))

	serve(router, http.MethodGet, "")
	serve(router, http.MethodDelete, "")

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "announcements", fields["resource"])
	assert.Equal(t, "DELETE", fields["method"])
	assert.Equal(t, "42", fields["resource_id"])
	assert.Equal(t, "admin-1", fields["actor_id"])
}

func TestAuditSkipsFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/items/:id", Audit(zap.New(core), "polls"), func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusBadRequest)
	})

	serve(router, http.MethodPost, "")

	assert.Zero(t, logs.Len())
}

func TestResponseMetaCacheHit(t *testing.T) {
	var meta map[string]interface{}
	router := newRouter(WithResponseMeta(), func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
	})

	serve(router, http.MethodGet, "")

	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestSetCacheHitWritesHeader(t *testing.T) {
	rec := serve(newRouter(func(c *gin.Context) { SetCacheHit(c, false) }), http.MethodGet, "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

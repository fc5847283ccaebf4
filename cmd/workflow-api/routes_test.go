package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-request-workflow/internal/handler"
	"github.com/noah-isme/sma-request-workflow/internal/models"
	"github.com/noah-isme/sma-request-workflow/internal/service"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService(nil)
	return newRouter(routerDeps{
		apiPrefix:      "/api/v1",
		requestTimeout: time.Second,
		logger:         zap.NewNop(),
		metrics:        metrics,
		identity:       service.NewIdentityService("secret"),
		exams:          handler.NewExamRequestHandler(nil),
		lessons:        handler.NewLessonRequestHandler(nil),
		probes:         handler.NewMetricsHandler(metrics, nil),
	})
}

func bearer(t *testing.T, role models.UserRole) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.JWTClaims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterProbes(t *testing.T) {
	r := testRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouterGuardsWorkflowRoutes(t *testing.T) {
	r := testRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exam-requests", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cases := []struct {
		method string
		path   string
		role   models.UserRole
	}{
		{http.MethodPatch, "/api/v1/exam-requests/abc", models.RoleStudent},
		{http.MethodPatch, "/api/v1/lesson-requests/abc", models.RoleStudent},
		{http.MethodPost, "/api/v1/exam-requests", models.RoleInstructor},
		{http.MethodPost, "/api/v1/lesson-requests", models.RoleAdmin},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", bearer(t, tc.role))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s as %s", tc.method, tc.path, tc.role)
	}
}

package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/tuition-match-api/internal/service"
	"github.com/noah-isme/tuition-match-api/pkg/config"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

type staticTokens map[string]*models.JWTClaims

func (s staticTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func testEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(Dependencies{
		Config: &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1"},
		Auth: staticTokens{
			"tutor": {UserID: "t1", Role: models.RoleTutor},
			"admin": {UserID: "a1", Role: models.RoleAdmin},
		},
		Metrics: service.NewMetricsService(),
	})
}

func do(r http.Handler, method, path, token, body string) int {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRoutesEnforceAuthentication(t *testing.T) {
	r := testEngine()

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "", ""))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/metrics", "", ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/tutor-requests", "", ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/v1/tuition-jobs/r1/apply", "", ""))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/docs/index.html", "", ""))
}

func TestRoutesEnforceRoles(t *testing.T) {
	r := testEngine()

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/demo-classes", "tutor", ""))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/v1/tutor-requests/r1/assign", "tutor", `{}`))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPatch, "/api/v1/tutor-requests/r1/status", "tutor", `{}`))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/v1/tuition-jobs/r1/apply", "admin", ""))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/metrics/summary", "tutor", ""))
}

func TestPublicIntakeNeedsNoToken(t *testing.T) {
	r := testEngine()
	// malformed JSON is rejected by the handler, proving the route is reachable anonymously
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/v1/tutor-requests/public", "", `{"subjects":`))
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/v1/tutor-requests/public/from-tutor/t9", "", `{"subjects":`))
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
)

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrDuplicateApplication, "already applied"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "already applied", body.Message)
	require.NotNil(t, body.Error)
	assert.Equal(t, appErrors.CodeDuplicate, body.Error.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestErrorEnvelopeHidesUnknownErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Len(t, c.Errors, 1)
}

func TestMessageEnvelopeKeepsNullData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	JSON(c, http.StatusOK, nil, nil)

	assert.JSONEq(t, `{"success":true,"data":null}`, w.Body.String())
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-match-api/internal/middleware"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}

// bindJSON decodes the body into dst. An empty body is accepted when
// optional is true.
func bindJSON(c *gin.Context, dst interface{}, optional bool) error {
	if optional && c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return nil
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

// queryList accepts both repeated keys and comma separated values.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

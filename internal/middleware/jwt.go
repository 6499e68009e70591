package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
	"github.com/noah-isme/tuition-match-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			msg := "invalid authorization header"
			if c.GetHeader("Authorization") == "" {
				msg = "missing bearer token"
			}
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, msg))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentUser returns the claims attached by JWT, or nil.
func CurrentUser(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

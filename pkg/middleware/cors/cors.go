package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var allowedHeaders = strings.Join([]string{
	"Authorization",
	"Content-Type",
	"X-Requested-With",
	"X-Request-ID",
}, ", ")

// New returns the CORS middleware for the dashboard front-ends. An empty
// origin list allows any origin.
func New(allowedOrigins []string) gin.HandlerFunc {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && allowed(originSet, origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && len(originSet) == 0:
			h.Set("Access-Control-Allow-Origin", "*")
		}

		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Headers", allowedHeaders)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func allowed(originSet map[string]struct{}, origin string) bool {
	if len(originSet) == 0 {
		return true
	}
	_, ok := originSet[strings.TrimRight(origin, "/")]
	return ok
}

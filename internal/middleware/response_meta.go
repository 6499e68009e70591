package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// WithResponseMeta prepares per-request metadata that handlers echo back in
// the envelope's meta field.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{"started_at": time.Now()})
		c.Next()
	}
}

// SetCacheHit marks whether the response body came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// ExtractMeta returns the metadata ready for the response envelope.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := ensureMeta(c)
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if k == "started_at" {
			if started, ok := v.(time.Time); ok {
				out["processing_time_ms"] = time.Since(started).Milliseconds()
			}
			continue
		}
		out[k] = v
	}
	return out
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}

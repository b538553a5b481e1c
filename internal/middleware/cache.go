package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaContextKey = "response_meta"
	metaCacheHit   = "cache_hit"
	metaDurationMS = "processing_time_ms"
)

// WithResponseMeta tracks per-request metadata, currently the processing time
// and whether a cached payload was served, for handlers that attach it to
// their response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(metaContextKey, map[string]interface{}{})
		c.Next()
		meta := metaFor(c)
		if _, set := meta[metaDurationMS]; !set {
			meta[metaDurationMS] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit marks whether the current response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c)[metaCacheHit] = hit
}

// ExtractMeta returns the request's metadata map for inclusion in the
// response envelope. It is nil when WithResponseMeta is not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if v, ok := c.Get(metaContextKey); ok {
		if meta, ok := v.(map[string]interface{}); ok {
			return meta
		}
	}
	return nil
}

func metaFor(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := map[string]interface{}{}
	if c != nil {
		c.Set(metaContextKey, meta)
	}
	return meta
}

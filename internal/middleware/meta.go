package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-transcript-api/pkg/middleware/requestid"
)

const (
	metaKey      = "response_meta"
	metaStartKey = "response_meta_start"
)

// WithResponseMeta prepares per-request metadata returned in the envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartKey, time.Now())
		c.Set(metaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records whether the payload came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	setMeta(c, "cache_hit", hit)
}

// ExtractMeta snapshots the metadata with the elapsed time and request id.
// It returns nil outside WithResponseMeta.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	stored, ok := c.Get(metaKey)
	if !ok {
		return nil
	}
	meta, ok := stored.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	if start, ok := c.Get(metaStartKey); ok {
		if t, ok := start.(time.Time); ok {
			out["processing_time_ms"] = time.Since(t).Milliseconds()
		}
	}
	if id := requestid.Value(c); id != "" {
		out["request_id"] = id
	}
	return out
}

func setMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	if stored, ok := c.Get(metaKey); ok {
		if meta, ok := stored.(map[string]interface{}); ok {
			meta[key] = value
			return
		}
	}
	c.Set(metaKey, map[string]interface{}{key: value})
}

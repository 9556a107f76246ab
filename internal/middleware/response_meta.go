package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// CacheHeader reports whether a reference list came from cache.
const CacheHeader = "X-Cache"

const responseMetaKey = "response_meta"

type responseMeta struct {
	started  time.Time
	cacheHit *bool
}

// WithResponseMeta starts the clock used for processing_time_ms in response meta.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{started: time.Now()})
		c.Next()
	}
}

// SetCacheHit marks the response as served from (or past) the reference cache
// and sets X-Cache to HIT or MISS.
func SetCacheHit(c *gin.Context, hit bool) {
	currentMeta(c).cacheHit = &hit
	if hit {
		c.Header(CacheHeader, "HIT")
	} else {
		c.Header(CacheHeader, "MISS")
	}
}

// ResponseMeta renders the collected metadata for the envelope's meta field.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	m := currentMeta(c)
	out := map[string]interface{}{
		"processing_time_ms": time.Since(m.started).Milliseconds(),
	}
	if m.cacheHit != nil {
		out["cache_hit"] = *m.cacheHit
	}
	return out
}

func currentMeta(c *gin.Context) *responseMeta {
	if v, ok := c.Get(responseMetaKey); ok {
		if m, ok := v.(*responseMeta); ok {
			return m
		}
	}
	m := &responseMeta{started: time.Now()}
	c.Set(responseMetaKey, m)
	return m
}

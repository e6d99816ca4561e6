package middleware

import (
	"bytes"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader is the client-supplied deduplication key header
const IdempotencyKeyHeader = "x-idempotency-key"

type cachedResponse struct {
	status    int
	header    map[string]string
	body      []byte
	expiresAt time.Time
}

// IdempotencyCache replays the recorded response for a repeated mutating
// request carrying the same x-idempotency-key. Entries expire after the
// configured TTL; a replayed response is byte-identical to the original.
type IdempotencyCache struct {
	mu      sync.Mutex
	entries map[string]cachedResponse
	ttl     time.Duration
	now     func() time.Time
}

// NewIdempotencyCache creates a cache with the given entry TTL
func NewIdempotencyCache(ttl time.Duration) *IdempotencyCache {
	return &IdempotencyCache{
		entries: make(map[string]cachedResponse),
		ttl:     ttl,
		now:     time.Now,
	}
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Handler returns the gin middleware. Requests without the key header
// pass through untouched.
func (c *IdempotencyCache) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := ctx.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			ctx.Next()
			return
		}
		// Scope keys per route so the same key on different endpoints
		// does not collide.
		key = ctx.Request.Method + " " + ctx.FullPath() + " " + key

		if cached, ok := c.lookup(key); ok {
			for name, value := range cached.header {
				ctx.Writer.Header().Set(name, value)
			}
			ctx.Writer.Header().Set("X-Idempotency-Replay", "true")
			ctx.Data(cached.status, cached.header["Content-Type"], cached.body)
			ctx.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: ctx.Writer}
		ctx.Writer = recorder
		ctx.Next()

		// Only settled outcomes are worth replaying; server errors may
		// succeed on retry.
		if status := recorder.Status(); status < 500 {
			c.store(key, cachedResponse{
				status: status,
				header: map[string]string{
					"Content-Type": recorder.Header().Get("Content-Type"),
				},
				body:      recorder.buf.Bytes(),
				expiresAt: c.now().Add(c.ttl),
			})
		}
	}
}

func (c *IdempotencyCache) lookup(key string) (cachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.entries[key]
	if !ok {
		return cachedResponse{}, false
	}
	if c.now().After(cached.expiresAt) {
		delete(c.entries, key)
		return cachedResponse{}, false
	}
	return cached, true
}

func (c *IdempotencyCache) store(key string, resp cachedResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range c.entries {
		if c.now().After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = resp
}

// Reset drops every cached response. Admin reset path.
func (c *IdempotencyCache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]cachedResponse)
	c.mu.Unlock()
}

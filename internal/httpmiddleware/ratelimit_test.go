package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestAllowRefills(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	l := NewTokenBucket(2, 60)
	l.now = clk.now

	ok, _ := l.allow("a")
	assert.True(t, ok)
	ok, _ = l.allow("a")
	assert.True(t, ok)
	ok, wait := l.allow("a")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = l.allow("b")
	assert.True(t, ok, "buckets are per key")

	clk.advance(time.Second)
	ok, _ = l.allow("a")
	assert.True(t, ok)
}

func TestGCDropsFullBuckets(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	l := NewTokenBucket(5, 60)
	l.now = clk.now
	l.allow("a")

	clk.advance(2 * time.Minute)
	l.allow("b")
	assert.Len(t, l.state, 1)
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewTokenBucket(1, 1)
	r := gin.New()
	r.Use(l.GinMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

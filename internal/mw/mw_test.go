package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireCaller(t *testing.T) {
	r := gin.New()
	r.GET("/whoami", RequireCaller("X-Caller-Address"), func(c *gin.Context) {
		c.String(http.StatusOK, CallerFrom(c).Address)
	})

	w := perform(r, http.MethodGet, "/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/whoami", map[string]string{"X-Caller-Address": "  0xabc "})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0xabc", w.Body.String())
}

func TestRateLimiter_PerCaller(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(0.001), 1, CallerOrIP("X-Caller-Address")))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	alice := map[string]string{"X-Caller-Address": "alice"}
	bob := map[string]string{"X-Caller-Address": "bob"}

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodGet, "/ping", alice).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", bob).Code)
}

func TestCacheAndEvict(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.GET("/balance", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	first := perform(r, http.MethodGet, "/balance", nil)
	second := perform(r, http.MethodGet, "/balance", nil)
	assert.JSONEq(t, `{"calls":1}`, first.Body.String())
	assert.JSONEq(t, `{"calls":1}`, second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	Evict(store, "/balance")
	third := perform(r, http.MethodGet, "/balance", nil)
	assert.JSONEq(t, `{"calls":2}`, third.Body.String())
}

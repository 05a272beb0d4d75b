package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/routewise/triphub/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedRouter(limit int, window time.Duration, keyFn func(*gin.Context) string) *gin.Engine {
	rl := middlewares.NewRateLimiter(limit, window)

	r := gin.New()
	r.GET("/ping", rl.RateLimiterMiddleware(keyFn), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}

func get(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	r := limitedRouter(3, time.Minute, middlewares.KeyByIP)

	for i := 0; i < 3; i++ {
		if w := get(r, "10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, w.Code)
		}
	}

	w := get(r, "10.0.0.1:1234")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", w.Code)
	}

	if w.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	r := limitedRouter(1, time.Minute, middlewares.KeyByIP)

	if w := get(r, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("first client blocked: %d", w.Code)
	}

	if w := get(r, "10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Fatalf("other client must have its own bucket, got %d", w.Code)
	}

	if w := get(r, "10.0.0.1:5678"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("same IP on another port must share the bucket, got %d", w.Code)
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	r := limitedRouter(1, 20*time.Millisecond, middlewares.KeyByIP)

	if w := get(r, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	if w := get(r, "10.0.0.1:1234"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside window, got %d", w.Code)
	}

	time.Sleep(30 * time.Millisecond)

	if w := get(r, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("window expiry must reset the bucket, got %d", w.Code)
	}
}

func TestKeyByUserOrIPPrefersIdentity(t *testing.T) {
	rl := middlewares.NewRateLimiter(1, time.Minute)

	r := gin.New()
	r.GET("/ping", func(c *gin.Context) {
		middlewares.SetIdentity(c, c.Query("as"), "test")
		c.Next()
	}, rl.RateLimiterMiddleware(middlewares.KeyByUserOrIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping?as="+user, nil)
		req.RemoteAddr = "10.0.0.1:1234"

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := do("u-1"); code != http.StatusOK {
		t.Fatalf("got %d", code)
	}

	// same IP, different user: separate bucket
	if code := do("u-2"); code != http.StatusOK {
		t.Fatalf("distinct users must not share buckets, got %d", code)
	}

	if code := do("u-1"); code != http.StatusTooManyRequests {
		t.Fatalf("same user must share a bucket, got %d", code)
	}
}

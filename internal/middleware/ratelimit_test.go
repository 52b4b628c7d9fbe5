package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter() (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter()
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter()

	for i := 0; i < 5; i++ {
		if ok, _ := rl.Allow("key", 5, time.Minute); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, retry := rl.Allow("key", 5, time.Minute)
	if ok {
		t.Error("6th request should be denied")
	}
	if retry != time.Minute {
		t.Errorf("retry after = %v, want %v", retry, time.Minute)
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, clock := newTestLimiter()

	for i := 0; i < 3; i++ {
		rl.Allow("key", 3, 10*time.Second)
	}
	if ok, _ := rl.Allow("key", 3, 10*time.Second); ok {
		t.Error("should be blocked within window")
	}

	clock.advance(10 * time.Second)
	if ok, _ := rl.Allow("key", 3, 10*time.Second); !ok {
		t.Error("should be allowed after window expires")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter()

	rl.Allow("expired", 5, time.Second)
	clock.advance(2 * time.Second)
	rl.Allow("active", 5, time.Minute)

	rl.Cleanup()

	if _, ok := rl.windows["expired"]; ok {
		t.Error("expired window should be cleaned up")
	}
	if _, ok := rl.windows["active"]; !ok {
		t.Error("active window should remain")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter()
	keyFunc := func(r *http.Request) string { return RealIP(r) }

	handler := RateLimit(rl, keyFunc, 2, 30*time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	req := httptest.NewRequest("POST", "/api/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := rec.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want %q", got, "30")
	}

	// A different client is unaffected.
	req = httptest.NewRequest("POST", "/api/login", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 10.0.0.1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"cloudflare", map[string]string{"CF-Connecting-IP": "1.2.3.4", "X-Forwarded-For": "5.6.7.8"}, "9.9.9.9:1", "1.2.3.4"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, "9.9.9.9:1", "5.6.7.8"},
		{"remote addr", nil, "192.168.1.20:5555", "192.168.1.20"},
		{"no port", nil, "192.168.1.20", "192.168.1.20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := RealIP(req); got != tt.want {
				t.Errorf("RealIP = %q, want %q", got, tt.want)
			}
		})
	}
}

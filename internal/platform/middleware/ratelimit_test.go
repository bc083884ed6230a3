package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/tavi/preauth/internal/platform/auth"
)

func limitedHandler(cfg RateLimitConfig) echo.HandlerFunc {
	return RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	handler := limitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	handler := limitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec := httptest.NewRecorder()
	err := handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}

	retry, parseErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if parseErr != nil {
		t.Fatalf("Retry-After header is not a valid integer: %q", rec.Header().Get("Retry-After"))
	}
	if retry < 1 {
		t.Errorf("expected Retry-After >= 1, got %d", retry)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_PerUserIsolation(t *testing.T) {
	e := echo.New()
	handler := limitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	requestAs := func(user string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithUser(context.Background(), user, nil))
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	if err := requestAs("user-a"); err != nil {
		t.Fatalf("user-a first request: expected no error, got %v", err)
	}
	if err := requestAs("user-a"); err == nil {
		t.Fatal("user-a second request: expected rate limit error")
	}
	if err := requestAs("user-b"); err != nil {
		t.Fatalf("user-b first request: expected no error, got %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 100 {
		t.Errorf("expected RequestsPerSecond 100, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 200 {
		t.Errorf("expected BurstSize 200, got %d", cfg.BurstSize)
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Now()

	zero := rate.NewLimiter(0, 1)
	zero.AllowN(now, 1)
	if got := retryAfter(zero, now); got != 1 {
		t.Errorf("expected 1 for zero rate, got %d", got)
	}

	slow := rate.NewLimiter(0.5, 1)
	slow.AllowN(now, 1)
	if got := retryAfter(slow, now); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	// retryAfter must not consume the reservation it inspects
	if got := retryAfter(slow, now); got != 2 {
		t.Errorf("expected 2 on repeat, got %d", got)
	}
}

func TestLimiterStore_SameKeySameLimiter(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	l1 := store.get("key1")
	if l1 == nil {
		t.Fatal("expected non-nil limiter")
	}
	if store.get("key1") != l1 {
		t.Error("expected same limiter instance for same key")
	}
	if store.get("key2") == l1 {
		t.Error("expected different limiter for different key")
	}
}

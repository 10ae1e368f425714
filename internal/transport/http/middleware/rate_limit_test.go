package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type fakeRateLimitStore struct {
	trimErr   error
	count     int
	countErr  error
	oldest    time.Time
	hasOldest bool
	oldestErr error
	recordErr error

	recordCalls int
}

func (f *fakeRateLimitStore) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	return f.trimErr
}

func (f *fakeRateLimitStore) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	return f.count, f.countErr
}

func (f *fakeRateLimitStore) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	f.recordCalls++
	return f.recordErr
}

func (f *fakeRateLimitStore) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	return f.oldest, f.hasOldest, f.oldestErr
}

func limitedRouter(t *testing.T, store *fakeRateLimitStore, now time.Time) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(func() time.Time { return now })

	router := gin.New()
	router.Use(limiter.RateLimit(RateLimitRule{
		Name:   "checkout",
		Limit:  5,
		Window: time.Minute,
		Identifier: func(c *gin.Context) (string, bool) {
			return "203.0.113.7", true
		},
	}))
	router.POST("/checkout", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return router
}

func TestRateLimiterAllowsWhenBelowLimit(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	oldest := now.Add(-45 * time.Second)

	store := &fakeRateLimitStore{count: 2, oldest: oldest, hasOldest: true}
	router := limitedRouter(t, store, now)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if store.recordCalls != 1 {
		t.Fatalf("expected one recorded attempt, got %d", store.recordCalls)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "5" {
		t.Fatalf("limit header: got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Fatalf("remaining header: got %q", got)
	}

	wantReset := strconv.FormatInt(oldest.Add(time.Minute).Unix(), 10)
	if got := rr.Header().Get("X-RateLimit-Reset"); got != wantReset {
		t.Fatalf("reset header: want %s, got %q", wantReset, got)
	}
	if got := rr.Header().Get("Retry-After"); got != "" {
		t.Fatalf("unexpected Retry-After %q on allowed request", got)
	}
}

func TestRateLimiterBlocksWhenLimitExceeded(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	store := &fakeRateLimitStore{count: 5, oldest: now.Add(-45 * time.Second), hasOldest: true}
	router := limitedRouter(t, store, now)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", nil))

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if store.recordCalls != 0 {
		t.Fatalf("blocked request must not record an attempt, got %d", store.recordCalls)
	}
	if got := rr.Header().Get("Retry-After"); got != "15" {
		t.Fatalf("retry-after header: got %q", got)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem body: %v", err)
	}
	if problem.Status != http.StatusTooManyRequests {
		t.Fatalf("problem status: got %d", problem.Status)
	}
	if problem.RetryAfter != 15 {
		t.Fatalf("problem retry_after: got %d", problem.RetryAfter)
	}
	if problem.Instance != "/checkout" {
		t.Fatalf("problem instance: got %q", problem.Instance)
	}
}

func TestRateLimiterFailsOpenOnStoreError(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	store := &fakeRateLimitStore{trimErr: errors.New("redis down")}
	router := limitedRouter(t, store, now)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 when failing open, got %d", rr.Code)
	}
	if store.recordCalls != 0 {
		t.Fatalf("expected no recorded attempt on store failure, got %d", store.recordCalls)
	}
}

package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/housetable/vetclinic/internal/cache"
	"github.com/housetable/vetclinic/internal/metrics"
)

type stubLimiter struct {
	result *cache.RateLimitResult
	err    error
	calls  int
	lastIP string
}

func (s *stubLimiter) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error) {
	s.calls++
	s.lastIP = ip
	return s.result, s.err
}

func TestRateLimitIP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name        string
		enabled     bool
		limiter     *stubLimiter
		wantStatus  int
		wantCalls   int
		wantLimited uint64
	}{
		{
			name:       "allowed",
			enabled:    true,
			limiter:    &stubLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4, ResetAt: time.Now()}},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:        "rejected",
			enabled:     true,
			limiter:     &stubLimiter{result: &cache.RateLimitResult{Allowed: false, RetryAfter: 2 * time.Second, ResetAt: time.Now()}},
			wantStatus:  http.StatusTooManyRequests,
			wantCalls:   1,
			wantLimited: 1,
		},
		{
			name:       "limiter error fails open",
			enabled:    true,
			limiter:    &stubLimiter{err: errors.New("redis down")},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "disabled",
			enabled:    false,
			limiter:    &stubLimiter{},
			wantStatus: http.StatusOK,
			wantCalls:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := metrics.NewInMemory()
			handler := RateLimitIP(RateLimitConfig{
				Logger:  logger,
				Limiter: tt.limiter,
				Metrics: rec,
				Enabled: tt.enabled,
				RPS:     5,
				Burst:   5,
			})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
			req.RemoteAddr = "10.1.2.3:5555"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.limiter.calls != tt.wantCalls {
				t.Fatalf("limiter calls = %d, want %d", tt.limiter.calls, tt.wantCalls)
			}
			if tt.wantCalls > 0 && tt.limiter.lastIP != "10.1.2.3" {
				t.Fatalf("limiter ip = %q, want 10.1.2.3", tt.limiter.lastIP)
			}
			if got := rec.Snapshot().RateLimited; got != tt.wantLimited {
				t.Fatalf("rate limited metric = %d, want %d", got, tt.wantLimited)
			}
			if tt.wantStatus == http.StatusTooManyRequests {
				if w.Header().Get("Retry-After") != "2" {
					t.Errorf("Retry-After = %q, want 2", w.Header().Get("Retry-After"))
				}
				if !strings.Contains(w.Body.String(), `"name":"TOO_MANY_REQUESTS"`) {
					t.Errorf("unexpected body %s", w.Body.String())
				}
			}
		})
	}
}

func TestRateLimitIP_NilLimiter(t *testing.T) {
	handler := RateLimitIP(RateLimitConfig{Enabled: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{
			name:       "X-Forwarded-For single",
			xff:        "1.2.3.4",
			remoteAddr: "127.0.0.1:8080",
			want:       "1.2.3.4",
		},
		{
			name:       "X-Forwarded-For multiple",
			xff:        "1.2.3.4, 5.6.7.8, 9.10.11.12",
			remoteAddr: "127.0.0.1:8080",
			want:       "1.2.3.4",
		},
		{
			name:       "X-Real-IP",
			xri:        "1.2.3.4",
			remoteAddr: "127.0.0.1:8080",
			want:       "1.2.3.4",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.1:12345",
			want:       "192.168.1.1",
		},
		{
			name:       "RemoteAddr already bare",
			remoteAddr: "192.168.1.1",
			want:       "192.168.1.1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				req.Header.Set("X-Real-IP", tc.xri)
			}
			req.RemoteAddr = tc.remoteAddr

			got := getClientIP(req)
			if got != tc.want {
				t.Errorf("getClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}

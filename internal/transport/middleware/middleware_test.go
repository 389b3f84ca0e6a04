package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/ranking-backend/pkg/ctxutil"
)

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mark("a"), mark("b"), mark("c"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "a,b,c,handler" {
		t.Errorf("expected a,b,c,handler, got %s", got)
	}
}

func TestLogger_LevelsAndAttributes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		userID := uuid.New()

		h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte("hello"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
		ctx := ctxutil.WithRequestID(req.Context(), "req-1")
		ctx = ctxutil.WithUserID(ctx, userID)
		h.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))

		out := buf.String()
		for _, want := range []string{
			`"level":"` + tt.level + `"`,
			`"path":"/api/leaderboard"`,
			`"bytes":5`,
			`"request_id":"req-1"`,
			`"user_id":"` + userID.String() + `"`,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("status %d: expected %s in %s", tt.status, want, out)
			}
		}
	}
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.RequestIDFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get("X-Request-Id") != "abc-123" {
		t.Errorf("expected inbound id to propagate, got ctx=%q header=%q", seen, rec.Header().Get("X-Request-Id"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", strings.Repeat("x", 500))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("expected oversized id to be replaced with a uuid, got %q", seen)
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(clock, time.Hour)
	defer rl.Stop()

	h := rl.Limit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	call := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if call("10.0.0.1:1000") != http.StatusOK || call("10.0.0.1:1001") != http.StatusOK {
		t.Fatal("expected burst of 2 to pass")
	}
	if got := call("10.0.0.1:1002"); got != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", got)
	}
	if got := call("10.0.0.2:1000"); got != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", got)
	}

	clock.Advance(30 * time.Second)
	if got := call("10.0.0.1:1003"); got != http.StatusOK {
		t.Fatalf("expected refill after 30s, got %d", got)
	}

	clock.Advance(bucketIdleTTL + time.Minute)
	rl.evictIdle()
	if n := rl.size(); n != 0 {
		t.Errorf("expected idle buckets evicted, got %d", n)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(clockwork.NewFakeClock(), time.Hour)
	defer rl.Stop()

	h := rl.Limit(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

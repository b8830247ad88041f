package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/pacing"
)

func newTestCaller() (*httpCaller, *pacing.Controller) {
	log := logger.New("test")
	pacer := pacing.New(time.Microsecond, time.Minute, log)
	caller := newHTTPCaller(5*time.Second, pacer, log)
	caller.backoff = time.Millisecond
	return caller, pacer
}

func getRequest(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDoJSON_SuccessDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	caller, _ := newTestCaller()
	var payload struct {
		Value string `json:"value"`
	}

	status := caller.doJSON(context.Background(), getRequest(srv.URL), "test", "op", "test-op", &payload)
	if status != domain.StatusOK {
		t.Fatalf("expected OK, got %s", status)
	}
	if payload.Value != "ok" {
		t.Fatalf("expected decoded body, got %+v", payload)
	}
}

func TestDoJSON_StatusClassification(t *testing.T) {
	tests := []struct {
		code int
		want domain.Status
	}{
		{http.StatusUnauthorized, domain.StatusAuthFailed},
		{http.StatusForbidden, domain.StatusRestricted},
		{http.StatusNotFound, domain.StatusNoMatch},
		{http.StatusInternalServerError, domain.StatusUnavailable},
		{http.StatusBadGateway, domain.StatusUnavailable},
	}

	for _, tc := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.code)
		}))

		caller, _ := newTestCaller()
		var payload map[string]any
		status := caller.doJSON(context.Background(), getRequest(srv.URL), "test", "op", "test-op", &payload)
		srv.Close()

		if status != tc.want {
			t.Fatalf("status %d: expected %s, got %s", tc.code, tc.want, status)
		}
	}
}

func TestDoJSON_RateLimitRetriesThenArmsCooldown(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	caller, pacer := newTestCaller()
	var payload map[string]any
	status := caller.doJSON(context.Background(), getRequest(srv.URL), "test", "op", "test-op", &payload)

	if status != domain.StatusRateLimited {
		t.Fatalf("expected rate limited, got %s", status)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected initial call plus 2 retries, got %d", got)
	}
	if !pacer.InCooldown("test-op") {
		t.Fatal("expected the cooldown armed after a 429")
	}
}

func TestDoJSON_RetrySucceedsWithinBound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	caller, _ := newTestCaller()
	var payload map[string]any
	status := caller.doJSON(context.Background(), getRequest(srv.URL), "test", "op", "test-op", &payload)

	if status != domain.StatusOK {
		t.Fatalf("expected eventual success, got %s", status)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestDoJSON_ActiveCooldownSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	caller, pacer := newTestCaller()
	pacer.TriggerCooldown("test-op")

	var payload map[string]any
	status := caller.doJSON(context.Background(), getRequest(srv.URL), "test", "op", "test-op", &payload)

	if status != domain.StatusRateLimited {
		t.Fatalf("expected rate limited during cooldown, got %s", status)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no network calls during cooldown, got %d", calls.Load())
	}
}

func TestDoJSON_UndecodableBodyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	caller, _ := newTestCaller()
	var payload map[string]any
	status := caller.doJSON(context.Background(), getRequest(srv.URL), "test", "op", "test-op", &payload)

	if status != domain.StatusUnavailable {
		t.Fatalf("expected unavailable for undecodable body, got %s", status)
	}
}

func TestDoJSON_TransportFailureIsUnavailable(t *testing.T) {
	caller, _ := newTestCaller()
	var payload map[string]any

	status := caller.doJSON(context.Background(), getRequest("http://127.0.0.1:1"), "test", "op", "test-op", &payload)
	if status != domain.StatusUnavailable {
		t.Fatalf("expected unavailable for a refused connection, got %s", status)
	}
}

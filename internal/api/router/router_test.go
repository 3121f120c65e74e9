package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/humanizi/whatsrelay/internal/webhook"
	"github.com/humanizi/whatsrelay/pkg/logging"
)

type stubPipeline struct{}

func (stubPipeline) Process(ctx context.Context, body []byte) webhook.Outcome {
	return webhook.Outcome{Classification: webhook.ClassEmpty}
}

func newTestRouter() http.Handler {
	logger := logging.NewWithWriter("error", &strings.Builder{})
	handler := webhook.NewHandler("verify-secret", stubPipeline{}, logger, nil)
	return New(&Config{
		Logger:         logger,
		WebhookHandler: handler,
	})
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestWebhookVerifyRoute(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify-secret&hub.challenge=777", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "777" {
		t.Errorf("expected challenge echoed, got %q", rec.Body.String())
	}
}

func TestWebhookReceiveRoute(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestMetricsRouteMountedWhenConfigured(t *testing.T) {
	logger := logging.NewWithWriter("error", &strings.Builder{})
	handler := webhook.NewHandler("verify-secret", stubPipeline{}, logger, nil)
	r := New(&Config{
		Logger:         logger,
		WebhookHandler: handler,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

package webhook

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/humanizi/whatsrelay/internal/observability/metrics"
	"github.com/humanizi/whatsrelay/pkg/logging"
)

// Outcome summarizes what the reply pipeline did with one event.
type Outcome struct {
	Classification Classification
	UserID         string
	// Generated is true when the reply text came from the model rather than
	// the technical-difficulty fallback.
	Generated bool
	Delivered bool
}

// processor runs the reply pipeline for one raw webhook body. It never fails:
// every event reaches a terminal outcome.
type processor interface {
	Process(ctx context.Context, body []byte) Outcome
}

// Handler handles WhatsApp Cloud API webhook requests.
type Handler struct {
	verifyToken string
	pipeline    processor
	logger      *logging.Logger
	metrics     *metrics.RelayMetrics
}

// NewHandler creates a new webhook handler.
func NewHandler(verifyToken string, pipeline processor, logger *logging.Logger, m *metrics.RelayMetrics) *Handler {
	if pipeline == nil {
		panic("webhook: pipeline cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		verifyToken: verifyToken,
		pipeline:    pipeline,
		logger:      logger,
		metrics:     m,
	}
}

// Verify handles the Meta subscription handshake (GET /webhook).
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken && h.verifyToken != "" {
		h.logger.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}

	h.logger.Warn("webhook verification failed", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
}

// Receive handles inbound events (POST /webhook). The platform requires a
// fast 2xx receipt regardless of what happens downstream, so the response is
// always 200; the pipeline outcome only feeds logs and metrics.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		h.logger.Warn("failed to read webhook body", "error", err)
		body = nil
	}

	outcome := h.pipeline.Process(r.Context(), body)

	classification := outcome.Classification.String()
	h.metrics.ObserveInbound(classification)
	h.metrics.ObserveWebhookLatency(classification, time.Since(start).Seconds())
	h.logger.Info("webhook event processed",
		"classification", classification,
		"user_id", outcome.UserID,
		"generated", outcome.Generated,
		"delivered", outcome.Delivered,
	)

	w.WriteHeader(http.StatusOK)
}

// HealthCheck reports service liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

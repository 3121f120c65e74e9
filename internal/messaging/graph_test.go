package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGraphClient(t *testing.T, baseURL string) *GraphClient {
	t.Helper()
	client, err := NewGraphClient(GraphConfig{
		BaseURL:       baseURL,
		APIVersion:    "v22.0",
		AccessToken:   "token-123",
		PhoneNumberID: "555000111",
	})
	if err != nil {
		t.Fatalf("new graph client: %v", err)
	}
	return client
}

func TestSendTextRequestShape(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotPayload)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}))
	defer srv.Close()

	client := newTestGraphClient(t, srv.URL)
	if err := client.SendText(context.Background(), "55119", "Olá Ana!"); err != nil {
		t.Fatalf("send text: %v", err)
	}

	if gotPath != "/v22.0/555000111/messages" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("unexpected content type %q", gotContentType)
	}
	if gotPayload["messaging_product"] != "whatsapp" {
		t.Errorf("expected messaging_product whatsapp, got %v", gotPayload["messaging_product"])
	}
	if gotPayload["to"] != "55119" || gotPayload["type"] != "text" {
		t.Errorf("unexpected payload %v", gotPayload)
	}
	text, ok := gotPayload["text"].(map[string]any)
	if !ok || text["body"] != "Olá Ana!" {
		t.Errorf("unexpected text payload %v", gotPayload["text"])
	}
}

func TestSendTextNon2xxReturnsDeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	client := newTestGraphClient(t, srv.URL)
	err := client.SendText(context.Background(), "55119", "Olá!")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}

	var delErr *DeliveryError
	if !errors.As(err, &delErr) {
		t.Fatalf("expected *DeliveryError, got %T", err)
	}
	if delErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", delErr.StatusCode)
	}
	if delErr.Body == "" {
		t.Error("expected response body captured for logging")
	}
}

func TestSendTextNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	client := newTestGraphClient(t, srv.URL)
	if err := client.SendText(context.Background(), "55119", "Olá!"); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}

func TestNewGraphClientValidation(t *testing.T) {
	if _, err := NewGraphClient(GraphConfig{PhoneNumberID: "1"}); err == nil {
		t.Error("expected error without access token")
	}
	if _, err := NewGraphClient(GraphConfig{AccessToken: "t"}); err == nil {
		t.Error("expected error without phone number id")
	}
}

func TestNewGraphClientDefaults(t *testing.T) {
	client, err := NewGraphClient(GraphConfig{AccessToken: "t", PhoneNumberID: "1"})
	if err != nil {
		t.Fatalf("new graph client: %v", err)
	}
	if client.baseURL != defaultGraphBaseURL {
		t.Errorf("expected default base url, got %q", client.baseURL)
	}
	if client.apiVersion != defaultGraphVersion {
		t.Errorf("expected default api version, got %q", client.apiVersion)
	}
}

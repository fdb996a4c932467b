// ABOUTME: Tests for the proxy relay endpoints
// ABOUTME: Uses httptest upstreams to verify pass-through of status codes and bodies
package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harperreed/polsync/models"
)

func newTestServer(ai *models.AIConfig) *Server {
	settings := func() models.AppSettings {
		s := models.DefaultSettings()
		s.AI = ai
		return s
	}
	return NewServer(settings, nil)
}

func TestChatRelayPassThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected upstream path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "hello") {
			t.Errorf("request body not forwarded: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
	}))
	defer upstream.Close()

	s := newTestServer(&models.AIConfig{BaseURL: upstream.URL, APIKey: "sk-test"})

	req := httptest.NewRequest(http.MethodPost, "/proxy/chat", strings.NewReader(`{"messages":[{"content":"hello"}]}`))
	rec := httptest.NewRecorder()
	s.handleChat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "choices") {
		t.Errorf("response body not propagated: %s", rec.Body.String())
	}
}

func TestChatRelayPropagatesUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer upstream.Close()

	s := newTestServer(&models.AIConfig{BaseURL: upstream.URL, APIKey: "sk-test"})

	req := httptest.NewRequest(http.MethodPost, "/proxy/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.handleChat(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 propagated, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rate limited") {
		t.Errorf("error body not propagated: %s", rec.Body.String())
	}
}

func TestChatRelayUnconfigured(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/proxy/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.handleChat(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when unconfigured, got %d", rec.Code)
	}
}

func TestChatRelayRejectsGet(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/proxy/chat", nil)
	rec := httptest.NewRecorder()
	s.handleChat(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestValidateKeyAcceptsGoodKey(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected probe path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer upstream.Close()

	s := newTestServer(nil)

	body := `{"base_url":"` + upstream.URL + `","api_key":"sk-good"}`
	req := httptest.NewRequest(http.MethodPost, "/proxy/validate-key", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleValidateKey(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp validateKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !resp.Valid {
		t.Error("expected valid key")
	}
}

func TestValidateKeyPropagatesRejection(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer upstream.Close()

	s := newTestServer(nil)

	body := `{"base_url":"` + upstream.URL + `","api_key":"sk-bad"}`
	req := httptest.NewRequest(http.MethodPost, "/proxy/validate-key", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleValidateKey(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 propagated, got %d", rec.Code)
	}
	var resp validateKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Valid || !strings.Contains(resp.Error, "invalid api key") {
		t.Errorf("expected invalid with upstream error, got %+v", resp)
	}
}

func TestValidateKeyMissingConfig(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/proxy/validate-key", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.handleValidateKey(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestValidateKeyGetChecksStoredKey(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-stored" {
			t.Errorf("expected stored key, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	s := newTestServer(&models.AIConfig{BaseURL: upstream.URL, APIKey: "sk-stored"})

	req := httptest.NewRequest(http.MethodGet, "/proxy/validate-key", nil)
	rec := httptest.NewRecorder()
	s.handleValidateKey(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp validateKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if !resp.Valid {
		t.Error("expected stored key to validate")
	}
}

func TestValidateKeyFallsBackToStoredSettings(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-stored" {
			t.Errorf("expected stored key, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	s := newTestServer(&models.AIConfig{BaseURL: upstream.URL, APIKey: "sk-stored"})

	req := httptest.NewRequest(http.MethodPost, "/proxy/validate-key", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.handleValidateKey(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

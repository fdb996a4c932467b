// ABOUTME: HTTP relay endpoints for the AI document-analysis provider
// ABOUTME: Forwards chat-completion requests and probes API keys, propagating upstream responses
package web

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/sync"
)

// Server exposes the proxy relays plus a sync status endpoint.
type Server struct {
	settings func() models.AppSettings
	orch     *sync.Orchestrator
	client   *http.Client
}

// NewServer wires the server over a settings source and the orchestrator.
func NewServer(settings func() models.AppSettings, orch *sync.Orchestrator) *Server {
	return &Server{
		settings: settings,
		orch:     orch,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	s.Register(mux)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting proxy server at http://localhost%s", addr)
	return http.ListenAndServe(addr, mux)
}

// Register installs the routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/proxy/chat", s.handleChat)
	mux.HandleFunc("/proxy/validate-key", s.handleValidateKey)
	mux.HandleFunc("/status", s.handleStatus)
}

// handleChat relays a chat-completion request to the configured upstream
// with the stored API key. Pure pass-through: upstream status codes and
// error bodies are propagated unchanged.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ai := s.settings().AI
	if ai == nil || ai.BaseURL == "" || ai.APIKey == "" {
		http.Error(w, "AI provider not configured", http.StatusServiceUnavailable)
		return
	}

	upstream := strings.TrimSuffix(ai.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, upstream, r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ai.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

type validateKeyRequest struct {
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
}

type validateKeyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// handleValidateKey probes the provider's models-listing endpoint with
// the candidate key. POST bodies override the stored settings so a key
// can be checked before saving it; GET validates the stored key as-is.
func (s *Server) handleValidateKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var candidate validateKeyRequest
	if r.Method == http.MethodPost && r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&candidate)
	}
	if ai := s.settings().AI; ai != nil {
		if candidate.BaseURL == "" {
			candidate.BaseURL = ai.BaseURL
		}
		if candidate.APIKey == "" {
			candidate.APIKey = ai.APIKey
		}
	}
	if candidate.BaseURL == "" || candidate.APIKey == "" {
		writeJSON(w, http.StatusBadRequest, validateKeyResponse{Valid: false, Error: "base_url and api_key required"})
		return
	}

	upstream := strings.TrimSuffix(candidate.BaseURL, "/") + "/models"
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstream, nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, validateKeyResponse{Valid: false, Error: err.Error()})
		return
	}
	req.Header.Set("Authorization", "Bearer "+candidate.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, validateKeyResponse{Valid: false, Error: err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		writeJSON(w, resp.StatusCode, validateKeyResponse{Valid: false, Error: strings.TrimSpace(string(body))})
		return
	}
	writeJSON(w, http.StatusOK, validateKeyResponse{Valid: true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Status())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

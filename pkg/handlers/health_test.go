package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/config"
	"github.com/datahub-inc/datahub-engine/pkg/database"
)

func TestHealthEndpoint(t *testing.T) {
	h := NewHealthHandler(&config.Config{}, nil, zap.NewNop())

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", w.Body.String())
	}
}

func TestPingEndpoint(t *testing.T) {
	cfg := &config.Config{Version: "1.2.3", Env: "test"}
	router := database.NewRouter(nil, &config.DatabaseConfig{}, nil, nil, nil, "", zap.NewNop())
	h := NewHealthHandler(cfg, router, zap.NewNop())

	w := httptest.NewRecorder()
	h.Ping(w, httptest.NewRequest("GET", "/ping", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp PingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Service != "datahub-engine" || resp.Version != "1.2.3" {
		t.Errorf("response = %+v", resp)
	}
	if resp.OpenPartitions != 0 {
		t.Errorf("open_partitions = %d, want 0", resp.OpenPartitions)
	}
}

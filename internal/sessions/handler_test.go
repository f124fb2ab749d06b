package sessions_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/bootstrap"
	"triage-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app, err := bootstrap.Build(config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		Env:             "dev",
		LLMProvider:     "openai",
		LLMModel:        "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	// Seed a prompt.
	resp := doJSON(t, router, http.MethodPost, "/api/v1/prompts", map[string]string{
		"name":    "triagem v1",
		"content": "Classifique: {CONTEXTO}",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create prompt: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var prompt struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&prompt); err != nil {
		t.Fatalf("decode prompt: %v", err)
	}

	// Seed two notices.
	noticeIDs := make([]string, 0, 2)
	for i := 1; i <= 2; i++ {
		resp := doJSON(t, router, http.MethodPost, "/api/v1/notices", map[string]string{
			"context":     fmt.Sprintf("intimação %d", i),
			"manualLabel": "OCULTAR",
		})
		if resp.Code != http.StatusCreated {
			t.Fatalf("create notice: expected 201, got %d: %s", resp.Code, resp.Body.String())
		}
		var notice struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&notice); err != nil {
			t.Fatalf("decode notice: %v", err)
		}
		noticeIDs = append(noticeIDs, notice.ID)
	}

	// Start a session. No API key is configured, so every item fails at
	// the provider; the session itself must still complete.
	resp = doJSON(t, router, http.MethodPost, "/api/v1/sessions", map[string]any{
		"promptId":  prompt.ID,
		"noticeIds": noticeIDs,
		"config":    map[string]any{"parallelism": 2},
	})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("start session: expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	var started struct {
		SessionID string `json:"sessionId"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if started.SessionID == "" || started.Status != "running" {
		t.Fatalf("unexpected start response: %+v", started)
	}

	// Poll until terminal.
	var final struct {
		Status         string `json:"status"`
		ProcessedCount int    `json:"processedCount"`
		ErrorCount     int    `json:"errorCount"`
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp := doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+started.SessionID, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("get session: expected 200, got %d", resp.Code)
		}
		if err := json.NewDecoder(resp.Body).Decode(&final); err != nil {
			t.Fatalf("decode session: %v", err)
		}
		if final.Status != "running" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session never finished")
		}
		time.Sleep(30 * time.Millisecond)
	}

	if final.Status != "completed" {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.ProcessedCount != 2 || final.ErrorCount != 2 {
		t.Fatalf("unexpected counters: %+v", final)
	}

	// Results carry the per-item errors.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+started.SessionID+"/results", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get results: expected 200, got %d", resp.Code)
	}
	var results struct {
		Results []struct {
			Error *string `json:"error"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results.Results))
	}
	for _, r := range results.Results {
		if r.Error == nil {
			t.Fatal("expected item error without provider credentials")
		}
	}

	// Cancel after completion reports not found.
	resp = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+started.SessionID+"/cancel", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("cancel finished session: expected 404, got %d", resp.Code)
	}
}

func TestStartSessionUnknownPromptOverHTTP(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app.Router, http.MethodPost, "/api/v1/sessions", map[string]any{
		"promptId":  "ghost",
		"noticeIds": []string{"n1"},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestProgressUnknownSessionOverHTTP(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app.Router, http.MethodGet, "/api/v1/sessions/ghost/progress", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.Code, resp.Body.String())
	}
}

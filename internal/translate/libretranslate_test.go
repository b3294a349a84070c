package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newLibreServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/translate", func(w http.ResponseWriter, r *http.Request) {
		var req libreTranslateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		if req.Target == "xx" {
			http.Error(w, `{"error":"xx is not supported"}`, http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(libreTranslateResponse{
			TranslatedText: req.Source + ">" + req.Target + ":" + req.Q,
		})
	})
	mux.HandleFunc("/detect", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]libreDetection{
			{Confidence: 12.5, Language: "es"},
			{Confidence: 90, Language: "fr"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLibreTranslateTranslate(t *testing.T) {
	srv := newLibreServer(t)
	engine := NewLibreTranslateEngine(srv.URL, quietLogger())

	got, err := engine.Translate(context.Background(), "bonjour", "fr", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "fr>en:bonjour" {
		t.Errorf("unexpected translation %q", got)
	}
}

func TestLibreTranslateUnknownSourceSentAsAuto(t *testing.T) {
	srv := newLibreServer(t)
	engine := NewLibreTranslateEngine(srv.URL, quietLogger())

	got, err := engine.Translate(context.Background(), "bonjour", "", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "auto>en:bonjour" {
		t.Errorf("unexpected translation %q", got)
	}
}

func TestLibreTranslateDetectPicksMostConfident(t *testing.T) {
	srv := newLibreServer(t)
	engine := NewLibreTranslateEngine(srv.URL, quietLogger())

	lang, err := engine.DetectLanguage(context.Background(), "bonjour")
	if err != nil {
		t.Fatalf("DetectLanguage failed: %v", err)
	}
	if lang != "fr" {
		t.Errorf("expected 'fr', got %q", lang)
	}
}

func TestLibreTranslateErrorStatus(t *testing.T) {
	srv := newLibreServer(t)
	engine := NewLibreTranslateEngine(srv.URL, quietLogger())

	_, err := engine.Translate(context.Background(), "bonjour", "fr", "xx")
	if err == nil {
		t.Fatal("expected error for unsupported target")
	}
	engErr, ok := err.(*EngineError)
	if !ok {
		t.Fatalf("expected EngineError, got %T", err)
	}
	if engErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", engErr.StatusCode)
	}
}

package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
)

// fakeMessagesServer answers the Messages API with a fixed text block.
func fakeMessagesServer(t *testing.T, status int, text string) (*httptest.Server, *[]string) {
	t.Helper()
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) > 0 && len(body.Messages[0].Content) > 0 {
			prompts = append(prompts, body.Messages[0].Content[0].Text)
		}

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-sonnet-4-5-20250929",
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 3},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &prompts
}

func TestClaudeEngineTranslate(t *testing.T) {
	srv, prompts := fakeMessagesServer(t, http.StatusOK, `"Hello"`)
	engine, err := NewClaudeEngine("test-key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewClaudeEngine failed: %v", err)
	}

	got, err := engine.Translate(context.Background(), "Bonjour", "fr", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "Hello" {
		t.Errorf("expected quotes stripped, got %q", got)
	}
	if len(*prompts) != 1 || !strings.Contains((*prompts)[0], "Bonjour") {
		t.Errorf("prompt should contain the source text: %v", *prompts)
	}
}

func TestClaudeEngineAPIError(t *testing.T) {
	srv, _ := fakeMessagesServer(t, http.StatusBadRequest, "")
	engine, err := NewClaudeEngine("test-key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewClaudeEngine failed: %v", err)
	}

	_, err = engine.DetectLanguage(context.Background(), "Bonjour")
	if !IsEngineError(err) {
		t.Fatalf("expected EngineError, got %v", err)
	}
	if err.(*EngineError).StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", err.(*EngineError).StatusCode)
	}
}

func TestClaudeEngineRequiresKey(t *testing.T) {
	if _, err := NewClaudeEngine("  ", ""); err == nil {
		t.Error("expected error for empty API key")
	}
}

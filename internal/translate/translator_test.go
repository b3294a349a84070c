package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"fr-CA", "fr"},
		{"en_US", "en"},
		{"zh-Hant-TW", "zh"},
		{" es ", "es"},
		{"auto", "auto"},
		{"", ""},
		{"Spanish", "Spanish"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := NormalizeCode(tc.in); got != tc.want {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestEngineError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &EngineError{Engine: "claude", Message: "overloaded", StatusCode: 529, RequestID: "req_1"})
	if !IsEngineError(err) {
		t.Error("expected EngineError through wrapping")
	}
	if !strings.Contains(err.Error(), "request-id: req_1") {
		t.Errorf("error should include request id: %v", err)
	}
	if IsEngineError(errors.New("plain")) {
		t.Error("plain error is not an EngineError")
	}
}

func TestMockEngineReverse(t *testing.T) {
	m := NewMockEngine()
	got, err := m.Translate(context.Background(), "héllo wörld", "", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "dlröw olléh" {
		t.Errorf("expected rune-wise reversal, got %q", got)
	}
}

func TestMockEngineDetectDeterministic(t *testing.T) {
	m := NewMockEngine()
	first, err := m.DetectLanguage(context.Background(), "some text")
	if err != nil {
		t.Fatalf("DetectLanguage failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := m.DetectLanguage(context.Background(), "some text")
		if again != first {
			t.Fatalf("detection not deterministic: %q vs %q", first, again)
		}
	}
}

func TestMockEngineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockEngine().Translate(ctx, "text", "", "en"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseEngineType(t *testing.T) {
	tests := []struct {
		in      string
		want    EngineType
		wantErr bool
	}{
		{"", EngineMock, false},
		{"mock", EngineMock, false},
		{"Claude", EngineClaude, false},
		{"GEMINI", EngineGemini, false},
		{"libretranslate", EngineLibreTranslate, false},
		{"argos", "", true},
	}
	for _, tc := range tests {
		got, err := ParseEngineType(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseEngineType(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseEngineType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewEngine(t *testing.T) {
	ctx := context.Background()

	e, err := NewEngine(ctx, Config{Engine: EngineMock, Logger: quietLogger()})
	if err != nil || e.Name() != "mock" {
		t.Fatalf("expected mock engine, got %v, %v", e, err)
	}

	e, err = NewEngine(ctx, Config{Engine: EngineLibreTranslate, BaseURL: "http://mt:5000/", Logger: quietLogger()})
	if err != nil || e.Name() != "libretranslate" {
		t.Fatalf("expected libretranslate engine, got %v, %v", e, err)
	}

	if _, err := NewEngine(ctx, Config{Engine: EngineClaude, Logger: quietLogger()}); err == nil {
		t.Error("claude engine without API key should fail")
	}

	if _, err := NewEngine(ctx, Config{Engine: "argos", Logger: quietLogger()}); err == nil {
		t.Error("unknown engine should fail")
	}
}

func TestPromptConstruction(t *testing.T) {
	prompt := buildTranslatePrompt("Bonjour", "fr", "en")
	if !strings.Contains(prompt, "from fr to en") {
		t.Errorf("prompt should name both languages: %s", prompt)
	}
	if !strings.Contains(prompt, `"Bonjour"`) {
		t.Error("prompt should contain the quoted text")
	}

	prompt = buildTranslatePrompt("Bonjour", AutoLanguage, "de")
	if strings.Contains(prompt, "from") {
		t.Errorf("unknown source should not be named: %s", prompt)
	}

	if !strings.Contains(buildDetectPrompt("hi"), "language code") {
		t.Error("detect prompt should ask for a language code")
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Hello"`, "Hello"},
		{"  'fr'\n", "fr"},
		{"```\nHallo\n```", "Hallo"},
		{"“Hola”", "Hola"},
		{`He said "hi"`, `He said "hi"`},
		{`"`, `"`},
	}
	for _, tc := range tests {
		if got := cleanResponse(tc.in); got != tc.want {
			t.Errorf("cleanResponse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

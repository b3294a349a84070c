package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lingonote/lingonote/internal/db"
	"github.com/lingonote/lingonote/internal/record"
	"github.com/lingonote/lingonote/internal/translate"
)

// MockEngine for testing
type MockEngine struct {
	Detected  string
	DetectErr error
	Err       error
}

func (m *MockEngine) Name() string { return "test" }

func (m *MockEngine) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return strings.ToUpper(text), nil
}

func (m *MockEngine) DetectLanguage(ctx context.Context, text string) (string, error) {
	return m.Detected, m.DetectErr
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// setupTestProcessor creates a processor over an in-memory database
func setupTestProcessor(t *testing.T, engine translate.Engine) *Processor {
	t.Helper()
	store, err := db.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	conn := db.StaticConnector(store)
	t.Cleanup(func() { conn.Close() })

	p := NewProcessor(conn, translate.NewService(engine, quietLogger()), quietLogger())
	p.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

// TestSaveTranslationOwner tests that the session owner is always applied
func TestSaveTranslationOwner(t *testing.T) {
	p := setupTestProcessor(t, &MockEngine{})
	ctx := context.Background()
	owner := db.Owner{UserID: "u1"}

	saved, err := p.SaveTranslation(ctx, owner, record.TranslationInput{
		OriginalText:     "hola",
		TranslatedText:   "hello",
		DetectedLanguage: "es",
	})
	if err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("Expected server ID")
	}
	if saved.UserID != "u1" {
		t.Errorf("Expected owner u1, got %q", saved.UserID)
	}
	if !saved.Timestamp.Equal(p.now()) {
		t.Errorf("Expected default timestamp, got %v", saved.Timestamp)
	}

	// Body naming the same user is accepted
	if _, err := p.SaveTranslation(ctx, owner, record.TranslationInput{
		OriginalText: "a", TranslatedText: "b", DetectedLanguage: "en", UserID: "u1",
	}); err != nil {
		t.Errorf("Matching userId should be accepted: %v", err)
	}
}

// TestSaveTranslationForeignOwner tests that a body cannot claim another user
func TestSaveTranslationForeignOwner(t *testing.T) {
	p := setupTestProcessor(t, &MockEngine{})

	_, err := p.SaveTranslation(context.Background(), db.Owner{UserID: "u1"}, record.TranslationInput{
		OriginalText: "a", TranslatedText: "b", DetectedLanguage: "en", UserID: "u2",
	})
	if !record.IsValidationError(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}

	_, err = p.SaveTranslation(context.Background(), db.Anonymous(), record.TranslationInput{
		OriginalText: "a", TranslatedText: "b", DetectedLanguage: "en", UserID: "u2",
	})
	if !record.IsValidationError(err) {
		t.Fatalf("Anonymous callers cannot assign an owner, got %v", err)
	}
}

// TestSaveValidation tests that required fields are enforced
func TestSaveValidation(t *testing.T) {
	p := setupTestProcessor(t, &MockEngine{})
	ctx := context.Background()

	if _, err := p.SaveTranslation(ctx, db.Anonymous(), record.TranslationInput{TranslatedText: "x", DetectedLanguage: "en"}); !record.IsValidationError(err) {
		t.Errorf("Expected validation error for missing originalText, got %v", err)
	}
	if _, err := p.SaveVocabulary(ctx, db.Anonymous(), record.VocabularyInput{Word: "x"}); !record.IsValidationError(err) {
		t.Errorf("Expected validation error for missing meaning, got %v", err)
	}
	if err := p.DeleteVocabulary(ctx, db.Anonymous(), ""); !record.IsValidationError(err) {
		t.Errorf("Expected validation error for missing id, got %v", err)
	}
}

// TestVocabularyOwnerScope tests that users only see and delete their own notes
func TestVocabularyOwnerScope(t *testing.T) {
	p := setupTestProcessor(t, &MockEngine{})
	ctx := context.Background()
	alice := db.Owner{UserID: "alice"}
	bob := db.Owner{UserID: "bob"}

	note, err := p.SaveVocabulary(ctx, alice, record.VocabularyInput{Word: "Katze", Meaning: "cat", PartOfSpeech: "noun"})
	if err != nil {
		t.Fatalf("SaveVocabulary failed: %v", err)
	}

	list, err := p.ListVocabulary(ctx, bob)
	if err != nil {
		t.Fatalf("ListVocabulary failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Bob should not see Alice's notes, got %d", len(list))
	}

	err = p.DeleteVocabulary(ctx, bob, note.ID)
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign delete, got %v", err)
	}

	if err := p.DeleteVocabulary(ctx, alice, note.ID); err != nil {
		t.Errorf("Owner delete failed: %v", err)
	}
	if err := p.DeleteVocabulary(ctx, alice, note.ID); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for second delete, got %v", err)
	}
}

// TestClearTranslationsScope tests that clearing leaves other scopes intact
func TestClearTranslationsScope(t *testing.T) {
	p := setupTestProcessor(t, &MockEngine{})
	ctx := context.Background()
	in := record.TranslationInput{OriginalText: "a", TranslatedText: "b", DetectedLanguage: "en"}

	for i := 0; i < 3; i++ {
		if _, err := p.SaveTranslation(ctx, db.Owner{UserID: "u1"}, in); err != nil {
			t.Fatalf("SaveTranslation failed: %v", err)
		}
	}
	if _, err := p.SaveTranslation(ctx, db.Anonymous(), in); err != nil {
		t.Fatalf("SaveTranslation failed: %v", err)
	}

	n, err := p.ClearTranslations(ctx, db.Owner{UserID: "u1"})
	if err != nil {
		t.Fatalf("ClearTranslations failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 deleted, got %d", n)
	}

	stats, err := p.Stats(ctx, db.Anonymous())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Translations != 1 {
		t.Errorf("Anonymous record should survive, got %d", stats.Translations)
	}
}

// TestTranslateDocument tests extraction plus translation of an upload
func TestTranslateDocument(t *testing.T) {
	p := setupTestProcessor(t, &MockEngine{Detected: "fr"})

	res, err := p.TranslateDocument(context.Background(), "notes.txt", strings.NewReader("bonjour"), "en", "")
	if err != nil {
		t.Fatalf("TranslateDocument failed: %v", err)
	}
	if res.TranslatedText != "BONJOUR" {
		t.Errorf("Unexpected translation %q", res.TranslatedText)
	}
	if res.DetectedLanguage != "fr" {
		t.Errorf("Expected detected 'fr', got %q", res.DetectedLanguage)
	}
	if res.OriginalText != "bonjour" || res.FileType != "text" {
		t.Errorf("Unexpected result %+v", res)
	}
}

// TestTranslateDocumentInvalidUpload tests that bad uploads are validation errors
func TestTranslateDocumentInvalidUpload(t *testing.T) {
	p := setupTestProcessor(t, &MockEngine{})

	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{"unsupported", "image.png", "data"},
		{"traversal", "../secret.txt", "data"},
		{"corrupt pdf", "doc.pdf", "not a pdf"},
		{"empty text", "blank.txt", "   "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.TranslateDocument(context.Background(), tc.filename, strings.NewReader(tc.content), "en", "")
			if !record.IsValidationError(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

// TestTranslateEngineError tests that engine failures propagate
func TestTranslateEngineError(t *testing.T) {
	p := setupTestProcessor(t, &MockEngine{Err: &translate.EngineError{Engine: "test", Message: "rate limit", StatusCode: 429}})

	_, err := p.Translate(context.Background(), translate.Request{Text: "hola", SourceLanguage: "es"})
	if !translate.IsEngineError(err) {
		t.Errorf("Expected EngineError, got %v", err)
	}
}

// TestConnectorFailure tests that an unreachable database surfaces as an error
func TestConnectorFailure(t *testing.T) {
	conn := db.NewConnector(func(ctx context.Context) (db.Store, error) {
		return nil, errors.New("connection refused")
	})
	p := NewProcessor(conn, translate.NewService(&MockEngine{}, quietLogger()), quietLogger())

	if _, err := p.ListTranslations(context.Background(), db.Anonymous()); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected connection error, got %v", err)
	}
	if err := p.Ping(context.Background()); err == nil {
		t.Error("Expected ping error")
	}
}

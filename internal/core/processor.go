package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lingonote/lingonote/internal/db"
	"github.com/lingonote/lingonote/internal/parser"
	"github.com/lingonote/lingonote/internal/record"
	"github.com/lingonote/lingonote/internal/translate"
)

// Processor orchestrates record persistence and translation
type Processor struct {
	DB         *db.Connector
	Translator *translate.Service
	Logger     *logrus.Logger

	now func() time.Time
}

// DocumentResult contains the results of translating an uploaded document
type DocumentResult struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage string `json:"detectedLanguage"`
	OriginalText     string `json:"originalText"`
	FileType         string `json:"fileType"`
}

// NewProcessor creates a new Processor instance
func NewProcessor(conn *db.Connector, translator *translate.Service, logger *logrus.Logger) *Processor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Processor{
		DB:         conn,
		Translator: translator,
		Logger:     logger,
		now:        time.Now,
	}
}

func (p *Processor) store(ctx context.Context) (db.Store, error) {
	s, err := p.DB.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return s, nil
}

// checkOwner rejects a body that names a different owner than the session.
func checkOwner(bodyUserID string, owner db.Owner) error {
	if bodyUserID != "" && bodyUserID != owner.UserID {
		return &record.ValidationError{Field: "userId", Message: "does not match the signed-in user"}
	}
	return nil
}

// ListTranslations returns the translation history in the owner scope
func (p *Processor) ListTranslations(ctx context.Context, owner db.Owner) ([]*record.Translation, error) {
	s, err := p.store(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.ListTranslations(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	return items, nil
}

// SaveTranslation validates in and stores it under owner
func (p *Processor) SaveTranslation(ctx context.Context, owner db.Owner, in record.TranslationInput) (*record.Translation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := checkOwner(in.UserID, owner); err != nil {
		return nil, err
	}

	s, err := p.store(ctx)
	if err != nil {
		return nil, err
	}

	rec := in.Record(p.now())
	rec.UserID = owner.UserID

	saved, err := s.CreateTranslation(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to save translation: %w", err)
	}
	return saved, nil
}

// DeleteTranslation removes one translation. db.ErrNotFound is returned both
// for missing records and for records outside the owner scope.
func (p *Processor) DeleteTranslation(ctx context.Context, owner db.Owner, id string) error {
	if err := record.Required("id", id); err != nil {
		return err
	}
	s, err := p.store(ctx)
	if err != nil {
		return err
	}
	if _, err := s.DeleteTranslation(ctx, id, owner); err != nil {
		return fmt.Errorf("failed to delete translation: %w", err)
	}
	return nil
}

// ClearTranslations removes the whole translation history in the owner scope
func (p *Processor) ClearTranslations(ctx context.Context, owner db.Owner) (int64, error) {
	s, err := p.store(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.ClearTranslations(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to clear translations: %w", err)
	}
	p.Logger.WithFields(logrus.Fields{
		"owner":   owner.String(),
		"deleted": n,
	}).Info("Cleared translation history")
	return n, nil
}

// ListVocabulary returns the vocabulary notes in the owner scope
func (p *Processor) ListVocabulary(ctx context.Context, owner db.Owner) ([]*record.Vocabulary, error) {
	s, err := p.store(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.ListVocabulary(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list vocabulary: %w", err)
	}
	return items, nil
}

// SaveVocabulary validates in and stores it under owner
func (p *Processor) SaveVocabulary(ctx context.Context, owner db.Owner, in record.VocabularyInput) (*record.Vocabulary, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := checkOwner(in.UserID, owner); err != nil {
		return nil, err
	}

	s, err := p.store(ctx)
	if err != nil {
		return nil, err
	}

	rec := in.Record(p.now())
	rec.UserID = owner.UserID

	saved, err := s.CreateVocabulary(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to save vocabulary: %w", err)
	}
	return saved, nil
}

// DeleteVocabulary removes a vocabulary note by ID
func (p *Processor) DeleteVocabulary(ctx context.Context, owner db.Owner, id string) error {
	if err := record.Required("id", id); err != nil {
		return err
	}
	s, err := p.store(ctx)
	if err != nil {
		return err
	}
	if _, err := s.DeleteVocabulary(ctx, id, owner); err != nil {
		return fmt.Errorf("failed to delete vocabulary: %w", err)
	}
	return nil
}

// Stats returns the record counts in the owner scope
func (p *Processor) Stats(ctx context.Context, owner db.Owner) (*db.Stats, error) {
	s, err := p.store(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	return stats, nil
}

// Translate runs the translation facade
func (p *Processor) Translate(ctx context.Context, req translate.Request) (*translate.Result, error) {
	return p.Translator.Translate(ctx, req)
}

// DetectLanguage runs language detection alone
func (p *Processor) DetectLanguage(ctx context.Context, text string) (string, error) {
	return p.Translator.DetectLanguage(ctx, text)
}

// TranslateDocument extracts the text of an uploaded document and translates it.
// Nothing is persisted.
func (p *Processor) TranslateDocument(ctx context.Context, filename string, content io.Reader, targetLang, sourceLang string) (*DocumentResult, error) {
	// Any extraction failure is a problem with the upload itself
	text, err := parser.Extract(content, filename)
	if err != nil {
		return nil, &record.ValidationError{Field: "file", Message: err.Error()}
	}

	res, err := p.Translator.Translate(ctx, translate.Request{
		Text:           text,
		TargetLanguage: targetLang,
		SourceLanguage: sourceLang,
	})
	if err != nil {
		return nil, err
	}

	p.Logger.WithFields(logrus.Fields{
		"filename":    filename,
		"file_type":   parser.DetectFileType(filename).String(),
		"text_length": len(text),
	}).Info("Translated document")

	return &DocumentResult{
		TranslatedText:   res.TranslatedText,
		DetectedLanguage: res.DetectedLanguage,
		OriginalText:     text,
		FileType:         parser.DetectFileType(filename).String(),
	}, nil
}

// Ping checks that the database is reachable
func (p *Processor) Ping(ctx context.Context) error {
	s, err := p.store(ctx)
	if err != nil {
		return err
	}
	return s.Ping(ctx)
}

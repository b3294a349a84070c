package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/lingonote/lingonote/internal/auth"
	"github.com/lingonote/lingonote/internal/core"
	"github.com/lingonote/lingonote/internal/db"
	"github.com/lingonote/lingonote/internal/parser"
	"github.com/lingonote/lingonote/internal/record"
	"github.com/lingonote/lingonote/internal/translate"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// Handler contains all HTTP handlers.
type Handler struct {
	Processor *core.Processor
	Auth      *auth.Manager
	Logger    *logrus.Logger

	// SecureCookies marks session cookies as HTTPS-only.
	SecureCookies bool
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Message      string `json:"message"`
	DeletedCount *int64 `json:"deletedCount,omitempty"`
}

// ListTranslations handles GET /api/translations.
func (h *Handler) ListTranslations(w http.ResponseWriter, r *http.Request) {
	items, err := h.Processor.ListTranslations(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		h.handleError(w, r, err, "Failed to fetch translations", "")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// CreateTranslation handles POST /api/translations.
func (h *Handler) CreateTranslation(w http.ResponseWriter, r *http.Request) {
	var in record.TranslationInput
	if !decodeJSON(w, r, &in) {
		return
	}

	saved, err := h.Processor.SaveTranslation(r.Context(), auth.OwnerFrom(r.Context()), in)
	if err != nil {
		h.handleError(w, r, err, "Failed to save translation", "")
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// DeleteTranslations handles DELETE /api/translations?id= and
// DELETE /api/translations?clearAll=true.
func (h *Handler) DeleteTranslations(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFrom(r.Context())

	if r.URL.Query().Get("clearAll") == "true" {
		n, err := h.Processor.ClearTranslations(r.Context(), owner)
		if err != nil {
			h.handleError(w, r, err, "Failed to clear translation history", "")
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "All translations cleared successfully", DeletedCount: &n})
		return
	}

	err := h.Processor.DeleteTranslation(r.Context(), owner, r.URL.Query().Get("id"))
	if err != nil {
		h.handleError(w, r, err, "Failed to delete translation", "Translation not found or not authorized")
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Translation deleted successfully"})
}

// ListVocabulary handles GET /api/vocabulary.
func (h *Handler) ListVocabulary(w http.ResponseWriter, r *http.Request) {
	items, err := h.Processor.ListVocabulary(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		h.handleError(w, r, err, "Failed to fetch vocabulary notes", "")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// CreateVocabulary handles POST /api/vocabulary.
func (h *Handler) CreateVocabulary(w http.ResponseWriter, r *http.Request) {
	var in record.VocabularyInput
	if !decodeJSON(w, r, &in) {
		return
	}

	saved, err := h.Processor.SaveVocabulary(r.Context(), auth.OwnerFrom(r.Context()), in)
	if err != nil {
		h.handleError(w, r, err, "Failed to save vocabulary note", "")
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// DeleteVocabulary handles DELETE /api/vocabulary?id=.
func (h *Handler) DeleteVocabulary(w http.ResponseWriter, r *http.Request) {
	err := h.Processor.DeleteVocabulary(r.Context(), auth.OwnerFrom(r.Context()), r.URL.Query().Get("id"))
	if err != nil {
		h.handleError(w, r, err, "Failed to delete vocabulary note", "Vocabulary note not found or not authorized")
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Vocabulary note deleted successfully"})
}

// Translate handles POST /api/google-translate.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translate.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Processor.Translate(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err, "Failed to translate text", "")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// DetectLanguage handles POST /api/detect-language.
func (h *Handler) DetectLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := record.Required("text", req.Text); err != nil {
		respondError(w, http.StatusBadRequest, "Text is required")
		return
	}

	lang, err := h.Processor.DetectLanguage(r.Context(), req.Text)
	if err != nil {
		h.handleError(w, r, err, "Failed to detect language", "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"detectedLanguage": lang})
}

// TranslateDocument handles POST /api/translate-document.
func (h *Handler) TranslateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, parser.MaxFileSize+maxBodySize)
	if err := r.ParseMultipartForm(parser.MaxFileSize); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if err := parser.ValidateFilename(header.Filename); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid filename: %v", err))
		return
	}

	if header.Size > parser.MaxFileSize {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("File too large (max %d bytes)", parser.MaxFileSize))
		return
	}

	result, err := h.Processor.TranslateDocument(
		r.Context(),
		header.Filename,
		file,
		r.FormValue("targetLanguage"),
		r.FormValue("sourceLanguage"),
	)
	if err != nil {
		h.handleError(w, r, err, "Failed to translate document", "")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Processor.Stats(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		h.handleError(w, r, err, "Failed to get stats", "")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Processor.Ping(r.Context()); err != nil {
		h.Logger.WithError(err).Warn("Health check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"translator": h.Processor.Translator.EngineName(),
	})
}

// handleError maps domain errors onto status codes. Anything that is not a
// validation or not-found error is logged and reported as fallback.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, fallback, notFound string) {
	switch {
	case record.IsValidationError(err):
		respondError(w, http.StatusBadRequest, validationMessage(err))
	case notFound != "" && errors.Is(err, db.ErrNotFound):
		respondError(w, http.StatusNotFound, notFound)
	default:
		fields := logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}
		var engErr *translate.EngineError
		if errors.As(err, &engErr) {
			fields["engine"] = engErr.Engine
			fields["upstream_status"] = engErr.StatusCode
		}
		h.Logger.WithFields(fields).WithError(err).Error(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

func validationMessage(err error) string {
	var vErr *record.ValidationError
	if !errors.As(err, &vErr) {
		return err.Error()
	}
	switch vErr.Field {
	case "id":
		return "ID is required"
	case "text":
		return vErr.Message
	}
	return vErr.Error()
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondError sends an error JSON response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

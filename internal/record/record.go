package record

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Kind identifies one of the two independently stored record collections.
type Kind string

const (
	KindTranslation Kind = "translation"
	KindVocabulary  Kind = "vocabulary"
)

// Kinds lists every record kind in sync order.
var Kinds = []Kind{KindTranslation, KindVocabulary}

// Translation is one entry of a user's translation history.
type Translation struct {
	ID               string    `json:"_id,omitempty" bson:"_id"`
	LocalID          string    `json:"localId,omitempty" bson:"-"`
	OriginalText     string    `json:"originalText" bson:"originalText"`
	TranslatedText   string    `json:"translatedText" bson:"translatedText"`
	DetectedLanguage string    `json:"detectedLanguage" bson:"detectedLanguage"`
	Timestamp        time.Time `json:"timestamp" bson:"timestamp"`
	UserID           string    `json:"userId,omitempty" bson:"userId,omitempty"`
}

// Vocabulary is a vocabulary note.
type Vocabulary struct {
	ID            string    `json:"_id,omitempty" bson:"_id"`
	LocalID       string    `json:"localId,omitempty" bson:"-"`
	Word          string    `json:"word" bson:"word"`
	Meaning       string    `json:"meaning" bson:"meaning"`
	Pronunciation string    `json:"pronunciation,omitempty" bson:"pronunciation,omitempty"`
	PartOfSpeech  string    `json:"partOfSpeech,omitempty" bson:"partOfSpeech,omitempty"`
	Example       string    `json:"example,omitempty" bson:"example,omitempty"`
	Tags          []string  `json:"tags" bson:"tags"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UserID        string    `json:"userId,omitempty" bson:"userId,omitempty"`
}

// PartsOfSpeech are the accepted values for Vocabulary.PartOfSpeech.
var PartsOfSpeech = []string{
	"noun",
	"verb",
	"adjective",
	"adverb",
	"preposition",
	"conjunction",
	"pronoun",
	"interjection",
}

// ValidationError reports a request that failed boundary validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

var validate = newValidator()

// newValidator reports fields by their JSON names and adds "notblank" for
// strings that must contain more than whitespace.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("failed to register notblank validation: %v", err))
	}
	return v
}

// Required returns a ValidationError when value is blank.
func Required(field, value string) error {
	if err := validate.Var(value, "required,notblank"); err != nil {
		return fieldError(field, err)
	}
	return nil
}

// check validates a tagged input struct.
func check(in any) error {
	if err := validate.Struct(in); err != nil {
		return fieldError("", err)
	}
	return nil
}

// fieldError converts the first validator failure into a ValidationError.
func fieldError(field string, err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	fe := errs[0]
	if field == "" {
		field = fe.Field()
	}
	msg := "is required"
	if fe.Tag() == "oneof" {
		msg = "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return &ValidationError{Field: field, Message: msg}
}

// TranslationInput is the POST /api/translations body.
type TranslationInput struct {
	OriginalText     string    `json:"originalText" validate:"required,notblank"`
	TranslatedText   string    `json:"translatedText" validate:"required,notblank"`
	DetectedLanguage string    `json:"detectedLanguage" validate:"required,notblank"`
	Timestamp        time.Time `json:"timestamp"`
	UserID           string    `json:"userId,omitempty"`
}

// Validate checks required fields.
func (in TranslationInput) Validate() error {
	return check(in)
}

// Record converts the input into an unsaved Translation, defaulting the
// timestamp to now.
func (in TranslationInput) Record(now time.Time) *Translation {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = now
	}
	return &Translation{
		OriginalText:     in.OriginalText,
		TranslatedText:   in.TranslatedText,
		DetectedLanguage: in.DetectedLanguage,
		Timestamp:        ts.UTC(),
		UserID:           in.UserID,
	}
}

// VocabularyInput is the POST /api/vocabulary body.
type VocabularyInput struct {
	Word          string    `json:"word" validate:"required,notblank"`
	Meaning       string    `json:"meaning" validate:"required,notblank"`
	Pronunciation string    `json:"pronunciation,omitempty"`
	PartOfSpeech  string    `json:"partOfSpeech,omitempty" validate:"omitempty,oneof=noun verb adjective adverb preposition conjunction pronoun interjection"`
	Example       string    `json:"example,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UserID        string    `json:"userId,omitempty"`
}

// Validate checks required fields and the part-of-speech enumeration.
func (in VocabularyInput) Validate() error {
	return check(in)
}

// Record converts the input into an unsaved Vocabulary note.
func (in VocabularyInput) Record(now time.Time) *Vocabulary {
	created := in.CreatedAt
	if created.IsZero() {
		created = now
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Vocabulary{
		Word:          in.Word,
		Meaning:       in.Meaning,
		Pronunciation: in.Pronunciation,
		PartOfSpeech:  in.PartOfSpeech,
		Example:       in.Example,
		Tags:          tags,
		CreatedAt:     created.UTC(),
		UserID:        in.UserID,
	}
}

// TranslationInputFrom builds the upload body for an existing record,
// dropping both identities.
func TranslationInputFrom(t Translation) TranslationInput {
	return TranslationInput{
		OriginalText:     t.OriginalText,
		TranslatedText:   t.TranslatedText,
		DetectedLanguage: t.DetectedLanguage,
		Timestamp:        t.Timestamp,
		UserID:           t.UserID,
	}
}

// VocabularyInputFrom builds the upload body for an existing note.
func VocabularyInputFrom(v Vocabulary) VocabularyInput {
	return VocabularyInput{
		Word:          v.Word,
		Meaning:       v.Meaning,
		Pronunciation: v.Pronunciation,
		PartOfSpeech:  v.PartOfSpeech,
		Example:       v.Example,
		Tags:          v.Tags,
		CreatedAt:     v.CreatedAt,
		UserID:        v.UserID,
	}
}

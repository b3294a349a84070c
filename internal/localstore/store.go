// Package localstore keeps guest-mode records in a local key/value Storage,
// one JSON array per record kind.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lingonote/lingonote/internal/record"
)

const (
	TranslationsKey = "translation_history"
	VocabularyKey   = "vocabulary_notes"
)

// ErrUnavailable is returned by mutations on a Store without storage.
var ErrUnavailable = errors.New("local storage is unavailable")

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Store is the local record adapter. A Store created with a nil Storage is
// unavailable: lists are empty and mutations fail with ErrUnavailable.
type Store struct {
	storage Storage
	logger  *logrus.Logger
	now     func() time.Time
}

// New creates a Store over storage.
func New(storage Storage, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Available reports whether the Store has backing storage.
func (s *Store) Available() bool {
	return s.storage != nil
}

// KeyFor returns the storage key of a record kind.
func KeyFor(kind record.Kind) (string, error) {
	switch kind {
	case record.KindTranslation:
		return TranslationsKey, nil
	case record.KindVocabulary:
		return VocabularyKey, nil
	default:
		return "", fmt.Errorf("unknown record kind %q", kind)
	}
}

// ListTranslations returns local translations, newest first.
func (s *Store) ListTranslations() []record.Translation {
	return load[record.Translation](s, TranslationsKey)
}

// ListVocabulary returns local vocabulary notes, newest first.
func (s *Store) ListVocabulary() []record.Vocabulary {
	return load[record.Vocabulary](s, VocabularyKey)
}

// Len returns the number of local records of kind.
func (s *Store) Len(kind record.Kind) int {
	switch kind {
	case record.KindTranslation:
		return len(s.ListTranslations())
	case record.KindVocabulary:
		return len(s.ListVocabulary())
	}
	return 0
}

// SaveTranslation prepends t with a fresh local id. Any owner or server id
// on t is dropped.
func (s *Store) SaveTranslation(t record.Translation) (record.Translation, error) {
	if !s.Available() {
		return record.Translation{}, ErrUnavailable
	}

	t.ID = ""
	t.UserID = ""
	t.LocalID = s.newLocalID()
	if t.Timestamp.IsZero() {
		t.Timestamp = s.now().UTC()
	}

	items := append([]record.Translation{t}, s.ListTranslations()...)
	if err := s.write(TranslationsKey, items); err != nil {
		return record.Translation{}, err
	}
	return t, nil
}

// SaveVocabulary prepends v with a fresh local id. Any owner or server id
// on v is dropped.
func (s *Store) SaveVocabulary(v record.Vocabulary) (record.Vocabulary, error) {
	if !s.Available() {
		return record.Vocabulary{}, ErrUnavailable
	}

	v.ID = ""
	v.UserID = ""
	v.LocalID = s.newLocalID()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now().UTC()
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}

	items := append([]record.Vocabulary{v}, s.ListVocabulary()...)
	if err := s.write(VocabularyKey, items); err != nil {
		return record.Vocabulary{}, err
	}
	return v, nil
}

// Delete removes the record with localID. It returns false, without
// touching storage, when no such record exists.
func (s *Store) Delete(kind record.Kind, localID string) (bool, error) {
	if !s.Available() {
		return false, ErrUnavailable
	}

	switch kind {
	case record.KindTranslation:
		return remove(s, TranslationsKey, localID, func(t record.Translation) string { return t.LocalID })
	case record.KindVocabulary:
		return remove(s, VocabularyKey, localID, func(v record.Vocabulary) string { return v.LocalID })
	default:
		return false, fmt.Errorf("unknown record kind %q", kind)
	}
}

// Clear empties the local collection of kind.
func (s *Store) Clear(kind record.Kind) error {
	if !s.Available() {
		return ErrUnavailable
	}
	key, err := KeyFor(kind)
	if err != nil {
		return err
	}
	return s.storage.SetItem(key, "[]")
}

// newLocalID returns the millisecond clock followed by seven random base-36
// characters. Collisions are not checked.
func (s *Store) newLocalID() string {
	suffix := make([]byte, 7)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return strconv.FormatInt(s.now().UnixMilli(), 10) + string(suffix)
}

func (s *Store) write(key string, items any) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.storage.SetItem(key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// load reads the array under key. Missing, unreadable or corrupt values are
// logged and read as empty.
func load[T any](s *Store, key string) []T {
	items := []T{}
	if !s.Available() {
		return items
	}

	raw, ok, err := s.storage.GetItem(key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to read local storage")
		return items
	}
	if !ok || raw == "" {
		return items
	}

	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Corrupt local storage value, treating as empty")
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

func remove[T any](s *Store, key, localID string, idOf func(T) string) (bool, error) {
	items := load[T](s, key)
	kept := make([]T, 0, len(items))
	for _, it := range items {
		if idOf(it) != localID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	if err := s.write(key, kept); err != nil {
		return false, err
	}
	return true, nil
}

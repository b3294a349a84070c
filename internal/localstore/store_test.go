package localstore

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingonote/lingonote/internal/record"
)

func newTestStore(t *testing.T) (*Store, *MemoryStorage) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	mem := NewMemoryStorage()
	return New(mem, logger), mem
}

func TestSaveAndListTranslation(t *testing.T) {
	s, _ := newTestStore(t)
	in := record.Translation{
		OriginalText:     "hola",
		TranslatedText:   "hello",
		DetectedLanguage: "es",
		Timestamp:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	saved, err := s.SaveTranslation(in)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.LocalID)

	list := s.ListTranslations()
	require.Len(t, list, 1)
	if diff := cmp.Diff(in, list[0], cmpopts.IgnoreFields(record.Translation{}, "LocalID")); diff != "" {
		t.Errorf("stored record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, saved.LocalID, list[0].LocalID)
}

func TestSaveAssignsUniqueIDsNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)

	seen := map[string]bool{}
	for _, w := range []string{"uno", "dos", "tres"} {
		saved, err := s.SaveTranslation(record.Translation{OriginalText: w, TranslatedText: w, DetectedLanguage: "es"})
		require.NoError(t, err)
		assert.False(t, seen[saved.LocalID], "duplicate local id %s", saved.LocalID)
		seen[saved.LocalID] = true
	}

	list := s.ListTranslations()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"tres", "dos", "uno"}, []string{list[0].OriginalText, list[1].OriginalText, list[2].OriginalText})
}

func TestSaveStripsOwnerAndServerID(t *testing.T) {
	s, mem := newTestStore(t)

	_, err := s.SaveVocabulary(record.Vocabulary{ID: "srv-1", Word: "gato", Meaning: "cat", UserID: "u1"})
	require.NoError(t, err)

	list := s.ListVocabulary()
	require.Len(t, list, 1)
	assert.Empty(t, list[0].UserID)
	assert.Empty(t, list[0].ID)
	assert.NotNil(t, list[0].Tags)
	assert.False(t, list[0].CreatedAt.IsZero())

	raw, ok, _ := mem.GetItem(VocabularyKey)
	require.True(t, ok)
	assert.NotContains(t, raw, "userId")
	assert.NotContains(t, raw, "u1")
}

func TestLocalIDFormat(t *testing.T) {
	s, _ := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(1714557600123) }

	saved, err := s.SaveTranslation(record.Translation{OriginalText: "a", TranslatedText: "b", DetectedLanguage: "en"})
	require.NoError(t, err)
	assert.Regexp(t, `^1714557600123[0-9a-z]{7}$`, saved.LocalID)
}

func TestDeleteUnknownReturnsFalse(t *testing.T) {
	s, mem := newTestStore(t)
	_, err := s.SaveTranslation(record.Translation{OriginalText: "a", TranslatedText: "b", DetectedLanguage: "en"})
	require.NoError(t, err)
	before, _, _ := mem.GetItem(TranslationsKey)

	ok, err := s.Delete(record.KindTranslation, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)

	after, _, _ := mem.GetItem(TranslationsKey)
	assert.Equal(t, before, after, "storage must be unchanged")
}

func TestDeleteKnown(t *testing.T) {
	s, _ := newTestStore(t)
	a, _ := s.SaveVocabulary(record.Vocabulary{Word: "perro", Meaning: "dog"})
	b, _ := s.SaveVocabulary(record.Vocabulary{Word: "gato", Meaning: "cat"})

	ok, err := s.Delete(record.KindVocabulary, a.LocalID)
	require.NoError(t, err)
	assert.True(t, ok)

	list := s.ListVocabulary()
	require.Len(t, list, 1)
	assert.Equal(t, b.LocalID, list[0].LocalID)
}

func TestClearIsPerKind(t *testing.T) {
	s, mem := newTestStore(t)
	_, _ = s.SaveTranslation(record.Translation{OriginalText: "a", TranslatedText: "b", DetectedLanguage: "en"})
	_, _ = s.SaveVocabulary(record.Vocabulary{Word: "w", Meaning: "m"})

	require.NoError(t, s.Clear(record.KindTranslation))

	assert.Empty(t, s.ListTranslations())
	assert.Len(t, s.ListVocabulary(), 1)

	raw, _, _ := mem.GetItem(TranslationsKey)
	assert.Equal(t, "[]", raw)
}

func TestCorruptValueReadsAsEmpty(t *testing.T) {
	s, mem := newTestStore(t)
	require.NoError(t, mem.SetItem(TranslationsKey, "{not json"))

	assert.Empty(t, s.ListTranslations())

	// A save over corrupt data starts a fresh list
	_, err := s.SaveTranslation(record.Translation{OriginalText: "a", TranslatedText: "b", DetectedLanguage: "en"})
	require.NoError(t, err)
	assert.Len(t, s.ListTranslations(), 1)
}

type failingStorage struct{}

func (failingStorage) GetItem(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (failingStorage) SetItem(string, string) error         { return errors.New("disk gone") }

func TestStorageErrors(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := New(failingStorage{}, logger)

	assert.Empty(t, s.ListVocabulary())
	_, err := s.SaveVocabulary(record.Vocabulary{Word: "w", Meaning: "m"})
	assert.Error(t, err)
}

func TestUnavailableStore(t *testing.T) {
	s := New(nil, nil)

	assert.False(t, s.Available())
	assert.Empty(t, s.ListTranslations())
	assert.Equal(t, 0, s.Len(record.KindVocabulary))

	_, err := s.SaveTranslation(record.Translation{OriginalText: "a"})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.Delete(record.KindTranslation, "x")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Clear(record.KindTranslation), ErrUnavailable)
}

func TestSQLiteStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	storage, err := OpenSQLiteStorage(path)
	require.NoError(t, err)

	_, ok, err := storage.GetItem(TranslationsKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.SetItem(TranslationsKey, "[1]"))
	require.NoError(t, storage.SetItem(TranslationsKey, "[2]"))
	require.NoError(t, storage.Close())

	// Values survive reopening
	storage, err = OpenSQLiteStorage(path)
	require.NoError(t, err)
	defer storage.Close()

	v, ok, err := storage.GetItem(TranslationsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[2]", v)
}

func TestStoreOverSQLite(t *testing.T) {
	storage, err := OpenSQLiteStorage(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	defer storage.Close()

	s := New(storage, nil)
	saved, err := s.SaveVocabulary(record.Vocabulary{Word: "Haus", Meaning: "house", Tags: []string{"a", "a"}})
	require.NoError(t, err)

	list := s.ListVocabulary()
	require.Len(t, list, 1)
	assert.Equal(t, saved.LocalID, list[0].LocalID)
	assert.Equal(t, []string{"a", "a"}, list[0].Tags)
}

package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingonote/lingonote/internal/api"
	"github.com/lingonote/lingonote/internal/auth"
	"github.com/lingonote/lingonote/internal/core"
	"github.com/lingonote/lingonote/internal/db"
	"github.com/lingonote/lingonote/internal/localstore"
	"github.com/lingonote/lingonote/internal/logging"
	"github.com/lingonote/lingonote/internal/parser"
	"github.com/lingonote/lingonote/internal/record"
	"github.com/lingonote/lingonote/internal/remote"
	"github.com/lingonote/lingonote/internal/translate"
)

// startServer runs the real HTTP API over an in-memory database.
func startServer(t *testing.T) (*httptest.Server, db.Store) {
	t.Helper()
	store, err := db.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	conn := db.StaticConnector(store)

	logger := logging.Discard()
	h := &api.Handler{
		Processor: core.NewProcessor(conn, translate.NewService(translate.NewMockEngine(), logger), logger),
		Auth:      auth.NewManager(auth.Config{ClientID: "cid"}, conn, logger),
		Logger:    logger,
	}
	srv := httptest.NewServer(api.NewRouter(h, nil))
	t.Cleanup(func() {
		srv.Close()
		conn.Close()
	})
	return srv, store
}

func issueToken(t *testing.T, store db.Store, email string) string {
	t.Helper()
	ctx := context.Background()
	user, err := store.UpsertUser(ctx, &db.User{Name: "Test", Email: email})
	require.NoError(t, err)
	token := "tok-" + user.ID
	require.NoError(t, store.CreateSession(ctx, &db.Session{Token: token, UserID: user.ID, Expires: time.Now().Add(time.Hour)}))
	return token
}

func newTestNotebook(t *testing.T, serverURL, token string) *notebook {
	t.Helper()
	logger := logging.Discard()
	local := localstore.New(localstore.NewMemoryStorage(), logger)
	return newNotebook(local, remote.NewClient(serverURL, token, logger), logger)
}

func TestGuestModeStaysLocal(t *testing.T) {
	srv, store := startServer(t)
	nb := newTestNotebook(t, srv.URL, "")
	ctx := context.Background()

	_, err := nb.refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "guest", nb.mode())

	res, err := nb.translate(ctx, "hola", "en", "")
	require.NoError(t, err)
	assert.Equal(t, "aloh", res.TranslatedText)

	_, err = nb.saveVocabulary(ctx, record.VocabularyInput{Word: "perro", Meaning: "dog"})
	require.NoError(t, err)

	history, err := nb.listTranslations(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.NotEmpty(t, history[0].LocalID)

	// Nothing reached the server
	remoteHistory, err := store.ListTranslations(ctx, db.Anonymous())
	require.NoError(t, err)
	assert.Empty(t, remoteHistory)

	ok, err := nb.deleteTranslation(ctx, "no-such-id")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginSyncsGuestRecords(t *testing.T) {
	srv, store := startServer(t)
	nb := newTestNotebook(t, srv.URL, "")
	ctx := context.Background()
	_, err := nb.refresh(ctx)
	require.NoError(t, err)

	for _, w := range []string{"uno", "dos"} {
		_, err := nb.saveVocabulary(ctx, record.VocabularyInput{Word: w, Meaning: "n"})
		require.NoError(t, err)
	}
	_, err = nb.translate(ctx, "gato", "en", "es")
	require.NoError(t, err)

	token := issueToken(t, store, "ada@example.com")
	report, err := nb.useToken(ctx, token)
	require.NoError(t, err)

	require.True(t, report.Ran)
	assert.Equal(t, 0, report.Dropped())
	assert.Equal(t, "account", nb.mode())
	assert.Empty(t, nb.local.ListVocabulary())
	assert.Empty(t, nb.local.ListTranslations())

	notes, err := nb.listVocabulary(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	for _, n := range notes {
		assert.Equal(t, nb.session.UserID, n.UserID)
		assert.Empty(t, n.LocalID)
	}

	// A second refresh in the same session does not sync again
	again, err := nb.refresh(ctx)
	require.NoError(t, err)
	assert.False(t, again.Ran)
}

func TestAccountModeDeleteScope(t *testing.T) {
	srv, store := startServer(t)
	ctx := context.Background()

	alice := newTestNotebook(t, srv.URL, issueToken(t, store, "alice@example.com"))
	bob := newTestNotebook(t, srv.URL, issueToken(t, store, "bob@example.com"))
	_, err := alice.refresh(ctx)
	require.NoError(t, err)
	_, err = bob.refresh(ctx)
	require.NoError(t, err)

	note, err := alice.saveVocabulary(ctx, record.VocabularyInput{Word: "Haus", Meaning: "house"})
	require.NoError(t, err)

	ok, err := bob.deleteVocabulary(ctx, note.ID)
	require.NoError(t, err)
	assert.False(t, ok, "foreign records are reported as missing")

	ok, err = alice.deleteVocabulary(ctx, note.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLogoutReturnsToGuest(t *testing.T) {
	srv, store := startServer(t)
	ctx := context.Background()
	nb := newTestNotebook(t, srv.URL, issueToken(t, store, "ada@example.com"))
	_, err := nb.refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, "account", nb.mode())

	require.NoError(t, nb.client.SignOut(ctx))
	_, err = nb.useToken(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "guest", nb.mode())
	assert.Nil(t, nb.user)
}

func TestUnreachableServerIsNotSignedIn(t *testing.T) {
	nb := newTestNotebook(t, "http://127.0.0.1:1", "some-token")
	_, err := nb.refresh(context.Background())
	assert.Error(t, err)
	assert.False(t, nb.signedIn())
}

func TestTranslateFileChecksLocally(t *testing.T) {
	srv, _ := startServer(t)
	nb := newTestNotebook(t, srv.URL, "")
	ctx := context.Background()
	dir := t.TempDir()

	huge := filepath.Join(dir, "huge.pdf")
	require.NoError(t, os.WriteFile(huge, nil, 0o600))
	require.NoError(t, os.Truncate(huge, parser.MaxFileSize+1))
	_, err := nb.translateFile(ctx, huge, "en")
	assert.ErrorIs(t, err, parser.ErrTooLarge)

	image := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(image, []byte("png"), 0o600))
	_, err = nb.translateFile(ctx, image, "en")
	assert.ErrorIs(t, err, parser.ErrUnsupportedType)

	assert.Empty(t, nb.local.ListTranslations())

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hola"), 0o600))
	res, err := nb.translateFile(ctx, notes, "en")
	require.NoError(t, err)
	assert.Equal(t, "aloh", res.TranslatedText)
	assert.Len(t, nb.local.ListTranslations(), 1)
}

func TestTokenFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	assert.Empty(t, loadToken(dir))
	require.NoError(t, saveToken(dir, "abc"))
	assert.Equal(t, "abc", loadToken(dir))

	info, err := os.Stat(filepath.Join(dir, tokenFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, removeToken(dir))
	require.NoError(t, removeToken(dir))
	assert.Empty(t, loadToken(dir))
}

func TestFormatNote(t *testing.T) {
	got := formatNote(record.Vocabulary{
		Word:          "chat",
		Pronunciation: "ʃa",
		PartOfSpeech:  "noun",
		Meaning:       "cat",
		Tags:          []string{"animals"},
	})
	assert.Equal(t, "chat /ʃa/ (noun): cat  #animals", got)
}

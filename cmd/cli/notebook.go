package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lingonote/lingonote/internal/localstore"
	"github.com/lingonote/lingonote/internal/parser"
	"github.com/lingonote/lingonote/internal/record"
	"github.com/lingonote/lingonote/internal/remote"
	"github.com/lingonote/lingonote/internal/sync"
)

const (
	localDBName   = "local.db"
	tokenFileName = "token"
)

// notebook routes record operations to local storage in guest mode and to
// the server once signed in.
type notebook struct {
	local   *localstore.Store
	client  *remote.Client
	coord   *sync.Coordinator
	logger  *logrus.Logger
	session sync.SessionState
	user    *remote.SessionUser
}

func newNotebook(local *localstore.Store, client *remote.Client, logger *logrus.Logger) *notebook {
	return &notebook{
		local:   local,
		client:  client,
		coord:   sync.NewCoordinator(local, client, logger),
		logger:  logger,
		session: sync.SessionState{Status: sync.StatusLoading},
	}
}

// refresh asks the server who we are and feeds the answer to the sync
// coordinator. Without a token no request is made.
func (n *notebook) refresh(ctx context.Context) (sync.Report, error) {
	state, user, err := n.resolveSession(ctx)
	n.session = state
	n.user = user
	if err != nil {
		return sync.Report{}, err
	}
	return n.coord.Observe(ctx, state), nil
}

func (n *notebook) resolveSession(ctx context.Context) (sync.SessionState, *remote.SessionUser, error) {
	if n.client.Token() == "" {
		return sync.SessionState{Status: sync.StatusUnauthenticated}, nil, nil
	}

	info, err := n.client.Session(ctx)
	if remote.IsUnauthorized(err) {
		return sync.SessionState{Status: sync.StatusUnauthenticated}, nil, nil
	}
	if err != nil {
		return sync.SessionState{Status: sync.StatusLoading}, nil, fmt.Errorf("failed to check session: %w", err)
	}
	if info.Status != string(sync.StatusAuthenticated) || info.User == nil {
		return sync.SessionState{Status: sync.StatusUnauthenticated}, nil, nil
	}
	return sync.SessionState{Status: sync.StatusAuthenticated, UserID: info.User.ID}, info.User, nil
}

// signedIn reports whether records go to the server.
func (n *notebook) signedIn() bool {
	return n.session.Status == sync.StatusAuthenticated && n.session.UserID != ""
}

func (n *notebook) mode() string {
	if n.signedIn() {
		return "account"
	}
	return "guest"
}

// useToken switches the client to token and re-evaluates the session.
func (n *notebook) useToken(ctx context.Context, token string) (sync.Report, error) {
	n.client = n.client.WithToken(token)
	n.coord.SetUploader(n.client)
	return n.refresh(ctx)
}

func (n *notebook) listTranslations(ctx context.Context) ([]record.Translation, error) {
	if n.signedIn() {
		return n.client.ListTranslations(ctx)
	}
	return n.local.ListTranslations(), nil
}

func (n *notebook) saveTranslation(ctx context.Context, t record.Translation) (record.Translation, error) {
	if n.signedIn() {
		in := record.TranslationInputFrom(t)
		in.UserID = ""
		saved, err := n.client.CreateTranslation(ctx, in)
		if err != nil {
			return record.Translation{}, err
		}
		return *saved, nil
	}
	return n.local.SaveTranslation(t)
}

// deleteTranslation removes a record by server id or local id. It returns
// false when nothing matched.
func (n *notebook) deleteTranslation(ctx context.Context, id string) (bool, error) {
	if n.signedIn() {
		err := n.client.DeleteTranslation(ctx, id)
		if remote.IsNotFound(err) {
			return false, nil
		}
		return err == nil, err
	}
	return n.local.Delete(record.KindTranslation, id)
}

func (n *notebook) clearTranslations(ctx context.Context) (int, error) {
	if n.signedIn() {
		deleted, err := n.client.ClearTranslations(ctx)
		return int(deleted), err
	}
	count := n.local.Len(record.KindTranslation)
	if err := n.local.Clear(record.KindTranslation); err != nil {
		return 0, err
	}
	return count, nil
}

func (n *notebook) listVocabulary(ctx context.Context) ([]record.Vocabulary, error) {
	if n.signedIn() {
		return n.client.ListVocabulary(ctx)
	}
	return n.local.ListVocabulary(), nil
}

func (n *notebook) saveVocabulary(ctx context.Context, in record.VocabularyInput) (record.Vocabulary, error) {
	in.UserID = ""
	if err := in.Validate(); err != nil {
		return record.Vocabulary{}, err
	}
	if n.signedIn() {
		saved, err := n.client.CreateVocabulary(ctx, in)
		if err != nil {
			return record.Vocabulary{}, err
		}
		return *saved, nil
	}
	return n.local.SaveVocabulary(*in.Record(time.Time{}))
}

func (n *notebook) deleteVocabulary(ctx context.Context, id string) (bool, error) {
	if n.signedIn() {
		err := n.client.DeleteVocabulary(ctx, id)
		if remote.IsNotFound(err) {
			return false, nil
		}
		return err == nil, err
	}
	return n.local.Delete(record.KindVocabulary, id)
}

// translate runs a translation on the server and records it in the
// history of the current mode.
func (n *notebook) translate(ctx context.Context, text, target, source string) (*remote.TranslateResult, error) {
	res, err := n.client.Translate(ctx, text, target, source)
	if err != nil {
		return nil, err
	}
	n.remember(ctx, text, res)
	return res, nil
}

func (n *notebook) translateFile(ctx context.Context, path, target string) (*remote.TranslateResult, error) {
	path = filepath.Clean(path)
	if err := parser.CheckFile(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	res, err := n.client.TranslateDocument(ctx, filepath.Base(path), f, target)
	if err != nil {
		return nil, err
	}
	n.remember(ctx, res.OriginalText, res)
	return res, nil
}

// remember saves a translation to history. Failure only costs the history
// entry, so it is logged rather than returned.
func (n *notebook) remember(ctx context.Context, original string, res *remote.TranslateResult) {
	if strings.TrimSpace(original) == "" {
		return
	}
	_, err := n.saveTranslation(ctx, record.Translation{
		OriginalText:     original,
		TranslatedText:   res.TranslatedText,
		DetectedLanguage: res.DetectedLanguage,
	})
	if err != nil && !errors.Is(err, localstore.ErrUnavailable) {
		n.logger.WithError(err).Warn("Failed to save translation history")
	}
}

// recordID returns the id a user passes to delete a record in either mode.
func recordID(serverID, localID string) string {
	if serverID != "" {
		return serverID
	}
	return localID
}

func loadToken(dir string) string {
	b, err := os.ReadFile(filepath.Join(dir, tokenFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func saveToken(dir, token string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, tokenFileName), []byte(token+"\n"), 0o600)
}

func removeToken(dir string) error {
	err := os.Remove(filepath.Join(dir, tokenFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

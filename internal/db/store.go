package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lingonote/lingonote/internal/record"
)

// ErrNotFound is returned when a record does not exist or is outside the
// caller's owner scope. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// Owner is the scope applied to every read and write. An empty UserID
// selects ownerless (anonymous) records only.
type Owner struct {
	UserID string
}

// Anonymous returns the ownerless scope.
func Anonymous() Owner {
	return Owner{}
}

// IsAnonymous reports whether the scope selects ownerless records.
func (o Owner) IsAnonymous() bool {
	return o.UserID == ""
}

func (o Owner) String() string {
	if o.IsAnonymous() {
		return "anonymous"
	}
	return "user:" + o.UserID
}

// Stats holds record counts within an owner scope.
type Stats struct {
	Translations int64 `json:"translations"`
	Vocabulary   int64 `json:"vocabulary"`
}

// Store is the server-side persistence for records, users and sessions.
type Store interface {
	ListTranslations(ctx context.Context, owner Owner) ([]*record.Translation, error)
	CreateTranslation(ctx context.Context, t *record.Translation) (*record.Translation, error)
	DeleteTranslation(ctx context.Context, id string, owner Owner) (*record.Translation, error)
	ClearTranslations(ctx context.Context, owner Owner) (int64, error)

	ListVocabulary(ctx context.Context, owner Owner) ([]*record.Vocabulary, error)
	CreateVocabulary(ctx context.Context, v *record.Vocabulary) (*record.Vocabulary, error)
	DeleteVocabulary(ctx context.Context, id string, owner Owner) (*record.Vocabulary, error)
	ClearVocabulary(ctx context.Context, owner Owner) (int64, error)

	Stats(ctx context.Context, owner Owner) (*Stats, error)

	UpsertUser(ctx context.Context, u *User) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, token string) (*Session, error)
	DeleteSession(ctx context.Context, token string) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names the storage engine selected by a connection string.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMongo  Backend = "mongodb"
)

// DetectBackend picks the backend from the connection string scheme.
func DetectBackend(url string) Backend {
	if strings.HasPrefix(url, "mongodb://") || strings.HasPrefix(url, "mongodb+srv://") {
		return BackendMongo
	}
	return BackendSQLite
}

// Open connects to the store named by url.
func Open(ctx context.Context, url string) (Store, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	if DetectBackend(url) == BackendMongo {
		s, err := NewMongoStore(ctx, url)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := NewSQLiteStore(strings.TrimPrefix(url, "sqlite://"))
	if err != nil {
		return nil, err
	}
	return s, nil
}

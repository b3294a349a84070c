//go:build integration

package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lingonote/lingonote/internal/record"
)

func setupMongo(t *testing.T) *MongoStore {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatal(err)
	}

	uri := fmt.Sprintf("mongodb://%s:%s/lingonote_test", host, port.Port())
	store, err := NewMongoStore(ctx, uri)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestMongoStore_OwnerScope(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}

	store := setupMongo(t)
	ctx := context.Background()

	anon, err := store.CreateVocabulary(ctx, &record.Vocabulary{Word: "casa", Meaning: "house", CreatedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	owned, err := store.CreateVocabulary(ctx, &record.Vocabulary{Word: "perro", Meaning: "dog", CreatedAt: time.Now(), UserID: "user-a"})
	if err != nil {
		t.Fatal(err)
	}

	items, err := store.ListVocabulary(ctx, Anonymous())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != anon.ID {
		t.Errorf("anonymous scope returned %d items", len(items))
	}

	if _, err := store.DeleteVocabulary(ctx, owned.ID, Owner{UserID: "user-b"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.DeleteVocabulary(ctx, owned.ID, Owner{UserID: "user-a"}); err != nil {
		t.Errorf("owner delete failed: %v", err)
	}
}

func TestMongoStore_TranslationsNewestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}

	store := setupMongo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"uno", "dos"} {
		_, err := store.CreateTranslation(ctx, &record.Translation{
			OriginalText:     text,
			TranslatedText:   text,
			DetectedLanguage: "es",
			Timestamp:        base.Add(time.Duration(i) * time.Minute),
			UserID:           "user-a",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	items, err := store.ListTranslations(ctx, Owner{UserID: "user-a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].OriginalText != "dos" {
		t.Errorf("unexpected order: %+v", items)
	}

	n, err := store.ClearTranslations(ctx, Owner{UserID: "user-a"})
	if err != nil || n != 2 {
		t.Errorf("clear returned %d, %v", n, err)
	}
}

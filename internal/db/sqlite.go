package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lingonote/lingonote/internal/record"
)

// SQLiteStore implements Store on a SQLite database
type SQLiteStore struct {
	conn *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS translations (
    id TEXT PRIMARY KEY,
    original_text TEXT NOT NULL,
    translated_text TEXT NOT NULL,
    detected_language TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    user_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_translations_user ON translations(user_id, timestamp);

CREATE TABLE IF NOT EXISTS vocabulary_notes (
    id TEXT PRIMARY KEY,
    word TEXT NOT NULL,
    meaning TEXT NOT NULL,
    pronunciation TEXT NOT NULL DEFAULT '',
    part_of_speech TEXT NOT NULL DEFAULT '',
    example TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL,
    user_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_vocabulary_user ON vocabulary_notes(user_id, created_at);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT UNIQUE NOT NULL,
    image TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    expires DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`

// NewSQLiteStore opens a SQLite database and initializes the schema
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	memory := dbPath == ":memory:"

	// Connection-scoped pragmas go in the DSN so every pooled connection gets them
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if memory {
		// Every connection to ":memory:" is a separate database
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)

		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{conn: conn}
	if err := s.Migrate(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// Migrate creates any missing tables and indexes
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

const translationColumns = `id, original_text, translated_text, detected_language, timestamp, user_id`

// ListTranslations returns translations in the owner scope, newest first
func (s *SQLiteStore) ListTranslations(ctx context.Context, owner Owner) ([]*record.Translation, error) {
	query := `SELECT ` + translationColumns + ` FROM translations
		WHERE user_id = ? ORDER BY timestamp DESC, rowid DESC`

	rows, err := s.conn.QueryContext(ctx, query, owner.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	defer rows.Close()

	items := []*record.Translation{}
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// CreateTranslation inserts t and assigns its server ID
func (s *SQLiteStore) CreateTranslation(ctx context.Context, t *record.Translation) (*record.Translation, error) {
	saved := *t
	saved.ID = uuid.NewString()
	saved.LocalID = ""
	saved.Timestamp = saved.Timestamp.UTC()

	query := `INSERT INTO translations (` + translationColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.conn.ExecContext(ctx, query,
		saved.ID,
		saved.OriginalText,
		saved.TranslatedText,
		saved.DetectedLanguage,
		saved.Timestamp,
		saved.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert translation: %w", err)
	}

	return &saved, nil
}

// DeleteTranslation removes one translation within the owner scope
func (s *SQLiteStore) DeleteTranslation(ctx context.Context, id string, owner Owner) (*record.Translation, error) {
	var t *record.Translation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + translationColumns + ` FROM translations WHERE id = ? AND user_id = ?`
		found, err := scanTranslation(tx.QueryRowContext(ctx, query, id, owner.UserID))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM translations WHERE id = ?`, id); err != nil {
			return err
		}
		t = found
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete translation: %w", err)
	}

	return t, nil
}

// ClearTranslations removes every translation in the owner scope
func (s *SQLiteStore) ClearTranslations(ctx context.Context, owner Owner) (int64, error) {
	return s.deleteScoped(ctx, "translations", owner)
}

const vocabularyColumns = `id, word, meaning, pronunciation, part_of_speech, example, tags, created_at, user_id`

// ListVocabulary returns vocabulary notes in the owner scope, newest first
func (s *SQLiteStore) ListVocabulary(ctx context.Context, owner Owner) ([]*record.Vocabulary, error) {
	query := `SELECT ` + vocabularyColumns + ` FROM vocabulary_notes
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`

	rows, err := s.conn.QueryContext(ctx, query, owner.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vocabulary: %w", err)
	}
	defer rows.Close()

	items := []*record.Vocabulary{}
	for rows.Next() {
		v, err := scanVocabulary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vocabulary: %w", err)
		}
		items = append(items, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// CreateVocabulary inserts v and assigns its server ID
func (s *SQLiteStore) CreateVocabulary(ctx context.Context, v *record.Vocabulary) (*record.Vocabulary, error) {
	saved := *v
	saved.ID = uuid.NewString()
	saved.LocalID = ""
	saved.CreatedAt = saved.CreatedAt.UTC()
	if saved.Tags == nil {
		saved.Tags = []string{}
	}

	tags, err := json.Marshal(saved.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `INSERT INTO vocabulary_notes (` + vocabularyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.conn.ExecContext(ctx, query,
		saved.ID,
		saved.Word,
		saved.Meaning,
		saved.Pronunciation,
		saved.PartOfSpeech,
		saved.Example,
		string(tags),
		saved.CreatedAt,
		saved.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert vocabulary: %w", err)
	}

	return &saved, nil
}

// DeleteVocabulary removes one vocabulary note within the owner scope
func (s *SQLiteStore) DeleteVocabulary(ctx context.Context, id string, owner Owner) (*record.Vocabulary, error) {
	var v *record.Vocabulary
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + vocabularyColumns + ` FROM vocabulary_notes WHERE id = ? AND user_id = ?`
		found, err := scanVocabulary(tx.QueryRowContext(ctx, query, id, owner.UserID))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM vocabulary_notes WHERE id = ?`, id); err != nil {
			return err
		}
		v = found
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete vocabulary: %w", err)
	}

	return v, nil
}

// ClearVocabulary removes every vocabulary note in the owner scope
func (s *SQLiteStore) ClearVocabulary(ctx context.Context, owner Owner) (int64, error) {
	return s.deleteScoped(ctx, "vocabulary_notes", owner)
}

// Stats counts records in the owner scope
func (s *SQLiteStore) Stats(ctx context.Context, owner Owner) (*Stats, error) {
	var stats Stats
	err := s.conn.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM translations WHERE user_id = ?),
		        (SELECT COUNT(*) FROM vocabulary_notes WHERE user_id = ?)`,
		owner.UserID, owner.UserID,
	).Scan(&stats.Translations, &stats.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	return &stats, nil
}

// UpsertUser inserts a user or refreshes the profile of the user with the same email
func (s *SQLiteStore) UpsertUser(ctx context.Context, u *User) (*User, error) {
	now := time.Now().UTC()
	query := `INSERT INTO users (id, name, email, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
		    name = excluded.name,
		    image = excluded.image,
		    updated_at = excluded.updated_at`

	if _, err := s.conn.ExecContext(ctx, query, uuid.NewString(), u.Name, u.Email, u.Image, now, now); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	saved, err := s.getUserBy(ctx, "email", u.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	return saved, nil
}

// GetUser retrieves a user by ID
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	return s.getUserBy(ctx, "id", id)
}

func (s *SQLiteStore) getUserBy(ctx context.Context, column, value string) (*User, error) {
	query := `SELECT id, name, email, image, created_at, updated_at FROM users WHERE ` + column + ` = ?`

	var u User
	err := s.conn.QueryRowContext(ctx, query, value).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Image,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// CreateSession stores a new session
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *Session) error {
	query := `INSERT INTO sessions (token, user_id, expires) VALUES (?, ?, ?)`
	if _, err := s.conn.ExecContext(ctx, query, sess.Token, sess.UserID, sess.Expires.UTC()); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by token
func (s *SQLiteStore) GetSession(ctx context.Context, token string) (*Session, error) {
	query := `SELECT token, user_id, expires FROM sessions WHERE token = ?`

	var sess Session
	err := s.conn.QueryRowContext(ctx, query, token).Scan(&sess.Token, &sess.UserID, &sess.Expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &sess, nil
}

// DeleteSession removes a session; deleting an unknown token is not an error
func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) deleteScoped(ctx context.Context, table string, owner Owner) (int64, error) {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, owner.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTranslation(row rowScanner) (*record.Translation, error) {
	var t record.Translation
	err := row.Scan(
		&t.ID,
		&t.OriginalText,
		&t.TranslatedText,
		&t.DetectedLanguage,
		&t.Timestamp,
		&t.UserID,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanVocabulary(row rowScanner) (*record.Vocabulary, error) {
	var (
		v    record.Vocabulary
		tags string
	)
	err := row.Scan(
		&v.ID,
		&v.Word,
		&v.Meaning,
		&v.Pronunciation,
		&v.PartOfSpeech,
		&v.Example,
		&tags,
		&v.CreatedAt,
		&v.UserID,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &v.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}

	return &v, nil
}

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/lingonote/lingonote/internal/record"
)

// DefaultMongoDatabase is used when the connection string names no database.
const DefaultMongoDatabase = "lingonote"

const (
	translationsCollection = "translationhistories"
	vocabularyCollection   = "vocabularynotes"
	usersCollection        = "users"
	sessionsCollection     = "sessions"
)

// MongoStore implements Store on a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri and verifies the primary is reachable.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

// Migrate creates the collections' indexes. Existing indexes are left alone.
func (s *MongoStore) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		translationsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		vocabularyCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		sessionsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "expires", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Ping verifies the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ownerFilter matches ownerless documents (missing or null userId) for the
// anonymous scope.
func ownerFilter(owner Owner) bson.M {
	if owner.IsAnonymous() {
		return bson.M{"userId": nil}
	}
	return bson.M{"userId": owner.UserID}
}

func scopedID(id string, owner Owner) bson.M {
	filter := ownerFilter(owner)
	filter["_id"] = id
	return filter
}

// ListTranslations returns translations in the owner scope, newest first.
func (s *MongoStore) ListTranslations(ctx context.Context, owner Owner) ([]*record.Translation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := s.db.Collection(translationsCollection).Find(ctx, ownerFilter(owner), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}

	items := []*record.Translation{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode translations: %w", err)
	}
	return items, nil
}

// CreateTranslation inserts t and assigns its server ID.
func (s *MongoStore) CreateTranslation(ctx context.Context, t *record.Translation) (*record.Translation, error) {
	saved := *t
	saved.ID = uuid.NewString()
	saved.LocalID = ""
	saved.Timestamp = saved.Timestamp.UTC()

	if _, err := s.db.Collection(translationsCollection).InsertOne(ctx, &saved); err != nil {
		return nil, fmt.Errorf("failed to insert translation: %w", err)
	}
	return &saved, nil
}

// DeleteTranslation removes one translation within the owner scope.
func (s *MongoStore) DeleteTranslation(ctx context.Context, id string, owner Owner) (*record.Translation, error) {
	var t record.Translation
	err := s.db.Collection(translationsCollection).FindOneAndDelete(ctx, scopedID(id, owner)).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete translation: %w", err)
	}
	return &t, nil
}

// ClearTranslations removes every translation in the owner scope.
func (s *MongoStore) ClearTranslations(ctx context.Context, owner Owner) (int64, error) {
	res, err := s.db.Collection(translationsCollection).DeleteMany(ctx, ownerFilter(owner))
	if err != nil {
		return 0, fmt.Errorf("failed to clear translations: %w", err)
	}
	return res.DeletedCount, nil
}

// ListVocabulary returns vocabulary notes in the owner scope, newest first.
func (s *MongoStore) ListVocabulary(ctx context.Context, owner Owner) ([]*record.Vocabulary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.db.Collection(vocabularyCollection).Find(ctx, ownerFilter(owner), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list vocabulary: %w", err)
	}

	items := []*record.Vocabulary{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode vocabulary: %w", err)
	}
	for _, v := range items {
		if v.Tags == nil {
			v.Tags = []string{}
		}
	}
	return items, nil
}

// CreateVocabulary inserts v and assigns its server ID.
func (s *MongoStore) CreateVocabulary(ctx context.Context, v *record.Vocabulary) (*record.Vocabulary, error) {
	saved := *v
	saved.ID = uuid.NewString()
	saved.LocalID = ""
	saved.CreatedAt = saved.CreatedAt.UTC()
	if saved.Tags == nil {
		saved.Tags = []string{}
	}

	if _, err := s.db.Collection(vocabularyCollection).InsertOne(ctx, &saved); err != nil {
		return nil, fmt.Errorf("failed to insert vocabulary: %w", err)
	}
	return &saved, nil
}

// DeleteVocabulary removes one vocabulary note within the owner scope.
func (s *MongoStore) DeleteVocabulary(ctx context.Context, id string, owner Owner) (*record.Vocabulary, error) {
	var v record.Vocabulary
	err := s.db.Collection(vocabularyCollection).FindOneAndDelete(ctx, scopedID(id, owner)).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete vocabulary: %w", err)
	}
	return &v, nil
}

// ClearVocabulary removes every vocabulary note in the owner scope.
func (s *MongoStore) ClearVocabulary(ctx context.Context, owner Owner) (int64, error) {
	res, err := s.db.Collection(vocabularyCollection).DeleteMany(ctx, ownerFilter(owner))
	if err != nil {
		return 0, fmt.Errorf("failed to clear vocabulary: %w", err)
	}
	return res.DeletedCount, nil
}

// Stats counts records in the owner scope.
func (s *MongoStore) Stats(ctx context.Context, owner Owner) (*Stats, error) {
	var stats Stats
	var err error

	stats.Translations, err = s.db.Collection(translationsCollection).CountDocuments(ctx, ownerFilter(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to count translations: %w", err)
	}
	stats.Vocabulary, err = s.db.Collection(vocabularyCollection).CountDocuments(ctx, ownerFilter(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to count vocabulary: %w", err)
	}
	return &stats, nil
}

// UpsertUser inserts a user or refreshes the profile of the user with the same email.
func (s *MongoStore) UpsertUser(ctx context.Context, u *User) (*User, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":      u.Name,
			"image":     u.Image,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":       uuid.NewString(),
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved User
	err := s.db.Collection(usersCollection).FindOneAndUpdate(ctx, bson.M{"email": u.Email}, update, opts).Decode(&saved)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &saved, nil
}

// GetUser retrieves a user by ID.
func (s *MongoStore) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// CreateSession stores a new session.
func (s *MongoStore) CreateSession(ctx context.Context, sess *Session) error {
	doc := *sess
	doc.Expires = doc.Expires.UTC()
	if _, err := s.db.Collection(sessionsCollection).InsertOne(ctx, &doc); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by token.
func (s *MongoStore) GetSession(ctx context.Context, token string) (*Session, error) {
	var sess Session
	err := s.db.Collection(sessionsCollection).FindOne(ctx, bson.M{"_id": token}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes a session.
func (s *MongoStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.Collection(sessionsCollection).DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/ak91singh/Rizz-academy/internal/model"
)

const defaultMongoDatabase = "rizz_academy"

const (
	collUsers    = "users"
	collSessions = "user_sessions"
	collQuiz     = "quiz_results"
	collProgress = "user_progress"
	collJournal  = "journal_entries"
	collChat     = "chat_messages"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri. The database comes from the argument, then
// the URI path, then defaultMongoDatabase.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		if cs, err := connstring.ParseAndValidate(uri); err == nil && cs.Database != "" {
			database = cs.Database
		} else {
			database = defaultMongoDatabase
		}
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	st := NewMongoStoreFromDatabase(client.Database(database))
	st.client = client
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return st, nil
}

// NewMongoStoreFromDatabase wraps a database handle owned by the caller.
func NewMongoStoreFromDatabase(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		},
		collSessions: {{Keys: bson.D{{Key: "session_token", Value: 1}}, Options: unique}},
		collQuiz:     {{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique}},
		collProgress: {{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique}},
		collJournal:  {{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}}},
		collChat: {{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "session_id", Value: 1},
			{Key: "timestamp", Value: 1},
		}}},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) EnsureUser(ctx context.Context, candidate model.User) (model.User, bool, error) {
	candidate.CreatedAt = candidate.CreatedAt.UTC()
	res, err := s.db.Collection(collUsers).UpdateOne(ctx,
		bson.M{"email": candidate.Email},
		bson.M{"$setOnInsert": candidate},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return model.User{}, false, err
	}
	user, ok, err := findOne[model.User](ctx, s.db.Collection(collUsers), bson.M{"email": candidate.Email})
	if err != nil {
		return model.User{}, false, err
	}
	if !ok {
		return model.User{}, false, errors.New("user vanished after upsert")
	}
	return user, res.UpsertedCount == 1, nil
}

func (s *MongoStore) GetUser(ctx context.Context, userID string) (model.User, bool, error) {
	return findOne[model.User](ctx, s.db.Collection(collUsers), bson.M{"user_id": userID})
}

func (s *MongoStore) SaveSession(ctx context.Context, session model.UserSession) error {
	_, err := s.db.Collection(collSessions).ReplaceOne(ctx,
		bson.M{"session_token": session.SessionToken},
		session,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) GetSession(ctx context.Context, token string) (model.UserSession, bool, error) {
	return findOne[model.UserSession](ctx, s.db.Collection(collSessions), bson.M{"session_token": token})
}

func (s *MongoStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.Collection(collSessions).DeleteOne(ctx, bson.M{"session_token": token})
	return err
}

func (s *MongoStore) UpsertQuizResult(ctx context.Context, result model.QuizResult) error {
	_, err := s.db.Collection(collQuiz).ReplaceOne(ctx,
		bson.M{"user_id": result.UserID},
		result,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) GetQuizResult(ctx context.Context, userID string) (model.QuizResult, bool, error) {
	return findOne[model.QuizResult](ctx, s.db.Collection(collQuiz), bson.M{"user_id": userID})
}

func (s *MongoStore) GetProgress(ctx context.Context, userID string) (model.Progress, bool, error) {
	return findOne[model.Progress](ctx, s.db.Collection(collProgress), bson.M{"user_id": userID})
}

func (s *MongoStore) CreateProgressIfAbsent(ctx context.Context, p model.Progress) (model.Progress, error) {
	if _, err := s.db.Collection(collProgress).UpdateOne(ctx,
		bson.M{"user_id": p.UserID},
		bson.M{"$setOnInsert": p},
		options.Update().SetUpsert(true),
	); err != nil {
		return model.Progress{}, err
	}
	stored, ok, err := s.GetProgress(ctx, p.UserID)
	if err != nil {
		return model.Progress{}, err
	}
	if !ok {
		return model.Progress{}, errors.New("progress vanished after upsert")
	}
	return stored, nil
}

func (s *MongoStore) CompareAndSwapProgress(ctx context.Context, next model.Progress, prevLastActivity *time.Time) (bool, error) {
	filter := bson.M{"user_id": next.UserID, "last_activity": nil}
	if prevLastActivity != nil {
		filter["last_activity"] = prevLastActivity.UTC()
	}
	res, err := s.db.Collection(collProgress).UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"xp":            next.XP,
		"level":         next.Level,
		"streak_days":   next.StreakDays,
		"last_activity": next.LastActivity,
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) AddJournalEntry(ctx context.Context, entry model.JournalEntry) error {
	_, err := s.db.Collection(collJournal).InsertOne(ctx, entry)
	return err
}

func (s *MongoStore) ListJournalEntries(ctx context.Context, userID string, limit int) ([]model.JournalEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return findMany[model.JournalEntry](ctx, s.db.Collection(collJournal), bson.M{"user_id": userID}, opts)
}

func (s *MongoStore) CountJournalEntries(ctx context.Context, userID string) (int, error) {
	n, err := s.db.Collection(collJournal).CountDocuments(ctx, bson.M{"user_id": userID})
	return int(n), err
}

func (s *MongoStore) AddChatMessages(ctx context.Context, messages ...model.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	docs := make([]any, len(messages))
	for i, msg := range messages {
		docs[i] = msg
	}
	_, err := s.db.Collection(collChat).InsertMany(ctx, docs)
	return err
}

func (s *MongoStore) ListChatMessages(ctx context.Context, userID, sessionID string, limit int) ([]model.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	msgs, err := findMany[model.ChatMessage](ctx, s.db.Collection(collChat),
		bson.M{"user_id": userID, "session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (s *MongoStore) CountChatMessages(ctx context.Context, userID, role string) (int, error) {
	n, err := s.db.Collection(collChat).CountDocuments(ctx, bson.M{"user_id": userID, "role": role})
	return int(n), err
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (T, bool, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return out, true, nil
}

func findMany[T any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

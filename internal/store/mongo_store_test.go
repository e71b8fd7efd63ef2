package store_test

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ak91singh/Rizz-academy/internal/model"
	"github.com/ak91singh/Rizz-academy/internal/store"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	last := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	mt.Run("compare and swap matched", func(mt *mtest.T) {
		st := store.NewMongoStoreFromDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		next := last.Add(24 * time.Hour)
		swapped, err := st.CompareAndSwapProgress(ctx, progressFor("user_a", 110, 1, 2, &next), &last)
		if err != nil || !swapped {
			mt.Fatalf("CompareAndSwapProgress() swapped=%v err=%v", swapped, err)
		}
	})

	mt.Run("compare and swap lost", func(mt *mtest.T) {
		st := store.NewMongoStoreFromDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		swapped, err := st.CompareAndSwapProgress(ctx, progressFor("user_a", 10, 1, 1, &last), nil)
		if err != nil || swapped {
			mt.Fatalf("CompareAndSwapProgress() swapped=%v err=%v", swapped, err)
		}
	})

	mt.Run("get progress", func(mt *mtest.T) {
		st := store.NewMongoStoreFromDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "rizz.user_progress", mtest.FirstBatch, bson.D{
			{Key: "user_id", Value: "user_a"},
			{Key: "xp", Value: 120},
			{Key: "level", Value: 1},
			{Key: "streak_days", Value: 2},
			{Key: "last_activity", Value: last},
			{Key: "completed_modules", Value: bson.A{}},
			{Key: "achievements", Value: bson.A{"first_steps"}},
		}))
		p, ok, err := st.GetProgress(ctx, "user_a")
		if err != nil || !ok {
			mt.Fatalf("GetProgress() ok=%v err=%v", ok, err)
		}
		if p.XP != 120 || p.StreakDays != 2 || p.LastActivity == nil || !p.LastActivity.Equal(last) {
			mt.Fatalf("unexpected progress %+v", p)
		}
	})

	mt.Run("get progress missing", func(mt *mtest.T) {
		st := store.NewMongoStoreFromDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "rizz.user_progress", mtest.FirstBatch))
		_, ok, err := st.GetProgress(ctx, "nobody")
		if err != nil || ok {
			mt.Fatalf("GetProgress(missing) ok=%v err=%v", ok, err)
		}
	})

	mt.Run("ensure user creates", func(mt *mtest.T) {
		st := store.NewMongoStoreFromDatabase(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 1},
				bson.E{Key: "nModified", Value: 0},
				bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "x"}}}},
			),
			mtest.CreateCursorResponse(0, "rizz.users", mtest.FirstBatch, bson.D{
				{Key: "user_id", Value: "user_abc"},
				{Key: "email", Value: "sam@example.com"},
				{Key: "name", Value: "Sam"},
				{Key: "created_at", Value: last},
			}),
		)
		user, created, err := st.EnsureUser(ctx, model.User{UserID: "user_abc", Email: "sam@example.com", Name: "Sam", CreatedAt: last})
		if err != nil || !created {
			mt.Fatalf("EnsureUser() created=%v err=%v", created, err)
		}
		if user.UserID != "user_abc" {
			mt.Fatalf("unexpected user %+v", user)
		}
	})

	mt.Run("list chat messages oldest first", func(mt *mtest.T) {
		st := store.NewMongoStoreFromDatabase(mt.DB)
		msg := func(id string, at time.Time) bson.D {
			return bson.D{
				{Key: "message_id", Value: id},
				{Key: "user_id", Value: "user_a"},
				{Key: "session_id", Value: "sess_1"},
				{Key: "role", Value: model.RoleUser},
				{Key: "content", Value: id},
				{Key: "scenario", Value: "party"},
				{Key: "timestamp", Value: at},
			}
		}
		// newest first, as the sorted query returns them
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "rizz.chat_messages", mtest.FirstBatch,
			msg("m3", last.Add(2*time.Minute)),
			msg("m2", last.Add(time.Minute)),
		))
		msgs, err := st.ListChatMessages(ctx, "user_a", "sess_1", 2)
		if err != nil {
			mt.Fatalf("ListChatMessages() error = %v", err)
		}
		if len(msgs) != 2 || msgs[0].MessageID != "m2" || msgs[1].MessageID != "m3" {
			mt.Fatalf("unexpected order %+v", msgs)
		}
	})

	mt.Run("count journal entries", func(mt *mtest.T) {
		st := store.NewMongoStoreFromDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "rizz.journal_entries", mtest.FirstBatch, bson.D{
			{Key: "n", Value: 3},
		}))
		n, err := st.CountJournalEntries(ctx, "user_a")
		if err != nil || n != 3 {
			mt.Fatalf("CountJournalEntries() n=%d err=%v", n, err)
		}
	})

	mt.Run("save session", func(mt *mtest.T) {
		st := store.NewMongoStoreFromDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		err := st.SaveSession(ctx, model.UserSession{UserID: "user_a", SessionToken: "tok", ExpiresAt: last, CreatedAt: last})
		if err != nil {
			mt.Fatalf("SaveSession() error = %v", err)
		}
	})
}

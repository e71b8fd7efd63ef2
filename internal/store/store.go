package store

import (
	"context"
	"time"

	"github.com/ak91singh/Rizz-academy/internal/model"
)

type Store interface {
	UserStore
	SessionStore
	QuizStore
	ProgressStore
	JournalStore
	ChatStore
	Close() error
}

type UserStore interface {
	// EnsureUser returns the user registered under candidate.Email, inserting
	// candidate when there is none. created reports whether the insert happened.
	EnsureUser(ctx context.Context, candidate model.User) (user model.User, created bool, err error)
	GetUser(ctx context.Context, userID string) (model.User, bool, error)
}

type SessionStore interface {
	SaveSession(ctx context.Context, session model.UserSession) error
	GetSession(ctx context.Context, token string) (model.UserSession, bool, error)
	DeleteSession(ctx context.Context, token string) error
}

type QuizStore interface {
	// UpsertQuizResult replaces any earlier result of the same user.
	UpsertQuizResult(ctx context.Context, result model.QuizResult) error
	GetQuizResult(ctx context.Context, userID string) (model.QuizResult, bool, error)
}

type ProgressStore interface {
	GetProgress(ctx context.Context, userID string) (model.Progress, bool, error)
	// CreateProgressIfAbsent inserts p unless a record for p.UserID exists and
	// returns whatever is stored afterwards.
	CreateProgressIfAbsent(ctx context.Context, p model.Progress) (model.Progress, error)
	// CompareAndSwapProgress writes xp, level, streak and last activity of next
	// only if the stored last activity equals prevLastActivity. A nil
	// prevLastActivity matches a record that was never active.
	CompareAndSwapProgress(ctx context.Context, next model.Progress, prevLastActivity *time.Time) (bool, error)
}

type JournalStore interface {
	AddJournalEntry(ctx context.Context, entry model.JournalEntry) error
	// ListJournalEntries returns at most limit entries, newest first.
	ListJournalEntries(ctx context.Context, userID string, limit int) ([]model.JournalEntry, error)
	CountJournalEntries(ctx context.Context, userID string) (int, error)
}

type ChatStore interface {
	AddChatMessages(ctx context.Context, messages ...model.ChatMessage) error
	// ListChatMessages returns the latest limit messages of a session in
	// chronological order.
	ListChatMessages(ctx context.Context, userID, sessionID string, limit int) ([]model.ChatMessage, error)
	CountChatMessages(ctx context.Context, userID, role string) (int, error)
}

var (
	_ Store = (*JSONStore)(nil)
	_ Store = (*SQLStore)(nil)
	_ Store = (*MongoStore)(nil)
)

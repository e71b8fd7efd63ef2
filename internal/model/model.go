package model

import "time"

type User struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	Picture   string    `json:"picture,omitempty" bson:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type UserSession struct {
	UserID       string    `json:"user_id" bson:"user_id"`
	SessionToken string    `json:"session_token" bson:"session_token"`
	ExpiresAt    time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Expired reports whether the session is no longer valid at now. Both instants
// are compared in UTC.
func (s UserSession) Expired(now time.Time) bool {
	return s.ExpiresAt.UTC().Before(now.UTC())
}

type QuizAnswer struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

type QuizResult struct {
	UserID               string    `json:"user_id" bson:"user_id"`
	Archetype            string    `json:"archetype" bson:"archetype"`
	ArchetypeTitle       string    `json:"archetype_title" bson:"archetype_title"`
	ArchetypeDescription string    `json:"archetype_description" bson:"archetype_description"`
	Strengths            []string  `json:"strengths" bson:"strengths"`
	AreasToImprove       []string  `json:"areas_to_improve" bson:"areas_to_improve"`
	RecommendedModules   []string  `json:"recommended_modules" bson:"recommended_modules"`
	Timestamp            time.Time `json:"timestamp" bson:"timestamp"`
}

type Progress struct {
	UserID           string     `json:"user_id" bson:"user_id"`
	XP               int        `json:"xp" bson:"xp"`
	Level            int        `json:"level" bson:"level"`
	StreakDays       int        `json:"streak_days" bson:"streak_days"`
	LastActivity     *time.Time `json:"last_activity" bson:"last_activity"`
	CompletedModules []string   `json:"completed_modules" bson:"completed_modules"`
	Achievements     []string   `json:"achievements" bson:"achievements"`
}

// NewProgress returns the zero-valued record every user starts with.
func NewProgress(userID string) Progress {
	return Progress{
		UserID:           userID,
		XP:               0,
		Level:            1,
		StreakDays:       0,
		CompletedModules: []string{},
		Achievements:     []string{},
	}
}

type JournalEntry struct {
	EntryID   string    `json:"entry_id" bson:"entry_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	EntryType string    `json:"entry_type" bson:"entry_type"`
	Content   string    `json:"content" bson:"content"`
	Mood      string    `json:"mood,omitempty" bson:"mood,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	MessageID string    `json:"message_id" bson:"message_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	SessionID string    `json:"session_id" bson:"session_id"`
	Role      string    `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Scenario  string    `json:"scenario" bson:"scenario"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Metric      string `json:"metric"`
	Unlocked    bool   `json:"unlocked"`
	Progress    int    `json:"progress"`
	Target      int    `json:"target"`
}

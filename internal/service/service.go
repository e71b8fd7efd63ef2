package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ak91singh/Rizz-academy/internal/content"
	"github.com/ak91singh/Rizz-academy/internal/llm"
	"github.com/ak91singh/Rizz-academy/internal/metrics"
	"github.com/ak91singh/Rizz-academy/internal/model"
	"github.com/ak91singh/Rizz-academy/internal/progress"
	"github.com/ak91singh/Rizz-academy/internal/quiz"
	"github.com/ak91singh/Rizz-academy/internal/store"
)

// XP granted per activity.
const (
	QuizXP         = 100
	JournalXP      = 25
	OtherJournalXP = 15
	ChatXP         = 10
)

const (
	journalListLimit = 100
	chatHistoryLimit = 100
	chatContextLimit = 50
)

var (
	ErrAnswersRequired   = errors.New("answers are required")
	ErrEntryTypeRequired = errors.New("entry_type is required")
	ErrContentRequired   = errors.New("content is required")
	ErrInvalidScenario   = errors.New("invalid scenario")
	ErrMessageRequired   = errors.New("message is required")
	ErrSessionIDRequired = errors.New("session_id is required")
	ErrRateLimited       = errors.New("too many messages, slow down")
)

// Store is the persistence the feature service needs beyond the ledger.
type Store interface {
	store.QuizStore
	store.JournalStore
	store.ChatStore
}

type Service struct {
	store   Store
	ledger  *progress.Ledger
	content *content.Catalog
	llm     llm.ChatProvider
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
	limiter *chatLimiter
}

type Option func(*Service)

func WithContent(c *content.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.content = c
		}
	}
}

// WithChatProvider enables model replies. Without one every chat turn gets the
// fallback reply.
func WithChatProvider(p llm.ChatProvider) Option {
	return func(s *Service) {
		s.llm = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithChatRateLimit caps chat turns per user. A non-positive rate disables
// the limit.
func WithChatRateLimit(perMinute float64, burst int) Option {
	return func(s *Service) {
		s.limiter = newChatLimiter(perMinute, burst)
	}
}

func New(st Store, ledger *progress.Ledger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		ledger:  ledger,
		content: content.Default(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Questions() []quiz.Question {
	return quiz.Questions()
}

// SubmitQuiz classifies answers, replaces the user's stored result and awards
// quiz XP.
func (s *Service) SubmitQuiz(ctx context.Context, userID string, answers []model.QuizAnswer) (model.QuizResult, error) {
	if len(answers) == 0 {
		return model.QuizResult{}, ErrAnswersRequired
	}
	c := quiz.Classify(answers)
	bundle := quiz.BundleFor(c.Archetype)
	result := model.QuizResult{
		UserID:               userID,
		Archetype:            string(c.Archetype),
		ArchetypeTitle:       bundle.Title,
		ArchetypeDescription: bundle.Description,
		Strengths:            bundle.Strengths,
		AreasToImprove:       bundle.AreasToImprove,
		RecommendedModules:   bundle.RecommendedModules,
		Timestamp:            s.now().UTC(),
	}
	if err := s.store.UpsertQuizResult(ctx, result); err != nil {
		return model.QuizResult{}, fmt.Errorf("save quiz result: %w", err)
	}
	if _, err := s.award(ctx, userID, "quiz", QuizXP); err != nil {
		return model.QuizResult{}, err
	}
	return result, nil
}

// QuizResult returns nil when the user has not taken the quiz.
func (s *Service) QuizResult(ctx context.Context, userID string) (*model.QuizResult, error) {
	result, ok, err := s.store.GetQuizResult(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &result, nil
}

func (s *Service) Progress(ctx context.Context, userID string) (model.Progress, error) {
	return s.ledger.Get(ctx, userID)
}

// AddXP is the manual progress update; xp may be zero to just record activity.
func (s *Service) AddXP(ctx context.Context, userID string, xp int) (progress.Update, error) {
	return s.award(ctx, userID, "manual", xp)
}

type JournalEntryRequest struct {
	EntryType string `json:"entry_type"`
	Content   string `json:"content"`
	Mood      string `json:"mood,omitempty"`
}

func (s *Service) CreateJournalEntry(ctx context.Context, userID string, req JournalEntryRequest) (model.JournalEntry, error) {
	entryType := strings.TrimSpace(req.EntryType)
	if entryType == "" {
		return model.JournalEntry{}, ErrEntryTypeRequired
	}
	if strings.TrimSpace(req.Content) == "" {
		return model.JournalEntry{}, ErrContentRequired
	}
	entry := model.JournalEntry{
		EntryID:   uuid.NewString(),
		UserID:    userID,
		EntryType: entryType,
		Content:   req.Content,
		Mood:      strings.TrimSpace(req.Mood),
		Timestamp: s.now().UTC(),
	}
	if err := s.store.AddJournalEntry(ctx, entry); err != nil {
		return model.JournalEntry{}, fmt.Errorf("save journal entry: %w", err)
	}
	xp := OtherJournalXP
	if entryType == "journal" {
		xp = JournalXP
	}
	if _, err := s.award(ctx, userID, "journal", xp); err != nil {
		return model.JournalEntry{}, err
	}
	return entry, nil
}

// JournalEntries returns the user's latest entries, newest first.
func (s *Service) JournalEntries(ctx context.Context, userID string) ([]model.JournalEntry, error) {
	return s.store.ListJournalEntries(ctx, userID, journalListLimit)
}

func (s *Service) JournalPrompts() map[string][]string {
	return s.content.JournalPrompts()
}

func (s *Service) award(ctx context.Context, userID, activity string, xp int) (progress.Update, error) {
	update, err := s.ledger.ApplyActivity(ctx, userID, xp)
	if err != nil {
		return progress.Update{}, fmt.Errorf("award %s xp: %w", activity, err)
	}
	s.metrics.AddXP(activity, xp, string(update.Transition))
	s.logger.Debug("xp awarded",
		zap.String("user_id", userID),
		zap.String("activity", activity),
		zap.Int("xp", xp),
		zap.Int("total_xp", update.XP),
		zap.String("streak", string(update.Transition)),
	)
	return update, nil
}

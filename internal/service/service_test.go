package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ak91singh/Rizz-academy/internal/llm"
	"github.com/ak91singh/Rizz-academy/internal/metrics"
	"github.com/ak91singh/Rizz-academy/internal/model"
	"github.com/ak91singh/Rizz-academy/internal/progress"
	"github.com/ak91singh/Rizz-academy/internal/store"
)

type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []llm.ChatPrompt
}

func (p *fakeProvider) Complete(_ context.Context, prompt llm.ChatPrompt) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	return p.reply, p.err
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) lastPrompt() llm.ChatPrompt {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompts[len(p.prompts)-1]
}

type testEnv struct {
	svc      *Service
	store    *store.JSONStore
	provider *fakeProvider
	mu       sync.Mutex
	now      time.Time
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	st, err := store.NewJSONStore(filepath.Join(t.TempDir(), "rizz.json"))
	require.NoError(t, err)

	env := &testEnv{
		store:    st,
		provider: &fakeProvider{reply: "Hey, nice line. [Feedback: Good eye contact energy]"},
		now:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	ledger := progress.New(st, progress.WithClock(env.clock))
	base := []Option{
		WithClock(env.clock),
		WithChatProvider(env.provider),
		WithMetrics(metrics.MustNewMetrics(prometheus.NewRegistry())),
	}
	env.svc = New(st, ledger, append(base, opts...)...)
	return env
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func answersOf(options ...string) []model.QuizAnswer {
	out := make([]model.QuizAnswer, len(options))
	for i, opt := range options {
		out[i] = model.QuizAnswer{QuestionID: i + 1, Answer: opt}
	}
	return out
}

func TestSubmitQuizStoresResultAndAwardsXP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.SubmitQuiz(ctx, "user_1", answersOf("B", "B", "B", "B", "B", "B", "B", "B", "B", "B"))
	require.NoError(t, err)
	assert.Equal(t, "adventurer", res.Archetype)
	assert.NotEmpty(t, res.ArchetypeTitle)
	assert.NotEmpty(t, res.Strengths)

	p, err := env.svc.Progress(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, QuizXP, p.XP)
	assert.Equal(t, 1, p.StreakDays)

	// Retaking replaces the result but still pays out.
	env.advance(time.Hour)
	res, err = env.svc.SubmitQuiz(ctx, "user_1", answersOf("A", "A", "A", "A", "A", "C", "C", "C", "C", "C"))
	require.NoError(t, err)
	assert.Equal(t, "analytical", res.Archetype)

	stored, err := env.svc.QuizResult(ctx, "user_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	if diff := cmp.Diff(res, *stored); diff != "" {
		t.Fatalf("stored result mismatch (-want +got):\n%s", diff)
	}

	p, err = env.svc.Progress(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 2*QuizXP, p.XP)
}

func TestSubmitQuizRequiresAnswers(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.SubmitQuiz(context.Background(), "user_1", nil)
	assert.ErrorIs(t, err, ErrAnswersRequired)
}

func TestQuizResultNilBeforeSubmission(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.svc.QuizResult(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestAddXP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	up, err := env.svc.AddXP(ctx, "user_1", 100)
	require.NoError(t, err)
	assert.Equal(t, progress.Update{XP: 100, Level: 1, StreakDays: 1, XPEarned: 100, Transition: progress.Started}, up)

	up, err = env.svc.AddXP(ctx, "user_1", 400)
	require.NoError(t, err)
	assert.Equal(t, 500, up.XP)
	assert.Equal(t, 2, up.Level)

	_, err = env.svc.AddXP(ctx, "user_1", -5)
	assert.ErrorIs(t, err, progress.ErrNegativeXP)
}

func TestCreateJournalEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, err := env.svc.CreateJournalEntry(ctx, "user_1", JournalEntryRequest{EntryType: "journal", Content: "Talked to a stranger today.", Mood: " proud "})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.EntryID)
	assert.Equal(t, "proud", entry.Mood)

	env.advance(time.Minute)
	_, err = env.svc.CreateJournalEntry(ctx, "user_1", JournalEntryRequest{EntryType: "affirmation", Content: "I am enough."})
	require.NoError(t, err)

	p, err := env.svc.Progress(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, JournalXP+OtherJournalXP, p.XP)

	entries, err := env.svc.JournalEntries(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "affirmation", entries[0].EntryType)
	assert.Equal(t, "journal", entries[1].EntryType)

	others, err := env.svc.JournalEntries(ctx, "user_2")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestCreateJournalEntryValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateJournalEntry(ctx, "user_1", JournalEntryRequest{Content: "x"})
	assert.ErrorIs(t, err, ErrEntryTypeRequired)

	_, err = env.svc.CreateJournalEntry(ctx, "user_1", JournalEntryRequest{EntryType: "journal", Content: "   "})
	assert.ErrorIs(t, err, ErrContentRequired)
}

func TestJournalEntriesCappedAtLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < journalListLimit+5; i++ {
		env.advance(time.Second)
		require.NoError(t, env.store.AddJournalEntry(ctx, model.JournalEntry{
			EntryID:   fmt.Sprintf("e%03d", i),
			UserID:    "user_1",
			EntryType: "journal",
			Content:   "entry",
			Timestamp: env.clock(),
		}))
	}
	entries, err := env.svc.JournalEntries(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, entries, journalListLimit)
	assert.Equal(t, fmt.Sprintf("e%03d", journalListLimit+4), entries[0].EntryID)
}

func TestJournalPrompts(t *testing.T) {
	env := newTestEnv(t)
	prompts := env.svc.JournalPrompts()
	assert.Len(t, prompts["reflection"], 5)
}

func TestAchievementsAreDerivedReadOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.SubmitQuiz(ctx, "user_1", answersOf("D"))
	require.NoError(t, err)
	_, err = env.svc.CreateJournalEntry(ctx, "user_1", JournalEntryRequest{EntryType: "journal", Content: "day one"})
	require.NoError(t, err)
	_, err = env.svc.Chat(ctx, "user_1", ChatRequest{Message: "hi", Scenario: "party"})
	require.NoError(t, err)

	before, err := env.svc.Progress(ctx, "user_1")
	require.NoError(t, err)

	achievements, err := env.svc.Achievements(ctx, "user_1")
	require.NoError(t, err)
	byID := make(map[string]model.Achievement, len(achievements))
	for _, a := range achievements {
		byID[a.ID] = a
	}

	assert.True(t, byID["know_thyself"].Unlocked)
	assert.True(t, byID["first_words"].Unlocked)
	assert.True(t, byID["dear_diary"].Unlocked)
	assert.False(t, byID["smooth_talker"].Unlocked)
	assert.Equal(t, 1, byID["smooth_talker"].Progress)
	assert.Equal(t, 50, byID["smooth_talker"].Target)
	assert.Equal(t, 1, byID["on_a_roll"].Progress)
	assert.Equal(t, QuizXP+JournalXP+ChatXP, byID["rising_star"].Progress)

	after, err := env.svc.Progress(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, after.Achievements)
}

func TestAchievementProgressIsCappedAtTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.AddXP(ctx, "user_1", 5000)
	require.NoError(t, err)

	achievements, err := env.svc.Achievements(ctx, "user_1")
	require.NoError(t, err)
	for _, a := range achievements {
		assert.LessOrEqual(t, a.Progress, a.Target, a.ID)
		if a.ID == "rising_star" || a.ID == "level_five" {
			assert.True(t, a.Unlocked, a.ID)
		}
	}
}

func TestChatStoresTurnAndSplitsFeedback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.Chat(ctx, "user_1", ChatRequest{Message: "Is this seat taken?", Scenario: "coffee_shop"})
	require.NoError(t, err)
	assert.Equal(t, "Hey, nice line.", resp.Response)
	require.NotNil(t, resp.Feedback)
	assert.Equal(t, "Good eye contact energy", *resp.Feedback)
	assert.NotEmpty(t, resp.SessionID)

	prompt := env.provider.lastPrompt()
	assert.Contains(t, prompt.System, "coffee shop")
	assert.Equal(t, "Is this seat taken?", prompt.User)

	history, err := env.svc.ChatHistory(ctx, "user_1", resp.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, "Is this seat taken?", history[0].Content)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
	assert.Equal(t, "Hey, nice line.", history[1].Content)
	assert.Equal(t, "coffee_shop", history[1].Scenario)

	p, err := env.svc.Progress(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, ChatXP, p.XP)
}

func TestChatReplaysHistoryAsContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.Chat(ctx, "user_1", ChatRequest{Message: "hey", Scenario: "dating_app"})
	require.NoError(t, err)
	env.advance(time.Minute)
	_, err = env.svc.Chat(ctx, "user_1", ChatRequest{Message: "what are you up to?", Scenario: "dating_app", SessionID: first.SessionID})
	require.NoError(t, err)

	want := "Previous conversation:\nUser: hey\nHer: Hey, nice line.\n\nContinue the conversation:\nwhat are you up to?"
	assert.Equal(t, want, env.provider.lastPrompt().User)
}

func TestChatWithoutFeedbackMarker(t *testing.T) {
	env := newTestEnv(t)
	env.provider.reply = "Sure, why not."

	resp, err := env.svc.Chat(context.Background(), "user_1", ChatRequest{Message: "coffee?", Scenario: "party"})
	require.NoError(t, err)
	assert.Equal(t, "Sure, why not.", resp.Response)
	assert.Nil(t, resp.Feedback)
}

func TestChatFallsBackWhenProviderFails(t *testing.T) {
	env := newTestEnv(t)
	env.provider.err = errors.New("upstream 500")
	ctx := context.Background()

	resp, err := env.svc.Chat(ctx, "user_1", ChatRequest{Message: "hi", Scenario: "party"})
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I'm a bit distracted right now. Can you say that again?", resp.Response)
	require.NotNil(t, resp.Feedback)
	assert.Equal(t, "Keep practicing! The AI service had a temporary issue.", *resp.Feedback)

	p, err := env.svc.Progress(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, ChatXP, p.XP)
}

func TestChatWithoutProviderUsesFallback(t *testing.T) {
	env := newTestEnv(t, WithChatProvider(nil))
	resp, err := env.svc.Chat(context.Background(), "user_1", ChatRequest{Message: "hi", Scenario: "party"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Response, "Sorry, I'm a bit distracted"))
}

func TestChatValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Chat(ctx, "user_1", ChatRequest{Message: "hi", Scenario: "nightclub"})
	assert.ErrorIs(t, err, ErrInvalidScenario)

	_, err = env.svc.Chat(ctx, "user_1", ChatRequest{Message: "  ", Scenario: "party"})
	assert.ErrorIs(t, err, ErrMessageRequired)

	_, err = env.svc.ChatHistory(ctx, "user_1", "")
	assert.ErrorIs(t, err, ErrSessionIDRequired)

	p, err := env.svc.Progress(ctx, "user_1")
	require.NoError(t, err)
	assert.Zero(t, p.XP)
}

func TestChatHistoryIsScopedToUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.Chat(ctx, "user_1", ChatRequest{Message: "hi", Scenario: "party"})
	require.NoError(t, err)

	history, err := env.svc.ChatHistory(ctx, "user_2", resp.SessionID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatRateLimit(t *testing.T) {
	env := newTestEnv(t, WithChatRateLimit(6, 2))
	ctx := context.Background()
	req := ChatRequest{Message: "hi", Scenario: "party"}

	for i := 0; i < 2; i++ {
		_, err := env.svc.Chat(ctx, "user_1", req)
		require.NoError(t, err)
	}
	_, err := env.svc.Chat(ctx, "user_1", req)
	assert.ErrorIs(t, err, ErrRateLimited)

	// Other users have their own bucket.
	_, err = env.svc.Chat(ctx, "user_2", req)
	require.NoError(t, err)

	// 6 per minute refills one token every 10s.
	env.advance(10 * time.Second)
	_, err = env.svc.Chat(ctx, "user_1", req)
	require.NoError(t, err)
}

func TestNewChatSessionIsUnique(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.svc.NewChatSession(), env.svc.NewChatSession()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestScenarios(t *testing.T) {
	env := newTestEnv(t)
	scenarios := env.svc.Scenarios()
	require.Len(t, scenarios, 3)
	assert.Equal(t, "coffee_shop", scenarios[0].ID)
}

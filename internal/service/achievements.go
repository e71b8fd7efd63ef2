package service

import (
	"context"
	"fmt"

	"github.com/ak91singh/Rizz-academy/internal/content"
	"github.com/ak91singh/Rizz-academy/internal/model"
)

// Achievements evaluates the catalogue against the user's current numbers.
// It only reads; nothing is written back to the progress record.
func (s *Service) Achievements(ctx context.Context, userID string) ([]model.Achievement, error) {
	rules := s.content.Achievements()
	if len(rules) == 0 {
		return []model.Achievement{}, nil
	}
	values, err := s.achievementMetrics(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.Achievement, 0, len(rules))
	for _, rule := range rules {
		current := values[rule.Metric]
		if current > rule.Target {
			current = rule.Target
		}
		out = append(out, model.Achievement{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Metric:      rule.Metric,
			Unlocked:    current >= rule.Target,
			Progress:    current,
			Target:      rule.Target,
		})
	}
	return out, nil
}

func (s *Service) achievementMetrics(ctx context.Context, userID string) (map[string]int, error) {
	p, err := s.ledger.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	journal, err := s.store.CountJournalEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count journal entries: %w", err)
	}
	chats, err := s.store.CountChatMessages(ctx, userID, model.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("count chat messages: %w", err)
	}
	_, tookQuiz, err := s.store.GetQuizResult(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load quiz result: %w", err)
	}
	quizDone := 0
	if tookQuiz {
		quizDone = 1
	}
	return map[string]int{
		content.MetricXP:             p.XP,
		content.MetricLevel:          p.Level,
		content.MetricStreakDays:     p.StreakDays,
		content.MetricJournalEntries: journal,
		content.MetricChatMessages:   chats,
		content.MetricQuizCompleted:  quizDone,
	}, nil
}

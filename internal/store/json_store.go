package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ak91singh/Rizz-academy/internal/model"
)

type fileState struct {
	Users       map[string]model.User        `json:"users"`
	Sessions    map[string]model.UserSession `json:"sessions"`
	QuizResults map[string]model.QuizResult  `json:"quiz_results"`
	Progress    map[string]model.Progress    `json:"progress"`
	Journal     []model.JournalEntry         `json:"journal"`
	Chat        []model.ChatMessage          `json:"chat"`
}

func newFileState() fileState {
	return fileState{
		Users:       make(map[string]model.User),
		Sessions:    make(map[string]model.UserSession),
		QuizResults: make(map[string]model.QuizResult),
		Progress:    make(map[string]model.Progress),
		Journal:     make([]model.JournalEntry, 0),
		Chat:        make([]model.ChatMessage, 0),
	}
}

// JSONStore keeps everything in memory and rewrites one file on each change.
type JSONStore struct {
	filePath string
	mu       sync.RWMutex
	state    fileState
}

func NewJSONStore(filePath string) (*JSONStore, error) {
	s := &JSONStore{
		filePath: filePath,
		state:    newFileState(),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) EnsureUser(_ context.Context, candidate model.User) (model.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.state.Users {
		if user.Email == candidate.Email {
			return user, false, nil
		}
	}
	candidate.CreatedAt = candidate.CreatedAt.UTC()
	s.state.Users[candidate.UserID] = candidate
	if err := s.persistLocked(); err != nil {
		delete(s.state.Users, candidate.UserID)
		return model.User{}, false, err
	}
	return candidate, true, nil
}

func (s *JSONStore) GetUser(_ context.Context, userID string) (model.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.state.Users[userID]
	return user, ok, nil
}

func (s *JSONStore) SaveSession(_ context.Context, session model.UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Sessions[session.SessionToken] = session
	return s.persistLocked()
}

func (s *JSONStore) GetSession(_ context.Context, token string) (model.UserSession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.state.Sessions[token]
	return session, ok, nil
}

func (s *JSONStore) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Sessions[token]; !ok {
		return nil
	}
	delete(s.state.Sessions, token)
	return s.persistLocked()
}

func (s *JSONStore) UpsertQuizResult(_ context.Context, result model.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.QuizResults[result.UserID] = result
	return s.persistLocked()
}

func (s *JSONStore) GetQuizResult(_ context.Context, userID string) (model.QuizResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.state.QuizResults[userID]
	return result, ok, nil
}

func (s *JSONStore) GetProgress(_ context.Context, userID string) (model.Progress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.Progress[userID]
	return copyProgress(p), ok, nil
}

func (s *JSONStore) CreateProgressIfAbsent(_ context.Context, p model.Progress) (model.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.state.Progress[p.UserID]; ok {
		return copyProgress(cur), nil
	}
	s.state.Progress[p.UserID] = copyProgress(p)
	if err := s.persistLocked(); err != nil {
		delete(s.state.Progress, p.UserID)
		return model.Progress{}, err
	}
	return copyProgress(p), nil
}

func (s *JSONStore) CompareAndSwapProgress(_ context.Context, next model.Progress, prevLastActivity *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.state.Progress[next.UserID]
	if !ok || !sameInstant(cur.LastActivity, prevLastActivity) {
		return false, nil
	}
	updated := cur
	updated.XP = next.XP
	updated.Level = next.Level
	updated.StreakDays = next.StreakDays
	updated.LastActivity = copyTime(next.LastActivity)
	s.state.Progress[next.UserID] = updated
	if err := s.persistLocked(); err != nil {
		s.state.Progress[next.UserID] = cur
		return false, err
	}
	return true, nil
}

func (s *JSONStore) AddJournalEntry(_ context.Context, entry model.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Journal = append(s.state.Journal, entry)
	return s.persistLocked()
}

func (s *JSONStore) ListJournalEntries(_ context.Context, userID string, limit int) ([]model.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.JournalEntry, 0)
	for _, entry := range s.state.Journal {
		if entry.UserID == userID {
			result = append(result, entry)
		}
	}
	// appended in insertion order; reverse it so ties keep newest first
	slices.Reverse(result)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *JSONStore) CountJournalEntries(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, entry := range s.state.Journal {
		if entry.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *JSONStore) AddChatMessages(_ context.Context, messages ...model.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Chat = append(s.state.Chat, messages...)
	return s.persistLocked()
}

func (s *JSONStore) ListChatMessages(_ context.Context, userID, sessionID string, limit int) ([]model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.ChatMessage, 0)
	for _, msg := range s.state.Chat {
		if msg.UserID == userID && msg.SessionID == sessionID {
			result = append(result, msg)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (s *JSONStore) CountChatMessages(_ context.Context, userID, role string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, msg := range s.state.Chat {
		if msg.UserID == userID && msg.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	state := newFileState()
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if state.Users == nil {
		state.Users = make(map[string]model.User)
	}
	if state.Sessions == nil {
		state.Sessions = make(map[string]model.UserSession)
	}
	if state.QuizResults == nil {
		state.QuizResults = make(map[string]model.QuizResult)
	}
	if state.Progress == nil {
		state.Progress = make(map[string]model.Progress)
	}
	s.state = state
	return nil
}

func (s *JSONStore) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.filePath)
}

func copyProgress(p model.Progress) model.Progress {
	p.LastActivity = copyTime(p.LastActivity)
	p.CompletedModules = append([]string{}, p.CompletedModules...)
	p.Achievements = append([]string{}, p.Achievements...)
	return p
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ak91singh/Rizz-academy/internal/content"
	"github.com/ak91singh/Rizz-academy/internal/llm"
	"github.com/ak91singh/Rizz-academy/internal/model"
)

// FallbackReply is sent when no model is configured or the model call fails.
const FallbackReply = "Sorry, I'm a bit distracted right now. Can you say that again? [Feedback: Keep practicing! The AI service had a temporary issue.]"

type ChatRequest struct {
	Message   string `json:"message"`
	Scenario  string `json:"scenario"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Response  string  `json:"response"`
	SessionID string  `json:"session_id"`
	Feedback  *string `json:"feedback"`
}

func (s *Service) Scenarios() []content.Scenario {
	return s.content.Scenarios()
}

func (s *Service) NewChatSession() string {
	return uuid.NewString()
}

// Chat plays one practice turn: the scenario character answers message with
// the session's recent history as context, both sides are stored, and chat XP
// is awarded.
func (s *Service) Chat(ctx context.Context, userID string, req ChatRequest) (ChatResponse, error) {
	scenario, ok := s.content.Scenario(req.Scenario)
	if !ok {
		return ChatResponse{}, ErrInvalidScenario
	}
	if strings.TrimSpace(req.Message) == "" {
		return ChatResponse{}, ErrMessageRequired
	}
	if !s.limiter.allow(userID, s.now()) {
		return ChatResponse{}, ErrRateLimited
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = s.NewChatSession()
	}

	history, err := s.store.ListChatMessages(ctx, userID, sessionID, chatContextLimit)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("load chat history: %w", err)
	}

	raw := s.complete(ctx, llm.ChatPrompt{
		System: scenario.SystemPrompt,
		User:   llm.BuildUserTurn(history, req.Message),
	})
	reply, feedback := llm.SplitFeedback(raw)

	now := s.now().UTC()
	userMsg := model.ChatMessage{
		MessageID: uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   req.Message,
		Scenario:  scenario.ID,
		Timestamp: now,
	}
	assistantMsg := userMsg
	assistantMsg.MessageID = uuid.NewString()
	assistantMsg.Role = model.RoleAssistant
	assistantMsg.Content = reply
	if err := s.store.AddChatMessages(ctx, userMsg, assistantMsg); err != nil {
		return ChatResponse{}, fmt.Errorf("save chat messages: %w", err)
	}

	if _, err := s.award(ctx, userID, "chat", ChatXP); err != nil {
		return ChatResponse{}, err
	}

	resp := ChatResponse{Response: reply, SessionID: sessionID}
	if feedback != "" {
		resp.Feedback = &feedback
	}
	return resp, nil
}

func (s *Service) complete(ctx context.Context, prompt llm.ChatPrompt) string {
	if s.llm == nil {
		s.metrics.IncLLMCall("none", "fallback")
		return FallbackReply
	}
	text, err := s.llm.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Error("llm completion failed, using fallback reply",
			zap.String("provider", s.llm.Name()),
			zap.Error(err),
		)
		s.metrics.IncLLMCall(s.llm.Name(), "fallback")
		return FallbackReply
	}
	s.metrics.IncLLMCall(s.llm.Name(), "ok")
	return text
}

// ChatHistory returns up to the latest 100 messages of a session, oldest first.
func (s *Service) ChatHistory(ctx context.Context, userID, sessionID string) ([]model.ChatMessage, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	return s.store.ListChatMessages(ctx, userID, sessionID, chatHistoryLimit)
}

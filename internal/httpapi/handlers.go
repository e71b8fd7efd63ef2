package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ak91singh/Rizz-academy/internal/auth"
	"github.com/ak91singh/Rizz-academy/internal/model"
	"github.com/ak91singh/Rizz-academy/internal/progress"
	"github.com/ak91singh/Rizz-academy/internal/service"
)

const userContextKey = "rizz.user"

type Handler struct {
	svc          *service.Service
	auth         *auth.Service
	logger       *zap.Logger
	cookieSecure bool
}

func NewHandler(svc *service.Service, authSvc *auth.Service, logger *zap.Logger, cookieSecure bool) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, auth: authSvc, logger: logger, cookieSecure: cookieSecure}
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Rizz Academy API", "version": "1.0"})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) requireAuth(c *gin.Context) {
	user, err := h.auth.Authenticate(c.Request.Context(), auth.TokenFromRequest(c.Request))
	if err != nil {
		h.writeError(c, "authenticate", err)
		return
	}
	c.Set(userContextKey, user)
	c.Next()
}

func currentUser(c *gin.Context) model.User {
	v, _ := c.Get(userContextKey)
	user, _ := v.(model.User)
	return user
}

func (h *Handler) exchangeSession(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		h.writeError(c, "exchangeSession", auth.ErrSessionIDRequired)
		return
	}
	sess, err := h.auth.Exchange(c.Request.Context(), req.SessionID)
	if err != nil {
		h.writeError(c, "exchangeSession", err)
		return
	}
	http.SetCookie(c.Writer, auth.SessionCookie(sess.Token, h.auth.SessionTTL(), h.cookieSecure))
	c.JSON(http.StatusOK, gin.H{
		"user_id":       sess.User.UserID,
		"email":         sess.User.Email,
		"name":          sess.User.Name,
		"picture":       sess.User.Picture,
		"session_token": sess.Token,
	})
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), auth.TokenFromRequest(c.Request)); err != nil {
		h.writeError(c, "logout", err)
		return
	}
	http.SetCookie(c.Writer, auth.ClearedSessionCookie(h.cookieSecure))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) quizQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": h.svc.Questions()})
}

func (h *Handler) submitQuiz(c *gin.Context) {
	var req struct {
		Answers []model.QuizAnswer `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "submitQuiz", err)
		return
	}
	result, err := h.svc.SubmitQuiz(c.Request.Context(), currentUser(c).UserID, req.Answers)
	if err != nil {
		h.writeError(c, "submitQuiz", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) quizResult(c *gin.Context) {
	result, err := h.svc.QuizResult(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		h.writeError(c, "quizResult", err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) progress(c *gin.Context) {
	p, err := h.svc.Progress(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		h.writeError(c, "progress", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) updateProgress(c *gin.Context) {
	xp := 0
	if raw := strings.TrimSpace(c.Query("xp_earned")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeErrorMessage(c, http.StatusBadRequest, "xp_earned must be an integer")
			return
		}
		xp = parsed
	}
	update, err := h.svc.AddXP(c.Request.Context(), currentUser(c).UserID, xp)
	if err != nil {
		h.writeError(c, "updateProgress", err)
		return
	}
	c.JSON(http.StatusOK, update)
}

func (h *Handler) achievements(c *gin.Context) {
	list, err := h.svc.Achievements(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		h.writeError(c, "achievements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": list})
}

func (h *Handler) journalEntries(c *gin.Context) {
	entries, err := h.svc.JournalEntries(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		h.writeError(c, "journalEntries", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) createJournalEntry(c *gin.Context) {
	var req service.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "createJournalEntry", err)
		return
	}
	entry, err := h.svc.CreateJournalEntry(c.Request.Context(), currentUser(c).UserID, req)
	if err != nil {
		h.writeError(c, "createJournalEntry", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) journalPrompts(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.JournalPrompts())
}

func (h *Handler) scenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenarios": h.svc.Scenarios()})
}

func (h *Handler) chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "chat", err)
		return
	}
	resp, err := h.svc.Chat(c.Request.Context(), currentUser(c).UserID, req)
	if err != nil {
		h.writeError(c, "chat", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) chatHistory(c *gin.Context) {
	messages, err := h.svc.ChatHistory(c.Request.Context(), currentUser(c).UserID, c.Param("session_id"))
	if err != nil {
		h.writeError(c, "chatHistory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *Handler) newChatSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session_id": h.svc.NewChatSession()})
}

func (h *Handler) badRequest(c *gin.Context, op string, err error) {
	h.logger.Debug("bad request body", zap.String("op", op), zap.Error(err))
	h.writeErrorMessage(c, http.StatusBadRequest, "invalid request body")
}

// writeError maps err onto a status code. Details of unexpected failures are
// logged, not returned.
func (h *Handler) writeError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	message := err.Error()
	switch {
	case errors.Is(err, auth.ErrProviderUnavailable):
		h.logger.Error("auth provider failure", zap.String("op", op), zap.Error(err))
		message = auth.ErrProviderUnavailable.Error()
	case status == http.StatusInternalServerError:
		h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
		message = "internal server error"
	}
	h.writeErrorMessage(c, status, message)
}

func (h *Handler) writeErrorMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrAnswersRequired),
		errors.Is(err, service.ErrEntryTypeRequired),
		errors.Is(err, service.ErrContentRequired),
		errors.Is(err, service.ErrInvalidScenario),
		errors.Is(err, service.ErrMessageRequired),
		errors.Is(err, service.ErrSessionIDRequired),
		errors.Is(err, progress.ErrNegativeXP),
		errors.Is(err, progress.ErrXPOverflow),
		errors.Is(err, auth.ErrSessionIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidSession),
		errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ak91singh/Rizz-academy/internal/model"
	"github.com/ak91singh/Rizz-academy/internal/store"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour
	defaultCacheSize  = 1024
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrSessionExpired  = errors.New("session expired")
	ErrUserNotFound    = errors.New("user not found")
)

type Store interface {
	store.UserStore
	store.SessionStore
}

// ProgressInitializer materialises the progress record of a new user.
type ProgressInitializer interface {
	Get(ctx context.Context, userID string) (model.Progress, error)
}

type Config struct {
	SessionTTL time.Duration
	CacheSize  int
}

// Session is the result of a successful exchange.
type Session struct {
	User      model.User
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	store     Store
	provider  Provider
	progress  ProgressInitializer
	logger    *zap.Logger
	now       func() time.Time
	ttl       time.Duration
	sessions  *lru.Cache[string, model.UserSession]
	exchanges singleflight.Group
}

type Option func(*Service)

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

func NewService(st Store, provider Provider, progress ProgressInitializer, cfg Config, opts ...Option) (*Service, error) {
	if st == nil || provider == nil {
		return nil, errors.New("auth: store and provider are required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, model.UserSession](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	s := &Service{
		store:    st,
		provider: provider,
		progress: progress,
		logger:   zap.NewNop(),
		now:      time.Now,
		ttl:      cfg.SessionTTL,
		sessions: cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}

// Exchange trades a provider session id for a local session, registering the
// user on first sight. Concurrent exchanges of one id share a single call.
func (s *Service) Exchange(ctx context.Context, sessionID string) (Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Session{}, ErrSessionIDRequired
	}
	v, err, _ := s.exchanges.Do(sessionID, func() (any, error) {
		return s.exchange(ctx, sessionID)
	})
	if err != nil {
		return Session{}, err
	}
	return v.(Session), nil
}

func (s *Service) exchange(ctx context.Context, sessionID string) (Session, error) {
	identity, err := s.provider.SessionData(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}

	now := s.now().UTC()
	user, created, err := s.store.EnsureUser(ctx, model.User{
		UserID:    newUserID(),
		Email:     identity.Email,
		Name:      identity.Name,
		Picture:   identity.Picture,
		CreatedAt: now,
	})
	if err != nil {
		return Session{}, fmt.Errorf("ensure user: %w", err)
	}
	if created {
		s.logger.Info("registered user", zap.String("user_id", user.UserID))
		if s.progress != nil {
			if _, err := s.progress.Get(ctx, user.UserID); err != nil {
				return Session{}, fmt.Errorf("init progress: %w", err)
			}
		}
	}

	token := strings.TrimSpace(identity.SessionToken)
	if token == "" {
		token = uuid.NewString()
	}
	session := model.UserSession{
		UserID:       user.UserID,
		SessionToken: token,
		ExpiresAt:    now.Add(s.ttl),
		CreatedAt:    now,
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	s.sessions.Add(token, session)
	return Session{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.User{}, ErrUnauthenticated
	}
	session, ok := s.sessions.Get(token)
	if !ok {
		stored, found, err := s.store.GetSession(ctx, token)
		if err != nil {
			return model.User{}, fmt.Errorf("load session: %w", err)
		}
		if !found {
			return model.User{}, ErrInvalidSession
		}
		session = stored
		s.sessions.Add(token, session)
	}
	if session.Expired(s.now()) {
		s.sessions.Remove(token)
		return model.User{}, ErrSessionExpired
	}

	user, found, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	if !found {
		return model.User{}, ErrUserNotFound
	}
	return user, nil
}

// Logout forgets the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	s.sessions.Remove(token)
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func newUserID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

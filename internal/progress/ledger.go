// Package progress owns the per-user XP, level and streak record.
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ak91singh/Rizz-academy/internal/model"
)

const defaultMaxAttempts = 5

var (
	ErrNegativeXP       = errors.New("xp amount must not be negative")
	ErrXPOverflow       = errors.New("xp total would overflow")
	ErrConcurrentUpdate = errors.New("progress changed concurrently, retries exhausted")
	ErrUserIDRequired   = errors.New("user id is required")
)

// Store is the slice of persistence the ledger needs. CompareAndSwapProgress
// must replace the record only when its stored last_activity still equals
// prevLastActivity (nil meaning never active), reporting whether it did.
type Store interface {
	GetProgress(ctx context.Context, userID string) (model.Progress, bool, error)
	CreateProgressIfAbsent(ctx context.Context, p model.Progress) (model.Progress, error)
	CompareAndSwapProgress(ctx context.Context, next model.Progress, prevLastActivity *time.Time) (bool, error)
}

// Update is the outcome of a single ApplyActivity call.
type Update struct {
	XP         int        `json:"xp"`
	Level      int        `json:"level"`
	StreakDays int        `json:"streak_days"`
	XPEarned   int        `json:"xp_earned"`
	Transition Transition `json:"-"`
}

type Ledger struct {
	store       Store
	logger      *zap.Logger
	now         func() time.Time
	maxAttempts int
	locks       userLocks
}

type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMaxAttempts bounds the compare-and-swap retry loop.
func WithMaxAttempts(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

func New(st Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:       st,
		logger:      zap.NewNop(),
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns the user's progress, creating a zero record on first access.
func (l *Ledger) Get(ctx context.Context, userID string) (model.Progress, error) {
	if userID == "" {
		return model.Progress{}, ErrUserIDRequired
	}
	p, ok, err := l.store.GetProgress(ctx, userID)
	if err != nil {
		return model.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	if !ok {
		p, err = l.store.CreateProgressIfAbsent(ctx, model.NewProgress(userID))
		if err != nil {
			return model.Progress{}, fmt.Errorf("create progress: %w", err)
		}
	}
	return normalize(p), nil
}

// ApplyActivity adds xp to the user's total and advances the streak as of now.
// Calls for the same user are serialised in-process; the storage swap guards
// against writers in other processes.
func (l *Ledger) ApplyActivity(ctx context.Context, userID string, xp int) (Update, error) {
	if xp < 0 {
		return Update{}, ErrNegativeXP
	}
	if userID == "" {
		return Update{}, ErrUserIDRequired
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Update{}, err
		}
		cur, err := l.Get(ctx, userID)
		if err != nil {
			return Update{}, err
		}

		now := l.now().UTC().Truncate(time.Millisecond)
		streak, transition := NextStreak(cur.StreakDays, cur.LastActivity, now)
		if transition == ClockSkew {
			l.logger.Warn("last activity is in the future, keeping streak",
				zap.String("user_id", userID),
				zap.Time("last_activity", *cur.LastActivity),
				zap.Time("now", now),
			)
		}

		if xp > math.MaxInt-cur.XP {
			return Update{}, ErrXPOverflow
		}

		next := cur
		next.XP = cur.XP + xp
		next.Level = LevelFor(next.XP)
		next.StreakDays = streak
		next.LastActivity = &now

		swapped, err := l.store.CompareAndSwapProgress(ctx, next, cur.LastActivity)
		if err != nil {
			return Update{}, fmt.Errorf("save progress: %w", err)
		}
		if swapped {
			return Update{
				XP:         next.XP,
				Level:      next.Level,
				StreakDays: next.StreakDays,
				XPEarned:   xp,
				Transition: transition,
			}, nil
		}
		l.logger.Debug("progress swap lost, retrying",
			zap.String("user_id", userID),
			zap.Int("attempt", attempt),
		)
	}
	return Update{}, ErrConcurrentUpdate
}

func normalize(p model.Progress) model.Progress {
	if p.LastActivity != nil {
		t := p.LastActivity.UTC()
		p.LastActivity = &t
	}
	if p.XP < 0 {
		p.XP = 0
	}
	if p.StreakDays < 0 {
		p.StreakDays = 0
	}
	p.Level = LevelFor(p.XP)
	if p.CompletedModules == nil {
		p.CompletedModules = []string{}
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	return p
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatLimiterDisabled(t *testing.T) {
	l := newChatLimiter(0, 5)
	assert.Nil(t, l)
	for i := 0; i < 100; i++ {
		assert.True(t, l.allow("user_1", time.Now()))
	}
}

func TestChatLimiterDropsIdleEntries(t *testing.T) {
	l := newChatLimiter(60, 1)
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.True(t, l.allow("user_1", t0))
	assert.False(t, l.allow("user_1", t0))
	assert.True(t, l.allow("user_2", t0.Add(time.Second)))
	assert.Equal(t, 2, l.size())

	later := t0.Add(limiterEntryTTL + limiterCleanupInterval)
	assert.True(t, l.allow("user_3", later))
	assert.Equal(t, 1, l.size())
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/logger"
)

func TestBudgetCapsRequests(t *testing.T) {
	b := NewBudget(logger.NewNop(), 2, 0)
	ctx := context.Background()

	require.NoError(t, b.Acquire(ctx))
	require.True(t, b.CanUse())
	require.NoError(t, b.Acquire(ctx))
	assert.False(t, b.CanUse())
	assert.ErrorIs(t, b.Acquire(ctx), ErrBudgetExhausted)

	assert.Equal(t, Stats{Used: 2, Limit: 2, Denied: 1}, b.Stats())
}

func TestBudgetUnlimited(t *testing.T) {
	b := NewBudget(logger.NewNop(), 0, 0)
	for i := 0; i < 50; i++ {
		require.NoError(t, b.Acquire(context.Background()))
	}
	assert.True(t, b.CanUse())
}

func TestBudgetRateWaitHonoursContext(t *testing.T) {
	b := NewBudget(logger.NewNop(), 0, 1)
	require.NoError(t, b.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, b.Acquire(ctx))
}

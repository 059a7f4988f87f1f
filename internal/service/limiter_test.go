package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalLimiter_Waits(t *testing.T) {
	l := NewIntervalLimiter(20 * time.Millisecond)

	start := time.Now()
	err := l.Wait(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestIntervalLimiter_ZeroIntervalReturnsImmediately(t *testing.T) {
	l := NewIntervalLimiter(0)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestIntervalLimiter_CanceledContext(t *testing.T) {
	l := NewIntervalLimiter(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

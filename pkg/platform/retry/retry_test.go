package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_ShortCircuitsOnSuccess(t *testing.T) {
	calls := 0
	start := time.Now()
	found, err := Poll(context.Background(), 5, 50*time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, calls)
	// Two waits between three attempts; well under the full five-attempt budget.
	assert.Less(t, time.Since(start), 4*50*time.Millisecond)
}

func TestPoll_ExhaustsAttempts(t *testing.T) {
	calls := 0
	found, err := Poll(context.Background(), 4, time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 4, calls)
}

func TestPoll_TransientErrorsCountAsAttempts(t *testing.T) {
	calls := 0
	found, err := Poll(context.Background(), 3, time.Millisecond, func(context.Context) (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("timeout")
		}
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, calls)
}

func TestPoll_PermanentAborts(t *testing.T) {
	fatal := errors.New("token rejected")
	calls := 0
	found, err := Poll(context.Background(), 5, time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return false, Permanent(fatal)
	})
	assert.False(t, found)
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestPoll_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	found, err := Poll(ctx, 5, 10*time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})
	assert.False(t, found)
	assert.ErrorIs(t, err, context.Canceled)
}

package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntilResolves(t *testing.T) {
	calls := 0
	done, err := Until(context.Background(), time.Millisecond, time.Second,
		func(context.Context) (bool, error) {
			calls++
			return calls >= 3, nil
		})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 3, calls)
}

func TestUntilTimesOut(t *testing.T) {
	done, err := Until(context.Background(), time.Millisecond, 20*time.Millisecond,
		func(context.Context) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.False(t, done)
}

func TestUntilImmediate(t *testing.T) {
	// An already-satisfied condition resolves without waiting a full interval
	start := time.Now()
	done, err := Until(context.Background(), time.Hour, time.Hour,
		func(context.Context) (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.True(t, done)
	assert.Less(t, time.Since(start), time.Second)
}

func TestUntilPropagatesError(t *testing.T) {
	wantErr := errors.New("store down")
	_, err := Until(context.Background(), time.Millisecond, time.Second,
		func(context.Context) (bool, error) { return false, wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestUntilContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	_, err := Until(ctx, time.Millisecond, time.Minute,
		func(context.Context) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

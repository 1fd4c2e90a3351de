package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingProvider(name string, calls *int, err error) Func[string, string] {
	return Func[string, string]{
		ProviderName: name,
		Fn: func(_ context.Context, in string) (string, error) {
			*calls++
			if err != nil {
				return "", err
			}
			return name + ":" + in, nil
		},
	}
}

func TestFallbackPrimarySuccess(t *testing.T) {
	var primaryCalls, secondaryCalls int
	chain := NewFallback[string, string](
		countingProvider("primary", &primaryCalls, nil),
		countingProvider("secondary", &secondaryCalls, nil),
	)

	out, err := chain.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "primary:x", out)
	assert.Equal(t, 1, primaryCalls)
	// The secondary must never run when the primary succeeds
	assert.Equal(t, 0, secondaryCalls)
}

func TestFallbackOnPrimaryError(t *testing.T) {
	var primaryCalls, secondaryCalls int
	var hookPrimary, hookSecondary string
	chain := NewFallback[string, string](
		countingProvider("primary", &primaryCalls, errors.New("down")),
		countingProvider("secondary", &secondaryCalls, nil),
	).WithFailoverHook(func(p, s string, _ error) {
		hookPrimary, hookSecondary = p, s
	})

	out, err := chain.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "secondary:x", out)
	assert.Equal(t, 1, primaryCalls)
	assert.Equal(t, 1, secondaryCalls)
	assert.Equal(t, "primary", hookPrimary)
	assert.Equal(t, "secondary", hookSecondary)
}

func TestFallbackBothFail(t *testing.T) {
	var primaryCalls, secondaryCalls int
	secondaryErr := errors.New("also down")
	chain := NewFallback[string, string](
		countingProvider("primary", &primaryCalls, errors.New("down")),
		countingProvider("secondary", &secondaryCalls, secondaryErr),
	)

	_, err := chain.Execute(context.Background(), "x")
	require.Error(t, err)
	// Only the final tier's error surfaces
	assert.ErrorIs(t, err, secondaryErr)
	// Exactly one attempt per tier, no same-provider retries
	assert.Equal(t, 1, primaryCalls)
	assert.Equal(t, 1, secondaryCalls)
}

func TestFallbackComposes(t *testing.T) {
	var aCalls, bCalls, cCalls int
	inner := NewFallback[string, string](
		countingProvider("a", &aCalls, errors.New("down")),
		countingProvider("b", &bCalls, errors.New("down")),
	)
	outer := NewFallback[string, string](
		inner,
		countingProvider("c", &cCalls, nil),
	)

	out, err := outer.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "c:x", out)
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 1, bCalls)
	assert.Equal(t, 1, cCalls)
	assert.Equal(t, "a|b|c", outer.Name())
}

package providers

import (
	"context"
	"fmt"
)

// Fallback wraps a primary and a secondary provider exposing the same
// operation signature. The primary gets exactly one attempt; on any error the
// secondary is invoked with the same input and its outcome is final. Chains
// compose by using a Fallback as the primary of an outer Fallback.
type Fallback[I, O any] struct {
	primary    Provider[I, O]
	secondary  Provider[I, O]
	onFailover func(primary, secondary string, err error)
}

// NewFallback creates a fallback chain over two providers.
func NewFallback[I, O any](primary, secondary Provider[I, O]) *Fallback[I, O] {
	return &Fallback[I, O]{primary: primary, secondary: secondary}
}

// WithFailoverHook registers a callback invoked when the primary fails and the
// secondary is about to be tried. Used for warn-level logging.
func (f *Fallback[I, O]) WithFailoverHook(hook func(primary, secondary string, err error)) *Fallback[I, O] {
	f.onFailover = hook
	return f
}

// Name implements Provider.
func (f *Fallback[I, O]) Name() string {
	return fmt.Sprintf("%s|%s", f.primary.Name(), f.secondary.Name())
}

// Execute implements Provider. The secondary is invoked if and only if the
// primary returns an error.
func (f *Fallback[I, O]) Execute(ctx context.Context, in I) (O, error) {
	out, err := f.primary.Execute(ctx, in)
	if err == nil {
		return out, nil
	}
	if f.onFailover != nil {
		f.onFailover(f.primary.Name(), f.secondary.Name(), err)
	}
	return f.secondary.Execute(ctx, in)
}

// Package notify carries terminal-state webhooks and reviewer-facing chat
// messages. Both paths are best-effort: a notification failure never fails
// the job that triggered it.
package notify

import (
	"context"

	"github.com/reelforge/reelforge/internal/logger"
)

// Channel sends human-facing messages to a chat address (approval summaries,
// friendly failure notices).
type Channel interface {
	Send(ctx context.Context, address, text string) error
}

// LogChannel is a Channel that only logs. It stands in when no chat
// integration is configured.
type LogChannel struct{}

// Send implements Channel.
func (LogChannel) Send(_ context.Context, address, text string) error {
	logger.InfoWithFields("Chat notification", map[string]interface{}{
		"address": address,
		"text":    text,
	})
	return nil
}

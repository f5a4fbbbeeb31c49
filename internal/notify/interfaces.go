package notify

import (
	"context"
	"errors"
)

// ErrNotFound indicates the referenced message no longer exists on the
// channel (deleted, or the handle is stale).
var ErrNotFound = errors.New("message not found")

// Channel is the external notification surface. Both operations are
// at-least-once with idempotent content: publishing or editing the same
// rendered text twice is harmless.
type Channel interface {
	// Publish posts a new message and returns its channel-message id.
	Publish(ctx context.Context, text string) (string, error)

	// Edit replaces the content of an existing message. Returns
	// ErrNotFound when the message is gone.
	Edit(ctx context.Context, messageID, text string) error
}

package notify

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
)

// LogChannel writes summaries to the process log instead of an external
// channel. Used in development or when no relay is configured; message ids
// are process-local.
type LogChannel struct {
	seq atomic.Int64
}

// NewLogChannel creates a log-backed channel.
func NewLogChannel() *LogChannel {
	return &LogChannel{}
}

// Publish logs the message and returns a process-local id.
func (c *LogChannel) Publish(ctx context.Context, text string) (string, error) {
	id := fmt.Sprintf("local-%d", c.seq.Add(1))
	log.Printf("[LogChannel] publish %s:\n%s", id, text)
	return id, nil
}

// Edit logs the replacement content.
func (c *LogChannel) Edit(ctx context.Context, messageID, text string) error {
	log.Printf("[LogChannel] edit %s:\n%s", messageID, text)
	return nil
}

// Ensure LogChannel implements Channel
var _ Channel = (*LogChannel)(nil)

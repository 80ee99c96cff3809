package dialogue

import "context"

// TrackerStore persists conversation state on behalf of a host.
type TrackerStore interface {
	// Load returns a snapshot for senderID; unknown senders get an empty tracker.
	Load(ctx context.Context, senderID string) (*Tracker, error)
	// Append applies events to the stored tracker.
	Append(ctx context.Context, senderID string, events ...Event) error
	// Reset forgets the conversation.
	Reset(ctx context.Context, senderID string) error
}

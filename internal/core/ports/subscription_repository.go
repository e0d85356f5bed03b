package ports

import "context"

// SubscriptionRepository defines persistence operations for subscription edges.
type SubscriptionRepository interface {
	// Toggle creates the subscriber→channel edge if absent, removes it if
	// present, and returns the resulting subscribed state.
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	// Exists reports whether the subscriber→channel edge is present.
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
}

package notify

import "context"

// Notifier delivers one message to one target over a single channel.
type Notifier interface {
	// Channel returns the channel kind this notifier serves.
	Channel() string
	// Send delivers the message. An error means the attempt failed and
	// may be retried by the dispatcher.
	Send(ctx context.Context, target string, msg *Message) error
}

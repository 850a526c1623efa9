package notification

import "context"

// Message is one outgoing email
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Notifier delivers messages
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

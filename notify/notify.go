package notify

import "context"

// Message is one email to one recipient
type Message struct {
	To        string
	ToName    string
	Subject   string
	HTML      string
	PlainText string
}

// Delivery is the outcome of a send. Failures are reported here rather than
// as errors so a caller can record every attempt.
type Delivery struct {
	Success   bool
	MessageID string
	Error     string
}

// Notifier delivers messages
type Notifier interface {
	Send(ctx context.Context, msg Message) Delivery
}

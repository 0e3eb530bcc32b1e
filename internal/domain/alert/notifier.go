package alert

import "context"

// Notifier delivers a single notification.
type Notifier interface {
	Send(ctx context.Context, message, title string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message, title string) error

func (f NotifierFunc) Send(ctx context.Context, message, title string) error {
	return f(ctx, message, title)
}

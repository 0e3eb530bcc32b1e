package notify

import (
	"context"
	"errors"
	"fmt"

	"class_availability_notifier/internal/domain/alert"
)

// Channel is a named notifier.
type Channel struct {
	Name     string
	Notifier alert.Notifier
}

// MultiNotifier delivers to every channel. It tries all of them and fails if
// any one failed.
type MultiNotifier struct {
	channels []Channel
}

func NewMultiNotifier(channels ...Channel) *MultiNotifier {
	return &MultiNotifier{channels: channels}
}

func (m *MultiNotifier) Send(ctx context.Context, message, title string) error {
	var errs []error
	for _, c := range m.channels {
		if err := c.Notifier.Send(ctx, message, title); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}

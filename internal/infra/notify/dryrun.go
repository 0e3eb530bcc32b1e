package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DryRunNotifier logs what would have been sent.
type DryRunNotifier struct {
	logger *logrus.Entry
}

func NewDryRunNotifier(logger *logrus.Entry) *DryRunNotifier {
	return &DryRunNotifier{logger: logger}
}

func (d *DryRunNotifier) Send(ctx context.Context, message, title string) error {
	d.logger.WithFields(logrus.Fields{"title": title, "message": message}).
		Infof("[DRY_RUN] Would send: %s - %s", title, message)
	return nil
}

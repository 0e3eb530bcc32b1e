// internal/infra/notify/pushover.go
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const DefaultPushoverURL = "https://api.pushover.net"

// PushoverNotifier sends messages through the Pushover API.
type PushoverNotifier struct {
	client  *resty.Client
	token   string
	userKey string
	device  string
}

func NewPushoverNotifier(baseURL, token, userKey, device string) *PushoverNotifier {
	if baseURL == "" {
		baseURL = DefaultPushoverURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second)
	return &PushoverNotifier{client: client, token: token, userKey: userKey, device: device}
}

func (p *PushoverNotifier) Send(ctx context.Context, message, title string) error {
	form := map[string]string{
		"token":   p.token,
		"user":    p.userKey,
		"message": message,
		"title":   title,
	}
	if p.device != "" {
		form["device"] = p.device
	}

	res, err := p.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/1/messages.json")
	if err != nil {
		return fmt.Errorf("failed to call pushover: %w", err)
	}

	body := res.Body()
	if res.IsError() || gjson.GetBytes(body, "status").Int() != 1 {
		var reasons []string
		for _, e := range gjson.GetBytes(body, "errors").Array() {
			reasons = append(reasons, e.String())
		}
		if len(reasons) == 0 {
			reasons = append(reasons, strings.TrimSpace(string(body)))
		}
		return fmt.Errorf("pushover rejected message (HTTP %d): %s", res.StatusCode(), strings.Join(reasons, "; "))
	}
	return nil
}

package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

// EmailNotifier sends plain-text mail over SMTP.
type EmailNotifier struct {
	server   string
	port     int
	username string
	password string
	from     string
	to       []string
}

func NewEmailNotifier(server string, port int, username, password, from string, to []string) *EmailNotifier {
	return &EmailNotifier{server: server, port: port, username: username, password: password, from: from, to: to}
}

func (n *EmailNotifier) Send(ctx context.Context, message, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mail := n.build(message, title)
	addr := fmt.Sprintf("%s:%d", n.server, n.port)

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.server)
	}
	err := mail.Send(addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (n *EmailNotifier) build(message, title string) *email.Email {
	mail := email.NewEmail()
	mail.From = n.from
	mail.To = n.to
	mail.Subject = title
	mail.Text = []byte(message + "\n")
	return mail
}

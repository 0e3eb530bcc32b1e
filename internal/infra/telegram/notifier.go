package telegram

import (
	"context"
	"fmt"

	domainTelegram "class_availability_notifier/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// Notifier posts availability alerts to one Telegram chat.
type Notifier struct {
	client domainTelegram.Client
	chatID int64
}

func NewNotifier(client domainTelegram.Client, chatID int64) *Notifier {
	return &Notifier{client: client, chatID: chatID}
}

func (n *Notifier) Send(ctx context.Context, message, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := formatAlert(message, title)
	if err := n.client.SendMessage(n.chatID, text, &telebot.SendOptions{ParseMode: telebot.ModeHTML}); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

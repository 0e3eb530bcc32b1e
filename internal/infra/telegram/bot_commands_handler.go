// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"class_availability_notifier/internal/app"
	"class_availability_notifier/internal/domain/availability"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// CheckTrigger runs one check cycle on demand.
type CheckTrigger interface {
	RunNow(ctx context.Context) (*app.CycleResult, error)
}

// RegisterBotCommands wires /start, /help, /status and /check.
// Only the configured chat may use them.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	chatID int64,
	className string,
	checkService app.CheckService,
	trigger CheckTrigger,
	baseLogger *logrus.Entry, // For contextual logging
) {
	logger := baseLogger.WithField("handler_group", "bot_commands")

	authorized := func(c telebot.Context, command string) (*logrus.Entry, bool) {
		logCtx := logger.WithField("command", command)
		if c.Chat() == nil || c.Chat().ID != chatID {
			if c.Sender() != nil {
				logCtx = logCtx.WithField("sender_id", c.Sender().ID)
			}
			logCtx.Warn("Ignoring command from unauthorized chat")
			return logCtx, false
		}
		logCtx.Info("Processing command")
		return logCtx, true
	}

	b.Handle("/start", func(c telebot.Context) error {
		if _, ok := authorized(c, "/start"); !ok {
			return c.Send("This bot is private.")
		}
		return c.Send(fmt.Sprintf("Watching \"%s\". Use /help for the list of commands.", className))
	})

	b.Handle("/help", func(c telebot.Context) error {
		if _, ok := authorized(c, "/help"); !ok {
			return nil
		}
		return c.Send(helpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/status", func(c telebot.Context) error {
		if _, ok := authorized(c, "/status"); !ok {
			return nil
		}
		state := checkService.LastState(ctx)
		return c.Send(statusReply(className, state))
	})

	b.Handle("/check", func(c telebot.Context) error {
		logCtx, ok := authorized(c, "/check")
		if !ok {
			return nil
		}
		if err := c.Send("Checking now, this can take a minute..."); err != nil {
			logCtx.WithError(err).Warn("Failed to acknowledge /check")
		}
		res, err := trigger.RunNow(ctx)
		if err != nil && !errors.Is(err, app.ErrCheckInProgress) {
			logCtx.WithError(err).Error("On-demand check failed")
		}
		return c.Send(checkReply(res, err))
	})
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("Available commands:\n\n")
	sb.WriteString("`/status`\n - Show the last observed class status.\n\n")
	sb.WriteString("`/check`\n - Run an availability check right now.\n\n")
	sb.WriteString("`/help`\n - Show this message.")
	return sb.String()
}

func statusReply(className string, state availability.PersistedState) string {
	if state.LastCheckedAt == nil {
		return fmt.Sprintf("%s: no completed check yet (status %s).", className, state.LastStatus)
	}
	return fmt.Sprintf("%s: %s (checked %s).", className, state.LastStatus,
		state.LastCheckedAt.Local().Format(time.DateTime))
}

func checkReply(res *app.CycleResult, err error) string {
	switch {
	case errors.Is(err, app.ErrCheckInProgress):
		return "A check is already running, try again shortly."
	case res == nil && err != nil:
		return "Check failed: " + err.Error()
	}
	reply := res.Record.Message()
	if res.Notified {
		reply += " Notification sent."
	}
	if err != nil {
		reply += " Warning: " + err.Error()
	}
	return reply
}

func formatAlert(message, title string) string {
	return "<b>" + html.EscapeString(title) + "</b>\n" + html.EscapeString(message)
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"class_availability_notifier/internal/app"
	"class_availability_notifier/internal/domain/alert"
	"class_availability_notifier/internal/domain/availability"
	"class_availability_notifier/internal/infra/browser"
	"class_availability_notifier/internal/infra/config"
	idb "class_availability_notifier/internal/infra/database"
	"class_availability_notifier/internal/infra/logger"
	"class_availability_notifier/internal/infra/notify"
	"class_availability_notifier/internal/infra/statefile"
	"class_availability_notifier/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

// stores is the state backend selected by STATE_BACKEND.
type stores struct {
	state   availability.StateRepository
	history availability.HistoryRepository // nil for the file backend
	db      *sql.DB
}

func (s *stores) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close database")
		}
	}
}

func openStores(ctx context.Context, cfg *config.AppConfig) (*stores, error) {
	log := logger.Component("state")

	var (
		db  *sql.DB
		err error
	)
	switch cfg.StateBackend {
	case config.StateBackendFile:
		log.WithField("path", cfg.StateFile).Debug("Using file state backend")
		return &stores{state: statefile.NewFileStateRepository(cfg.StateFile, log)}, nil
	case config.StateBackendPostgres:
		db, err = idb.NewPostgresConnection(cfg.DatabaseURL)
	case config.StateBackendSQLite:
		db, err = idb.NewSQLiteConnection(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("invalid STATE_BACKEND %q", cfg.StateBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if err := idb.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.WithField("backend", cfg.StateBackend).Info("Database connection established")

	repo := idb.NewSQLStateRepository(db, cfg.StateKey, log)
	return &stores{state: repo, history: repo, db: db}, nil
}

// newBot creates the Telegram bot when the channel is configured. The bot is
// only polled in watch mode.
func newBot(cfg *config.AppConfig) (*telebot.Bot, error) {
	if !cfg.HasNotifier(config.NotifierTelegram) || cfg.TelegramToken == "" {
		return nil, nil
	}
	log := logger.Component("telebot")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID).WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram bot error")
		},
	}
	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return b, nil
}

func buildNotifier(cfg *config.AppConfig, bot *telebot.Bot) (alert.Notifier, error) {
	if cfg.DryRun {
		return notify.NewDryRunNotifier(logger.Component("notify")), nil
	}

	var channels []notify.Channel
	for _, name := range cfg.Notifiers {
		var n alert.Notifier
		switch name {
		case config.NotifierPushover:
			n = notify.NewPushoverNotifier(notify.DefaultPushoverURL, cfg.PushoverToken, cfg.PushoverUserKey, cfg.PushoverDevice)
		case config.NotifierTelegram:
			if bot == nil {
				return nil, errors.New("telegram notifier enabled but the bot is not configured")
			}
			n = telegram.NewNotifier(telegram.NewTelebotAdapter(bot), cfg.TelegramChatID)
		case config.NotifierEmail:
			n = notify.NewEmailNotifier(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom, cfg.EmailTo)
		default:
			return nil, fmt.Errorf("unknown notifier %q", name)
		}
		channels = append(channels, notify.Channel{Name: name, Notifier: n})
	}
	if len(channels) == 0 {
		return nil, errors.New("no notifiers configured")
	}
	return notify.NewMultiNotifier(channels...), nil
}

func newCheckService(cfg *config.AppConfig, state availability.StateRepository, notifier alert.Notifier) *app.CheckServiceImpl {
	screenshot := ""
	if cfg.Debug {
		screenshot = cfg.DebugScreenshot
	}
	launcher := browser.NewLauncher(browser.Config{
		StartURL:          cfg.StartURL,
		ScheduleURL:       cfg.ScheduleURL,
		Username:          cfg.Username,
		Password:          cfg.Password,
		Headless:          cfg.Headless,
		BrowserBin:        cfg.BrowserBin,
		DebuggerURL:       cfg.DebuggerURL,
		NavigationTimeout: cfg.NavigationTimeout,
		DebugScreenshot:   screenshot,
	}, logger.Component("browser"))

	extractorCfg := app.DefaultExtractorConfig()
	extractorCfg.DetectTimeout = cfg.DetectTimeout
	extractorCfg.CreditTimeout = cfg.CreditTimeout
	extractorCfg.PopupTimeout = cfg.PopupTimeout
	extractorCfg.NavigationTimeout = cfg.NavigationTimeout
	extractorCfg.Debug = cfg.Debug

	locator := app.NewLocator(cfg.PollInterval, logger.Component("locator"))
	extractor := app.NewExtractor(extractorCfg, locator, logger.Component("extractor"))

	return app.NewCheckServiceImpl(launcher, extractor, state, notifier, app.CheckOptions{
		Target: availability.Target{
			Name:       cfg.ClassName,
			Day:        cfg.ClassDay,
			Instructor: cfg.Instructor,
			Location:   cfg.Location,
		},
		Mode:           alert.ParseMode(cfg.AlertMode),
		Debug:          cfg.Debug,
		ScreenshotPath: cfg.DebugScreenshot,
	}, logger.Component("check"))
}

// runtime is everything a check or watch needs.
type runtime struct {
	stores       *stores
	bot          *telebot.Bot
	checkService *app.CheckServiceImpl
}

func (r *runtime) Close() { r.stores.Close() }

func setup(ctx context.Context, cfg *config.AppConfig) (*runtime, error) {
	if err := cfg.ValidateForCheck(); err != nil {
		return nil, err
	}
	if mode := alert.ParseMode(cfg.AlertMode); !mode.Known() {
		logger.Log.WithField("alert_mode", cfg.AlertMode).Warn("Unknown ALERT_MODE, alerting only when available")
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	bot, err := newBot(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	notifier, err := buildNotifier(cfg, bot)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &runtime{
		stores:       st,
		bot:          bot,
		checkService: newCheckService(cfg, st.state, notifier),
	}, nil
}

// applyOverrides applies the flags shared by check and watch.
func applyOverrides(cfg *config.AppConfig, headed, dryRun bool) {
	if headed {
		cfg.Headless = false
	}
	if dryRun {
		cfg.DryRun = true
	}
}

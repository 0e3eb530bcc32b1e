package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	StateBackendFile     = "file"
	StateBackendPostgres = "postgres"
	StateBackendSQLite   = "sqlite"

	NotifierPushover = "pushover"
	NotifierTelegram = "telegram"
	NotifierEmail    = "email"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	StartURL    string
	ScheduleURL string
	Username    string
	Password    string

	ClassName  string
	ClassDay   string
	Instructor string
	Location   string
	AlertMode  string

	StateBackend string
	StateFile    string
	DatabaseURL  string
	StateKey     string

	Notifiers       []string
	PushoverToken   string
	PushoverUserKey string
	PushoverDevice  string
	TelegramToken   string
	TelegramChatID  int64
	SMTPServer      string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	EmailFrom       string
	EmailTo         []string

	DryRun          bool
	Debug           bool
	DebugScreenshot string
	Headless        bool
	BrowserBin      string
	DebuggerURL     string

	DetectTimeout     time.Duration
	CreditTimeout     time.Duration
	PopupTimeout      time.Duration
	NavigationTimeout time.Duration
	PollInterval      time.Duration

	CronSpec     string
	LogLevel     string
	Environment  string
	LogFile      string
	LogFileMaxMB int
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.StartURL = getenvDefault("START_URL", "https://melodymagicmusic.opus1.io")
	cfg.ScheduleURL = os.Getenv("SCHEDULE_URL")

	// MELODY_* are the names older .env files use.
	cfg.Username = getenvFirst("SITE_USERNAME", "MELODY_USERNAME")
	cfg.Password = getenvFirst("SITE_PASSWORD", "MELODY_PASSWORD")

	cfg.ClassName = getenvDefault("CLASS_NAME", "Level 1 Tuesdays 10:00")
	cfg.ClassDay = getenvDefault("CLASS_DAY", "Tuesday")
	cfg.Instructor = os.Getenv("INSTRUCTOR")
	cfg.Location = os.Getenv("LOCATION")
	cfg.AlertMode = strings.ToLower(getenvDefault("ALERT_MODE", "available"))

	cfg.StateBackend = strings.ToLower(getenvDefault("STATE_BACKEND", StateBackendFile))
	cfg.StateFile = getenvDefault("STATE_FILE", "./state.json")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.StateKey = getenvDefault("STATE_KEY", cfg.ClassName)
	switch cfg.StateBackend {
	case StateBackendFile:
	case StateBackendPostgres, StateBackendSQLite:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set (required for STATE_BACKEND=%s)", cfg.StateBackend)
		}
	default:
		return nil, fmt.Errorf("invalid STATE_BACKEND %q", cfg.StateBackend)
	}

	cfg.DryRun, err = getenvBool("DRY_RUN", false)
	if err != nil {
		return nil, err
	}
	cfg.Debug, err = getenvBool("DEBUG", false)
	if err != nil {
		return nil, err
	}
	cfg.DebugScreenshot = getenvDefault("DEBUG_SCREENSHOT", "./debug.png")
	cfg.Headless, err = getenvBool("HEADLESS", true)
	if err != nil {
		return nil, err
	}
	cfg.BrowserBin = os.Getenv("BROWSER_BIN")
	cfg.DebuggerURL = os.Getenv("BROWSER_DEBUGGER_URL")

	if err := loadNotifiers(cfg); err != nil {
		return nil, err
	}

	if cfg.DetectTimeout, err = getenvMillis("DETECT_TIMEOUT_MS", 20000); err != nil {
		return nil, err
	}
	if cfg.CreditTimeout, err = getenvMillis("CREDIT_TIMEOUT_MS", 15000); err != nil {
		return nil, err
	}
	if cfg.PopupTimeout, err = getenvMillis("POPUP_TIMEOUT_MS", 10000); err != nil {
		return nil, err
	}
	if cfg.NavigationTimeout, err = getenvMillis("NAVIGATION_TIMEOUT_MS", 30000); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getenvMillis("POLL_INTERVAL_MS", 250); err != nil {
		return nil, err
	}

	cfg.CronSpec = getenvDefault("CRON_SPEC", "*/15 * * * *") // Default: every 15 minutes

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.LogFile = os.Getenv("LOG_FILE")
	cfg.LogFileMaxMB, err = getenvInt("LOG_FILE_MAX_MB", 10)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadNotifiers(cfg *AppConfig) error {
	var err error
	for _, n := range splitList(getenvDefault("NOTIFIERS", NotifierPushover)) {
		cfg.Notifiers = append(cfg.Notifiers, strings.ToLower(n))
	}

	cfg.PushoverToken = os.Getenv("PUSHOVER_APP_TOKEN")
	cfg.PushoverUserKey = os.Getenv("PUSHOVER_USER_KEY")
	cfg.PushoverDevice = os.Getenv("PUSHOVER_DEVICE")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.SMTPServer = os.Getenv("SMTP_SERVER")
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	cfg.EmailTo = splitList(os.Getenv("EMAIL_TO"))
	if cfg.SMTPPort, err = getenvInt("SMTP_PORT", 587); err != nil {
		return err
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.TelegramChatID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}
	return nil
}

// ValidateForCheck verifies the settings needed to log in and deliver
// notifications. Call it after command-line overrides are applied.
func (c *AppConfig) ValidateForCheck() error {
	if c.Username == "" {
		return fmt.Errorf("SITE_USERNAME is not set")
	}
	if c.Password == "" {
		return fmt.Errorf("SITE_PASSWORD is not set")
	}
	if c.DryRun {
		return nil
	}
	for _, n := range c.Notifiers {
		switch n {
		case NotifierPushover:
			if c.PushoverToken == "" || c.PushoverUserKey == "" {
				return fmt.Errorf("PUSHOVER_APP_TOKEN and PUSHOVER_USER_KEY must be set")
			}
		case NotifierTelegram:
			if c.TelegramToken == "" {
				return fmt.Errorf("TELEGRAM_TOKEN is not set")
			}
			if c.TelegramChatID == 0 {
				return fmt.Errorf("TELEGRAM_CHAT_ID is not set")
			}
		case NotifierEmail:
			if c.SMTPServer == "" || c.EmailFrom == "" || len(c.EmailTo) == 0 {
				return fmt.Errorf("SMTP_SERVER, EMAIL_FROM and EMAIL_TO must be set for email notifications")
			}
		default:
			return fmt.Errorf("unknown notifier %q in NOTIFIERS", n)
		}
	}
	return nil
}

// HasNotifier reports whether the named channel is enabled.
func (c *AppConfig) HasNotifier(name string) bool {
	for _, n := range c.Notifiers {
		if n == name {
			return true
		}
	}
	return false
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getenvFirst returns the first non-empty variable among keys.
func getenvFirst(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvMillis(key string, def int) (time.Duration, error) {
	n, err := getenvInt(key, def)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return time.Duration(n) * time.Millisecond, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

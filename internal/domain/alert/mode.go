// internal/domain/alert/mode.go
package alert

import (
	"strings"

	"class_availability_notifier/internal/domain/availability"
)

// Mode selects when a cycle's observation triggers a notification.
type Mode string

const (
	ModeAlways    Mode = "always"
	ModeNever     Mode = "never"
	ModeTest      Mode = "test"
	ModeAvailable Mode = "available"
	ModeOnChange  Mode = "on-change"
)

// Title is used for every notification.
const Title = "Class Availability"

// ParseMode lowercases and trims s. Empty input becomes ModeAvailable;
// any other value is kept as-is and ShouldAlert treats it like ModeAvailable.
func ParseMode(s string) Mode {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeAvailable
	}
	return m
}

// Known reports whether m is one of the defined modes.
func (m Mode) Known() bool {
	switch m {
	case ModeAlways, ModeNever, ModeTest, ModeAvailable, ModeOnChange:
		return true
	}
	return false
}

// ShouldAlert decides whether to notify for the current observation.
func ShouldAlert(mode Mode, current, previous availability.Status) bool {
	switch mode {
	case ModeNever:
		return false
	case ModeAlways, ModeTest:
		return true
	case ModeOnChange:
		return current != previous
	default:
		return current == availability.StatusAvailable
	}
}

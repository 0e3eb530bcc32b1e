// internal/domain/availability/status.go
package availability

import "strings"

// Status is the canonical availability of a class session.
// Besides the named values it may carry any lowercased text the site showed
// that did not map to a known value.
type Status string

const (
	StatusAvailable Status = "available"
	StatusFull      Status = "full"
	StatusWaitlist  Status = "waitlist"
	StatusUnknown   Status = "unknown"
)

// Normalize maps free-form status text to a Status.
// "full" wins over "wait", which wins over "open"/"available".
func Normalize(text string) Status {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "":
		return StatusUnknown
	case strings.Contains(t, "full"):
		return StatusFull
	case strings.Contains(t, "wait"):
		return StatusWaitlist
	case strings.Contains(t, "open"), strings.Contains(t, "available"):
		return StatusAvailable
	default:
		return Status(t)
	}
}

// IsKnown reports whether s is one of the named statuses.
func (s Status) IsKnown() bool {
	switch s {
	case StatusAvailable, StatusFull, StatusWaitlist, StatusUnknown:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

package availability

import "strings"

// Target identifies the class session being watched.
type Target struct {
	Name       string // display name as rendered on the schedule, e.g. "Level 1 Tuesdays 10:00"
	Day        string // optional day filter, e.g. "Tuesday"
	Instructor string
	Location   string
}

// Summary renders "Name (Instructor • Location)", omitting empty metadata.
func (t Target) Summary() string {
	var meta []string
	for _, m := range []string{t.Instructor, t.Location} {
		if m = strings.TrimSpace(m); m != "" {
			meta = append(meta, m)
		}
	}
	if len(meta) == 0 {
		return t.Name
	}
	return t.Name + " (" + strings.Join(meta, " • ") + ")"
}

// StatusRecord is one cycle's observation. It is never persisted as-is.
type StatusRecord struct {
	Status    Status
	RawStatus string // display form, e.g. "Full"
	Summary   string
}

// Message builds the notification body for the record.
func (r StatusRecord) Message() string {
	shown := r.RawStatus
	if shown == "" {
		shown = string(r.Status)
	}
	return r.Summary + " is " + shown + "."
}

// internal/domain/availability/repository.go
package availability

import (
	"context"
	"time"
)

// PersistedState is what survives between cycles.
type PersistedState struct {
	LastStatus    Status
	LastCheckedAt *time.Time
}

// DefaultState is used when nothing usable was stored yet.
func DefaultState() PersistedState {
	return PersistedState{LastStatus: StatusUnknown}
}

// StateRepository stores the last observed status.
type StateRepository interface {
	// Read never fails: a missing or unreadable record yields DefaultState.
	Read(ctx context.Context) PersistedState
	// Write replaces the stored record.
	Write(ctx context.Context, state PersistedState) error
}

// CheckEntry is one row of the check history.
type CheckEntry struct {
	CycleID   string
	Target    string
	Status    Status
	RawStatus string
	Notified  bool
	CheckedAt time.Time
}

// HistoryRepository is implemented by stores that keep a log of completed cycles.
type HistoryRepository interface {
	AppendCheck(ctx context.Context, entry CheckEntry) error
	ListChecks(ctx context.Context, limit int) ([]CheckEntry, error)
}

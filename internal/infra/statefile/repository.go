// internal/infra/statefile/repository.go
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"class_availability_notifier/internal/domain/availability"

	"github.com/sirupsen/logrus"
)

type document struct {
	LastStatus    string `json:"lastStatus"`
	LastCheckedAt string `json:"lastCheckedAt,omitempty"`
}

// FileStateRepository keeps the state in a small JSON file.
type FileStateRepository struct {
	path   string
	logger *logrus.Entry
}

func NewFileStateRepository(path string, logger *logrus.Entry) *FileStateRepository {
	return &FileStateRepository{path: path, logger: logger}
}

func (r *FileStateRepository) Read(ctx context.Context) availability.PersistedState {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.WithError(err).WithField("path", r.path).Warn("Could not read state file, starting fresh")
		}
		return availability.DefaultState()
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.WithError(err).WithField("path", r.path).Warn("State file is corrupt, starting fresh")
		return availability.DefaultState()
	}

	logCtx := r.logger.WithField("path", r.path)
	state := availability.PersistedState{LastStatus: availability.Normalize(doc.LastStatus)}
	if !state.LastStatus.IsKnown() {
		logCtx.WithField("last_status", state.LastStatus).Warn("Stored status is not a known status")
	}
	if doc.LastCheckedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, doc.LastCheckedAt)
		if err != nil {
			logCtx.WithError(err).Warn("Ignoring unreadable lastCheckedAt in state file")
		} else {
			state.LastCheckedAt = &t
		}
	}
	return state
}

// Write replaces the file atomically via a temp file in the same directory.
func (r *FileStateRepository) Write(ctx context.Context, state availability.PersistedState) error {
	doc := document{LastStatus: string(state.LastStatus)}
	if state.LastCheckedAt != nil {
		doc.LastCheckedAt = state.LastCheckedAt.Format(time.RFC3339Nano)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

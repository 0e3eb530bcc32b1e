package database

import (
	"context"
	"testing"
	"time"

	"class_availability_notifier/internal/domain/availability"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, key string) *SQLStateRepository {
	t.Helper()
	db, err := NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db))

	l, _ := test.NewNullLogger()
	return NewSQLStateRepository(db, key, logrus.NewEntry(l))
}

func TestSQLStateDefaultsToUnknown(t *testing.T) {
	repo := newTestRepo(t, "Level 1 Tuesdays 10:00")
	require.Equal(t, availability.DefaultState(), repo.Read(context.Background()))
}

func TestSQLStateUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, "Level 1 Tuesdays 10:00")

	first := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Write(ctx, availability.PersistedState{LastStatus: availability.StatusFull, LastCheckedAt: &first}))

	second := first.Add(15 * time.Minute)
	require.NoError(t, repo.Write(ctx, availability.PersistedState{LastStatus: availability.StatusAvailable, LastCheckedAt: &second}))

	got := repo.Read(ctx)
	require.Equal(t, availability.StatusAvailable, got.LastStatus)
	require.NotNil(t, got.LastCheckedAt)
	require.True(t, second.Equal(*got.LastCheckedAt))

	require.NoError(t, repo.Write(ctx, availability.PersistedState{LastStatus: availability.StatusFull}))
	require.Nil(t, repo.Read(ctx).LastCheckedAt)
}

func TestSQLStateKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "migrations must be re-runnable")

	l, _ := test.NewNullLogger()
	tuesday := NewSQLStateRepository(db, "tuesday", logrus.NewEntry(l))
	friday := NewSQLStateRepository(db, "friday", logrus.NewEntry(l))

	require.NoError(t, tuesday.Write(ctx, availability.PersistedState{LastStatus: availability.StatusFull}))
	require.Equal(t, availability.StatusFull, tuesday.Read(ctx).LastStatus)
	require.Equal(t, availability.StatusUnknown, friday.Read(ctx).LastStatus)
}

func TestSQLCheckHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, "Level 1 Tuesdays 10:00")
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for i, st := range []availability.Status{availability.StatusFull, availability.StatusFull, availability.StatusAvailable} {
		require.NoError(t, repo.AppendCheck(ctx, availability.CheckEntry{
			CycleID:   string(rune('a' + i)),
			Target:    "Level 1 Tuesdays 10:00",
			Status:    st,
			RawStatus: "raw",
			Notified:  st == availability.StatusAvailable,
			CheckedAt: base.Add(time.Duration(i) * 15 * time.Minute),
		}))
	}

	entries, err := repo.ListChecks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "c", entries[0].CycleID)
	require.Equal(t, availability.StatusAvailable, entries[0].Status)
	require.True(t, entries[0].Notified)
	require.True(t, base.Add(30*time.Minute).Equal(entries[0].CheckedAt))
	require.Equal(t, "b", entries[1].CycleID)
	require.False(t, entries[1].Notified)
}

func TestSQLRepositoryImplementsHistory(t *testing.T) {
	var repo availability.StateRepository = newTestRepo(t, "k")
	_, ok := repo.(availability.HistoryRepository)
	require.True(t, ok)
}

func TestSQLStateNormalizesStoredRow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, "Level 1 Tuesdays 10:00")

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO watch_state (state_key, last_status, last_checked_at) VALUES ($1, $2, $3)`,
		"Level 1 Tuesdays 10:00", "FULL ", "2026-03-10 09:30")
	require.NoError(t, err)

	got := repo.Read(ctx)
	require.Equal(t, availability.StatusFull, got.LastStatus)
	require.Nil(t, got.LastCheckedAt)
}

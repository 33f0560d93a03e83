package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"matchbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestRecordAndRecent(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	entries := []models.HistoryEntry{
		{PostID: "post-1", Title: "첫 직관 후기", Outcome: models.OutcomePublished, URL: "https://blog.example.com/1", CreatedAt: base},
		{PostID: "post-2", Title: "우천 취소", Outcome: models.OutcomeRejected, CreatedAt: base.Add(time.Minute)},
		{PostID: "post-3", Title: "연장전 후기", Outcome: models.OutcomeFailed, Error: "login expired", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range entries {
		require.NoError(t, h.Record(ctx, &entries[i]))
	}

	got, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	assert.Equal(t, "post-3", got[0].PostID)
	assert.Equal(t, models.OutcomeFailed, got[0].Outcome)
	assert.Equal(t, "login expired", got[0].Error)
	assert.Equal(t, "post-1", got[2].PostID)
	assert.Equal(t, "https://blog.example.com/1", got[2].URL)
}

func TestRecentRespectsLimit(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Record(ctx, &models.HistoryEntry{
			PostID:  "post-n",
			Title:   "후기",
			Outcome: models.OutcomePublished,
		}))
	}

	got, err := h.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRecentEmpty(t *testing.T) {
	h := newTestHistory(t)

	got, err := h.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordFillsCreatedAt(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	require.NoError(t, h.Record(ctx, &models.HistoryEntry{
		PostID:  "post-1",
		Title:   "후기",
		Outcome: models.OutcomePublished,
	}))

	got, err := h.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.WithinDuration(t, time.Now(), got[0].CreatedAt, time.Minute)
}

func TestNewFailsOnUnwritablePath(t *testing.T) {
	_, err := New("/nonexistent-dir/sub/history.db")
	assert.Error(t, err)
}

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/feedback-analytics/internal/cache"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

func newTestManager(loader DatasetLoader) (*Manager, cache.CacheService) {
	c := cache.NewMemoryCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(c, time.Hour, loader, logger), c
}

func TestManager_Resolve(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(nil)

	t.Run("creates a session for an empty id", func(t *testing.T) {
		s, err := m.Resolve(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, models.DefaultDatasetID, s.DatasetID)
		assert.Empty(t, s.ChatHistory)
	})

	t.Run("creates a session for an unknown id", func(t *testing.T) {
		s, err := m.Resolve(ctx, "unknown")
		require.NoError(t, err)
		assert.NotEqual(t, "unknown", s.ID)
	})

	t.Run("returns the saved session", func(t *testing.T) {
		s, err := m.Resolve(ctx, "")
		require.NoError(t, err)

		s.DatasetID = "uploaded"
		s.ChatHistory = append(s.ChatHistory, models.ChatTurn{Question: "q", Answer: "a"})
		require.NoError(t, m.Save(ctx, s))

		loaded, err := m.Resolve(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, loaded.ID)
		assert.Equal(t, "uploaded", loaded.DatasetID)
		require.Len(t, loaded.ChatHistory, 1)
		assert.Equal(t, "a", loaded.ChatHistory[0].Answer)
	})
}

func TestManager_SlidingExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := cache.NewMemoryCacheWithClock(clock)
	m := NewManager(c, time.Hour, func() (*models.Dataset, error) {
		return &models.Dataset{Name: "default.csv"}, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.now = clock

	s, err := m.Resolve(ctx, "")
	require.NoError(t, err)
	ds := &models.Dataset{Name: "upload.csv", Columns: []string{"question"}, Rows: [][]string{{"Q1"}}}
	require.NoError(t, m.StoreDataset(ctx, ds))
	s.DatasetID = ds.ID
	require.NoError(t, m.Save(ctx, s))

	t.Run("read-only activity keeps the uploaded dataset", func(t *testing.T) {
		// three hours of requests, each inside the TTL of the previous one
		for i := 0; i < 6; i++ {
			now = now.Add(30 * time.Minute)
			resolved, err := m.Resolve(ctx, s.ID)
			require.NoError(t, err)
			require.Equal(t, s.ID, resolved.ID)
			require.Equal(t, ds.ID, resolved.DatasetID)
		}

		loaded, err := m.Dataset(ctx, ds.ID)
		require.NoError(t, err)
		assert.Equal(t, "upload.csv", loaded.Name)
	})

	t.Run("idle session expires", func(t *testing.T) {
		now = now.Add(2 * time.Hour)

		resolved, err := m.Resolve(ctx, s.ID)
		require.NoError(t, err)
		assert.NotEqual(t, s.ID, resolved.ID)
		assert.Equal(t, models.DefaultDatasetID, resolved.DatasetID)

		_, err = m.Dataset(ctx, ds.ID)
		assert.ErrorIs(t, err, ErrDatasetNotFound)
	})
}

func TestManager_Update(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(nil)

	s, err := m.Resolve(ctx, "")
	require.NoError(t, err)
	stale, err := m.Resolve(ctx, s.ID)
	require.NoError(t, err)

	require.NoError(t, m.Update(ctx, s, func(current *models.Session) error {
		current.ChatHistory = append(current.ChatHistory, models.ChatTurn{Question: "first"})
		return nil
	}))

	t.Run("applies changes to the stored copy", func(t *testing.T) {
		require.NoError(t, m.Update(ctx, stale, func(current *models.Session) error {
			current.ChatHistory = append(current.ChatHistory, models.ChatTurn{Question: "second"})
			return nil
		}))

		loaded, err := m.Resolve(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, loaded.ChatHistory, 2)
		assert.Equal(t, "first", loaded.ChatHistory[0].Question)
		assert.Len(t, stale.ChatHistory, 2)
	})

	t.Run("failed update is not saved", func(t *testing.T) {
		err := m.Update(ctx, s, func(current *models.Session) error {
			current.DatasetID = "other"
			return errors.New("provider down")
		})
		assert.EqualError(t, err, "provider down")

		loaded, err := m.Resolve(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultDatasetID, loaded.DatasetID)
	})

	t.Run("locks are released", func(t *testing.T) {
		assert.Empty(t, m.sessionLocks.locks)
	})
}

func TestManager_Datasets(t *testing.T) {
	ctx := context.Background()

	t.Run("stores uploads under a new id", func(t *testing.T) {
		m, _ := newTestManager(nil)
		ds := &models.Dataset{Name: "a.csv", Columns: []string{"question"}, Rows: [][]string{{"Q1"}}}

		require.NoError(t, m.StoreDataset(ctx, ds))
		assert.NotEmpty(t, ds.ID)

		loaded, err := m.Dataset(ctx, ds.ID)
		require.NoError(t, err)
		assert.Equal(t, ds, loaded)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		m, _ := newTestManager(nil)
		_, err := m.Dataset(ctx, "nope")
		assert.ErrorIs(t, err, ErrDatasetNotFound)
	})

	t.Run("default dataset is loaded once", func(t *testing.T) {
		calls := 0
		m, _ := newTestManager(func() (*models.Dataset, error) {
			calls++
			return &models.Dataset{Name: "default.csv"}, nil
		})

		for i := 0; i < 3; i++ {
			ds, err := m.Dataset(ctx, models.DefaultDatasetID)
			require.NoError(t, err)
			assert.Equal(t, models.DefaultDatasetID, ds.ID)
		}
		_, err := m.Dataset(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("failed default load is retried", func(t *testing.T) {
		calls := 0
		m, _ := newTestManager(func() (*models.Dataset, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("disk error")
			}
			return &models.Dataset{}, nil
		})

		_, err := m.DefaultDataset()
		assert.Error(t, err)
		_, err = m.DefaultDataset()
		assert.NoError(t, err)
	})

	t.Run("no default configured", func(t *testing.T) {
		m, _ := newTestManager(nil)
		_, err := m.DefaultDataset()
		assert.ErrorIs(t, err, ErrNoDefaultDataset)
	})

	t.Run("delete removes memoized analyses", func(t *testing.T) {
		m, c := newTestManager(nil)
		ds := &models.Dataset{Name: "a.csv"}
		require.NoError(t, m.StoreDataset(ctx, ds))

		key := AnalysisKey(ds.ID, "items")
		require.NoError(t, c.Set(ctx, key, "cached", time.Hour))

		require.NoError(t, m.DeleteDataset(ctx, ds.ID))

		var v string
		assert.ErrorIs(t, c.Get(ctx, key, &v), cache.ErrCacheMiss)
		_, err := m.Dataset(ctx, ds.ID)
		assert.ErrorIs(t, err, ErrDatasetNotFound)
	})
}

func TestAnalysisKey(t *testing.T) {
	assert.Equal(t, "analysis:d1:items", AnalysisKey("d1", "items"))
	assert.Equal(t, "analysis:d1:error-types:question=Q1:n=10", AnalysisKey("d1", "error-types", "question=Q1", "n=10"))
}

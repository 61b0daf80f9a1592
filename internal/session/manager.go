package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/feedback-analytics/internal/cache"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

var (
	ErrDatasetNotFound  = errors.New("dataset not found or expired")
	ErrNoDefaultDataset = errors.New("no default dataset configured")
)

const (
	sessionKeyPrefix  = "session:"
	datasetKeyPrefix  = "dataset:"
	analysisKeyPrefix = "analysis:"
)

// DatasetLoader loads the default dataset from its configured source
type DatasetLoader func() (*models.Dataset, error)

// Manager stores sessions and datasets in the cache. Uploaded datasets are immutable
// once stored, so analyses derived from them can be memoized by dataset id.
type Manager struct {
	cache       cache.CacheService
	ttl         time.Duration
	loadDefault DatasetLoader
	logger      *slog.Logger
	now         func() time.Time

	sessionLocks *keyedMutex

	mu             sync.Mutex
	defaultDataset *models.Dataset
}

func NewManager(cacheService cache.CacheService, ttl time.Duration, loadDefault DatasetLoader, logger *slog.Logger) *Manager {
	return &Manager{
		cache:        cacheService,
		ttl:          ttl,
		loadDefault:  loadDefault,
		logger:       logger,
		now:          time.Now,
		sessionLocks: newKeyedMutex(),
	}
}

// Resolve returns the session with the given id, or a new session when the id is empty or unknown.
// Expiry is sliding: every resolved session and its uploaded dataset get a fresh TTL.
func (m *Manager) Resolve(ctx context.Context, id string) (*models.Session, error) {
	if id != "" {
		var s models.Session
		err := m.cache.Get(ctx, sessionKey(id), &s)
		if err == nil {
			err = m.touch(ctx, &s)
		}
		if err == nil {
			return &s, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		m.logger.Debug("Session not found, creating a new one", "session_id", id)
	}

	now := m.now().UTC()
	s := &models.Session{
		ID:          uuid.NewString(),
		DatasetID:   models.DefaultDatasetID,
		ChatHistory: []models.ChatTurn{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save persists the session and refreshes its expiry along with its dataset's
func (m *Manager) Save(ctx context.Context, s *models.Session) error {
	s.UpdatedAt = m.now().UTC()
	if err := m.cache.Set(ctx, sessionKey(s.ID), s, m.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return m.refreshDataset(ctx, s.DatasetID)
}

// Update applies fn to the latest stored copy of the session and saves the result.
// Updates of one session run one at a time within this process, so concurrent
// requests on the same session do not overwrite each other's changes.
// When fn fails nothing is saved. s is refreshed in place either way.
func (m *Manager) Update(ctx context.Context, s *models.Session, fn func(*models.Session) error) error {
	unlock := m.sessionLocks.Lock(s.ID)
	defer unlock()

	var current models.Session
	err := m.cache.Get(ctx, sessionKey(s.ID), &current)
	switch {
	case err == nil:
		*s = current
	case !errors.Is(err, cache.ErrCacheMiss):
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := fn(s); err != nil {
		return err
	}
	return m.Save(ctx, s)
}

func (m *Manager) touch(ctx context.Context, s *models.Session) error {
	if err := m.cache.Expire(ctx, sessionKey(s.ID), m.ttl); err != nil {
		return err
	}
	return m.refreshDataset(ctx, s.DatasetID)
}

// refreshDataset extends an uploaded dataset's expiry. A dataset that is already gone
// is left to Dataset to report.
func (m *Manager) refreshDataset(ctx context.Context, id string) error {
	if id == "" || id == models.DefaultDatasetID {
		return nil
	}
	err := m.cache.Expire(ctx, datasetKey(id), m.ttl)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return fmt.Errorf("failed to refresh dataset expiry: %w", err)
	}
	return nil
}

// StoreDataset assigns a new id to the dataset and stores it
func (m *Manager) StoreDataset(ctx context.Context, ds *models.Dataset) error {
	ds.ID = uuid.NewString()
	if err := m.cache.Set(ctx, datasetKey(ds.ID), ds, m.ttl); err != nil {
		return fmt.Errorf("failed to store dataset: %w", err)
	}
	return nil
}

// Dataset returns a stored dataset, loading the default dataset on first use
func (m *Manager) Dataset(ctx context.Context, id string) (*models.Dataset, error) {
	if id == "" || id == models.DefaultDatasetID {
		return m.DefaultDataset()
	}

	var ds models.Dataset
	if err := m.cache.Get(ctx, datasetKey(id), &ds); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return &ds, nil
}

// DefaultDataset loads the default dataset once. A failed load is retried on the next call.
func (m *Manager) DefaultDataset() (*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.defaultDataset != nil {
		return m.defaultDataset, nil
	}
	if m.loadDefault == nil {
		return nil, ErrNoDefaultDataset
	}

	ds, err := m.loadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load default dataset: %w", err)
	}
	ds.ID = models.DefaultDatasetID
	m.defaultDataset = ds

	m.logger.Info("Default dataset loaded", "name", ds.Name, "rows", ds.Len())
	return ds, nil
}

// DeleteDataset removes an uploaded dataset and every analysis memoized for it
func (m *Manager) DeleteDataset(ctx context.Context, id string) error {
	if id == "" || id == models.DefaultDatasetID {
		return nil
	}
	if err := m.cache.Delete(ctx, datasetKey(id)); err != nil {
		return err
	}
	return m.cache.DeletePattern(ctx, analysisKeyPrefix+id+":*")
}

// AnalysisKey builds the memoization key of an analysis over a dataset
func AnalysisKey(datasetID, kind string, params ...string) string {
	parts := append([]string{datasetID, kind}, params...)
	return analysisKeyPrefix + strings.Join(parts, ":")
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func datasetKey(id string) string { return datasetKeyPrefix + id }

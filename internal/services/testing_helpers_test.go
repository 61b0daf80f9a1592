package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/feedback-analytics/internal/cache"
	"github.com/SAP-F-2025/feedback-analytics/internal/dataset"
	"github.com/SAP-F-2025/feedback-analytics/internal/events"
	"github.com/SAP-F-2025/feedback-analytics/internal/metrics"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
	"github.com/SAP-F-2025/feedback-analytics/internal/validator"
)

const defaultCSV = `student_id,question,grade,error_summary,error_category
s1,Q1,1,"sign error, arithmetic",Transformation
s1,Q2,0,misread question,Reading
s2,Q1,0,sign error,Process Skills
s2,Q2,1,,
s3,Q1,1,arithmetic,Encoding
s3,Q2,1,,
`

const gradesOnlyCSV = `student_id,question,grade
a,Q1,1
b,Q1,0
`

type fixture struct {
	cache     cache.CacheService
	sessions  *session.Manager
	publisher *events.MockEventPublisher
	metrics   *metrics.Metrics
	validator *validator.Validator
	logger    *slog.Logger
	datasets  DatasetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLoader(t, func() (*models.Dataset, error) {
		return dataset.ParseCSV(strings.NewReader(defaultCSV))
	})
}

func newFixtureWithLoader(t *testing.T, loader session.DatasetLoader) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		cache:     cache.NewMemoryCache(),
		publisher: events.NewMockEventPublisher(logger),
		metrics:   metrics.New(),
		validator: validator.New(),
		logger:    logger,
	}
	f.sessions = session.NewManager(f.cache, time.Hour, loader, logger)
	f.datasets = NewDatasetService(f.sessions, f.publisher, f.metrics, f.validator, logger, 1<<20)
	return f
}

func (f *fixture) newSession(t *testing.T) *models.Session {
	t.Helper()
	sess, err := f.sessions.Resolve(context.Background(), "")
	require.NoError(t, err)
	return sess
}

func (f *fixture) analytics() AnalyticsService {
	return NewAnalyticsService(f.datasets, f.cache, time.Hour, f.publisher, f.metrics, f.validator, f.logger)
}

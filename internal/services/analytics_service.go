package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/SAP-F-2025/feedback-analytics/internal/analytics"
	"github.com/SAP-F-2025/feedback-analytics/internal/cache"
	"github.com/SAP-F-2025/feedback-analytics/internal/events"
	"github.com/SAP-F-2025/feedback-analytics/internal/metrics"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
	"github.com/SAP-F-2025/feedback-analytics/internal/validator"
)

// Analysis kinds, used as cache key segments, metric labels and event payloads
const (
	AnalysisGradeDistribution        = "grade_distribution"
	AnalysisDifficultyDiscrimination = "difficulty_discrimination"
	AnalysisTopErrorTypes            = "top_error_types"
	AnalysisErrorCategories          = "error_categories"
)

// MaxTopN bounds the number of error types a caller may request
const MaxTopN = 100

// MaxBins bounds the histogram resolution
const MaxBins = 100

// AnalyticsService runs the feedback analyses over the session's dataset
type AnalyticsService interface {
	GetGradeDistribution(ctx context.Context, sess *models.Session, bins int) (*analytics.GradeDistributionReport, error)
	GetDifficultyDiscrimination(ctx context.Context, sess *models.Session) (*analytics.ItemAnalysisReport, error)
	GetTopErrorTypes(ctx context.Context, sess *models.Session, question string, n int) (*analytics.ErrorTypeReport, error)
	GetErrorCategoryBreakdown(ctx context.Context, sess *models.Session, question string) (*analytics.CategoryReport, error)

	// ExportWorkbook renders the item analysis, and the error analyses of a question when one is given, as XLSX
	ExportWorkbook(ctx context.Context, sess *models.Session, question string, n int) ([]byte, error)
}

type analyticsService struct {
	datasets  DatasetResolver
	cache     cache.CacheService
	cacheTTL  time.Duration
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	validator *validator.Validator
	logger    *ServiceLogger
	log       *slog.Logger
}

func NewAnalyticsService(datasets DatasetResolver, cacheService cache.CacheService, cacheTTL time.Duration, publisher events.EventPublisher, m *metrics.Metrics, v *validator.Validator, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		datasets:  datasets,
		cache:     cacheService,
		cacheTTL:  cacheTTL,
		publisher: publisher,
		metrics:   m,
		validator: v,
		logger:    NewServiceLogger(logger, "analytics"),
		log:       logger,
	}
}

func (s *analyticsService) GetGradeDistribution(ctx context.Context, sess *models.Session, bins int) (*analytics.GradeDistributionReport, error) {
	if err := s.validator.Var("bins", bins, "gte=0,lte=100"); err != nil {
		return nil, err
	}
	if bins == 0 {
		bins = analytics.DefaultBins
	}

	return runAnalysis(ctx, s, sess, AnalysisGradeDistribution,
		map[string]string{"bins": strconv.Itoa(bins)},
		func(ds *models.Dataset) (*analytics.GradeDistributionReport, error) {
			return analytics.GradeDistribution(ds, bins)
		},
		func(r *analytics.GradeDistributionReport) analytics.Status { return r.Status },
	)
}

func (s *analyticsService) GetDifficultyDiscrimination(ctx context.Context, sess *models.Session) (*analytics.ItemAnalysisReport, error) {
	return runAnalysis(ctx, s, sess, AnalysisDifficultyDiscrimination,
		nil,
		analytics.DifficultyDiscrimination,
		func(*analytics.ItemAnalysisReport) analytics.Status { return analytics.StatusOK },
	)
}

func (s *analyticsService) GetTopErrorTypes(ctx context.Context, sess *models.Session, question string, n int) (*analytics.ErrorTypeReport, error) {
	if err := s.validator.Var("question", question, "required,notblank"); err != nil {
		return nil, err
	}
	if err := s.validator.Var("n", n, "lte=100"); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = analytics.DefaultTopN
	}

	return runAnalysis(ctx, s, sess, AnalysisTopErrorTypes,
		map[string]string{"question": question, "n": strconv.Itoa(n)},
		func(ds *models.Dataset) (*analytics.ErrorTypeReport, error) {
			return analytics.TopErrorTypes(ds, question, n)
		},
		func(r *analytics.ErrorTypeReport) analytics.Status { return r.Status },
	)
}

func (s *analyticsService) GetErrorCategoryBreakdown(ctx context.Context, sess *models.Session, question string) (*analytics.CategoryReport, error) {
	if err := s.validator.Var("question", question, "required,notblank"); err != nil {
		return nil, err
	}

	return runAnalysis(ctx, s, sess, AnalysisErrorCategories,
		map[string]string{"question": question},
		func(ds *models.Dataset) (*analytics.CategoryReport, error) {
			return analytics.ErrorCategoryBreakdown(ds, question)
		},
		func(r *analytics.CategoryReport) analytics.Status { return r.Status },
	)
}

// runAnalysis resolves the session's dataset and returns the memoized result of compute,
// computing and storing it on a miss. Datasets are immutable, so the dataset id and the
// parameters fully determine the result. Hard errors are never cached.
func runAnalysis[T any](
	ctx context.Context,
	s *analyticsService,
	sess *models.Session,
	kind string,
	params map[string]string,
	compute func(*models.Dataset) (*T, error),
	status func(*T) analytics.Status,
) (result *T, err error) {
	start := time.Now()
	cached := false
	datasetID := sess.ActiveDatasetID()

	defer func() {
		duration := time.Since(start)
		outcome := "error"
		if err == nil {
			outcome = string(status(result))
		}
		s.metrics.ObserveAnalysis(kind, outcome, cached, duration)
		s.logger.LogOperation(ctx, kind, sess.ID, datasetID, duration, err, slog.Bool("cached", cached))

		if err == nil {
			publish(ctx, s.log, s.publisher, events.NewAnalysisCompletedEvent(events.AnalysisCompletedEvent{
				SessionID:  sess.ID,
				DatasetID:  datasetID,
				Analysis:   kind,
				Parameters: params,
				Status:     outcome,
				Cached:     cached,
				DurationMs: duration.Milliseconds(),
			}))
		}
	}()

	ds, err := s.datasets.Resolve(ctx, sess)
	if err != nil {
		return nil, err
	}
	datasetID = ds.ID

	key := session.AnalysisKey(ds.ID, kind, paramSegments(params)...)
	var memo T
	err = s.cache.Get(ctx, key, &memo)
	switch {
	case err == nil:
		cached = true
		return &memo, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.log.WarnContext(ctx, "Failed to read cached analysis", "key", key, "error", err)
	}

	result, err = compute(ds)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cache.Set(ctx, key, result, s.cacheTTL); cacheErr != nil {
		s.log.WarnContext(ctx, "Failed to cache analysis", "key", key, "error", cacheErr)
	}
	return result, nil
}

// paramSegments flattens parameters into key segments in a fixed order.
// Values are escaped so a label cannot contain the segment separator or a SCAN wildcard.
func paramSegments(params map[string]string) []string {
	order := []string{"bins", "question", "n"}
	var segments []string
	for _, name := range order {
		if value, ok := params[name]; ok {
			segments = append(segments, name+"="+url.QueryEscape(value))
		}
	}
	return segments
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/feedback-analytics/internal/dataset"
	"github.com/SAP-F-2025/feedback-analytics/internal/events"
	"github.com/SAP-F-2025/feedback-analytics/internal/metrics"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
	"github.com/SAP-F-2025/feedback-analytics/internal/validator"
)

// DatasetResolver returns the dataset a session is working with
type DatasetResolver interface {
	Resolve(ctx context.Context, sess *models.Session) (*models.Dataset, error)
}

type DatasetService interface {
	DatasetResolver
	Upload(ctx context.Context, sess *models.Session, filename string, reader io.Reader) (*models.DatasetSummary, error)
	Current(ctx context.Context, sess *models.Session) (*models.DatasetSummary, error)
	Questions(ctx context.Context, sess *models.Session) ([]string, error)
	Search(ctx context.Context, sess *models.Session, query string, columns []string) (*SearchResult, error)
	Reset(ctx context.Context, sess *models.Session) (*models.DatasetSummary, error)
}

// SearchResult holds the rows matching a keyword search
type SearchResult struct {
	Query   string     `json:"query"`
	Columns []string   `json:"columns"`
	Matches int        `json:"matches"`
	Header  []string   `json:"header"`
	Rows    [][]string `json:"rows"`
}

type datasetService struct {
	sessions       *session.Manager
	publisher      events.EventPublisher
	metrics        *metrics.Metrics
	validator      *validator.Validator
	logger         *ServiceLogger
	log            *slog.Logger
	maxUploadBytes int64
}

func NewDatasetService(sessions *session.Manager, publisher events.EventPublisher, m *metrics.Metrics, v *validator.Validator, logger *slog.Logger, maxUploadBytes int64) DatasetService {
	return &datasetService{
		sessions:       sessions,
		publisher:      publisher,
		metrics:        m,
		validator:      v,
		logger:         NewServiceLogger(logger, "dataset"),
		log:            logger,
		maxUploadBytes: maxUploadBytes,
	}
}

func (s *datasetService) Resolve(ctx context.Context, sess *models.Session) (*models.Dataset, error) {
	ds, err := s.sessions.Dataset(ctx, sess.ActiveDatasetID())
	if err == nil {
		return ds, nil
	}
	if errors.Is(err, session.ErrDatasetNotFound) {
		return nil, err
	}
	if sess.ActiveDatasetID() == models.DefaultDatasetID {
		return nil, fmt.Errorf("%w: %v", ErrNoDataset, err)
	}
	return nil, err
}

func (s *datasetService) Upload(ctx context.Context, sess *models.Session, filename string, reader io.Reader) (summary *models.DatasetSummary, err error) {
	start := time.Now()
	format := dataset.FormatOf(filename)
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		s.metrics.ObserveUpload(format, outcome)
		resourceID := ""
		if summary != nil {
			resourceID = summary.ID
		}
		s.logger.LogOperation(ctx, "upload_dataset", sess.ID, resourceID, time.Since(start), err, slog.String("filename", filename))
	}()

	if err := s.validator.Var("file", filename, "required,dataset_format"); err != nil {
		return nil, err
	}

	limited := &io.LimitedReader{R: reader, N: s.maxUploadBytes + 1}
	ds, err := dataset.Load(filename, limited)
	if limited.N <= 0 {
		return nil, ErrDatasetTooLarge
	}
	if err != nil {
		if errors.Is(err, dataset.ErrEmptyDataset) || errors.Is(err, dataset.ErrUnsupportedFormat) {
			return nil, err
		}
		return nil, NewValidationError("file", fmt.Sprintf("could not be parsed: %v", err), filename)
	}

	if err := s.sessions.StoreDataset(ctx, ds); err != nil {
		return nil, err
	}

	var previous string
	if err := s.sessions.Update(ctx, sess, func(current *models.Session) error {
		previous = current.DatasetID
		current.DatasetID = ds.ID
		return nil
	}); err != nil {
		return nil, err
	}
	if previous != "" && previous != models.DefaultDatasetID {
		if err := s.sessions.DeleteDataset(ctx, previous); err != nil {
			s.log.WarnContext(ctx, "Failed to delete replaced dataset", "dataset_id", previous, "error", err)
		}
	}

	summary = dataset.Summarize(ds)
	publish(ctx, s.log, s.publisher, events.NewDatasetUploadedEvent(events.DatasetUploadedEvent{
		SessionID:      sess.ID,
		DatasetID:      ds.ID,
		Name:           ds.Name,
		Rows:           ds.Len(),
		Columns:        ds.Columns,
		MissingColumns: summary.MissingColumns,
	}))
	return summary, nil
}

func (s *datasetService) Current(ctx context.Context, sess *models.Session) (*models.DatasetSummary, error) {
	ds, err := s.Resolve(ctx, sess)
	if err != nil {
		return nil, err
	}
	return dataset.Summarize(ds), nil
}

func (s *datasetService) Questions(ctx context.Context, sess *models.Session) ([]string, error) {
	ds, err := s.Resolve(ctx, sess)
	if err != nil {
		return nil, err
	}
	return dataset.Questions(ds), nil
}

func (s *datasetService) Search(ctx context.Context, sess *models.Session, query string, columns []string) (*SearchResult, error) {
	if err := s.validator.Var("q", query, "required,notblank,max=200"); err != nil {
		return nil, err
	}

	ds, err := s.Resolve(ctx, sess)
	if err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		columns = dataset.DefaultSearchColumns
	}
	if len(ds.MissingColumns(columns...)) == len(columns) {
		return nil, NewBusinessRuleError("search_columns", "None of the requested columns exist in the dataset", map[string]interface{}{
			"columns":   columns,
			"available": ds.Columns,
		})
	}
	matched := dataset.Search(ds, query, columns)
	return &SearchResult{
		Query:   query,
		Columns: columns,
		Matches: matched.Len(),
		Header:  matched.Columns,
		Rows:    matched.Rows,
	}, nil
}

// Reset points the session back at the default dataset and drops its upload
func (s *datasetService) Reset(ctx context.Context, sess *models.Session) (*models.DatasetSummary, error) {
	var previous string
	if err := s.sessions.Update(ctx, sess, func(current *models.Session) error {
		previous = current.DatasetID
		current.DatasetID = models.DefaultDatasetID
		return nil
	}); err != nil {
		return nil, err
	}
	if err := s.sessions.DeleteDataset(ctx, previous); err != nil {
		return nil, err
	}
	return s.Current(ctx, sess)
}

// publish sends an event without failing the caller; delivery problems are only logged
func publish(ctx context.Context, logger *slog.Logger, publisher events.EventPublisher, event *events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
	}
}

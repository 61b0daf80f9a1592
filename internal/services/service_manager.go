package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/feedback-analytics/internal/cache"
	"github.com/SAP-F-2025/feedback-analytics/internal/events"
	"github.com/SAP-F-2025/feedback-analytics/internal/llm"
	"github.com/SAP-F-2025/feedback-analytics/internal/metrics"
	"github.com/SAP-F-2025/feedback-analytics/internal/repositories"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
	"github.com/SAP-F-2025/feedback-analytics/internal/validator"
)

// ServiceManager gives handlers access to every service
type ServiceManager interface {
	Dataset() DatasetService
	Analytics() AnalyticsService
	Chat() ChatService
	Contact() ContactService
}

// Dependencies collects what the services are built from
type Dependencies struct {
	Sessions         *session.Manager
	Cache            cache.CacheService
	Publisher        events.EventPublisher
	Metrics          *metrics.Metrics
	Validator        *validator.Validator
	Logger           *slog.Logger
	ContactRepo      repositories.ContactRepository
	LLMFactory       llm.Factory
	Chat             ChatOptions
	MaxUploadBytes   int64
	AnalysisCacheTTL time.Duration
}

type serviceManager struct {
	dataset   DatasetService
	analytics AnalyticsService
	chat      ChatService
	contact   ContactService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	datasets := NewDatasetService(deps.Sessions, deps.Publisher, deps.Metrics, deps.Validator, deps.Logger, deps.MaxUploadBytes)

	return &serviceManager{
		dataset:   datasets,
		analytics: NewAnalyticsService(datasets, deps.Cache, deps.AnalysisCacheTTL, deps.Publisher, deps.Metrics, deps.Validator, deps.Logger),
		chat:      NewChatService(datasets, deps.Sessions, deps.LLMFactory, deps.Chat, deps.Publisher, deps.Metrics, deps.Validator, deps.Logger),
		contact:   NewContactService(deps.ContactRepo, deps.Publisher, deps.Validator, deps.Logger),
	}
}

func (m *serviceManager) Dataset() DatasetService     { return m.dataset }
func (m *serviceManager) Analytics() AnalyticsService { return m.analytics }
func (m *serviceManager) Chat() ChatService           { return m.chat }
func (m *serviceManager) Contact() ContactService     { return m.contact }

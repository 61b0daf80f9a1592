package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/feedback-analytics/internal/events"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
	"github.com/SAP-F-2025/feedback-analytics/internal/repositories"
	"github.com/SAP-F-2025/feedback-analytics/internal/validator"
)

// ContactRequest is a contact form submission
type ContactRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Email   string `json:"email" validate:"required,contact_email,max=255"`
	Message string `json:"message" validate:"required,notblank,max=5000"`

	Metadata map[string]string `json:"-"`
}

type ContactService interface {
	Submit(ctx context.Context, sessionID string, req *ContactRequest) (*models.ContactMessage, error)
}

type contactService struct {
	repo      repositories.ContactRepository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
	log       *slog.Logger
	now       func() time.Time
}

// NewContactService creates the contact service. A nil repository disables storage and
// every submission fails with ErrContactUnavailable.
func NewContactService(repo repositories.ContactRepository, publisher events.EventPublisher, v *validator.Validator, logger *slog.Logger) ContactService {
	return &contactService{
		repo:      repo,
		publisher: publisher,
		validator: v,
		logger:    NewServiceLogger(logger, "contact"),
		log:       logger,
		now:       time.Now,
	}
}

func (s *contactService) Submit(ctx context.Context, sessionID string, req *ContactRequest) (msg *models.ContactMessage, err error) {
	start := time.Now()
	defer func() {
		resourceID := ""
		if msg != nil {
			resourceID = fmt.Sprintf("%d", msg.ID)
		}
		s.logger.LogOperation(ctx, "submit_contact", sessionID, resourceID, time.Since(start), err)
	}()

	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, ErrContactUnavailable
	}

	msg = &models.ContactMessage{
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Message:   req.Message,
		CreatedAt: s.now().UTC(),
	}
	if len(req.Metadata) > 0 {
		metadata, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode contact metadata: %w", err)
		}
		msg.Metadata = datatypes.JSON(metadata)
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContactUnavailable, err)
	}

	publish(ctx, s.log, s.publisher, events.NewContactSubmittedEvent(events.ContactSubmittedEvent{
		MessageID:   msg.ID,
		Email:       msg.Email,
		SubmittedAt: msg.CreatedAt,
	}))
	return msg, nil
}

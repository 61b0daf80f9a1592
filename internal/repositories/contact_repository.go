package repositories

import (
	"context"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

// ContactRepository persists contact form submissions. Duplicate submissions are stored as separate rows.
type ContactRepository interface {
	Create(ctx context.Context, message *models.ContactMessage) error
}

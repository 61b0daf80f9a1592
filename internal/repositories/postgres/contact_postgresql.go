package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
	"github.com/SAP-F-2025/feedback-analytics/internal/repositories"
)

type ContactPostgreSQL struct {
	db *gorm.DB
}

func NewContactPostgreSQL(db *gorm.DB) repositories.ContactRepository {
	return &ContactPostgreSQL{db: db}
}

func (r *ContactPostgreSQL) Create(ctx context.Context, message *models.ContactMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

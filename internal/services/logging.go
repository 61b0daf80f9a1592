package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/feedback-analytics/internal/analytics"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, service string) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", service),
	}
}

// LogOperation logs the outcome of an operation. The level follows the error class:
// caller mistakes are warnings, missing resources are informational, everything else is an error.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, sessionID, resourceID string, duration time.Duration, err error, attrs ...slog.Attr) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case IsValidation(err) || IsBusinessRule(err):
			level = slog.LevelWarn
			status = "validation_error"
		case IsPrecondition(err):
			level = slog.LevelWarn
			status = "precondition_failed"
		case IsUnauthorized(err):
			level = slog.LevelWarn
			status = "unauthorized"
		case IsRateLimited(err):
			level = slog.LevelWarn
			status = "rate_limited"
		case IsNotFound(err):
			status = "not_found"
		case IsUpstream(err):
			status = "upstream_error"
		}
	}

	all := append([]slog.Attr{
		slog.String("operation", operation),
		slog.String("session_id", sessionID),
		slog.String("resource_id", resourceID),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}, attrs...)

	if err != nil {
		all = append(all, slog.String("error", err.Error()))

		var ve ValidationErrors
		var mce *analytics.MissingColumnsError
		if errors.As(err, &ve) {
			all = append(all, slog.Int("validation_errors_count", len(ve)))
		} else if errors.As(err, &mce) {
			all = append(all, slog.Any("missing_columns", mce.Columns))
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), all...)
}

// FormatError describes an error for API responses and logs
func FormatError(err error) map[string]interface{} {
	if err == nil {
		return nil
	}

	result := map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}

	var (
		ve  ValidationErrors
		bre *BusinessRuleError
		mce *analytics.MissingColumnsError
	)
	switch {
	case errors.As(err, &ve):
		result["type"] = "validation"
		result["errors"] = ve
	case errors.As(err, &mce):
		result["type"] = "missing_columns"
		result["columns"] = mce.Columns
	case errors.As(err, &bre):
		result["type"] = "business_rule"
		result["rule"] = bre.Rule
		result["context"] = bre.Context
	case errors.Is(err, ErrInsufficientData):
		result["type"] = "insufficient_data"
	case IsValidation(err):
		result["type"] = "validation"
	case IsNotFound(err):
		result["type"] = "not_found"
	case IsUnauthorized(err):
		result["type"] = "unauthorized"
	case IsRateLimited(err):
		result["type"] = "rate_limited"
	case IsUpstream(err):
		result["type"] = "upstream"
	case IsUnavailable(err):
		result["type"] = "unavailable"
	}

	return result
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/feedback-analytics/internal/analytics"
	"github.com/SAP-F-2025/feedback-analytics/internal/services"
	"github.com/SAP-F-2025/feedback-analytics/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AnalysisResponse wraps an analysis result. Message is set when the status is informational.
type AnalysisResponse struct {
	Status  analytics.Status `json:"status"`
	Message string           `json:"message,omitempty"`
	Data    interface{}      `json:"data"`
}

func newAnalysisResponse(status analytics.Status, data interface{}) AnalysisResponse {
	return AnalysisResponse{Status: status, Message: status.Message(), Data: data}
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := append(h.requestFields(c), "remote_addr", c.ClientIP())
	fields = append(fields, additionalFields...)
	h.logger.InfoContext(c.Request.Context(), message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := append(h.requestFields(c), "error_type", services.FormatError(err)["type"])
	fields = append(fields, additionalFields...)
	h.logger.LogError(err, message, fields...)
}

func (h *BaseHandler) requestFields(c *gin.Context) []interface{} {
	fields := []interface{}{
		"request_id", c.Writer.Header().Get("X-Request-ID"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	if userID, exists := c.Get("user_id"); exists {
		fields = append(fields, "user_id", userID)
	}
	return fields
}

// handleServiceError maps service errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var missingColumns *analytics.MissingColumnsError
	if errors.As(err, &missingColumns) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Dataset is missing required columns",
			Details: map[string]interface{}{"missing_columns": missingColumns.Columns},
			Code:    "missing_columns",
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrInsufficientData):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Not enough graded responses to run the analysis",
			Code:    "insufficient_data",
		})
	case errors.Is(err, services.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported file format, upload a CSV or XLSX file",
			Code:    "unsupported_format",
		})
	case errors.Is(err, services.ErrEmptyDataset):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "The uploaded file contains no data rows",
			Code:    "empty_dataset",
		})
	case errors.Is(err, services.ErrDatasetTooLarge):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "The uploaded file is too large",
			Code:    "dataset_too_large",
		})
	case errors.Is(err, services.ErrDatasetNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Dataset not found or expired, upload it again",
			Code:    "dataset_not_found",
		})
	case errors.Is(err, services.ErrNoDataset):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "No dataset available, upload a dataset first",
			Code:    "no_dataset",
		})
	case errors.Is(err, services.ErrMissingCredential):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "An OpenAI API key is required, send it in the X-OpenAI-Key header",
			Code:    "missing_credential",
		})
	case errors.Is(err, services.ErrInvalidCredential):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "The OpenAI API key was rejected",
			Code:    "invalid_credential",
		})
	case services.IsRateLimited(err):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Message: "The assistant is rate limited, try again shortly",
			Code:    "rate_limited",
		})
	case services.IsUpstream(err):
		h.LogError(c, err, "Upstream failure")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "The assistant is unavailable right now",
			Code:    "upstream_unavailable",
		})
	case services.IsUnavailable(err):
		h.LogError(c, err, "Dependency unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Contact messages cannot be stored right now",
			Code:    "unavailable",
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}

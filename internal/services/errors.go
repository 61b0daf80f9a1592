package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/feedback-analytics/internal/analytics"
	"github.com/SAP-F-2025/feedback-analytics/internal/dataset"
	apperrors "github.com/SAP-F-2025/feedback-analytics/internal/errors"
	"github.com/SAP-F-2025/feedback-analytics/internal/llm"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Dataset errors
	ErrDatasetNotFound   = session.ErrDatasetNotFound
	ErrNoDataset         = errors.New("no dataset available; upload a dataset first")
	ErrUnsupportedFormat = dataset.ErrUnsupportedFormat
	ErrEmptyDataset      = dataset.ErrEmptyDataset
	ErrDatasetTooLarge   = errors.New("dataset exceeds the maximum upload size")

	// Analysis errors
	ErrInsufficientData = analytics.ErrInsufficientData

	// Chat errors
	ErrMissingCredential = errors.New("an OpenAI API key is required to use the assistant")
	ErrInvalidCredential = errors.New("the OpenAI API key was rejected")
	ErrChatUnavailable   = errors.New("the assistant is unavailable right now")
	ErrChatRateLimited   = errors.New("too many chat requests, try again shortly")

	// Contact errors
	ErrContactUnavailable = errors.New("contact messages cannot be stored right now")
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// BusinessRuleError reports an operation that is valid input but not allowed in the current state
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// UpstreamError wraps a failure of an external dependency with the sentinel the caller should match
type UpstreamError struct {
	Kind error
	Err  error
}

func (ue *UpstreamError) Error() string {
	return fmt.Sprintf("%v: %v", ue.Kind, ue.Err)
}

func (ue *UpstreamError) Unwrap() []error {
	return []error{ue.Kind, ue.Err}
}

func NewValidationError(field, message string, value interface{}) ValidationErrors {
	return ValidationErrors{*apperrors.NewValidationError(field, message, value)}
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDatasetNotFound) ||
		errors.Is(err, ErrNoDataset)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrDatasetTooLarge) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsPrecondition checks if the dataset cannot support the requested analysis
func IsPrecondition(err error) bool {
	return analytics.IsMissingColumns(err) || errors.Is(err, ErrInsufficientData)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsUnauthorized checks if a credential is missing or was rejected
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrMissingCredential) || errors.Is(err, ErrInvalidCredential)
}

// IsRateLimited checks if the caller or the upstream provider is throttling
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrChatRateLimited)
}

// IsUpstream checks if an external dependency failed
func IsUpstream(err error) bool {
	return errors.Is(err, ErrChatUnavailable)
}

// upstreamChatError classifies a provider failure
func upstreamChatError(err error) error {
	switch {
	case llm.IsRateLimit(err):
		return &UpstreamError{Kind: ErrChatRateLimited, Err: err}
	case llm.IsAuthentication(err), errors.Is(err, llm.ErrMissingAPIKey):
		return &UpstreamError{Kind: ErrInvalidCredential, Err: err}
	default:
		return &UpstreamError{Kind: ErrChatUnavailable, Err: err}
	}
}

// IsUnavailable checks if a feature is disabled because its backing store is missing
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrContactUnavailable)
}

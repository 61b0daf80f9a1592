package llm

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when a provider is built without a credential
var ErrMissingAPIKey = errors.New("API key is required")

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	Err error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrAuthentication indicates the provider rejected the credential (401/403)
type ErrAuthentication struct {
	Err error
}

func (e *ErrAuthentication) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *ErrAuthentication) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the provider answered without usable content
type ErrInvalidResponse struct {
	Err error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is an ErrRateLimit
func IsRateLimit(err error) bool {
	var rl *ErrRateLimit
	return errors.As(err, &rl)
}

// IsAuthentication reports whether err is an ErrAuthentication
func IsAuthentication(err error) bool {
	var ae *ErrAuthentication
	return errors.As(err, &ae)
}

// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputParseFailed ErrorCode = "INPUT_PARSE_FAILED"

	ErrCodeLocalSearchFailed     ErrorCode = "LOCAL_SEARCH_FAILED"
	ErrCodePrecedentSearchFailed ErrorCode = "PRECEDENT_SEARCH_FAILED"
	ErrCodePolicyRegistryFailed  ErrorCode = "POLICY_REGISTRY_FAILED"
	ErrCodeConstraintFetchFailed ErrorCode = "CONSTRAINT_FETCH_FAILED"

	ErrCodeReasoningUnavailable ErrorCode = "REASONING_UNAVAILABLE"
	ErrCodeReasoningUnparsable  ErrorCode = "REASONING_UNPARSABLE"
	ErrCodeGroundingFailed      ErrorCode = "GROUNDING_FAILED"

	ErrCodeAssessmentFailed ErrorCode = "ASSESSMENT_FAILED"
	ErrCodeBalancingFailed  ErrorCode = "BALANCING_FAILED"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeRunCancelled     ErrorCode = "RUN_CANCELLED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause so errors.Is keeps matching the
// sentinel errors the source clients wrap.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInputParseError creates a non-retryable input parsing error. This is the
// only error class that fails a planning job outright.
func NewInputParseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParseFailed,
		Message:   "Failed to parse job input variables",
		Details:   err.Error(),
		Retryable: false,
		cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

// NewLocalSearchError creates a retryable local index error. Fusion treats it
// as a degraded source, not a job failure.
func NewLocalSearchError(role string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLocalSearchFailed,
		Message:   "Local evidence index search failed",
		Details:   fmt.Sprintf("role: %s, error: %s", role, err.Error()),
		Retryable: true,
		cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

// NewPrecedentSearchError creates a retryable precedent service error.
func NewPrecedentSearchError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePrecedentSearchFailed,
		Message:   "Precedent search service error",
		Details:   err.Error(),
		Retryable: true,
		cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

// NewPolicyRegistryError creates a retryable policy registry error.
func NewPolicyRegistryError(authority string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePolicyRegistryFailed,
		Message:   "Policy registry lookup failed",
		Details:   fmt.Sprintf("authority: %s, error: %s", authority, err.Error()),
		Retryable: true,
		cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

// NewReasoningUnavailableError creates a retryable reasoning-service error.
// Callers substitute the conservative default instead of propagating it.
func NewReasoningUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReasoningUnavailable,
		Message:   "Reasoning service call failed",
		Details:   err.Error(),
		Retryable: true,
		cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

// NewReasoningUnparsableError creates a non-retryable malformed-response
// error. The raw model output is truncated before it lands in job variables.
func NewReasoningUnparsableError(err error, raw string) *StandardError {
	detail := raw
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return &StandardError{
		Code:      ErrCodeReasoningUnparsable,
		Message:   "Reasoning service returned unparsable output",
		Details:   detail,
		Retryable: false,
		cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

// NewConstraintFetchError creates a retryable constraint registry error.
func NewConstraintFetchError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConstraintFetchFailed,
		Message:   "Constraint registry fetch failed",
		Details:   err.Error(),
		Retryable: true,
		cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunCancelledError marks work arriving after a run was cancelled.
func NewRunCancelledError(runID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunCancelled,
		Message:   "Assessment run was cancelled",
		Details:   fmt.Sprintf("runId: %s", runID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError creates a retryable error for a failing dependency.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service error: %s", service),
		Details:   err.Error(),
		Retryable: true,
		cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Timeout calling: %s", service),
		Details:   err.Error(),
		Retryable: true,
		cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

// ToBPMNError converts a StandardError to its workflow-engine form.
func (e *StandardError) ToBPMNError(retries int) *BPMNError {
	return &BPMNError{
		Code:      string(e.Code),
		Message:   e.Message,
		Details:   e.Details,
		Retryable: e.Retryable,
		Retries:   retries,
	}
}

// ConvertToBPMNError maps a StandardError to a BPMNError with its default
// retry budget.
func ConvertToBPMNError(e *StandardError) *BPMNError {
	return e.ToBPMNError(GetRetryCount(e.Code))
}

// GetRetryCount returns the retry budget for an error code. Source-level
// failures are retried by the engine; everything else fails fast because the
// fusion core already substituted a degraded result.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLocalSearchFailed,
		ErrCodePrecedentSearchFailed,
		ErrCodePolicyRegistryFailed,
		ErrCodeConstraintFetchFailed,
		ErrCodeReasoningUnavailable,
		ErrCodeCacheUnavailable:
		return 2
	default:
		return 0
	}
}

// GetErrorCategory groups error codes for logging and metrics.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeLocalSearchFailed, ErrCodePrecedentSearchFailed,
		ErrCodePolicyRegistryFailed, ErrCodeConstraintFetchFailed:
		return "retrieval"
	case ErrCodeReasoningUnavailable, ErrCodeReasoningUnparsable, ErrCodeGroundingFailed:
		return "reasoning"
	case ErrCodeAssessmentFailed, ErrCodeBalancingFailed:
		return "assessment"
	case ErrCodeCacheUnavailable, ErrCodeRunCancelled:
		return "lifecycle"
	default:
		return "internal"
	}
}

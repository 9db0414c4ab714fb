// Package apperrors provides the error codes returned by the assistant's API.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrCodeSessionStoreFailed  ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeHistoryStoreFailed  ErrorCode = "HISTORY_STORE_FAILED"
	ErrCodeWhatsAppSendFailed  ErrorCode = "WHATSAPP_SEND_FAILED"
	ErrCodeWhatsAppNotEnabled  ErrorCode = "WHATSAPP_NOT_CONFIGURED"
	ErrCodeSignatureInvalid    ErrorCode = "SIGNATURE_INVALID"
	ErrCodeWebhookVerification ErrorCode = "WEBHOOK_VERIFICATION_FAILED"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeSessionForbidden    ErrorCode = "SESSION_FORBIDDEN"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ResponseBody is the JSON body API handlers render for e.
func (e *StandardError) ResponseBody() map[string]interface{} {
	body := map[string]interface{}{
		"error": e.Message,
		"code":  e.Code,
	}
	if e.Details != "" {
		body["details"] = e.Details
	}
	return body
}

// HTTPStatus maps the error code to a response status.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeSignatureInvalid, ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeWebhookVerification, ErrCodeSessionForbidden:
		return http.StatusForbidden
	case ErrCodeWhatsAppNotEnabled:
		return http.StatusServiceUnavailable
	case ErrCodeSessionStoreFailed, ErrCodeHistoryStoreFailed, ErrCodeWhatsAppSendFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:    ErrCodeInvalidRequest,
		Message: "Invalid request format",
		Details: details,
	}
}

func NewSessionStoreError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Session store unavailable",
		Details:   fmt.Sprintf("%s: %v", op, err),
		Retryable: true,
		cause:     err,
	}
}

func NewHistoryStoreError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryStoreFailed,
		Message:   "Message history unavailable",
		Details:   fmt.Sprintf("%s: %v", op, err),
		Retryable: true,
		cause:     err,
	}
}

func NewWhatsAppSendError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWhatsAppSendFailed,
		Message:   "Failed to send WhatsApp message",
		Details:   err.Error(),
		Retryable: true,
		cause:     err,
	}
}

func NewWhatsAppNotConfiguredError() *StandardError {
	return &StandardError{
		Code:    ErrCodeWhatsAppNotEnabled,
		Message: "WhatsApp integration is not configured",
	}
}

func NewSignatureInvalidError(details string) *StandardError {
	return &StandardError{
		Code:    ErrCodeSignatureInvalid,
		Message: "Invalid webhook signature",
		Details: details,
	}
}

func NewWebhookVerificationError() *StandardError {
	return &StandardError{
		Code:    ErrCodeWebhookVerification,
		Message: "Verification failed",
	}
}

func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
		Details: details,
	}
}

// NewSessionForbiddenError rejects access to a session owned by another channel.
func NewSessionForbiddenError(sessionID string) *StandardError {
	return &StandardError{
		Code:    ErrCodeSessionForbidden,
		Message: "Session not available on this channel",
		Details: sessionID,
	}
}

// FromError returns err as a *StandardError, wrapping unknown errors as internal.
func FromError(err error) *StandardError {
	var se *StandardError
	if errors.As(err, &se) {
		return se
	}
	return &StandardError{
		Code:    ErrCodeInternal,
		Message: "Failed to process message",
		Details: err.Error(),
		cause:   err,
	}
}

// IsRetryable reports whether err carries a retryable StandardError.
func IsRetryable(err error) bool {
	var se *StandardError
	return errors.As(err, &se) && se.Retryable
}

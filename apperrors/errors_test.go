package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *StandardError
		want int
	}{
		{NewInvalidRequestError("bad json"), http.StatusBadRequest},
		{NewSignatureInvalidError("missing"), http.StatusUnauthorized},
		{NewWebhookVerificationError(), http.StatusForbidden},
		{NewUnauthorizedError("missing bearer token"), http.StatusUnauthorized},
		{NewSessionForbiddenError("whatsapp_919876543210"), http.StatusForbidden},
		{NewWhatsAppNotConfiguredError(), http.StatusServiceUnavailable},
		{NewSessionStoreError("get", errors.New("down")), http.StatusBadGateway},
		{NewHistoryStoreError("save", errors.New("down")), http.StatusBadGateway},
		{NewWhatsAppSendError(errors.New("401")), http.StatusBadGateway},
		{FromError(errors.New("x")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestWrappingAndRetryable(t *testing.T) {
	root := errors.New("connection refused")
	err := fmt.Errorf("process message: %w", NewSessionStoreError("get name", root))

	assert.True(t, errors.Is(err, root))
	assert.True(t, IsRetryable(err))
	assert.False(t, IsRetryable(NewInvalidRequestError("x")))
	assert.False(t, IsRetryable(root))

	se := FromError(err)
	require.NotNil(t, se)
	assert.Equal(t, ErrCodeSessionStoreFailed, se.Code)
	assert.Equal(t, "get name: connection refused", se.Details)
	assert.Equal(t, "SESSION_STORE_FAILED: Session store unavailable (get name: connection refused)", se.Error())
}

func TestFromError_Unknown(t *testing.T) {
	se := FromError(errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, se.Code)
	assert.Equal(t, "boom", se.Details)
	assert.Equal(t, "WEBHOOK_VERIFICATION_FAILED: Verification failed", NewWebhookVerificationError().Error())
}

func TestResponseBody(t *testing.T) {
	body := NewInvalidRequestError("message too long").ResponseBody()
	assert.Equal(t, "Invalid request format", body["error"])
	assert.Equal(t, ErrCodeInvalidRequest, body["code"])
	assert.Equal(t, "message too long", body["details"])

	_, hasDetails := NewWhatsAppNotConfiguredError().ResponseBody()["details"]
	assert.False(t, hasDetails)
}

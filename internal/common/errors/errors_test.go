package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
	}{
		{"retryable insert", NewDatabaseInsertFailedError(fmt.Errorf("conn reset")), 3},
		{"cache", NewCacheUnavailableError(fmt.Errorf("dial tcp")), 1},
		{"validation", NewApplicationValidationFailedError("email: required"), 0},
		{"duplicate", NewDuplicateApplicationError("a@a.com"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, tt.err.Retryable, bpmn.Retryable)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, bpmn.Code, vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
			assert.NotEmpty(t, vars["timestamp"])
		})
	}
}

func TestConvertToBPMNError_NonRetryableOverridesTable(t *testing.T) {
	stdErr := NewDatabaseInsertFailedError(fmt.Errorf("x"))
	stdErr.Retryable = false
	assert.Equal(t, 0, ConvertToBPMNError(stdErr).Retries)
}

func TestNormalize(t *testing.T) {
	wrapped := fmt.Errorf("create record: %w", NewIndexFailedError("creator-applications", fmt.Errorf("503")))
	assert.Equal(t, ErrCodeIndexFailed, Normalize(wrapped).Code)

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), plain.Code)
	assert.Equal(t, "boom", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeApplicationValidationFailed))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeInvalidPayload))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeSessionNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrCodeWizardLocked))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(ErrCodeProcessStartFailed))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("SOMETHING_ELSE"))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDatabaseInsertFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeCacheUnavailable))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "CRM", GetErrorCategory(ErrCodeCRMLeadCreateFailed))
	assert.Equal(t, "WORKFLOW", GetErrorCategory(ErrCodeProcessStartFailed))
	assert.Equal(t, "WIZARD", GetErrorCategory(ErrCodeSessionNotFound))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeApplicationValidationFailed))
	assert.Equal(t, "OTHER", GetErrorCategory("EXTERNAL_SERVICE_ERROR"))
	assert.True(t, IsRetryableErrorCode(ErrCodeNotificationSendFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeDuplicateApplication))
}

func TestStandardError_Message(t *testing.T) {
	err := NewUnknownFlowError("vip")
	assert.Equal(t, "StandardError[UNKNOWN_FLOW]: Unknown wizard flow", err.Error())
	assert.Contains(t, err.Details, "vip")
}

func TestWriteHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, NewSessionNotFoundError("abc"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body StandardError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeSessionNotFound, body.Code)

	rec = httptest.NewRecorder()
	WriteHTTP(rec, fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

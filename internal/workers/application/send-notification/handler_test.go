// internal/workers/application/send-notification/handler_test.go
package sendnotification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creators-club/internal/common/config"
	apperrors "creators-club/internal/common/errors"
	"creators-club/internal/common/logger"
	"creators-club/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendText(ctx context.Context, to, subject, body string) (string, error) {
	args := m.Called(ctx, to, subject, body)
	return args.String(0), args.Error(1)
}

type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) SendSMS(ctx context.Context, phone, message string) (string, error) {
	args := m.Called(ctx, phone, message)
	return args.String(0), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		TeamPhone:    "+5551988887777",
		Timeout:      5 * time.Second,
	}
}

func createTestInput(status models.CurrentStatus) *Input {
	return &Input{
		ApplicationID: "app-001",
		ApplicationDraft: models.ApplicationDraft{
			Name:          "Ana",
			Email:         "a@a.com",
			Phone:         "51999999999",
			Instagram:     "@ana",
			CurrentStatus: status,
			Goal:          "crescer",
		},
	}
}

func newTestHandler(t *testing.T, cfg *Config) (*Handler, *MockEmailSender, *MockSMSSender) {
	t.Helper()
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	h := NewHandler(cfg, email, sms, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2026, 8, 10, 15, 5, 0, 0, time.UTC) }
	return h, email, sms
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_EmailOnlyForNonAdvanced(t *testing.T) {
	h, email, sms := newTestHandler(t, createTestConfig())
	email.On("SendText", mock.Anything, "a@a.com", emailSubject, mock.MatchedBy(func(body string) bool {
		return assert.Contains(t, body, "Olá, Ana!") && assert.Contains(t, body, "crescer")
	})).Return("ses-1", nil)

	out, err := h.Execute(context.Background(), createTestInput(models.StatusIniciante))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.EmailStatus)
	assert.Equal(t, StatusSkipped, out.SMSStatus)
	assert.Equal(t, "2026-08-10T15:05:00Z", out.SentAt)
	assert.NotEmpty(t, out.NotificationID)
	email.AssertExpectations(t)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_AdvancedTextsTheTeam(t *testing.T) {
	h, email, sms := newTestHandler(t, createTestConfig())
	email.On("SendText", mock.Anything, "a@a.com", mock.Anything, mock.Anything).Return("ses-1", nil)
	sms.On("SendSMS", mock.Anything, "+5551988887777", mock.MatchedBy(func(msg string) bool {
		return assert.Contains(t, msg, "@ana")
	})).Return("sns-1", nil)

	out, err := h.Execute(context.Background(), createTestInput(models.StatusAvancado))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.EmailStatus)
	assert.Equal(t, StatusSent, out.SMSStatus)
	email.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestHandler_Execute_SMSFailureDoesNotFailJob(t *testing.T) {
	h, email, sms := newTestHandler(t, createTestConfig())
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ses-1", nil)
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("throttled"))

	out, err := h.Execute(context.Background(), createTestInput(models.StatusAvancado))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.EmailStatus)
	assert.Equal(t, StatusFailed, out.SMSStatus)
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	h, email, sms := newTestHandler(t, createTestConfig())
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("MessageRejected"))

	out, err := h.Execute(context.Background(), createTestInput(models.StatusAvancado))

	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrNotificationSendFailed))
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)

	stdErr := toStandardError(err)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_AllChannelsDisabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false
	h, email, sms := newTestHandler(t, cfg)

	out, err := h.Execute(context.Background(), createTestInput(models.StatusAvancado))

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.EmailStatus)
	assert.Equal(t, StatusDisabled, out.SMSStatus)
	email.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_NoTeamPhone(t *testing.T) {
	cfg := createTestConfig()
	cfg.TeamPhone = ""
	h, email, _ := newTestHandler(t, cfg)
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ses-1", nil)

	out, err := h.Execute(context.Background(), createTestInput(models.StatusAvancado))

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.SMSStatus)
}

func TestHandler_Execute_MissingEmail(t *testing.T) {
	h, _, _ := newTestHandler(t, createTestConfig())
	input := createTestInput(models.StatusIniciante)
	input.Email = ""

	_, err := h.Execute(context.Background(), input)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, apperrors.ErrCodeApplicationValidationFailed, toStandardError(err).Code)
}

// ==========================
// Config Tests
// ==========================

func TestLoadConfig(t *testing.T) {
	app := &config.Config{Workers: map[string]config.WorkerConfig{TaskType: {Timeout: 7000}}}
	app.Integrations.AWS.SES.Enabled = true
	app.Integrations.AWS.SNS.TeamPhone = "+5551000000000"

	cfg := LoadConfig(app)
	assert.True(t, cfg.EmailEnabled)
	assert.False(t, cfg.SMSEnabled)
	assert.Equal(t, "+5551000000000", cfg.TeamPhone)
	assert.Equal(t, 7*time.Second, cfg.Timeout)

	assert.Equal(t, 15*time.Second, LoadConfig(&config.Config{}).Timeout)
}

// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	apperrors "creators-club/internal/common/errors"
	"creators-club/internal/common/logger"
	"creators-club/internal/common/metrics"
	"creators-club/internal/models"
)

const (
	TaskType = "send-notification"
)

var (
	ErrInvalidInput           = errors.New("INVALID_INPUT")
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// EmailSender is implemented by *aws.SESClient.
type EmailSender interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is implemented by *aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config     *Config
	email      EmailSender
	sms        SMSSender
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
	now        func() time.Time
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		email:      email,
		sms:        sms,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
		now:        time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewApplicationValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, toStandardError(err))
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, stdErr)
}

// Execute e-mails the applicant and, for advanced creators, texts the team.
// An e-mail failure fails the job; an SMS failure is only reported.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	out := &Output{
		NotificationID: uuid.NewString(),
		EmailStatus:    StatusDisabled,
		SMSStatus:      StatusDisabled,
	}
	log := h.logger.WithFields(map[string]interface{}{
		"applicationId":  input.ApplicationID,
		"notificationId": out.NotificationID,
	})

	if h.config.EmailEnabled {
		body, err := render(emailBody, input)
		if err != nil {
			return nil, fmt.Errorf("%w: render email: %v", ErrNotificationSendFailed, err)
		}
		messageID, err := h.email.SendText(ctx, input.Email, emailSubject, body)
		if err != nil {
			return nil, fmt.Errorf("%w: email: %v", ErrNotificationSendFailed, err)
		}
		out.EmailStatus = StatusSent
		log.Info("confirmation email sent", map[string]interface{}{"messageId": messageID})
	}

	switch {
	case !h.config.SMSEnabled || h.config.TeamPhone == "":
	case input.CurrentStatus != models.StatusAvancado:
		out.SMSStatus = StatusSkipped
	default:
		out.SMSStatus = h.notifyTeam(ctx, input, log)
	}

	out.SentAt = h.now().UTC().Format(time.RFC3339)
	return out, nil
}

func (h *Handler) notifyTeam(ctx context.Context, input *Input, log logger.Logger) string {
	msg, err := render(teamSMS, input)
	if err == nil {
		var messageID string
		messageID, err = h.sms.SendSMS(ctx, h.config.TeamPhone, msg)
		if err == nil {
			log.Info("team SMS sent", map[string]interface{}{"messageId": messageID})
			return StatusSent
		}
	}
	log.Warn("team SMS failed", map[string]interface{}{"error": err})
	return StatusFailed
}

func toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrNotificationSendFailed):
		return apperrors.NewNotificationSendFailedError("email", err)
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewApplicationValidationFailedError(err.Error())
	default:
		return apperrors.Normalize(err)
	}
}

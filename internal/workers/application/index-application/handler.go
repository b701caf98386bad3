package indexapplication

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	apperrors "creators-club/internal/common/errors"
	"creators-club/internal/common/logger"
	"creators-club/internal/common/metrics"
)

const (
	TaskType = "index-application"
)

var (
	ErrInvalidInput  = errors.New("INVALID_INPUT")
	ErrIndexFailed   = errors.New("INDEX_FAILED")
	ErrIndexRejected = errors.New("INDEX_REJECTED")
)

type Handler struct {
	config     *Config
	client     *elasticsearch.Client
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		client:     client,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	err := json.Unmarshal([]byte(job.Variables), &input)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidInput, err)
	} else {
		var output *Output
		if output, err = h.Execute(ctx, &input); err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
			return
		}
	}

	stdErr := h.toStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, stdErr)
}

// Execute indexes the application under its ID, so a retried job overwrites
// the same document.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" {
		return nil, fmt.Errorf("%w: applicationId is required", ErrInvalidInput)
	}

	body, err := json.Marshal(documentFrom(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	res, err := h.client.Index(
		h.config.Index,
		bytes.NewReader(body),
		h.client.Index.WithContext(ctx),
		h.client.Index.WithDocumentID(input.ApplicationID),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d: %s", ErrIndexFailed, res.StatusCode, msg)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrIndexRejected, res.StatusCode, msg)
	}

	var result struct {
		ID     string `json:"_id"`
		Result string `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrIndexFailed, err)
	}

	h.logger.Info("application indexed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"index":         h.config.Index,
		"result":        result.Result,
	})

	return &Output{
		Indexed:     true,
		IndexName:   h.config.Index,
		DocumentID:  result.ID,
		IndexResult: result.Result,
	}, nil
}

func documentFrom(input *Input) Document {
	return Document{
		ApplicationID: input.ApplicationID,
		Name:          input.Name,
		Email:         input.Email,
		Phone:         input.Phone,
		Instagram:     input.Instagram,
		CurrentStatus: string(input.CurrentStatus),
		Goal:          input.Goal,
		CreatedAt:     input.ReceivedAt,
	}
}

func (h *Handler) toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrIndexFailed):
		return apperrors.NewIndexFailedError(h.config.Index, err)
	case errors.Is(err, ErrIndexRejected):
		return apperrors.NewBusinessRuleError("Search index rejected the document", err.Error())
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewApplicationValidationFailedError(err.Error())
	default:
		return apperrors.Normalize(err)
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

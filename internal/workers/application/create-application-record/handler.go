// internal/workers/application/create-application-record/handler.go
package createapplicationrecord

import (
	"context"
	"database/sql"
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
	TaskType = "create-application-record"
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrDatabaseLookupFailed = errors.New("DATABASE_LOOKUP_FAILED")
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrDuplicateApplication = errors.New("DUPLICATE_APPLICATION")
)

type Handler struct {
	config     *Config
	db         *sql.DB
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
	now        func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
		now:        time.Now,
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

	input, err := parseInput(job.Variables)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
			return
		}
	}

	stdErr := toStandardError(err, input)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, stdErr)
}

func parseInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.Email == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	return &input, nil
}

// Execute stores the application. A row with the same e-mail and the same
// applicationId is a redelivered job and is returned as is; any other row
// with that e-mail is a duplicate.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	existing, err := h.findByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if input.ApplicationID != "" && existing.ApplicationID == input.ApplicationID {
			h.logger.Info("application record already exists", map[string]interface{}{
				"applicationId": existing.ApplicationID,
			})
			return existing, nil
		}
		return nil, fmt.Errorf("%w: application already exists for %s", ErrDuplicateApplication, input.Email)
	}

	appID := input.ApplicationID
	if appID == "" {
		appID = uuid.NewString()
	}
	createdAt := h.now().UTC().Format(time.RFC3339)

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO creator_applications (
			id, name, email, phone, instagram,
			current_status, goal, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		appID,
		input.Name,
		input.Email,
		input.Phone,
		input.Instagram,
		string(input.CurrentStatus),
		input.Goal,
		models.ApplicationStatusReceived,
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	// audit row is best effort
	details, err := json.Marshal(map[string]interface{}{
		"email":         input.Email,
		"currentStatus": input.CurrentStatus,
		"receivedAt":    input.ReceivedAt,
	})
	if err != nil {
		details = []byte("{}")
	}
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (entity_type, entity_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"creator_application",
		appID,
		"application_created",
		details,
		createdAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err,
			"applicationId": appID,
		})
	}

	h.logger.Info("application record created", map[string]interface{}{
		"applicationId": appID,
		"currentStatus": string(input.CurrentStatus),
	})

	return &Output{
		ApplicationID:     appID,
		ApplicationStatus: models.ApplicationStatusReceived,
		CreatedAt:         createdAt,
	}, nil
}

func (h *Handler) findByEmail(ctx context.Context, email string) (*Output, error) {
	var (
		out       Output
		createdAt time.Time
	)
	err := h.db.QueryRowContext(ctx, `
		SELECT id, status, created_at
		FROM creator_applications
		WHERE LOWER(email) = LOWER($1)
		ORDER BY created_at
		LIMIT 1`, email).Scan(&out.ApplicationID, &out.ApplicationStatus, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate check failed: %v", ErrDatabaseLookupFailed, err)
	}
	out.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return &out, nil
}

func toStandardError(err error, input *Input) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrDuplicateApplication):
		return apperrors.NewDuplicateApplicationError(input.Email)
	case errors.Is(err, ErrDatabaseLookupFailed):
		return apperrors.NewDatabaseConnectionFailedError(err)
	case errors.Is(err, ErrDatabaseInsertFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
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
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

// Package intake receives submitted application drafts and hands them to
// the creator-application process.
package intake

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"creators-club/internal/common/errors"
	"creators-club/internal/common/logger"
	"creators-club/internal/common/metrics"
	"creators-club/internal/common/observability"
	"creators-club/internal/common/validation"
	"creators-club/internal/models"
)

const dedupPrefix = "intake:dedup:"

// ProcessStarter starts a workflow instance; *camunda.Client implements it.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// Deduper claims a key for a TTL; *database.RedisClient implements it.
type Deduper interface {
	Claim(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Config struct {
	ProcessID    string
	DedupTTL     time.Duration
	MaxBodyBytes int64
}

// ProcessVariables are the variables of a new process instance.
type ProcessVariables struct {
	ApplicationID string `json:"applicationId"`
	models.ApplicationDraft
	ReceivedAt string `json:"receivedAt"`
}

// Response is the body of every non-error answer.
type Response struct {
	Status             string `json:"status"`
	ApplicationID      string `json:"applicationId,omitempty"`
	ProcessInstanceKey int64  `json:"processInstanceKey,omitempty"`
}

type Handler struct {
	cfg     Config
	starter ProcessStarter
	dedup   Deduper
	logger  logger.Logger
	obs     *observability.Observability
	now     func() time.Time
}

func NewHandler(cfg Config, starter ProcessStarter, dedup Deduper, obs *observability.Observability, log logger.Logger) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	return &Handler{
		cfg:     cfg,
		starter: starter,
		dedup:   dedup,
		logger:  log.WithFields(map[string]interface{}{"component": "intake"}),
		obs:     obs,
		now:     time.Now,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/applications", h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.obs.StartSpan(r.Context(), "intake.receive",
		attribute.String("process.id", h.cfg.ProcessID),
	)
	defer span.End()

	resp, err := h.receive(ctx, w, r)
	outcome := resp.Status
	if err != nil {
		stdErr := errors.Normalize(err)
		outcome = outcomeFor(stdErr.Code)
		span.SetStatus(codes.Error, string(stdErr.Code))
		errors.WriteHTTP(w, stdErr)
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(resp)
	}

	span.SetAttributes(attribute.String("intake.outcome", outcome))
	metrics.IntakeRequests.WithLabelValues(outcome).Inc()
	h.obs.RecordApplication(ctx, outcome)
}

func (h *Handler) receive(ctx context.Context, w http.ResponseWriter, r *http.Request) (Response, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		return Response{}, errors.NewInvalidPayloadError(err)
	}

	result, err := applicationSchema.ValidateBytes(body)
	if err != nil {
		return Response{}, errors.NewInvalidPayloadError(err)
	}
	if !result.Valid {
		h.logger.Warn("Application rejected by schema", map[string]interface{}{
			"errors": result.GetErrorMessages(),
		})
		return Response{}, errors.NewApplicationValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var draft models.ApplicationDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		return Response{}, errors.NewInvalidPayloadError(err)
	}
	draft = normalize(draft)

	log := h.logger.WithFields(map[string]interface{}{"email": draft.Email})
	key := dedupPrefix + draft.Email

	claimed, err := h.dedup.Claim(ctx, key, h.now().UTC().Format(time.RFC3339), h.cfg.DedupTTL)
	switch {
	case err != nil:
		// fail open
		log.Warn("Dedup unavailable, accepting without it", map[string]interface{}{"error": err})
		key = ""
	case !claimed:
		log.Info("Duplicate application ignored", nil)
		return Response{Status: "duplicate"}, nil
	}

	vars := ProcessVariables{
		ApplicationID:    uuid.NewString(),
		ApplicationDraft: draft,
		ReceivedAt:       h.now().UTC().Format(time.RFC3339),
	}

	instanceKey, err := h.starter.StartProcess(ctx, h.cfg.ProcessID, vars)
	if err != nil {
		if key != "" {
			if relErr := h.dedup.Release(ctx, key); relErr != nil {
				log.Warn("Failed to release dedup key", map[string]interface{}{"error": relErr})
			}
		}
		log.Error("Failed to start application process", map[string]interface{}{
			"applicationId": vars.ApplicationID,
			"error":         err,
		})
		return Response{}, errors.NewProcessStartFailedError(h.cfg.ProcessID, err)
	}

	log.Info("Application accepted", map[string]interface{}{
		"applicationId":      vars.ApplicationID,
		"processInstanceKey": instanceKey,
		"currentStatus":      string(draft.CurrentStatus),
	})
	return Response{
		Status:             "accepted",
		ApplicationID:      vars.ApplicationID,
		ProcessInstanceKey: instanceKey,
	}, nil
}

func normalize(d models.ApplicationDraft) models.ApplicationDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = validation.NormalizePhone(d.Phone)
	d.Instagram = validation.NormalizeInstagram(d.Instagram)
	d.Goal = strings.TrimSpace(d.Goal)
	return d
}

func outcomeFor(code errors.ErrorCode) string {
	switch code {
	case errors.ErrCodeInvalidPayload, errors.ErrCodeApplicationValidationFailed:
		return "invalid"
	default:
		return "failed"
	}
}

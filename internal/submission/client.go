// Package submission posts finished application drafts to the intake
// endpoint. Delivery is best effort: one attempt, outcome logged, nothing
// returned.
package submission

import (
	"context"
	"time"

	commonhttp "creators-club/internal/common/http"
	"creators-club/internal/common/logger"
	"creators-club/internal/common/metrics"
	"creators-club/internal/models"
)

type Client struct {
	endpoint string
	http     *commonhttp.Client
	logger   logger.Logger
}

// NewClient posts to endpoint. A zero timeout leaves requests unbounded.
func NewClient(endpoint string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		http:     commonhttp.NewClient(timeout).WithHeader("User-Agent", "creators-club-wizard"),
		logger:   log.WithFields(map[string]interface{}{"component": "submission"}),
	}
}

// Submit sends the six draft fields as JSON. The status code is recorded
// but never acted on, and no error escapes.
func (c *Client) Submit(ctx context.Context, draft models.ApplicationDraft) {
	start := time.Now()
	defer func() {
		metrics.SubmissionDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := c.http.PostJSON(ctx, c.endpoint, draft)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("Application submission failed", map[string]interface{}{
			"email": draft.Email,
			"error": err,
		})
		return
	}
	defer commonhttp.Drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		c.logger.Warn("Application submission rejected", map[string]interface{}{
			"email":      draft.Email,
			"statusCode": resp.StatusCode,
		})
		return
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	c.logger.Info("Application submitted", map[string]interface{}{
		"email":      draft.Email,
		"statusCode": resp.StatusCode,
	})
}

package migration

import (
	"context"
	"log/slog"

	"sf2gh/internal/github"
	"sf2gh/internal/models"
	"sf2gh/internal/ratelimit"
)

// IssueSubmitter performs the destination-side create-issue call.
type IssueSubmitter interface {
	CreateIssue(ctx context.Context, payload *models.IssuePayload) (*models.CreatedIssue, error)
}

// Creator submits mapped payloads to the destination, pacing every call
// and retrying transient failures. In dry-run mode it performs no network
// I/O at all.
type Creator struct {
	submitter  IssueSubmitter
	pacer      *ratelimit.Pacer
	dryRun     bool
	maxRetries int
	logger     *slog.Logger
}

func NewCreator(submitter IssueSubmitter, pacer *ratelimit.Pacer, dryRun bool, maxRetries int, logger *slog.Logger) *Creator {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Creator{
		submitter:  submitter,
		pacer:      pacer,
		dryRun:     dryRun,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Create submits one payload and reports the outcome. Transient failures
// (network, 5xx, 429) are retried up to maxRetries with the pacer interval
// as backoff; permanent failures are reported immediately.
func (c *Creator) Create(ctx context.Context, payload *models.IssuePayload) models.MigrationResult {
	if c.dryRun {
		c.logger.Info("[DRY RUN] Would create issue", "title", payload.Title, "labels", payload.Labels)
		return models.MigrationResult{
			TicketNum: payload.SourceTicket,
			Status:    models.ResultWouldCreate,
			Title:     payload.Title,
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return c.failure(payload, err)
		}

		issue, err := c.submitter.CreateIssue(ctx, payload)
		if err == nil {
			return models.MigrationResult{
				TicketNum:   payload.SourceTicket,
				Status:      models.ResultCreated,
				Title:       payload.Title,
				IssueNumber: issue.Number,
				IssueURL:    issue.URL,
			}
		}

		lastErr = err
		if !github.Transient(err) {
			c.logger.Error("Issue creation failed permanently", "ticket", payload.SourceTicket, "error", err)
			return c.failure(payload, err)
		}

		if attempt < c.maxRetries {
			c.logger.Warn("Transient failure creating issue, retrying",
				"ticket", payload.SourceTicket,
				"attempt", attempt+1,
				"max_retries", c.maxRetries,
				"backoff", c.pacer.Interval(),
				"error", err)
		}
	}

	c.logger.Error("Issue creation failed after retries",
		"ticket", payload.SourceTicket,
		"retries", c.maxRetries,
		"error", lastErr)
	return c.failure(payload, lastErr)
}

func (c *Creator) failure(payload *models.IssuePayload, err error) models.MigrationResult {
	return models.MigrationResult{
		TicketNum: payload.SourceTicket,
		Status:    models.ResultFailed,
		Title:     payload.Title,
		Error:     err.Error(),
	}
}

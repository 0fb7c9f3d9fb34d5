package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sf2gh/internal/config"
	"sf2gh/internal/models"
)

// TicketIterator pages through the source tickets. It is finite and not
// restartable: consuming it advances network state.
type TicketIterator interface {
	More() bool
	Next(ctx context.Context) ([]models.Ticket, error)
}

// DetailFetcher loads the full record for a single ticket.
type DetailFetcher interface {
	Ticket(ctx context.Context, num int) (*models.TicketDetail, error)
}

// Engine drives the migration: fetch -> filter -> map -> submit, one
// ticket at a time, in source order.
type Engine struct {
	details DetailFetcher
	mapper  *Mapper
	creator *Creator
	config  *config.MigrationConfig
	logger  *slog.Logger
	report  *models.MigrationReport
}

func NewEngine(
	details DetailFetcher,
	mapper *Mapper,
	creator *Creator,
	cfg *config.MigrationConfig,
	report *models.MigrationReport,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		details: details,
		mapper:  mapper,
		creator: creator,
		config:  cfg,
		logger:  logger,
		report:  report,
	}
}

// Run consumes the ticket iterator to completion or until the configured
// limit is reached. A per-ticket failure is recorded and the run continues;
// a page fetch failure aborts the run, returning the error alongside the
// results accumulated so far.
func (e *Engine) Run(ctx context.Context, tickets TicketIterator) (*models.MigrationReport, error) {
	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	e.logger.Info("Starting migration",
		"status", e.config.Status,
		"limit", e.config.Limit,
		"dry_run", e.config.DryRun)

	processed := 0
	for tickets.More() {
		if e.config.Limit > 0 && processed >= e.config.Limit {
			break
		}

		page, err := tickets.Next(ctx)
		if err != nil {
			e.report.Finish()
			return e.report, fmt.Errorf("ticket fetch aborted the run: %w", err)
		}

		for i := range page {
			if e.config.Limit > 0 && processed >= e.config.Limit {
				break
			}

			ticket := page[i]
			if !ticket.MatchesFilter(e.config.Status, e.config.StatusMapping) {
				e.logger.Debug("Skipping ticket outside status filter",
					"ticket", ticket.TicketNum,
					"status", ticket.Status)
				e.report.Add(models.MigrationResult{
					TicketNum: ticket.TicketNum,
					Status:    models.ResultSkipped,
					Title:     ticket.GetSummary(),
				})
				continue
			}

			e.processTicket(ctx, ticket)
			processed++
		}
	}

	e.report.Finish()
	e.logger.Info("Migration completed",
		"created", e.report.CreatedCount,
		"would_create", e.report.WouldCreateCount,
		"skipped", e.report.SkippedCount,
		"failed", e.report.FailedCount)

	return e.report, nil
}

func (e *Engine) processTicket(ctx context.Context, ticket models.Ticket) {
	e.logger.Info("Processing ticket", "ticket", ticket.TicketNum, "summary", ticket.GetSummary())

	if e.config.IncludeDetails && e.details != nil {
		if detail, err := e.details.Ticket(ctx, ticket.TicketNum); err != nil {
			e.logger.Warn("Failed to fetch ticket detail, using summary record",
				"ticket", ticket.TicketNum, "error", err)
		} else {
			if detail.Description != "" {
				ticket.Description = detail.Description
			}
			ticket.Labels = append(ticket.Labels, detail.Labels...)
		}
	}

	payload, err := e.mapper.Map(&ticket)
	if err != nil {
		e.logger.Error("Failed to map ticket", "ticket", ticket.TicketNum, "error", err)
		e.report.Add(models.MigrationResult{
			TicketNum: ticket.TicketNum,
			Status:    models.ResultFailed,
			Title:     ticket.GetSummary(),
			Error:     err.Error(),
		})
		return
	}

	result := e.creator.Create(ctx, payload)
	e.report.Add(result)

	switch result.Status {
	case models.ResultCreated:
		e.logger.Info("Migrated ticket", "ticket", ticket.TicketNum, "issue", result.IssueNumber)
	case models.ResultFailed:
		e.logger.Error("Failed to migrate ticket", "ticket", ticket.TicketNum, "error", result.Error)
	}
}

// SaveReport writes the run report as indented JSON.
func (e *Engine) SaveReport(filePath string) error {
	if filePath == "" {
		filePath = fmt.Sprintf("migration_report_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(e.report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	e.logger.Info("Migration report saved", "path", filePath)
	return nil
}

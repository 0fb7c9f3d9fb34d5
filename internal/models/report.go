package models

import (
	"fmt"
	"time"
)

// IssuePayload is the GitHub-side representation of a ticket, produced by
// the mapper and consumed exactly once by the issue creator.
type IssuePayload struct {
	SourceTicket int      `json:"source_ticket"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Labels       []string `json:"labels"`
}

// CreatedIssue identifies an issue created on the destination side.
type CreatedIssue struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Per-ticket outcome states.
const (
	ResultCreated     = "created"
	ResultWouldCreate = "would-create"
	ResultSkipped     = "skipped"
	ResultFailed      = "failed"
)

// MigrationResult records the outcome of migrating a single ticket.
type MigrationResult struct {
	TicketNum   int    `json:"ticket_num"`
	Status      string `json:"status"`
	Title       string `json:"title,omitempty"`
	IssueNumber int    `json:"issue_number,omitempty"`
	IssueURL    string `json:"issue_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// MigrationReport aggregates per-ticket results into a run summary.
type MigrationReport struct {
	SourceProject    string            `json:"source_project"`
	SourceTracker    string            `json:"source_tracker"`
	TargetRepository string            `json:"target_repository"`
	StartTime        time.Time         `json:"start_time"`
	EndTime          *time.Time        `json:"end_time,omitempty"`
	TotalTickets     int               `json:"total_tickets"`
	CreatedCount     int               `json:"created_count"`
	WouldCreateCount int               `json:"would_create_count"`
	SkippedCount     int               `json:"skipped_count"`
	FailedCount      int               `json:"failed_count"`
	Results          []MigrationResult `json:"results"`
	Errors           []string          `json:"errors"`
}

// NewMigrationReport returns an empty report stamped with the run start time.
func NewMigrationReport(project, tracker, repository string) *MigrationReport {
	return &MigrationReport{
		SourceProject:    project,
		SourceTracker:    tracker,
		TargetRepository: repository,
		StartTime:        time.Now(),
		Results:          []MigrationResult{},
		Errors:           []string{},
	}
}

// Add records a result and keeps the summary counters consistent.
func (r *MigrationReport) Add(res MigrationResult) {
	r.Results = append(r.Results, res)
	r.TotalTickets++

	switch res.Status {
	case ResultCreated:
		r.CreatedCount++
	case ResultWouldCreate:
		r.WouldCreateCount++
	case ResultSkipped:
		r.SkippedCount++
	case ResultFailed:
		r.FailedCount++
		r.Errors = append(r.Errors, fmt.Sprintf("ticket #%d: %s", res.TicketNum, res.Error))
	}
}

// Failures returns the results that ended in failure.
func (r *MigrationReport) Failures() []MigrationResult {
	var failures []MigrationResult
	for _, res := range r.Results {
		if res.Status == ResultFailed {
			failures = append(failures, res)
		}
	}
	return failures
}

// Finish stamps the run end time.
func (r *MigrationReport) Finish() {
	now := time.Now()
	r.EndTime = &now
}

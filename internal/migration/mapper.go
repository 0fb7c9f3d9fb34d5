package migration

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/iancoleman/strcase"

	"sf2gh/internal/models"
)

const (
	// MigratedLabel marks every issue created by this tool.
	MigratedLabel = "migrated-from-sourceforge"

	// statusLabelPrefix prefixes the label derived from the original status.
	statusLabelPrefix = "sf-status-"

	unknownMarker          = "unknown"
	emptyDescriptionMarker = "*(No description provided)*"
)

// Mapper converts SourceForge tickets into GitHub issue payloads. Mapping
// is pure and deterministic: the same ticket always yields the same payload.
type Mapper struct {
	logger *slog.Logger
}

func NewMapper(logger *slog.Logger) *Mapper {
	return &Mapper{logger: logger}
}

// Map builds the destination payload for one ticket. It never fails on a
// well-formed ticket; missing optional fields render as explicit markers.
func (m *Mapper) Map(ticket *models.Ticket) (*models.IssuePayload, error) {
	return &models.IssuePayload{
		SourceTicket: ticket.TicketNum,
		Title:        fmt.Sprintf("[SF#%d] %s", ticket.TicketNum, ticket.GetSummary()),
		Body:         m.mapBody(ticket),
		Labels:       m.mapLabels(ticket),
	}, nil
}

func (m *Mapper) mapBody(ticket *models.Ticket) string {
	bodyParts := []string{
		fmt.Sprintf("**Migrated from SourceForge ticket #%d**", ticket.TicketNum),
		"",
		"**Original Reporter:** " + orUnknown(ticket.ReportedBy),
		"**Created:** " + orUnknown(ticket.CreatedDate),
		"**Last Modified:** " + orUnknown(ticket.ModDate),
		"**Status:** " + orUnknown(ticket.Status),
		"",
		"---",
		"",
		"## Description",
		"",
	}

	if ticket.Description == "" {
		bodyParts = append(bodyParts, emptyDescriptionMarker)
	} else {
		bodyParts = append(bodyParts, ticket.Description)
	}

	return strings.Join(bodyParts, "\n")
}

func (m *Mapper) mapLabels(ticket *models.Ticket) []string {
	labels := []string{MigratedLabel}

	if ticket.Status != "" {
		labels = append(labels, statusLabelPrefix+normalizeLabel(ticket.Status))
	}

	for _, label := range ticket.Labels {
		if strings.TrimSpace(label) != "" {
			labels = append(labels, normalizeLabel(label))
		}
	}

	return m.deduplicateLabels(labels)
}

// normalizeLabel converts a source-side value into the destination label
// vocabulary: lowercase, hyphenated.
func normalizeLabel(s string) string {
	return strcase.ToKebab(strings.TrimSpace(s))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownMarker
	}
	return s
}

func (m *Mapper) deduplicateLabels(labels []string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, label := range labels {
		if label != "" && !seen[label] {
			seen[label] = true
			result = append(result, label)
		}
	}

	return result
}

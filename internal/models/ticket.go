package models

import "strings"

// Status filter values accepted by the migration.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
	StatusAll    = "all"
)

// Ticket represents a SourceForge tracker ticket as returned by the
// tickets-list REST endpoint. Fields are immutable once fetched.
type Ticket struct {
	TicketNum   int      `json:"ticket_num"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	ReportedBy  string   `json:"reported_by"`
	CreatedDate string   `json:"created_date"`
	ModDate     string   `json:"mod_date"`
	Labels      []string `json:"labels,omitempty"`
}

// TicketDetail carries the fields only available from the per-ticket
// detail endpoint (the search endpoint may truncate the description).
type TicketDetail struct {
	Description string
	Labels      []string
}

// StatusClass buckets a tracker-native status value into the open/closed
// vocabulary. An explicit mapping wins; otherwise "open" and "open-*"
// count as open, "closed" and "closed-*" as closed. Anything else
// (e.g. "pending", "wont-fix") returns "" and only matches the "all" filter.
func StatusClass(status string, mapping map[string]string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if class, ok := mapping[s]; ok {
		return class
	}
	switch {
	case s == StatusOpen || strings.HasPrefix(s, "open-"):
		return StatusOpen
	case s == StatusClosed || strings.HasPrefix(s, "closed-"):
		return StatusClosed
	}
	return ""
}

// MatchesFilter reports whether the ticket's status falls under the given
// filter ("open", "closed" or "all").
func (t *Ticket) MatchesFilter(filter string, mapping map[string]string) bool {
	if filter == "" || filter == StatusAll {
		return true
	}
	return StatusClass(t.Status, mapping) == filter
}

// GetSummary returns the ticket summary, substituting a placeholder when
// the source record carries none.
func (t *Ticket) GetSummary() string {
	if t.Summary == "" {
		return "No summary"
	}
	return t.Summary
}

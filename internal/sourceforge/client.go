// Package sourceforge consumes the SourceForge tracker REST API.
package sourceforge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"

	"sf2gh/internal/config"
	"sf2gh/internal/models"
	"sf2gh/internal/ratelimit"
)

const defaultBaseURL = "https://sourceforge.net/rest"

// FetchError reports a failed page fetch. A page failure aborts the whole
// fetch; there is no partial-page retry across page boundaries.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching tickets page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client reads tickets from one tracker of one SourceForge project.
type Client struct {
	trackerURL string
	pageSize   int
	pacer      *ratelimit.Pacer
	logger     *slog.Logger
}

// NewClient builds a client for the configured project and tracker. Page
// fetches are paced through the given pacer.
func NewClient(cfg *config.SourceForgeConfig, pacer *ratelimit.Pacer, logger *slog.Logger) (*Client, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("sourceforge project is required")
	}

	tracker := cfg.Tracker
	if tracker == "" {
		tracker = "bugs"
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		trackerURL: fmt.Sprintf("%s/p/%s/%s", strings.TrimSuffix(baseURL, "/"), cfg.Project, tracker),
		pageSize:   pageSize,
		pacer:      pacer,
		logger:     logger,
	}, nil
}

// TestConnection checks that the tracker endpoint is reachable and answers
// with valid JSON.
func (c *Client) TestConnection(ctx context.Context) error {
	c.logger.Info("Testing SourceForge connection...")

	var raw string
	err := requests.
		URL(c.trackerURL + "/search").
		Param("limit", "1").
		Param("page", "0").
		ToString(&raw).
		Fetch(ctx)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	if !gjson.Valid(raw) {
		return errors.New("connection test failed: malformed response body")
	}

	c.logger.Info("SourceForge connection successful")
	return nil
}

// searchPage is the native JSON schema of the tickets-list endpoint.
type searchPage struct {
	Count   int             `json:"count"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	Tickets []models.Ticket `json:"tickets"`
}

// Tickets returns a pager over the tracker's tickets. For the open and
// closed filters the status constraint is also pushed server-side as a
// search query; authoritative filtering stays with the caller. The pager
// is not restartable; call Tickets again to re-fetch.
func (c *Client) Tickets(statusFilter string) *TicketPager {
	return &TicketPager{
		client: c,
		filter: statusFilter,
	}
}

// TicketPager pages through the tickets-list endpoint, one HTTP call per
// page. Consuming it advances network state.
type TicketPager struct {
	client  *Client
	filter  string
	page    int
	fetched int
	done    bool
}

// More reports whether another page may be available.
func (p *TicketPager) More() bool {
	return !p.done
}

// Next fetches one page of tickets. A failed or malformed page marks the
// pager done and returns a *FetchError.
func (p *TicketPager) Next(ctx context.Context) ([]models.Ticket, error) {
	if p.done {
		return nil, nil
	}

	if err := p.client.pacer.Wait(ctx); err != nil {
		p.done = true
		return nil, &FetchError{Page: p.page, Err: err}
	}

	p.client.logger.Debug("Fetching tickets page", "page", p.page)

	sfError := map[string]any{}
	var raw string
	b := requests.
		URL(p.client.trackerURL + "/search").
		Param("limit", strconv.Itoa(p.client.pageSize)).
		Param("page", strconv.Itoa(p.page)).
		ToString(&raw).
		ErrorJSON(&sfError)
	if p.filter == models.StatusOpen || p.filter == models.StatusClosed {
		b = b.Param("q", "status:"+p.filter)
	}

	if err := b.Fetch(ctx); err != nil {
		p.done = true
		p.client.logger.Error("Ticket page fetch failed", "page", p.page, "error", err)
		return nil, &FetchError{Page: p.page, Err: err}
	}

	var page searchPage
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		p.done = true
		return nil, &FetchError{Page: p.page, Err: fmt.Errorf("decoding ticket page: %w", err)}
	}

	p.fetched += len(page.Tickets)
	p.page++

	// A short or empty page, or reaching the server-reported total, ends
	// the sequence.
	if len(page.Tickets) < p.client.pageSize || len(page.Tickets) == 0 {
		p.done = true
	}
	if page.Count > 0 && p.fetched >= page.Count {
		p.done = true
	}

	return page.Tickets, nil
}

// Ticket fetches the detail record for one ticket. The search endpoint may
// truncate descriptions; the detail endpoint has the full text and labels,
// nested under a "ticket" object.
func (c *Client) Ticket(ctx context.Context, num int) (*models.TicketDetail, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	c.logger.Debug("Fetching ticket detail", "ticket", num)

	var raw string
	err := requests.
		URL(fmt.Sprintf("%s/%d", c.trackerURL, num)).
		ToString(&raw).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching ticket %d: %w", num, err)
	}

	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("ticket %d: malformed response body", num)
	}

	data := gjson.Parse(raw).Get("ticket")
	if !data.Exists() {
		return nil, fmt.Errorf("ticket %d: missing ticket object in response", num)
	}

	detail := &models.TicketDetail{
		Description: data.Get("description").String(),
	}
	for _, label := range data.Get("labels").Array() {
		if s := label.String(); s != "" {
			detail.Labels = append(detail.Labels, s)
		}
	}

	return detail, nil
}

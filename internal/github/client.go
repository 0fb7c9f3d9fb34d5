// Package github submits issues to the destination GitHub repository.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"sf2gh/internal/config"
	"sf2gh/internal/models"
)

type Client struct {
	client *github.Client
	config *config.GitHubConfig
	logger *slog.Logger
}

func NewClient(cfg *config.GitHubConfig, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" && cfg.AppCertificatePath == "" {
		return nil, fmt.Errorf("GitHub token or GitHub App certificate is required")
	}

	if cfg.AppCertificatePath != "" && (cfg.AppId == 0 || cfg.InstallationId == 0) {
		return nil, fmt.Errorf("GitHub App ID and Installation ID are required when using App certificate")
	}

	if cfg.Owner == "" {
		return nil, fmt.Errorf("GitHub owner is required")
	}

	if cfg.Repository == "" {
		return nil, fmt.Errorf("GitHub repository is required")
	}

	var tc *http.Client
	if cfg.Token != "" {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		tc = oauth2.NewClient(ctx, ts)
	}

	if cfg.AppCertificatePath != "" {
		itr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, cfg.AppId, cfg.InstallationId, cfg.AppCertificatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub installation transport: %w", err)
		}

		tc = &http.Client{Transport: itr}
	}

	var githubClient *github.Client
	if cfg.BaseURL != "" && cfg.BaseURL != "https://api.github.com" {
		// GitHub Enterprise
		githubClient, _ = github.NewClient(tc).WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
	} else {
		githubClient = github.NewClient(tc)
	}

	return &Client{
		client: githubClient,
		config: cfg,
		logger: logger,
	}, nil
}

func (c *Client) TestConnection(ctx context.Context) error {
	c.logger.Info("Testing GitHub connection...")

	// Try to get repository information to test the connection
	_, _, err := c.client.Repositories.Get(ctx, c.config.Owner, c.config.Repository)
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	c.logger.Info("GitHub connection successful")
	return nil
}

// CreateIssue submits one mapped payload as a new issue and returns the
// created issue's number and URL.
func (c *Client) CreateIssue(ctx context.Context, payload *models.IssuePayload) (*models.CreatedIssue, error) {
	c.logger.Debug("Creating GitHub issue", "title", payload.Title)

	labels := payload.Labels
	if labels == nil {
		labels = []string{}
	}

	if c.config.EnsureLabels {
		if err := c.EnsureLabels(ctx, labels); err != nil {
			return nil, fmt.Errorf("failed to ensure labels: %w", err)
		}
	}

	githubIssue := &github.IssueRequest{
		Title:  &payload.Title,
		Body:   &payload.Body,
		Labels: &labels,
	}

	createdIssue, _, err := c.client.Issues.Create(ctx, c.config.Owner, c.config.Repository, githubIssue)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	result := &models.CreatedIssue{
		Number: createdIssue.GetNumber(),
		URL:    createdIssue.GetHTMLURL(),
	}

	c.logger.Info("Created GitHub issue", "issue", result.Number, "ticket", payload.SourceTicket)
	return result, nil
}

func (c *Client) CreateLabel(ctx context.Context, name, color, description string) error {
	c.logger.Debug("Creating/ensuring label", "label", name)

	// Check if label already exists
	_, resp, err := c.client.Issues.GetLabel(ctx, c.config.Owner, c.config.Repository, name)
	if err == nil {
		return nil
	}

	// If it's not a 404, it's a real error
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to check if label exists: %w", err)
	}

	label := &github.Label{
		Name:        &name,
		Color:       &color,
		Description: &description,
	}

	_, _, err = c.client.Issues.CreateLabel(ctx, c.config.Owner, c.config.Repository, label)
	if err != nil {
		return fmt.Errorf("failed to create label %s: %w", name, err)
	}

	c.logger.Debug("created label", "label", name)
	return nil
}

// EnsureLabels creates any labels missing from the repository so the
// create-issue call cannot fail on an unknown label.
func (c *Client) EnsureLabels(ctx context.Context, labels []string) error {
	for _, label := range labels {
		if err := c.CreateLabel(ctx, label, "e1e4e8", fmt.Sprintf("Label for %s", label)); err != nil {
			return err
		}
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sf2gh/internal/config"
	"sf2gh/internal/github"
	"sf2gh/internal/migration"
	"sf2gh/internal/models"
	"sf2gh/internal/ratelimit"
	"sf2gh/internal/sourceforge"
)

var (
	// Version information - set by build flags
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	// CLI flags
	configFile string
	verbose    bool
	dryRun     bool
	status     string
	limit      int
	reportFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sf2gh",
	Short: "Migrate tickets from SourceForge to GitHub issues",
	Long: `A command-line tool to migrate tickets from a SourceForge tracker to GitHub issues.

This tool pages through a SourceForge project's ticket tracker, converts each
ticket into a GitHub issue with provenance metadata and labels, and creates
the issues through the GitHub API with rate limiting and retry on transient
failures.`,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Start the migration process",
	Long: `Start migrating tickets from SourceForge to GitHub issues.

The migration process will:
1. Page through the SourceForge tracker's tickets
2. Filter tickets by status (open, closed or all)
3. Map each ticket to a GitHub issue with provenance metadata and labels
4. Create GitHub issues in the original ticket order
5. Generate a detailed migration report

Use --dry-run to preview the migration without making changes.`,
	RunE: runMigration,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Commands for managing configuration files and settings.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	Long:  "Create a new configuration file with default settings and examples.",
	RunE:  initConfig,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and connections",
	Long:  "Validate the configuration file and test connections to SourceForge and GitHub.",
	RunE:  validateConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version, commit, and build time of the application.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sf2gh version %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Built: %s\n", BuildTime)
	},
}

func init() {
	// Root command flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Migrate command flags
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview migration without making changes")
	migrateCmd.Flags().StringVar(&status, "status", "", "Status of tickets to migrate: open, closed or all (default: use config)")
	migrateCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of tickets to migrate (0 = use config)")
	migrateCmd.Flags().StringVar(&reportFile, "report", "", "Output file for migration report")

	// Add subcommands
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
	configCmd.AddCommand(configInitCmd)
}

func runMigration(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override config with CLI flags
	if dryRun {
		cfg.Migration.DryRun = true
	}
	if status != "" {
		cfg.Migration.Status = status
	}
	if limit > 0 {
		cfg.Migration.Limit = limit
	}
	if err := cfg.Migration.Validate(); err != nil {
		return err
	}

	logger.Info("Starting SourceForge to GitHub migration...")
	logger.Info("SourceForge", "project", cfg.SourceForge.Project, "tracker", cfg.SourceForge.Tracker)
	logger.Info("GitHub", "repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repository)
	if cfg.Migration.DryRun {
		logger.Info("DRY RUN MODE - No changes will be made")
	}

	// One pacer per target API, shared for the whole run.
	sourcePacer := ratelimit.NewPacer(cfg.Migration.RequestInterval)
	targetPacer := ratelimit.NewPacer(cfg.Migration.RequestInterval)

	sfClient, err := sourceforge.NewClient(&cfg.SourceForge, sourcePacer, logger)
	if err != nil {
		return fmt.Errorf("failed to create SourceForge client: %w", err)
	}

	githubClient, err := github.NewClient(&cfg.GitHub, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	mapper := migration.NewMapper(logger)
	creator := migration.NewCreator(githubClient, targetPacer, cfg.Migration.DryRun, cfg.Migration.MaxRetries, logger)
	report := models.NewMigrationReport(cfg.SourceForge.Project, cfg.SourceForge.Tracker,
		cfg.GitHub.Owner+"/"+cfg.GitHub.Repository)
	engine := migration.NewEngine(sfClient, mapper, creator, &cfg.Migration, report, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupts
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	// Run migration
	report, runErr := engine.Run(ctx, sfClient.Tickets(cfg.Migration.Status))

	if report != nil {
		reportPath := reportFile
		if reportPath == "" {
			reportPath = fmt.Sprintf("./reports/migration_report_%s.json", report.StartTime.Format("20060102_150405"))
		}
		if err := engine.SaveReport(reportPath); err != nil {
			logger.Warn("Failed to save report", "error", err)
		}

		printMigrationSummary(report, logger)
	}

	if runErr != nil {
		return fmt.Errorf("migration failed: %w", runErr)
	}

	return nil
}

func validateConfig(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Info("Configuration file is valid")

	pacer := ratelimit.NewPacer(cfg.Migration.RequestInterval)
	sfClient, err := sourceforge.NewClient(&cfg.SourceForge, pacer, logger)
	if err != nil {
		return fmt.Errorf("failed to create SourceForge client: %w", err)
	}

	ctx := context.Background()
	if err := sfClient.TestConnection(ctx); err != nil {
		return fmt.Errorf("SourceForge connection failed: %w", err)
	}

	githubClient, err := github.NewClient(&cfg.GitHub, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	if err := githubClient.TestConnection(ctx); err != nil {
		return fmt.Errorf("GitHub connection failed: %w", err)
	}

	logger.Info("✓ All connections successful")
	logger.Info("✓ Configuration is valid and ready for migration")

	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	configPath := configFile
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		logger.Warn("Configuration file already exists", "path", configPath)
		fmt.Print("Do you want to overwrite it? (y/N): ")
		var response string
		_, err := fmt.Scanln(&response)

		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if response != "y" && response != "Y" {
			logger.Info("Configuration initialization cancelled")
			return nil
		}
	}

	defaultConfig := createDefaultConfig()

	if err := config.SaveConfig(defaultConfig, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	logger.Info("✓ Configuration file created", "path", configPath)
	logger.Info("Please edit the configuration file with your SourceForge and GitHub settings")

	return nil
}

func createDefaultConfig() *config.Config {
	return &config.Config{
		SourceForge: config.SourceForgeConfig{
			Project:  "your-sourceforge-project",
			Tracker:  "bugs",
			BaseURL:  "https://sourceforge.net/rest",
			PageSize: 100,
		},
		GitHub: config.GitHubConfig{
			Token:      "your-github-token",
			Owner:      "your-github-username-or-org",
			Repository: "your-repository-name",
			BaseURL:    "https://api.github.com",
		},
		Migration: config.MigrationConfig{
			Status:          models.StatusOpen,
			Limit:           0,
			DryRun:          false,
			IncludeDetails:  true,
			RequestInterval: 2 * time.Second,
			MaxRetries:      3,
		},
	}
}

func setupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{}

	if verbose {
		opts.Level = slog.LevelDebug
	} else {
		opts.Level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	logger := slog.New(handler)

	return logger
}

func printMigrationSummary(report *models.MigrationReport, logger *slog.Logger) {
	logger.Info("=== Migration Summary ===")
	logger.Info("Migration results",
		"total", report.TotalTickets,
		"created", report.CreatedCount,
		"would_create", report.WouldCreateCount,
		"skipped", report.SkippedCount,
		"failed", report.FailedCount)

	if report.EndTime != nil {
		duration := report.EndTime.Sub(report.StartTime)
		logger.Info("Migration duration", "duration", duration)
	}

	for _, failure := range report.Failures() {
		logger.Warn("Failed ticket", "ticket", failure.TicketNum, "error", failure.Error)
	}

	if report.CreatedCount > 0 || report.WouldCreateCount > 0 {
		logger.Info("✓ Migration completed successfully!")
	}
}

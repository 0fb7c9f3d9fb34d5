package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sf2gh/internal/models"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// clearTokenEnv keeps ambient credentials from leaking into assertions.
func clearTokenEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("SF2GH_GITHUB_TOKEN", "")
}

const validConfigYAML = `
sourceforge:
  project: myproject
  tracker: bugs
github:
  token: ghp_testtoken
  owner: myorg
  repository: myrepo
migration:
  status: all
  limit: 10
  dry_run: true
  request_interval: 500ms
  max_retries: 2
`

func TestLoadConfig(t *testing.T) {
	t.Run("loads a full config file", func(t *testing.T) {
		clearTokenEnv(t)
		path := writeConfigFile(t, validConfigYAML)

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "myproject", cfg.SourceForge.Project)
		assert.Equal(t, "bugs", cfg.SourceForge.Tracker)
		assert.Equal(t, "ghp_testtoken", cfg.GitHub.Token)
		assert.Equal(t, "myorg", cfg.GitHub.Owner)
		assert.Equal(t, "myrepo", cfg.GitHub.Repository)
		assert.Equal(t, models.StatusAll, cfg.Migration.Status)
		assert.Equal(t, 10, cfg.Migration.Limit)
		assert.True(t, cfg.Migration.DryRun)
		assert.Equal(t, 500*time.Millisecond, cfg.Migration.RequestInterval)
		assert.Equal(t, 2, cfg.Migration.MaxRetries)
	})

	t.Run("applies defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
sourceforge:
  project: myproject
github:
  token: ghp_testtoken
  owner: myorg
  repository: myrepo
`)

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "bugs", cfg.SourceForge.Tracker)
		assert.Equal(t, "https://sourceforge.net/rest", cfg.SourceForge.BaseURL)
		assert.Equal(t, 100, cfg.SourceForge.PageSize)
		assert.Equal(t, models.StatusOpen, cfg.Migration.Status)
		assert.Equal(t, 0, cfg.Migration.Limit)
		assert.False(t, cfg.Migration.DryRun)
		assert.Equal(t, 2*time.Second, cfg.Migration.RequestInterval)
		assert.Equal(t, 3, cfg.Migration.MaxRetries)
	})

	t.Run("falls back to GITHUB_TOKEN", func(t *testing.T) {
		clearTokenEnv(t)
		t.Setenv("GITHUB_TOKEN", "ghp_fromenv")
		path := writeConfigFile(t, `
sourceforge:
  project: myproject
github:
  owner: myorg
  repository: myrepo
`)

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "ghp_fromenv", cfg.GitHub.Token)
	})

	t.Run("prefixed env var overrides", func(t *testing.T) {
		clearTokenEnv(t)
		t.Setenv("SF2GH_GITHUB_TOKEN", "ghp_prefixed")
		path := writeConfigFile(t, `
sourceforge:
  project: myproject
github:
  owner: myorg
  repository: myrepo
`)

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "ghp_prefixed", cfg.GitHub.Token)
	})

	t.Run("nested keys can be overridden from the environment", func(t *testing.T) {
		clearTokenEnv(t)
		t.Setenv("SF2GH_MIGRATION_DRY_RUN", "true")
		t.Setenv("SF2GH_MIGRATION_STATUS", "all")
		t.Setenv("SF2GH_SOURCEFORGE_PAGE_SIZE", "7")
		path := writeConfigFile(t, `
sourceforge:
  project: myproject
github:
  token: ghp_testtoken
  owner: myorg
  repository: myrepo
`)

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.True(t, cfg.Migration.DryRun)
		assert.Equal(t, models.StatusAll, cfg.Migration.Status)
		assert.Equal(t, 7, cfg.SourceForge.PageSize)
	})

	t.Run("missing required fields fail validation", func(t *testing.T) {
		tests := []struct {
			name string
			yaml string
			want string
		}{
			{
				name: "missing project",
				yaml: "github:\n  token: t\n  owner: o\n  repository: r\n",
				want: "sourceforge.project",
			},
			{
				name: "missing token",
				yaml: "sourceforge:\n  project: p\ngithub:\n  owner: o\n  repository: r\n",
				want: "github.token",
			},
			{
				name: "missing owner",
				yaml: "sourceforge:\n  project: p\ngithub:\n  token: t\n  repository: r\n",
				want: "github.owner",
			},
			{
				name: "missing repository",
				yaml: "sourceforge:\n  project: p\ngithub:\n  token: t\n  owner: o\n",
				want: "github.repository",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				clearTokenEnv(t)
				_, err := LoadConfig(writeConfigFile(t, tt.yaml))
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.want)
			})
		}
	})

	t.Run("unreadable config file is an error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}

func TestMigrationConfig_Validate(t *testing.T) {
	valid := func() MigrationConfig {
		return MigrationConfig{
			Status:          models.StatusOpen,
			RequestInterval: time.Second,
			MaxRetries:      3,
		}
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid status", func(t *testing.T) {
		cfg := valid()
		cfg.Status = "everything"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "migration.status")
	})

	t.Run("negative limit", func(t *testing.T) {
		cfg := valid()
		cfg.Limit = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero request interval", func(t *testing.T) {
		cfg := valid()
		cfg.RequestInterval = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative max retries", func(t *testing.T) {
		cfg := valid()
		cfg.MaxRetries = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("status mapping must target open or closed", func(t *testing.T) {
		cfg := valid()
		cfg.StatusMapping = map[string]string{"pending": "open"}
		assert.NoError(t, cfg.Validate())

		cfg.StatusMapping = map[string]string{"pending": "maybe"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status_mapping")
	})
}

func TestSaveConfig(t *testing.T) {
	clearTokenEnv(t)
	cfg := &Config{
		SourceForge: SourceForgeConfig{
			Project:  "myproject",
			Tracker:  "bugs",
			BaseURL:  "https://sourceforge.net/rest",
			PageSize: 100,
		},
		GitHub: GitHubConfig{
			Token:      "ghp_testtoken",
			Owner:      "myorg",
			Repository: "myrepo",
			BaseURL:    "https://api.github.com",
		},
		Migration: MigrationConfig{
			Status:          models.StatusOpen,
			RequestInterval: 2 * time.Second,
			MaxRetries:      3,
		},
	}

	path := filepath.Join(t.TempDir(), "configs", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.SourceForge, loaded.SourceForge)
	assert.Equal(t, cfg.GitHub.Token, loaded.GitHub.Token)
	assert.Equal(t, 2*time.Second, loaded.Migration.RequestInterval)
}

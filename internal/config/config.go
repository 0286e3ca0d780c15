package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rohankatakam/semrel/internal/history"
)

// Config holds all configuration settings
type Config struct {
	// Release branch
	Branch string `mapstructure:"branch"`
	// Remote pushed to in release mode
	Remote string `mapstructure:"remote"`

	Manifest  ManifestConfig  `mapstructure:"manifest"`
	Changelog ChangelogConfig `mapstructure:"changelog"`
	Packager  PackagerConfig  `mapstructure:"packager"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Release   ReleaseConfig   `mapstructure:"release"`
	CI        CIConfig        `mapstructure:"ci"`
	History   HistoryConfig   `mapstructure:"history"`
	Log       LogConfig       `mapstructure:"log"`
}

type ManifestConfig struct {
	Path   string `mapstructure:"path"`   // relative to the repository root
	Format string `mapstructure:"format"` // cargo, yaml, text; empty infers from Path
	Key    string `mapstructure:"key"`    // dotted key of the version field (yaml)
}

type ChangelogConfig struct {
	Path     string `mapstructure:"path"`
	Fallback string `mapstructure:"fallback"`
}

type PackagerConfig struct {
	Kind        string   `mapstructure:"kind"` // cargo or command
	RefreshLock string   `mapstructure:"refresh_lock"`
	Build       string   `mapstructure:"build"`
	Publish     string   `mapstructure:"publish"`
	Artifact    string   `mapstructure:"artifact"`
	LockFiles   []string `mapstructure:"lock_files"`
}

type GitHubConfig struct {
	APIURL    string `mapstructure:"api_url"`
	RateLimit int    `mapstructure:"rate_limit"` // Requests per second
}

type ReleaseConfig struct {
	// Wait between pushing the tag and creating the hosted release
	PropagationDelay time.Duration `mapstructure:"propagation_delay"`
}

type CIConfig struct {
	WaitForSiblings bool          `mapstructure:"wait_for_siblings"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	TravisAPIURL    string        `mapstructure:"travis_api_url"`
	JobPrefix       string        `mapstructure:"job_prefix"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
	JSON bool   `mapstructure:"json"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Branch: "master",
		Remote: "origin",
		Manifest: ManifestConfig{
			Path: "Cargo.toml",
			Key:  "version",
		},
		Changelog: ChangelogConfig{
			Path:     "CHANGELOG.md",
			Fallback: "Stable version",
		},
		Packager: PackagerConfig{
			Kind: "cargo",
		},
		GitHub: GitHubConfig{
			RateLimit: 10, // 10 requests per second
		},
		Release: ReleaseConfig{
			PropagationDelay: time.Second,
		},
		CI: CIConfig{
			WaitForSiblings: true,
			PollInterval:    5 * time.Second,
			Timeout:         30 * time.Minute,
			TravisAPIURL:    "https://api.travis-ci.com",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    history.DefaultPath(),
		},
	}
}

// defaults lists every setting with its default so SEMREL_* variables bind to
// nested keys (SEMREL_CI_TIMEOUT → ci.timeout).
func defaults(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"branch":                    cfg.Branch,
		"remote":                    cfg.Remote,
		"manifest.path":             cfg.Manifest.Path,
		"manifest.format":           cfg.Manifest.Format,
		"manifest.key":              cfg.Manifest.Key,
		"changelog.path":            cfg.Changelog.Path,
		"changelog.fallback":        cfg.Changelog.Fallback,
		"packager.kind":             cfg.Packager.Kind,
		"packager.refresh_lock":     cfg.Packager.RefreshLock,
		"packager.build":            cfg.Packager.Build,
		"packager.publish":          cfg.Packager.Publish,
		"packager.artifact":         cfg.Packager.Artifact,
		"packager.lock_files":       cfg.Packager.LockFiles,
		"github.api_url":            cfg.GitHub.APIURL,
		"github.rate_limit":         cfg.GitHub.RateLimit,
		"release.propagation_delay": cfg.Release.PropagationDelay,
		"ci.wait_for_siblings":      cfg.CI.WaitForSiblings,
		"ci.poll_interval":          cfg.CI.PollInterval,
		"ci.timeout":                cfg.CI.Timeout,
		"ci.travis_api_url":         cfg.CI.TravisAPIURL,
		"ci.job_prefix":             cfg.CI.JobPrefix,
		"history.enabled":           cfg.History.Enabled,
		"history.path":              cfg.History.Path,
		"log.file":                  cfg.Log.File,
		"log.json":                  cfg.Log.JSON,
	}
}

// Load reads .semrel.yaml from repoPath, or file when given, on top of the
// defaults. SEMREL_* environment variables override both.
func Load(repoPath, file string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles(repoPath)

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	for key, value := range defaults(cfg) {
		v.SetDefault(key, value)
	}

	// Load from environment variables
	v.SetEnvPrefix("SEMREL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".semrel")
		v.AddConfigPath(repoPath)
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.History.Path = expandPath(cfg.History.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence. Variables already
// present in the environment are never overridden.
func loadEnvFiles(repoPath string) {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}

	for _, file := range envFiles {
		path := filepath.Join(repoPath, file)
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

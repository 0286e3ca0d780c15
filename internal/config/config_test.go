package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/semrel/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "master", cfg.Branch)
	assert.Equal(t, "origin", cfg.Remote)
	assert.Equal(t, "Cargo.toml", cfg.Manifest.Path)
	assert.Equal(t, "CHANGELOG.md", cfg.Changelog.Path)
	assert.Equal(t, "Stable version", cfg.Changelog.Fallback)
	assert.Equal(t, time.Second, cfg.Release.PropagationDelay)
	assert.Equal(t, 5*time.Second, cfg.CI.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.CI.Timeout)
	assert.True(t, cfg.CI.WaitForSiblings)
	assert.Equal(t, 10, cfg.GitHub.RateLimit)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".semrel.yaml"), []byte(`
branch: main
manifest:
  path: charts/app/Chart.yaml
packager:
  kind: command
  build: make dist
  lock_files: [go.sum]
ci:
  poll_interval: 10s
  job_prefix: test
`), 0644))
	t.Setenv("SEMREL_CI_TIMEOUT", "5m")

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "main", cfg.Branch)
	assert.Equal(t, "charts/app/Chart.yaml", cfg.Manifest.Path)
	assert.Equal(t, "command", cfg.Packager.Kind)
	assert.Equal(t, "make dist", cfg.Packager.Build)
	assert.Equal(t, []string{"go.sum"}, cfg.Packager.LockFiles)
	assert.Equal(t, 10*time.Second, cfg.CI.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.CI.Timeout)
	assert.Equal(t, "test", cfg.CI.JobPrefix)
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.yaml")
	require.NoError(t, os.WriteFile(path, []byte("remote: upstream\n"), 0644))

	cfg, err := Load(t.TempDir(), path)
	require.NoError(t, err)
	assert.Equal(t, "upstream", cfg.Remote)

	_, err = Load(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SEMREL_BRANCH=from-dotenv\nSEMREL_REMOTE=dotenv-remote\n"), 0644))
	t.Setenv("SEMREL_BRANCH", "from-env")
	t.Setenv("SEMREL_REMOTE", "")
	os.Unsetenv("SEMREL_REMOTE")

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Branch)
	assert.Equal(t, "dotenv-remote", cfg.Remote)
}

func TestDetectMode(t *testing.T) {
	for _, e := range []string{"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI",
		"TRAVIS", "JENKINS_URL", "BUILDKITE", "DRONE", "TF_BUILD", "SEMREL_MODE"} {
		t.Setenv(e, "")
	}
	assert.Equal(t, ModeLocal, DetectMode())
	assert.False(t, IsCI())

	t.Setenv("TRAVIS", "true")
	assert.Equal(t, ModeCI, DetectMode())

	t.Setenv("SEMREL_MODE", "local")
	assert.Equal(t, ModeLocal, DetectMode())
	assert.True(t, ModeLocal.AllowsInteractivePrompts())
}

func validSettings() Settings {
	return Settings{
		RepoPath:         ".",
		Branch:           "master",
		ManifestPath:     "Cargo.toml",
		ChangelogPath:    "CHANGELOG.md",
		Fallback:         "Stable version",
		Owner:            "octo",
		Repo:             "widget",
		Committer:        "Release Bot <bot@example.com>",
		GitHubToken:      "gh",
		RegistryToken:    "crates",
		PropagationDelay: time.Second,
	}
}

func TestNewPipelineConfigModes(t *testing.T) {
	tests := []struct {
		name    string
		write   bool
		inCI    bool
		release bool
		dryRun  bool
	}{
		{"local default is a dry run", false, false, false, true},
		{"write flag", true, false, false, false},
		{"ci forces write", false, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			s.Write, s.InCI, s.Release = tt.write, tt.inCI, tt.release
			pc, err := NewPipelineConfig(s)
			require.NoError(t, err)
			assert.Equal(t, tt.dryRun, pc.DryRun)
			assert.Equal(t, tt.release, pc.ReleaseMode)
			assert.Equal(t, "origin", pc.Remote)
		})
	}
}

func TestNewPipelineConfigReleaseRequirements(t *testing.T) {
	s := validSettings()
	s.Write, s.Release = true, true
	s.GitHubToken, s.RegistryToken, s.Owner = "", "", ""

	_, err := NewPipelineConfig(s)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfig, errors.GetType(err))
	msg := err.Error()
	assert.True(t, strings.Contains(msg, "GH_TOKEN"), msg)
	assert.True(t, strings.Contains(msg, "CARGO_TOKEN"), msg)
	assert.True(t, strings.Contains(msg, "hosted repository"), msg)

	// a dry run reports the same gaps as warnings
	s.Write = false
	pc, err := NewPipelineConfig(s)
	require.NoError(t, err)
	assert.True(t, pc.DryRun)
	require.Len(t, pc.Warnings, 3)
	assert.Contains(t, pc.Warnings[0], "GH_TOKEN")

	// nothing to report when a release could go ahead
	s = validSettings()
	s.Release = true
	pc, err = NewPipelineConfig(s)
	require.NoError(t, err)
	assert.True(t, pc.DryRun)
	assert.Empty(t, pc.Warnings)
}

func TestNewPipelineConfigWriteNeedsCommitter(t *testing.T) {
	s := validSettings()
	s.Write = true
	s.Committer = ""
	_, err := NewPipelineConfig(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GIT_COMMITTER_NAME")

	// write without release does not need tokens
	s.Committer = "a <b@c>"
	s.GitHubToken, s.RegistryToken = "", ""
	_, err = NewPipelineConfig(s)
	require.NoError(t, err)
}

func TestNewPipelineConfigMissingPaths(t *testing.T) {
	_, err := NewPipelineConfig(Settings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "release branch is required")
	assert.Contains(t, err.Error(), "manifest path is required")
}

func TestParseReleaseSwitch(t *testing.T) {
	for _, v := range []string{"yes", "YES", "true", "1", " y "} {
		assert.True(t, ParseReleaseSwitch(v), v)
	}
	for _, v := range []string{"", "no", "false", "0", "maybe"} {
		assert.False(t, ParseReleaseSwitch(v), v)
	}
}

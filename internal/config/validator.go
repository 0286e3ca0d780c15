package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rohankatakam/semrel/internal/errors"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Settings are the raw inputs of a run, gathered from flags, the environment
// and the configuration file.
type Settings struct {
	RepoPath      string
	Branch        string
	Remote        string
	Write         bool
	Release       bool
	InCI          bool
	ManifestPath  string
	ChangelogPath string
	Fallback      string

	// Owner and Repo identify the hosted repository; required to release.
	Owner string
	Repo  string

	// Committer is "name <email>"; required whenever the run writes.
	Committer string

	GitHubToken   string
	RegistryToken string

	PropagationDelay time.Duration
}

// PipelineConfig is a validated run configuration.
type PipelineConfig struct {
	RepoPath      string
	ReleaseBranch string
	Remote        string
	// DryRun reports without mutating anything.
	DryRun bool
	// ReleaseMode pushes, creates the hosted release and publishes.
	ReleaseMode   bool
	ManifestPath  string
	ChangelogPath string
	Fallback      string
	Owner         string
	Repo          string
	Committer     string
	GitHubToken   string
	RegistryToken string

	PropagationDelay time.Duration
	Warnings         []string
}

// NewPipelineConfig validates s. Runs inside CI always write. Release mode in
// a writing run requires both tokens and the hosted repository.
func NewPipelineConfig(s Settings) (PipelineConfig, error) {
	result := &ValidationResult{Valid: true}

	pc := PipelineConfig{
		RepoPath:         s.RepoPath,
		ReleaseBranch:    s.Branch,
		Remote:           s.Remote,
		DryRun:           !(s.Write || s.InCI),
		ReleaseMode:      s.Release,
		ManifestPath:     s.ManifestPath,
		ChangelogPath:    s.ChangelogPath,
		Fallback:         s.Fallback,
		Owner:            s.Owner,
		Repo:             s.Repo,
		Committer:        s.Committer,
		GitHubToken:      s.GitHubToken,
		RegistryToken:    s.RegistryToken,
		PropagationDelay: s.PropagationDelay,
	}
	if pc.Remote == "" {
		pc.Remote = "origin"
	}

	if pc.RepoPath == "" {
		result.AddError("repository path is required")
	}
	if pc.ReleaseBranch == "" {
		result.AddError("release branch is required")
	}
	if pc.ManifestPath == "" {
		result.AddError("manifest path is required")
	}
	if pc.ChangelogPath == "" {
		result.AddError("changelog path is required")
	}
	if pc.PropagationDelay < 0 {
		result.AddError("release.propagation_delay must not be negative")
	}

	if !pc.DryRun && pc.Committer == "" {
		result.AddError("committer identity is not configured: set GIT_COMMITTER_NAME and GIT_COMMITTER_EMAIL or git config user.name and user.email")
	}
	if pc.ReleaseMode {
		// a dry run only reports what a real release would be missing
		report := result.AddError
		if pc.DryRun {
			report = result.AddWarning
		}
		if pc.GitHubToken == "" {
			report("GH_TOKEN or GITHUB_TOKEN is required to release")
		}
		if pc.RegistryToken == "" {
			report("CARGO_TOKEN or SEMREL_REGISTRY_TOKEN is required to release")
		}
		if pc.Owner == "" || pc.Repo == "" {
			report("cannot determine the hosted repository from remote %q", pc.Remote)
		}
	}

	pc.Warnings = result.Warnings
	if result.HasErrors() {
		return PipelineConfig{}, errors.ConfigError(result.Error())
	}
	return pc, nil
}

// ParseReleaseSwitch interprets --release: yes, true and 1 enable it.
func ParseReleaseSwitch(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

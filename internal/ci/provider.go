// Package ci reads the build context from the CI environment and coordinates
// the leader job with its sibling jobs before a release is published.
package ci

import (
	"context"
	"os"
	"strings"
)

// JobState is the coarse state of a sibling job.
type JobState int

const (
	JobPending JobState = iota
	JobSucceeded
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	}
	return "pending"
}

// Job is a sibling job of the same build.
type Job struct {
	ID    string
	Name  string
	State JobState
}

// Context is what the pipeline needs to know about the current build.
type Context struct {
	Provider    string
	Branch      string // empty when the provider does not expose one
	PullRequest bool
	JobID       string
}

// Provider is one CI service.
type Provider interface {
	Name() string
	// Detect reports whether the process runs under this provider.
	Detect() bool
	Context() Context
	// IsLeader reports whether this job is the one allowed to release.
	IsLeader() bool
	// Siblings lists the other jobs of the current build.
	Siblings(ctx context.Context) ([]Job, error)
}

// Detect returns the first provider that recognises the environment.
func Detect(providers ...Provider) (Provider, bool) {
	for _, p := range providers {
		if p != nil && p.Detect() {
			return p, true
		}
	}
	return nil, false
}

func envTrue(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1"
}

package pipeline

import (
	"context"

	"github.com/rohankatakam/semrel/internal/ci"
	"github.com/rohankatakam/semrel/internal/commits"
	"github.com/rohankatakam/semrel/internal/github"
	"github.com/rohankatakam/semrel/internal/history"
	"github.com/rohankatakam/semrel/internal/manifest"
	"github.com/rohankatakam/semrel/internal/packager"
	"github.com/rohankatakam/semrel/internal/version"
)

// Repository is the working tree being released.
type Repository interface {
	CurrentBranch() (string, error)
	// LatestRelease returns the newest release tag; ok is false when none exists.
	LatestRelease() (v version.Version, tag string, ok bool, err error)
	// CommitsSince lists commits after tag up to HEAD; "" means all history.
	CommitsSince(tag string) ([]commits.Commit, error)
	Commit(message string, paths ...string) (string, error)
	Tag(name, message string) error
	Push(ctx context.Context, branch, tag, token string) error
}

// Manifest holds the project version.
type Manifest = manifest.Manifest

// ChangelogStore receives each new changelog entry above the previous ones.
type ChangelogStore interface {
	Prepend(entry string) error
}

// Packager and Registry are driven by the external packaging tool.
type (
	Packager = packager.Packager
	Registry = packager.Registry
)

// ReleaseHost creates the hosted release for a pushed tag.
type ReleaseHost interface {
	CreateRelease(ctx context.Context, owner, repo string, rel github.Release) (string, error)
}

// Gate is the CI barrier.
type Gate interface {
	Await(ctx context.Context) (ci.Outcome, error)
}

// Recorder journals runs that entered the write sequence.
type Recorder interface {
	Record(r history.Run) (history.Run, error)
}

// Package pipeline runs a release: branch gate, CI barrier, version decision,
// then either a dry-run report or the ordered write sequence.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/semrel/internal/changelog"
	"github.com/rohankatakam/semrel/internal/ci"
	"github.com/rohankatakam/semrel/internal/commits"
	"github.com/rohankatakam/semrel/internal/config"
	"github.com/rohankatakam/semrel/internal/errors"
	"github.com/rohankatakam/semrel/internal/github"
	"github.com/rohankatakam/semrel/internal/history"
	"github.com/rohankatakam/semrel/internal/version"
)

// State is a state of the release state machine.
type State string

const (
	StateInit            State = "init"
	StateBranchGate      State = "branch gate"
	StateCIBarrier       State = "ci barrier"
	StateVersionDecision State = "version decision"

	// terminal
	StateSkip          State = "skip"
	StateNoRelease     State = "no release"
	StateDryRunReport  State = "dry run report"
	StateWriteSequence State = "write sequence"
)

// Result describes how a run ended.
type Result struct {
	State State
	// SkipReason is set when State is StateSkip.
	SkipReason string
	Branch     string

	Current version.Version
	Next    *version.Version
	Tag     string
	Notes   string

	// Steps lists the write-sequence steps that completed, in order.
	Steps      []errors.Step
	ReleaseURL string
}

// Collaborators are the external parts a run drives. Gate and CI are nil
// outside CI; Host and Registry are only used in release mode; Recorder is
// optional.
type Collaborators struct {
	Repository Repository
	Manifest   Manifest
	Changelog  ChangelogStore
	Packager   Packager
	Registry   Registry
	Host       ReleaseHost
	CI         *ci.Context
	Gate       Gate
	Recorder   Recorder

	Logger logrus.FieldLogger
	// Now defaults to time.Now.
	Now func() time.Time
	// Sleep defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Compose defaults to changelog.Compose.
	Compose func(log []commits.Commit, previous, next version.Version, date time.Time) (changelog.Changelog, bool)
}

// Orchestrator runs one release.
type Orchestrator struct {
	cfg config.PipelineConfig
	c   Collaborators
	log logrus.FieldLogger
}

// New creates an orchestrator for a validated configuration.
func New(cfg config.PipelineConfig, c Collaborators) *Orchestrator {
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
	if c.Compose == nil {
		c.Compose = changelog.Compose
	}
	return &Orchestrator{cfg: cfg, c: c, log: c.Logger}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run drives the state machine to a terminal state. A nil error means the
// run succeeded, including the no-op outcomes (skip, no release).
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{State: StateInit}

	res.State = StateBranchGate
	if skip, err := o.branchGate(res); err != nil || skip {
		return res, err
	}

	res.State = StateCIBarrier
	if skip, err := o.barrier(ctx, res); err != nil || skip {
		return res, err
	}

	res.State = StateVersionDecision
	log, err := o.decide(res)
	if err != nil {
		return res, err
	}
	if res.Next == nil {
		res.State = StateNoRelease
		o.log.WithField("version", res.Current.String()).Info("No version bump. Nothing to do.")
		return res, nil
	}

	notes, ok := o.c.Compose(log, res.Current, *res.Next, o.c.Now())
	if ok {
		res.Notes = notes.Markdown()
	} else {
		res.Notes = changelog.Fallback(*res.Next, o.c.Now(), o.cfg.Fallback)
	}
	res.Tag = res.Next.Tag()

	if o.cfg.DryRun {
		res.State = StateDryRunReport
		o.log.WithFields(logrus.Fields{
			"current": res.Current.String(),
			"version": res.Next.String(),
		}).Infof("New version would be: %s", res.Next)
		o.log.Info("Would write the following Changelog:\n" + res.Notes)
		return res, nil
	}

	res.State = StateWriteSequence
	started := o.c.Now()
	err = o.writeSequence(ctx, res)
	o.record(res, started, err)
	return res, err
}

func (o *Orchestrator) skip(res *Result, reason string) {
	res.State = StateSkip
	res.SkipReason = reason
	o.log.WithField("branch", res.Branch).Info(reason)
}

func (o *Orchestrator) branchGate(res *Result) (bool, error) {
	branch, err := o.c.Repository.CurrentBranch()
	if o.c.CI != nil && o.c.CI.Branch != "" {
		// CI checkouts are usually a detached HEAD
		branch, err = o.c.CI.Branch, nil
	}
	if err != nil {
		return false, err
	}
	res.Branch = branch

	if o.c.CI != nil && o.c.CI.PullRequest {
		o.skip(res, "Pull request build. Skipping release.")
		return true, nil
	}
	if branch != o.cfg.ReleaseBranch {
		o.skip(res, fmt.Sprintf("Current branch is %q, releases only happen from %q. Skipping release.",
			branch, o.cfg.ReleaseBranch))
		return true, nil
	}
	return false, nil
}

func (o *Orchestrator) barrier(ctx context.Context, res *Result) (bool, error) {
	if o.c.Gate == nil {
		return false, nil
	}

	o.log.Info("Waiting for sibling CI jobs")
	outcome, err := o.c.Gate.Await(ctx)
	switch outcome {
	case ci.LeaderProceed:
		return false, nil
	case ci.NotLeader:
		o.skip(res, "Not the build leader. Skipping release.")
		return true, nil
	}

	res.State = StateSkip
	if err == nil {
		err = errors.BarrierError(errors.ReasonEnvironmentUnavailable, nil, "CI barrier aborted")
	}
	if reason, ok := errors.ReasonOf(err); ok {
		res.SkipReason = string(reason)
	}
	return true, err
}

func (o *Orchestrator) decide(res *Result) ([]commits.Commit, error) {
	current, err := o.c.Manifest.Version()
	if err != nil {
		return nil, err
	}
	res.Current = current

	latest, tag, ok, err := o.c.Repository.LatestRelease()
	if err != nil {
		return nil, err
	}
	if !ok {
		tag = ""
	}
	if ok && current.Less(latest) {
		return nil, errors.RepositoryErrorf(nil, "%s version %s is behind the latest release tag %s",
			o.c.Manifest.Path(), current, tag)
	}

	o.log.WithField("since", tag).Info("Analyzing commits")
	log, err := o.c.Repository.CommitsSince(tag)
	if err != nil {
		return nil, err
	}

	d := version.Decide(log, current)
	o.log.WithFields(logrus.Fields{
		"commits":  len(log),
		"category": d.Category.String(),
	}).Debug("version decision")
	res.Next = d.Next
	return log, nil
}

func (o *Orchestrator) step(res *Result, step errors.Step, fn func() error) error {
	o.log.WithField("step", string(step)).Debug("running release step")
	if err := fn(); err != nil {
		return errors.StepError(step, err)
	}
	res.Steps = append(res.Steps, step)
	return nil
}

func (o *Orchestrator) writeSequence(ctx context.Context, res *Result) error {
	next := *res.Next
	release := o.cfg.ReleaseMode

	if o.c.Packager == nil {
		return errors.InternalError("no packager configured")
	}
	if release && (o.c.Host == nil || o.c.Registry == nil) {
		return errors.InternalError("release mode needs a release host and a registry")
	}

	steps := []struct {
		step errors.Step
		run  bool
		fn   func() error
	}{
		{errors.StepManifestWrite, true, func() error {
			o.log.WithField("version", next.String()).Info("Writing new version to manifest")
			return o.c.Manifest.SetVersion(next)
		}},
		{errors.StepChangelogWrite, true, func() error {
			o.log.Info("Writing Changelog")
			return o.c.Changelog.Prepend(res.Notes)
		}},
		{errors.StepLockRefresh, release, func() error {
			o.log.Info("Refreshing lock file")
			return o.c.Packager.RefreshLock(ctx)
		}},
		{errors.StepPackageBuild, true, func() error {
			o.log.Info("Packaging new version")
			return o.c.Packager.Build(ctx, next)
		}},
		{errors.StepCommit, true, func() error {
			o.log.Info("Committing files")
			_, err := o.c.Repository.Commit(fmt.Sprintf("Bump version to %s", next), o.commitPaths()...)
			return err
		}},
		{errors.StepTag, true, func() error {
			o.log.WithField("tag", res.Tag).Info("Creating tag")
			return o.c.Repository.Tag(res.Tag, res.Notes)
		}},
		{errors.StepPush, release, func() error {
			o.log.WithField("remote", o.cfg.Remote).Info("Pushing new commit and tag")
			return o.c.Repository.Push(ctx, res.Branch, res.Tag, o.cfg.GitHubToken)
		}},
		{errors.StepReleaseCreation, release, func() error {
			if err := o.c.Sleep(ctx, o.cfg.PropagationDelay); err != nil {
				return err
			}
			o.log.Info("Creating GitHub release")
			url, err := o.c.Host.CreateRelease(ctx, o.cfg.Owner, o.cfg.Repo, github.Release{
				TagName: res.Tag,
				Name:    res.Tag,
				Body:    res.Notes,
			})
			res.ReleaseURL = url
			return err
		}},
		{errors.StepPublish, release, func() error {
			o.log.Info("Publishing package")
			return o.c.Registry.Publish(ctx, next, o.cfg.RegistryToken)
		}},
	}

	for _, s := range steps {
		if !s.run {
			continue
		}
		if err := o.step(res, s.step, s.fn); err != nil {
			return err
		}
	}

	if release {
		o.log.Infof("%s %s is released.", o.cfg.Repo, res.Tag)
	} else {
		o.log.WithField("tag", res.Tag).Info("Release committed and tagged locally. Nothing was pushed.")
	}
	return nil
}

// commitPaths are the manifest, the changelog and whichever lock files exist.
func (o *Orchestrator) commitPaths() []string {
	paths := []string{o.cfg.ManifestPath, o.cfg.ChangelogPath}
	for _, p := range o.c.Packager.LockFiles() {
		if _, err := os.Stat(filepath.Join(o.cfg.RepoPath, p)); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}

func (o *Orchestrator) record(res *Result, started time.Time, runErr error) {
	if o.c.Recorder == nil {
		return
	}

	run := history.Run{
		StartedAt:  started,
		FinishedAt: o.c.Now(),
		Repository: o.cfg.RepoPath,
		Branch:     res.Branch,
		Version:    res.Next.String(),
		Tag:        res.Tag,
		Release:    o.cfg.ReleaseMode,
		State:      "tagged",
	}
	if o.cfg.Owner != "" {
		run.Repository = o.cfg.Owner + "/" + o.cfg.Repo
	}
	if o.cfg.ReleaseMode {
		run.State = "released"
	}
	if runErr != nil {
		run.State = "failed"
		run.Error = runErr.Error()
		if step, ok := errors.StepOf(runErr); ok {
			run.FailedStep = string(step)
		}
	}

	if _, err := o.c.Recorder.Record(run); err != nil {
		o.log.WithError(err).Warn("failed to record release history")
	}
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/semrel/internal/changelog"
	"github.com/rohankatakam/semrel/internal/ci"
	"github.com/rohankatakam/semrel/internal/config"
	"github.com/rohankatakam/semrel/internal/errors"
	"github.com/rohankatakam/semrel/internal/git"
	"github.com/rohankatakam/semrel/internal/github"
	"github.com/rohankatakam/semrel/internal/history"
	"github.com/rohankatakam/semrel/internal/manifest"
	"github.com/rohankatakam/semrel/internal/output"
	"github.com/rohankatakam/semrel/internal/packager"
	"github.com/rohankatakam/semrel/internal/pipeline"
)

var (
	writeFlag   bool
	releaseFlag string
	branchFlag  string
	outputFlag  string
)

func init() {
	rootCmd.Flags().BoolVarP(&writeFlag, "write", "w", false, "write the manifest, changelog, commit and tag (always on in CI)")
	rootCmd.Flags().StringVarP(&releaseFlag, "release", "r", "yes", "push, create the GitHub release and publish (yes|no)")
	rootCmd.Flags().StringVarP(&branchFlag, "branch", "b", "", "release branch (default from config: master)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "result format: quiet, standard or json (default $SEMREL_OUTPUT or standard)")
}

func runRelease(cmd *cobra.Command, args []string) error {
	level := output.GetDefaultVerbosity()
	if outputFlag != "" {
		var err error
		if level, err = output.ParseVerbosity(outputFlag); err != nil {
			return errors.ConfigError(err.Error())
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	repo, err := git.Open(repoPath, cfg.Remote)
	if err != nil {
		return err
	}

	branch := cfg.Branch
	if branchFlag != "" {
		branch = branchFlag
	}

	creds := config.NewCredentialManager("", logger)
	ghToken, err := creds.Get(config.GitHubToken)
	if err != nil {
		return err
	}
	registryToken, err := creds.Get(config.RegistryToken)
	if err != nil {
		return err
	}

	settings := config.Settings{
		RepoPath:         repo.Root(),
		Branch:           branch,
		Remote:           cfg.Remote,
		Write:            writeFlag,
		Release:          config.ParseReleaseSwitch(releaseFlag),
		InCI:             config.IsCI(),
		ManifestPath:     cfg.Manifest.Path,
		ChangelogPath:    cfg.Changelog.Path,
		Fallback:         cfg.Changelog.Fallback,
		GitHubToken:      ghToken,
		RegistryToken:    registryToken,
		PropagationDelay: cfg.Release.PropagationDelay,
	}
	if owner, name, err := repo.OwnerRepo(); err == nil {
		settings.Owner, settings.Repo = owner, name
	} else {
		logger.WithError(err).Debug("hosted repository unknown")
	}
	if sig, err := repo.Signature(); err == nil {
		settings.Committer = fmt.Sprintf("%s <%s>", sig.Name, sig.Email)
	}

	pc, err := config.NewPipelineConfig(settings)
	if err != nil {
		return err
	}
	for _, w := range pc.Warnings {
		logger.Warn(w)
	}
	if !pc.DryRun {
		if err := repo.UseCommitter(pc.Committer); err != nil {
			return err
		}
	}

	m, err := manifest.Open(filepath.Join(pc.RepoPath, pc.ManifestPath),
		manifest.Format(cfg.Manifest.Format), cfg.Manifest.Key)
	if err != nil {
		return err
	}

	driver, err := packager.New(packager.Settings{
		Kind:        cfg.Packager.Kind,
		Dir:         pc.RepoPath,
		RefreshLock: cfg.Packager.RefreshLock,
		Build:       cfg.Packager.Build,
		Publish:     cfg.Packager.Publish,
		Artifact:    cfg.Packager.Artifact,
		LockFiles:   cfg.Packager.LockFiles,
	}, packager.ExecRunner{Logger: logger})
	if err != nil {
		return err
	}

	gh, err := github.NewClient(ghToken, cfg.GitHub.RateLimit, cfg.GitHub.APIURL)
	if err != nil {
		return err
	}

	c := pipeline.Collaborators{
		Repository: repo,
		Manifest:   m,
		Changelog:  changelog.File{Path: filepath.Join(pc.RepoPath, pc.ChangelogPath)},
		Packager:   driver,
		Registry:   driver,
		Host:       gh,
		Logger:     logger,
	}

	if settings.InCI {
		if err := wireCI(&c, creds, gh); err != nil {
			return err
		}
	}

	if cfg.History.Enabled && !pc.DryRun {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.WithError(err).Warn("release history disabled")
		} else {
			defer store.Close()
			c.Recorder = store
		}
	}

	logger.WithFields(logrus.Fields{
		"path":    pc.RepoPath,
		"branch":  pc.ReleaseBranch,
		"dry_run": pc.DryRun,
		"release": pc.ReleaseMode,
	}).Debug("starting release")

	res, err := pipeline.New(pc, c).Run(ctx)
	if res != nil {
		if ferr := output.NewFormatter(level).Format(res, cmd.OutOrStdout()); ferr != nil {
			logger.WithError(ferr).Warn("failed to print result")
		}
	}
	return err
}

// wireCI attaches the build context and, unless disabled, the sibling barrier.
// An unrecognised CI service still gets a barrier, which aborts the run.
func wireCI(c *pipeline.Collaborators, creds *config.CredentialManager, gh *github.Client) error {
	travisToken, err := creds.Get(config.TravisToken)
	if err != nil {
		return err
	}

	provider, ok := ci.Detect(
		ci.NewTravis(cfg.CI.TravisAPIURL, travisToken),
		ci.NewGitHubActions(gh, cfg.CI.JobPrefix),
	)
	if ok {
		bc := provider.Context()
		c.CI = &bc
		logger.WithField("provider", provider.Name()).Info("running in CI")
	}

	if !cfg.CI.WaitForSiblings {
		return nil
	}
	c.Gate = ci.NewBarrier(provider, cfg.CI.PollInterval, cfg.CI.Timeout, logger)
	return nil
}

var (
	_ pipeline.Repository     = (*git.Repository)(nil)
	_ pipeline.ChangelogStore = changelog.File{}
	_ pipeline.ReleaseHost    = (*github.Client)(nil)
	_ pipeline.Recorder       = (*history.Store)(nil)
)

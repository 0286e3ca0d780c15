package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/semrel/internal/config"
	"github.com/rohankatakam/semrel/internal/errors"
	"github.com/rohankatakam/semrel/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	repoPath string
	cfgFile  string
	verbose  bool
	logger   *logging.Logger
	cfg      *config.Config
)

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		logger.Close()
	}
	if err != nil {
		var e *errors.Error
		if verbose && stderrors.As(err, &e) {
			fmt.Fprint(os.Stderr, e.DetailedString())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "semrel",
	Short: "Automated semantic releases from conventional commits",
	Long: `semrel reads the commits since the last release tag, decides the next
semantic version, writes the manifest and changelog, and in release mode pushes
the tag, creates the GitHub release and publishes the package.

Outside CI it only reports what it would do unless --write is given.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(repoPath)
		if err != nil {
			return errors.ConfigErrorf("invalid path %q: %v", repoPath, err)
		}
		repoPath = abs

		cfg, err = config.Load(repoPath, cfgFile)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh, "failed to load configuration")
		}

		logger, err = logging.NewLogger(logging.Config{
			Verbose:    verbose,
			OutputFile: cfg.Log.File,
			JSONFormat: cfg.Log.JSON,
		})
		return err
	},
	RunE: runRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoPath, "path", "p", ".", "path to the repository")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <path>/.semrel.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`semrel {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configureCmd)
}

// Package packager drives the external packaging tool: lock refresh, artifact
// build and registry publish.
package packager

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/semrel/internal/version"
)

// Packager refreshes the lock artifact and builds the distributable package.
type Packager interface {
	Name() string
	RefreshLock(ctx context.Context) error
	Build(ctx context.Context, v version.Version) error
	// LockFiles lists the files RefreshLock may change, relative to the root.
	LockFiles() []string
}

// Registry publishes a built artifact.
type Registry interface {
	Publish(ctx context.Context, v version.Version, token string) error
}

// Runner executes a program in dir.
type Runner interface {
	Run(ctx context.Context, dir string, env []string, name string, args ...string) error
}

// ExecRunner runs programs with os/exec and logs their output at debug level.
type ExecRunner struct {
	Logger logrus.FieldLogger
}

func (r ExecRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	log := r.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithField("cmd", redact(name, args)).Debug("running")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w\n%s", redact(name, args), err, tail(out.String(), 20))
	}
	if out.Len() > 0 {
		log.Debug(strings.TrimSpace(out.String()))
	}
	return nil
}

// redact hides the value following --token.
func redact(name string, args []string) string {
	parts := append([]string{name}, args...)
	for i := 1; i < len(parts); i++ {
		if parts[i-1] == "--token" {
			parts[i] = "***"
		}
	}
	return strings.Join(parts, " ")
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Settings selects and configures a driver.
type Settings struct {
	Kind        string // cargo or command
	Dir         string
	RefreshLock string
	Build       string
	Publish     string
	Artifact    string
	LockFiles   []string
}

// Driver is both the Packager and the Registry of one packaging tool.
type Driver interface {
	Packager
	Registry
}

// New returns the driver named by s.Kind.
func New(s Settings, runner Runner) (Driver, error) {
	switch s.Kind {
	case "", "cargo":
		return &Cargo{Dir: s.Dir, Runner: runner}, nil
	case "command":
		return &Command{
			Dir:          s.Dir,
			RefreshCmd:   s.RefreshLock,
			BuildCmd:     s.Build,
			PublishCmd:   s.Publish,
			Artifact:     s.Artifact,
			ChangedFiles: s.LockFiles,
			Runner:       runner,
		}, nil
	}
	return nil, fmt.Errorf("unknown packager %q", s.Kind)
}

package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rohankatakam/semrel/internal/version"
)

// Command runs configured shell commands for projects without a built-in
// driver. Each command sees SEMREL_VERSION; publish also sees SEMREL_TOKEN.
// An empty command is a no-op.
type Command struct {
	Dir          string
	RefreshCmd   string
	BuildCmd     string
	PublishCmd   string
	Artifact     string // may reference {version}
	ChangedFiles []string
	Runner       Runner
}

func (c *Command) Name() string { return "command" }

func (c *Command) LockFiles() []string { return c.ChangedFiles }

func (c *Command) shell(ctx context.Context, script string, env ...string) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}
	return c.Runner.Run(ctx, c.Dir, env, "sh", "-c", script)
}

func (c *Command) RefreshLock(ctx context.Context) error {
	return c.shell(ctx, c.RefreshCmd)
}

func (c *Command) Build(ctx context.Context, v version.Version) error {
	return c.shell(ctx, c.BuildCmd, "SEMREL_VERSION="+v.String())
}

func (c *Command) Publish(ctx context.Context, v version.Version, token string) error {
	if c.Artifact != "" {
		path := strings.ReplaceAll(c.Artifact, "{version}", v.String())
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Dir, path)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("package artifact %s not found: %w", path, err)
		}
	}
	return c.shell(ctx, c.PublishCmd, "SEMREL_VERSION="+v.String(), "SEMREL_TOKEN="+token)
}

package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rohankatakam/semrel/internal/manifest"
	"github.com/rohankatakam/semrel/internal/version"
)

// Cargo packages and publishes a Rust crate.
type Cargo struct {
	Dir    string
	Runner Runner
}

func (c *Cargo) Name() string { return "cargo" }

func (c *Cargo) LockFiles() []string { return []string{"Cargo.lock"} }

func (c *Cargo) RefreshLock(ctx context.Context) error {
	return c.Runner.Run(ctx, c.Dir, nil, "cargo", "fetch")
}

// Build runs cargo package. The tree is dirty at this point since the
// release commit is created afterwards.
func (c *Cargo) Build(ctx context.Context, v version.Version) error {
	return c.Runner.Run(ctx, c.Dir, nil, "cargo", "package", "--allow-dirty")
}

// Artifact is the path cargo package writes the crate to.
func (c *Cargo) Artifact(v version.Version) (string, error) {
	name, err := manifest.NewCargo(filepath.Join(c.Dir, "Cargo.toml")).Name()
	if err != nil {
		return "", err
	}
	return filepath.Join(c.Dir, "target", "package", fmt.Sprintf("%s-%s.crate", name, v)), nil
}

func (c *Cargo) Publish(ctx context.Context, v version.Version, token string) error {
	artifact, err := c.Artifact(v)
	if err != nil {
		return err
	}
	if _, err := os.Stat(artifact); err != nil {
		return fmt.Errorf("package artifact %s not found: %w", artifact, err)
	}
	return c.Runner.Run(ctx, c.Dir, nil, "cargo", "publish", "--token", token)
}

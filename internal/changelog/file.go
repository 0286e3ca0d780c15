package changelog

import (
	"os"
	"strings"

	"github.com/rohankatakam/semrel/internal/errors"
)

// File is the changelog artifact in the repository.
type File struct {
	Path string
}

// Prepend writes entry above every previous release. A missing file is created.
func (f File) Prepend(entry string) error {
	existing, err := os.ReadFile(f.Path)
	if err != nil && !os.IsNotExist(err) {
		return errors.FileSystemErrorf(err, "failed to read %s", f.Path)
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(entry, "\n"))
	sb.WriteString("\n")
	if rest := strings.TrimLeft(string(existing), "\n"); rest != "" {
		sb.WriteString("\n")
		sb.WriteString(rest)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(f.Path); err == nil {
		mode = info.Mode().Perm()
	}

	if err := os.WriteFile(f.Path, []byte(sb.String()), mode); err != nil {
		return errors.FileSystemErrorf(err, "failed to write %s", f.Path)
	}
	return nil
}

// Package manifest reads and rewrites the version recorded in a project
// manifest without disturbing the rest of the file.
package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rohankatakam/semrel/internal/errors"
	"github.com/rohankatakam/semrel/internal/version"
)

// Format names a manifest layout.
type Format string

const (
	FormatCargo Format = "cargo"
	FormatYAML  Format = "yaml"
	FormatText  Format = "text"
)

// Manifest is a file holding the project version.
type Manifest interface {
	Path() string
	Version() (version.Version, error)
	SetVersion(v version.Version) error
}

// Open returns the manifest at path. An empty format is inferred from the
// file name. key is the dotted path of the version field for YAML manifests.
func Open(path string, format Format, key string) (Manifest, error) {
	if format == "" {
		format = Infer(path)
	}
	switch format {
	case FormatCargo:
		return &Cargo{path: path}, nil
	case FormatYAML:
		if key == "" {
			key = "version"
		}
		return &YAML{path: path, key: strings.Split(key, ".")}, nil
	case FormatText:
		return &Text{path: path}, nil
	}
	return nil, errors.ConfigErrorf("unsupported manifest format %q", format)
}

// Infer guesses the format from the file name.
func Infer(path string) Format {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case base == "cargo.toml" || filepath.Ext(base) == ".toml":
		return FormatCargo
	case filepath.Ext(base) == ".yaml" || filepath.Ext(base) == ".yml":
		return FormatYAML
	}
	return FormatText
}

func read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to read manifest %s", path)
	}
	return data, nil
}

func write(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return errors.FileSystemErrorf(err, "failed to write manifest %s", path)
	}
	return nil
}

// Text is a file containing only the version, such as VERSION.
type Text struct {
	path string
}

func (t *Text) Path() string { return t.path }

func (t *Text) Version() (version.Version, error) {
	data, err := read(t.path)
	if err != nil {
		return version.Version{}, err
	}
	return version.Parse(strings.TrimSpace(string(data)))
}

func (t *Text) SetVersion(v version.Version) error {
	return write(t.path, []byte(v.String()+"\n"))
}

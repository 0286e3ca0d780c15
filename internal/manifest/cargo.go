package manifest

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/rohankatakam/semrel/internal/errors"
	"github.com/rohankatakam/semrel/internal/version"
)

// Cargo is a Rust crate manifest.
type Cargo struct {
	path string
}

type cargoFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
}

// NewCargo returns the Cargo manifest at path.
func NewCargo(path string) *Cargo {
	return &Cargo{path: path}
}

var cargoVersionLine = regexp.MustCompile(`^(\s*version\s*=\s*)"[^"]*"(.*)$`)

func (c *Cargo) Path() string { return c.path }

// Name returns the crate name.
func (c *Cargo) Name() (string, error) {
	f, err := c.load()
	if err != nil {
		return "", err
	}
	return f.Package.Name, nil
}

func (c *Cargo) load() (*cargoFile, error) {
	data, err := read(c.path)
	if err != nil {
		return nil, err
	}
	var f cargoFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.ValidationErrorf("invalid %s: %v", c.path, err)
	}
	return &f, nil
}

func (c *Cargo) Version() (version.Version, error) {
	f, err := c.load()
	if err != nil {
		return version.Version{}, err
	}
	if f.Package.Version == "" {
		return version.Version{}, errors.ValidationErrorf("%s has no package.version", c.path)
	}
	return version.Parse(f.Package.Version)
}

// SetVersion rewrites the version line of the [package] table in place so
// comments and ordering survive.
func (c *Cargo) SetVersion(v version.Version) error {
	data, err := read(c.path)
	if err != nil {
		return err
	}

	var (
		out      bytes.Buffer
		table    string
		replaced bool
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "[") {
			table = strings.Trim(trimmed, "[] ")
		}
		if table == "package" && !replaced {
			if m := cargoVersionLine.FindStringSubmatch(line); m != nil {
				line = m[1] + `"` + v.String() + `"` + m[2]
				replaced = true
			}
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return errors.FileSystemErrorf(err, "failed to read manifest %s", c.path)
	}
	if !replaced {
		return errors.ValidationErrorf("%s has no package.version", c.path)
	}

	// keep a missing trailing newline missing
	result := out.Bytes()
	if !bytes.HasSuffix(data, []byte("\n")) {
		result = bytes.TrimSuffix(result, []byte("\n"))
	}
	return write(c.path, result)
}

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/semrel/internal/errors"
	"github.com/rohankatakam/semrel/internal/version"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestInfer(t *testing.T) {
	assert.Equal(t, FormatCargo, Infer("Cargo.toml"))
	assert.Equal(t, FormatCargo, Infer("crates/core/Cargo.toml"))
	assert.Equal(t, FormatYAML, Infer("charts/app/Chart.yaml"))
	assert.Equal(t, FormatYAML, Infer("pubspec.yml"))
	assert.Equal(t, FormatText, Infer("VERSION"))
}

func TestOpenUnknownFormat(t *testing.T) {
	_, err := Open("x", "ini", "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfig, errors.GetType(err))
}

const cargoToml = `# crate manifest
[package]
name = "widget"
version = "0.3.1" # bumped on release
edition = "2021"

[dependencies]
serde = { version = "1.0", features = ["derive"] }

[dev-dependencies.tokio]
version = "1.28.0"
`

func TestCargo(t *testing.T) {
	path := writeFile(t, "Cargo.toml", cargoToml)

	m, err := Open(path, "", "")
	require.NoError(t, err)

	v, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, "0.3.1", v.String())

	name, err := m.(*Cargo).Name()
	require.NoError(t, err)
	assert.Equal(t, "widget", name)

	require.NoError(t, m.SetVersion(version.MustParse("0.4.0")))

	want := `# crate manifest
[package]
name = "widget"
version = "0.4.0" # bumped on release
edition = "2021"

[dependencies]
serde = { version = "1.0", features = ["derive"] }

[dev-dependencies.tokio]
version = "1.28.0"
`
	assert.Equal(t, want, readFile(t, path))

	v, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, "0.4.0", v.String())
}

func TestCargoWithoutVersion(t *testing.T) {
	path := writeFile(t, "Cargo.toml", "[workspace]\nmembers = [\"a\"]\n")
	m, err := Open(path, FormatCargo, "")
	require.NoError(t, err)

	_, err = m.Version()
	require.Error(t, err)
	require.Error(t, m.SetVersion(version.MustParse("1.0.0")))
}

func TestCargoMissingFile(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), "Cargo.toml"), "", "")
	require.NoError(t, err)
	_, err = m.Version()
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeFileSystem, errors.GetType(err))
}

func TestYAML(t *testing.T) {
	path := writeFile(t, "Chart.yaml", `apiVersion: v2
name: widget
# chart version
version: 1.4.2
appVersion: "1.4.2"
dependencies:
  - name: redis
    version: 17.0.0
`)

	m, err := Open(path, "", "")
	require.NoError(t, err)

	v, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", v.String())

	require.NoError(t, m.SetVersion(version.MustParse("1.5.0")))
	out := readFile(t, path)
	assert.Contains(t, out, "# chart version\nversion: 1.5.0\n")
	assert.Contains(t, out, `appVersion: "1.4.2"`)
	assert.Contains(t, out, "    version: 17.0.0")
}

func TestYAMLNestedKey(t *testing.T) {
	path := writeFile(t, "release.yaml", "project:\n  name: widget\n  version: \"2.0.0\"\n")

	m, err := Open(path, FormatYAML, "project.version")
	require.NoError(t, err)

	require.NoError(t, m.SetVersion(version.MustParse("2.1.0")))
	assert.Equal(t, "project:\n  name: widget\n  version: \"2.1.0\"\n", readFile(t, path))

	missing, err := Open(path, FormatYAML, "project.release")
	require.NoError(t, err)
	_, err = missing.Version()
	require.Error(t, err)
}

func TestText(t *testing.T) {
	path := writeFile(t, "VERSION", "0.9.0\n")

	m, err := Open(path, "", "")
	require.NoError(t, err)

	v, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, "0.9.0", v.String())

	require.NoError(t, m.SetVersion(version.MustParse("1.0.0")))
	assert.Equal(t, "1.0.0\n", readFile(t, path))
}

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(Config{Console: &buf})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	l.WithField("version", "1.2.0").Info("new version")
	l.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "new version", entry["msg"])
	assert.Equal(t, "1.2.0", entry["version"])
}

func TestNewLoggerVerbose(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(Config{Console: &buf, Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "semrel.log")
	var buf bytes.Buffer

	l, err := NewLogger(Config{Console: &buf, OutputFile: path})
	require.NoError(t, err)
	l.Info("to both")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, buf.String(), "to both")
	assert.Equal(t, path, l.FilePath())
}

func TestRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semrel.log")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 64), 0644))

	l, err := NewLogger(Config{Console: &bytes.Buffer{}, OutputFile: path, MaxSize: 32})
	require.NoError(t, err)
	defer l.Close()

	rotated, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, rotated, 64)
}

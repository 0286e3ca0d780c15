// Package output renders the outcome of a release run for the terminal or for
// scripts driving the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rohankatakam/semrel/internal/pipeline"
)

// Formatter defines output formatting interface
type Formatter interface {
	Format(result *pipeline.Result, w io.Writer) error
}

// VerbosityLevel determines output detail
type VerbosityLevel int

const (
	VerbosityQuiet    VerbosityLevel = iota // next version only
	VerbosityStandard                       // summary and release notes
	VerbosityJSON                           // machine-readable
)

// NewFormatter creates appropriate formatter based on level
func NewFormatter(level VerbosityLevel) Formatter {
	switch level {
	case VerbosityQuiet:
		return &QuietFormatter{}
	case VerbosityJSON:
		return &JSONFormatter{}
	default:
		return &StandardFormatter{}
	}
}

// ParseVerbosity maps the --output flag to a level.
func ParseVerbosity(s string) (VerbosityLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet", "version":
		return VerbosityQuiet, nil
	case "", "standard", "text":
		return VerbosityStandard, nil
	case "json":
		return VerbosityJSON, nil
	}
	return VerbosityStandard, fmt.Errorf("unknown output format %q (quiet, standard, json)", s)
}

// GetDefaultVerbosity returns appropriate default based on environment
func GetDefaultVerbosity() VerbosityLevel {
	if v, err := ParseVerbosity(os.Getenv("SEMREL_OUTPUT")); err == nil {
		return v
	}
	return VerbosityStandard
}

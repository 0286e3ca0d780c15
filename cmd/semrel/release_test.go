package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/semrel/internal/config"
)

func TestReleaseFlagDefaultsToYes(t *testing.T) {
	f := rootCmd.Flags().Lookup("release")
	require.NotNil(t, f)
	assert.Equal(t, "yes", f.DefValue)
	assert.True(t, config.ParseReleaseSwitch(f.DefValue))
}

func TestWriteFlagDefaultsToDryRun(t *testing.T) {
	f := rootCmd.Flags().Lookup("write")
	require.NotNil(t, f)
	assert.Equal(t, "false", f.DefValue)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringManager_SetGetDelete(t *testing.T) {
	keyring.MockInit()
	logger, _ := test.NewNullLogger()
	km := NewKeyringManager(logger)

	require.True(t, km.IsAvailable())

	v, err := km.Get(KeyringGitHubTokenItem)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, km.Set(KeyringGitHubTokenItem, "ghp_test123456789"))
	v, err = km.Get(KeyringGitHubTokenItem)
	require.NoError(t, err)
	assert.Equal(t, "ghp_test123456789", v)

	require.NoError(t, km.Delete(KeyringGitHubTokenItem))
	require.NoError(t, km.Delete(KeyringGitHubTokenItem))
	v, _ = km.Get(KeyringGitHubTokenItem)
	assert.Empty(t, v)

	assert.Error(t, km.Set(KeyringRegistryTokenItem, ""))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "(not set)", MaskToken(""))
	assert.Equal(t, "***", MaskToken("short"))
	assert.Equal(t, "ghp_...wxyz", MaskToken("ghp_abcdefghwxyz"))
}

func clearCredentialEnv(t *testing.T) {
	for _, c := range []Credential{GitHubToken, RegistryToken, TravisToken} {
		for _, e := range c.EnvVars {
			t.Setenv(e, "")
		}
	}
}

func TestCredentialManager_Priority(t *testing.T) {
	keyring.MockInit()
	clearCredentialEnv(t)
	t.Setenv("SEMREL_MODE", "local")
	logger, _ := test.NewNullLogger()

	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("github_token: from-file\nregistry_token: reg-file\n"), 0600))
	cm := NewCredentialManager(path, logger)

	v, err := cm.Get(GitHubToken)
	require.NoError(t, err)
	assert.Equal(t, "from-file", v)

	require.NoError(t, keyring.Set(KeyringService, KeyringGitHubTokenItem, "from-keychain"))
	v, _ = cm.Get(GitHubToken)
	assert.Equal(t, "from-keychain", v)

	t.Setenv("GITHUB_TOKEN", "from-env")
	v, _ = cm.Get(GitHubToken)
	assert.Equal(t, "from-env", v)

	t.Setenv("GH_TOKEN", "gh-first")
	v, _ = cm.Get(GitHubToken)
	assert.Equal(t, "gh-first", v)

	v, _ = cm.Get(RegistryToken)
	assert.Equal(t, "reg-file", v)

	v, err = cm.Get(TravisToken)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestCredentialManager_MissingFile(t *testing.T) {
	keyring.MockInit()
	clearCredentialEnv(t)
	logger, _ := test.NewNullLogger()

	cm := NewCredentialManager(filepath.Join(t.TempDir(), "none.yaml"), logger)
	v, err := cm.Get(RegistryToken)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestCredentialManager_SaveToKeychain(t *testing.T) {
	keyring.MockInit()
	clearCredentialEnv(t)
	t.Setenv("SEMREL_MODE", "local")
	logger, _ := test.NewNullLogger()

	cm := NewCredentialManager(filepath.Join(t.TempDir(), "credentials.yaml"), logger)
	where, err := cm.Save(RegistryToken, "crates-io-token")
	require.NoError(t, err)
	assert.Equal(t, "keychain", where)

	v, _ := cm.Get(RegistryToken)
	assert.Equal(t, "crates-io-token", v)
}

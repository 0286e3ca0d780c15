package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/semrel/internal/errors"
)

// Credential describes where one secret may come from.
type Credential struct {
	Name        string
	EnvVars     []string
	KeyringItem string
}

var (
	GitHubToken = Credential{
		Name:        "GitHub token",
		EnvVars:     []string{"GH_TOKEN", "GITHUB_TOKEN"},
		KeyringItem: KeyringGitHubTokenItem,
	}
	RegistryToken = Credential{
		Name:        "registry token",
		EnvVars:     []string{"CARGO_TOKEN", "SEMREL_REGISTRY_TOKEN"},
		KeyringItem: KeyringRegistryTokenItem,
	}
	TravisToken = Credential{
		Name:        "Travis CI token",
		EnvVars:     []string{"TRAVIS_API_TOKEN", "SEMREL_TRAVIS_TOKEN"},
		KeyringItem: KeyringTravisTokenItem,
	}
)

// Credentials is the layout of the credentials file
type Credentials struct {
	GitHubToken   string `yaml:"github_token,omitempty"`
	RegistryToken string `yaml:"registry_token,omitempty"`
	TravisToken   string `yaml:"travis_token,omitempty"`
}

func (c *Credentials) field(item string) *string {
	switch item {
	case KeyringGitHubTokenItem:
		return &c.GitHubToken
	case KeyringRegistryTokenItem:
		return &c.RegistryToken
	case KeyringTravisTokenItem:
		return &c.TravisToken
	}
	return nil
}

// CredentialManager handles credential retrieval with priority chain
// Priority: Environment Variables → Keychain → Credentials File
type CredentialManager struct {
	mode       DeploymentMode
	keyring    *KeyringManager
	configPath string
}

// DefaultCredentialsPath is ~/.config/semrel/credentials.yaml
func DefaultCredentialsPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "semrel", "credentials.yaml")
}

// NewCredentialManager creates a new credential manager. An empty path uses
// DefaultCredentialsPath.
func NewCredentialManager(path string, logger logrus.FieldLogger) *CredentialManager {
	if path == "" {
		path = DefaultCredentialsPath()
	}
	return &CredentialManager{
		mode:       DetectMode(),
		keyring:    NewKeyringManager(logger),
		configPath: path,
	}
}

// Get resolves a credential. A credential found nowhere yields "" and no
// error; callers decide whether it is required.
func (cm *CredentialManager) Get(c Credential) (string, error) {
	// 1. Environment variable (highest priority)
	for _, envVar := range c.EnvVars {
		if v := os.Getenv(envVar); v != "" {
			return v, nil
		}
	}

	// 2. Keychain, skipped in CI where no keychain exists
	if cm.mode != ModeCI && cm.keyring.IsAvailable() {
		if v, err := cm.keyring.Get(c.KeyringItem); err == nil && v != "" {
			return v, nil
		}
	}

	// 3. Credentials file
	creds, err := cm.loadConfigFile()
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityMedium,
			fmt.Sprintf("failed to read %s", cm.configPath))
	}
	if f := creds.field(c.KeyringItem); f != nil {
		return *f, nil
	}
	return "", nil
}

// Save stores a credential in the keychain, or in the credentials file when no
// keychain is available. It returns where the secret went.
func (cm *CredentialManager) Save(c Credential, secret string) (string, error) {
	if cm.keyring.IsAvailable() {
		if err := cm.keyring.Set(c.KeyringItem, secret); err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				fmt.Sprintf("failed to save %s to keychain", c.Name))
		}
		return "keychain", nil
	}

	creds, err := cm.loadConfigFile()
	if err != nil {
		if !os.IsNotExist(err) {
			return "", errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				fmt.Sprintf("failed to read %s", cm.configPath))
		}
		creds = &Credentials{}
	}
	f := creds.field(c.KeyringItem)
	if f == nil {
		return "", errors.InternalErrorf("unknown credential %s", c.KeyringItem)
	}
	*f = secret
	if err := cm.saveConfigFile(creds); err != nil {
		return "", errors.FileSystemErrorf(err, "failed to write %s", cm.configPath)
	}
	return cm.configPath, nil
}

// loadConfigFile loads credentials from config file
func (cm *CredentialManager) loadConfigFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	return &creds, nil
}

// saveConfigFile saves credentials to config file
func (cm *CredentialManager) saveConfigFile(creds *Credentials) error {
	dir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	// user-only read/write
	return os.WriteFile(cm.configPath, data, 0600)
}

// GetMode returns the current deployment mode
func (cm *CredentialManager) GetMode() DeploymentMode {
	return cm.mode
}

// GetConfigPath returns the path to the credentials file
func (cm *CredentialManager) GetConfigPath() string {
	return cm.configPath
}

// ReadSecret reads a token from in without echoing when in is a terminal.
func ReadSecret(in *os.File, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	if term.IsTerminal(int(in.Fd())) {
		bytes, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out) // New line after password input
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	// Fallback: piped input
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

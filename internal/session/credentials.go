package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// CredentialStore persists the single credential string. Written on login
// success, removed on logout or a 401 signal.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// credentialFile is the on-disk shape of the persisted credential.
type credentialFile struct {
	Token string `yaml:"token"`
}

// FileCredentials stores the credential in a YAML file under the user's
// config directory.
type FileCredentials struct {
	path string
}

// DefaultCredentialsPath is where the TUI and CLI share the session token.
func DefaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".noodlemap-credentials.yaml"
	}
	return filepath.Join(home, ".noodlemap", "credentials.yaml")
}

// NewFileCredentials creates a file-backed credential store at path.
func NewFileCredentials(path string) *FileCredentials {
	return &FileCredentials{path: path}
}

// Load reads the persisted token. A missing file means no session.
func (f *FileCredentials) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}

	var file credentialFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("failed to parse credentials: %w", err)
	}

	return file.Token, nil
}

// Save writes the token, creating the config directory if needed.
func (f *FileCredentials) Save(token string) error {
	data, err := yaml.Marshal(credentialFile{Token: token})
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	return nil
}

// Clear removes the credential file.
func (f *FileCredentials) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// MemoryCredentials keeps the credential in memory. Tests substitute it for
// the file-backed store.
type MemoryCredentials struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryCredentials) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryCredentials) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryCredentials) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

package dbconn

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

const keyringService = "db-hub"

// ErrSecretNotFound is returned when no password is stored for a profile.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore keeps connection passwords outside the profile database.
type SecretStore interface {
	Save(profile, password string) error
	Load(profile string) (string, error)
	Delete(profile string) error
}

// KeyringStore stores passwords in the OS credential manager.
type KeyringStore struct{}

func (KeyringStore) Save(profile, password string) error {
	return keyring.Set(keyringService, profile, password)
}

func (KeyringStore) Load(profile string) (string, error) {
	pw, err := keyring.Get(keyringService, profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	return pw, err
}

func (KeyringStore) Delete(profile string) error {
	err := keyring.Delete(keyringService, profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// MemoryStore is a process-local SecretStore for headless hosts without a
// credential manager.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]string)}
}

func (m *MemoryStore) Save(profile, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[profile] = password
	return nil
}

func (m *MemoryStore) Load(profile string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pw, ok := m.secrets[profile]
	if !ok {
		return "", ErrSecretNotFound
	}
	return pw, nil
}

func (m *MemoryStore) Delete(profile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, profile)
	return nil
}

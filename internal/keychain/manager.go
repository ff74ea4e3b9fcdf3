// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain stores the lakechat API token in the OS credential store.
//
// On macOS the native security command is preferred, falling back to the
// keyring library; elsewhere the keyring library picks among Windows
// Credential Manager, Secret Service, KWallet and pass.
package keychain

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "lakechat"

// KeyAPIToken is the keychain entry holding the API token.
const KeyAPIToken = "api_token"

// EnvAPIToken overrides the stored token when set.
const EnvAPIToken = "LAKECHAT_API_TOKEN"

// ErrNoToken is returned when no token is stored.
var ErrNoToken = errors.New("no API token stored")

var (
	globalManager *Manager
	mu            sync.Mutex
)

// secretStore is the minimal set of operations a credential backend offers.
type secretStore interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Manager provides thread-safe access to the stored API token.
type Manager struct {
	mu    sync.RWMutex
	store secretStore
}

// NewManager opens the platform credential store.
func NewManager() (*Manager, error) {
	if runtime.GOOS == "darwin" {
		if backend, err := newSecurityBackend(); err == nil {
			return &Manager{store: backend}, nil
		}
	}
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return newManagerWithRing(ring), nil
}

func newManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{store: ringStore{ring: ring}}
}

// GetManager returns the process-wide manager, opening it on first use.
// A failed open is retried on the next call.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalManager != nil {
		return globalManager, nil
	}
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return m, nil
}

func openRing() (keyring.Keyring, error) {
	var backends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		backends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		backends = []keyring.BackendType{keyring.WinCredBackend}
	default:
		backends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: backends,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
		KWalletAppID:    ServiceName,
		KWalletFolder:   ServiceName,
	})
	if err != nil {
		return nil, errors.New("no secure credential store available; set " + EnvAPIToken + " instead")
	}
	return ring, nil
}

// SaveToken stores the API token.
func (m *Manager) SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty API token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Set(KeyAPIToken, token)
}

// LoadToken returns the stored API token or ErrNoToken.
func (m *Manager) LoadToken() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, err := m.store.Get(KeyAPIToken)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, errNotFound) {
			return "", ErrNoToken
		}
		return "", err
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// ClearToken removes the stored API token. Clearing a missing token is not
// an error.
func (m *Manager) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.store.Delete(KeyAPIToken)
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, errNotFound) {
		return nil
	}
	return err
}

// ResolveToken returns the token from EnvAPIToken, else from the keychain.
// A missing token yields "" without error; requests are then sent
// unauthenticated.
func ResolveToken() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIToken)); v != "" {
		return v, nil
	}
	m, err := GetManager()
	if err != nil {
		return "", nil
	}
	token, err := m.LoadToken()
	if errors.Is(err, ErrNoToken) {
		return "", nil
	}
	return token, err
}

// ringStore adapts keyring.Keyring to secretStore.
type ringStore struct {
	ring keyring.Keyring
}

func (r ringStore) Set(key, value string) error {
	return r.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName})
}

func (r ringStore) Get(key string) (string, error) {
	it, err := r.ring.Get(key)
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

func (r ringStore) Delete(key string) error {
	return r.ring.Remove(key)
}

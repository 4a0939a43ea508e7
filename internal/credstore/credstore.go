// Package credstore stores per-host API tokens in the OS keyring, falling
// back to an encrypted file keyring on headless systems.
package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName = "courier"

	envKeyringBackend  = "COURIER_KEYRING_BACKEND"
	envKeyringPassword = "COURIER_KEYRING_PASSWORD"
	envCredentialsDir  = "COURIER_CREDENTIALS_DIR"

	keyringBackendAuto   = "auto"
	keyringBackendFile   = "file"
	keyringBackendSystem = "system"
)

// ErrNotFound is returned when no token is stored for the host.
var ErrNotFound = errors.New("no token stored for host")

// openKeyring can be replaced in tests to use an in-memory keyring.
var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

// SetOpenKeyring replaces the keyring opener for testing. The returned
// function restores the original.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

// SaveToken stores the API token for a host.
func SaveToken(host, token string) error {
	ring, err := open()
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{Key: hostKey(host), Data: []byte(token)}); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// LoadToken retrieves the API token stored for a host. Returns ErrNotFound
// when nothing is stored.
func LoadToken(host string) (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(hostKey(host))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return string(item.Data), nil
}

// DeleteToken removes the stored API token for a host. Deleting a host with
// no stored token is not an error.
func DeleteToken(host string) error {
	ring, err := open()
	if err != nil {
		return err
	}
	if err := ring.Remove(hostKey(host)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

func hostKey(host string) string {
	return "token:" + strings.TrimRight(strings.TrimSpace(host), "/")
}

func open() (keyring.Keyring, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

func keyringConfig() keyring.Config {
	cfg := keyring.Config{ServiceName: serviceName}

	backend := keyringBackendMode()
	if backend == keyringBackendSystem {
		return cfg
	}

	// File backend details are always configured in auto mode so keyring.Open
	// can fall through to encrypted file storage when native backends are
	// missing.
	cfg.FileDir = keyringFileDir()
	cfg.FilePasswordFunc = keyringFilePassword

	if shouldForceFileBackend(runtime.GOOS, backend, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}

	return cfg
}

func keyringBackendMode() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKeyringBackend))) {
	case keyringBackendFile:
		return keyringBackendFile
	case keyringBackendSystem, "os", "native":
		return keyringBackendSystem
	default:
		return keyringBackendAuto
	}
}

// Headless Linux bypasses native backends and uses encrypted file storage.
func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	if backend == keyringBackendFile {
		return true
	}
	if backend != keyringBackendAuto {
		return false
	}
	return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

func keyringFileDir() string {
	base := strings.TrimSpace(os.Getenv(envCredentialsDir))
	if base == "" {
		if dir, err := os.UserConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
			base = filepath.Join(dir, serviceName)
		}
	}
	if base == "" {
		base = filepath.Join(os.TempDir(), serviceName)
	}
	return filepath.Join(base, "keyring")
}

func keyringFilePassword(prompt string) (string, error) {
	if password := os.Getenv(envKeyringPassword); strings.TrimSpace(password) != "" {
		return password, nil
	}
	info, err := os.Stdin.Stat()
	if err != nil || (info.Mode()&os.ModeCharDevice) == 0 {
		return "", fmt.Errorf("set %s when using the file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}

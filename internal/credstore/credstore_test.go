package credstore

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func useArrayKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
}

func TestSaveAndLoadToken(t *testing.T) {
	useArrayKeyring(t)

	if err := SaveToken("https://api.example.com", "secret-token"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	token, err := LoadToken("https://api.example.com")
	if err != nil {
		t.Fatalf("LoadToken: %v", err)
	}
	if token != "secret-token" {
		t.Errorf("expected secret-token, got %q", token)
	}

	// Trailing slashes normalize to the same host key.
	token, err = LoadToken("https://api.example.com/")
	if err != nil {
		t.Fatalf("LoadToken with trailing slash: %v", err)
	}
	if token != "secret-token" {
		t.Errorf("expected secret-token, got %q", token)
	}
}

func TestLoadTokenNotFound(t *testing.T) {
	useArrayKeyring(t)

	_, err := LoadToken("https://unknown.example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteToken(t *testing.T) {
	useArrayKeyring(t)

	if err := SaveToken("https://api.example.com", "secret"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := DeleteToken("https://api.example.com"); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if _, err := LoadToken("https://api.example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op.
	if err := DeleteToken("https://api.example.com"); err != nil {
		t.Errorf("expected nil on repeated delete, got %v", err)
	}
}

func TestShouldForceFileBackend(t *testing.T) {
	tests := []struct {
		goos     string
		backend  string
		dbusAddr string
		want     bool
	}{
		{"linux", keyringBackendAuto, "", true},
		{"linux", keyringBackendAuto, "unix:path=/run/user/1000/bus", false},
		{"darwin", keyringBackendAuto, "", false},
		{"darwin", keyringBackendFile, "", true},
		{"linux", keyringBackendSystem, "", false},
	}
	for _, tt := range tests {
		got := shouldForceFileBackend(tt.goos, tt.backend, tt.dbusAddr)
		if got != tt.want {
			t.Errorf("shouldForceFileBackend(%q, %q, %q) = %v, want %v",
				tt.goos, tt.backend, tt.dbusAddr, got, tt.want)
		}
	}
}

// Package config stores DoneDone credentials as named profiles in the OS
// keyring and resolves the active account.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName       = "donedone-cli"
	defaultProfile    = "default"
	profilePrefix     = "profile:"
	profileIndexKey   = "profiles_index"
	currentProfileKey = "current_profile"

	envKeyringBackend  = "DONEDONE_KEYRING_BACKEND"
	envKeyringPassword = "DONEDONE_KEYRING_PASSWORD"
	envCredentialsDir  = "DONEDONE_CREDENTIALS_DIR"

	keyringBackendAuto   = "auto"
	keyringBackendFile   = "file"
	keyringBackendSystem = "system"
)

var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

var userConfigDir = os.UserConfigDir

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// SetOpenKeyring replaces the keyring opener, for tests. The returned
// function restores the previous opener.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

// ErrNotConfigured is returned when no credentials are stored or set in the
// environment.
var ErrNotConfigured = errors.New("donedone not configured - run 'donedone auth login' first")

// ErrProfileNotFound is returned when a named profile does not exist.
var ErrProfileNotFound = errors.New("profile not found")

func keyringConfig() keyring.Config {
	cfg := keyring.Config{ServiceName: serviceName}

	backend := keyringBackendMode()
	if backend == keyringBackendSystem {
		return cfg
	}

	// Auto mode still needs file details so keyring.Open can fall back to
	// encrypted file storage.
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

// shouldForceFileBackend is true for an explicit file backend and for
// headless Linux, where the secret service is unreachable without D-Bus.
func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	switch backend {
	case keyringBackendFile:
		return true
	case keyringBackendAuto:
		return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
	default:
		return false
	}
}

func keyringFileDir() string {
	if dir := strings.TrimSpace(os.Getenv(envCredentialsDir)); dir != "" {
		return filepath.Join(dir, "keyring")
	}
	return filepath.Join(configDir(), "keyring")
}

// configDir is the per-user directory for this CLI's files.
func configDir() string {
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, serviceName)
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, ".config", serviceName)
	}
	return filepath.Join(os.TempDir(), serviceName)
}

func keyringFilePassword(prompt string) (string, error) {
	if password, ok := os.LookupEnv(envKeyringPassword); ok && strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using the file keyring non-interactively", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}

func open() (keyring.Keyring, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

func profileKey(name string) string {
	return profilePrefix + normalizeProfile(name)
}

func normalizeProfile(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultProfile
	}
	return name
}

func loadProfileIndex(ring keyring.Keyring) ([]string, error) {
	item, err := ring.Get(profileIndexKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile index: %w", err)
	}
	var profiles []string
	if err := json.Unmarshal(item.Data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profile index: %w", err)
	}
	return profiles, nil
}

func saveProfileIndex(ring keyring.Keyring, profiles []string) error {
	data, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("failed to encode profile index: %w", err)
	}
	return ring.Set(keyring.Item{Key: profileIndexKey, Data: data})
}

// SaveProfile validates and stores an account under name, adds it to the
// profile index and makes it the current profile.
func SaveProfile(name string, account Account) error {
	account = account.Normalize()
	if err := account.Validate(); err != nil {
		return err
	}
	name = normalizeProfile(name)

	ring, err := open()
	if err != nil {
		return err
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}
	if err := ring.Set(keyring.Item{
		Key:   profileKey(name),
		Data:  data,
		Label: serviceName + " " + name,
	}); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	if !slices.Contains(profiles, name) {
		profiles = append(profiles, name)
	}
	if err := saveProfileIndex(ring, profiles); err != nil {
		return err
	}
	return setCurrent(ring, name)
}

// LoadProfile returns the account stored under name.
func LoadProfile(name string) (Account, error) {
	name = normalizeProfile(name)

	ring, err := open()
	if err != nil {
		return Account{}, err
	}

	item, err := ring.Get(profileKey(name))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		if name == defaultProfile {
			return Account{}, ErrNotConfigured
		}
		return Account{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to read profile: %w", err)
	}

	var account Account
	if err := json.Unmarshal(item.Data, &account); err != nil {
		return Account{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return account.Normalize(), nil
}

// DeleteProfile removes a profile. When it was current, the first remaining
// profile becomes current.
func DeleteProfile(name string) error {
	name = normalizeProfile(name)

	ring, err := open()
	if err != nil {
		return err
	}

	if err := ring.Remove(profileKey(name)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove profile: %w", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(profiles, func(p string) bool { return p == name })
	if err := saveProfileIndex(ring, remaining); err != nil {
		return err
	}

	current, err := currentProfile(ring)
	if err != nil || current != name {
		return nil
	}
	next := defaultProfile
	if len(remaining) > 0 {
		next = remaining[0]
	}
	return setCurrent(ring, next)
}

// ListProfiles returns the stored profile names in creation order.
func ListProfiles() ([]string, error) {
	ring, err := open()
	if err != nil {
		return nil, err
	}
	return loadProfileIndex(ring)
}

// CurrentProfile returns the active profile name.
func CurrentProfile() (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}
	return currentProfile(ring)
}

func currentProfile(ring keyring.Keyring) (string, error) {
	item, err := ring.Get(currentProfileKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return defaultProfile, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read current profile: %w", err)
	}
	return string(item.Data), nil
}

// UseProfile makes an existing profile current.
func UseProfile(name string) error {
	name = normalizeProfile(name)

	ring, err := open()
	if err != nil {
		return err
	}
	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	if !slices.Contains(profiles, name) {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return setCurrent(ring, name)
}

func setCurrent(ring keyring.Keyring, name string) error {
	return ring.Set(keyring.Item{Key: currentProfileKey, Data: []byte(name)})
}

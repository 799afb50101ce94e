package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccount = Account{Subdomain: "acme", Username: "alice", Secret: "tok-123456"}

func withMockKeyring(t *testing.T) *keyring.ArrayKeyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	t.Cleanup(SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	}))
	return ring
}

func withFailingKeyring(t *testing.T, err error) {
	t.Helper()
	t.Cleanup(SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return nil, err
	}))
}

// clearEnv blanks every variable the resolver reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvSubdomain, EnvUsername, EnvSecret, EnvAPIToken, EnvPassword,
		EnvSigningToken, EnvProfile, EnvBaseURL,
	} {
		t.Setenv(key, "")
	}
}

func TestAccountValidate(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		wantErr string
	}{
		{"valid", testAccount, ""},
		{"valid with signing", Account{Subdomain: "my-team", Username: "u", Secret: "pw", SigningToken: "s"}, ""},
		{"missing subdomain", Account{Username: "u", Secret: "s"}, "subdomain"},
		{"subdomain with dot", Account{Subdomain: "acme.mydonedone.com", Username: "u", Secret: "s"}, "subdomain"},
		{"uppercase subdomain", Account{Subdomain: "Acme", Username: "u", Secret: "s"}, ""},
		{"missing username", Account{Subdomain: "acme", Secret: "s"}, "username"},
		{"missing secret", Account{Subdomain: "acme", Username: "u"}, "secret"},
		{"bad base url", Account{Subdomain: "acme", Username: "u", Secret: "s", BaseURL: "not a url"}, "base_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAccountClient(t *testing.T) {
	c := testAccount.Client()
	assert.Equal(t, "https://acme.mydonedone.com/IssueTracker/API/", c.BaseURL)
	assert.False(t, c.Credentials().Signing())

	signed := Account{Subdomain: "acme", Username: "u", Secret: "pw", SigningToken: "tok", BaseURL: "http://localhost:9999/api/"}
	c = signed.Client()
	assert.True(t, c.Credentials().Signing())
	assert.Equal(t, "http://localhost:9999/api/", c.BaseURL)
}

func TestAccountRedacted(t *testing.T) {
	r := Account{Subdomain: "acme", Username: "u", Secret: "abcdefgh", SigningToken: "xy"}.Redacted()
	assert.Equal(t, "****efgh", r.Secret)
	assert.Equal(t, "****", r.SigningToken)
	assert.Equal(t, "", Account{}.Redacted().Secret)
}

func TestAccountNormalize(t *testing.T) {
	got := Account{Subdomain: " Acme ", Username: " ana ", Secret: " pw ", BaseURL: " http://x "}.Normalize()
	assert.Equal(t, Account{Subdomain: "acme", Username: "ana", Secret: " pw ", BaseURL: "http://x"}, got)
}

func TestSaveProfile_LowercasesSubdomain(t *testing.T) {
	withMockKeyring(t)

	require.NoError(t, SaveProfile("default", Account{Subdomain: "ACME", Username: "ana", Secret: "pw"}))
	got, err := LoadProfile("default")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Subdomain)
}

func TestSaveAndLoadProfile(t *testing.T) {
	withMockKeyring(t)

	require.NoError(t, SaveProfile("", testAccount))
	require.NoError(t, SaveProfile("work", Account{Subdomain: "work", Username: "bob", Secret: "pw"}))

	got, err := LoadProfile("default")
	require.NoError(t, err)
	assert.Equal(t, testAccount, got)

	profiles, err := ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "work"}, profiles)

	current, err := CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "work", current)

	// Saving again does not duplicate the index entry.
	require.NoError(t, SaveProfile("work", Account{Subdomain: "work", Username: "bob", Secret: "pw2"}))
	profiles, _ = ListProfiles()
	assert.Equal(t, []string{"default", "work"}, profiles)
}

func TestSaveProfile_RejectsInvalid(t *testing.T) {
	ring := withMockKeyring(t)

	err := SaveProfile("bad", Account{Subdomain: "acme"})
	require.Error(t, err)

	keys, _ := ring.Keys()
	assert.Empty(t, keys, "nothing is stored for an invalid account")
}

func TestLoadProfile_Missing(t *testing.T) {
	withMockKeyring(t)

	_, err := LoadProfile("")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = LoadProfile("nope")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestLoadProfile_Corrupt(t *testing.T) {
	ring := withMockKeyring(t)
	require.NoError(t, ring.Set(keyring.Item{Key: profileKey("x"), Data: []byte("{not json")}))

	_, err := LoadProfile("x")
	assert.ErrorContains(t, err, "failed to decode profile")
}

func TestKeyringOpenFailure(t *testing.T) {
	boom := errors.New("locked")
	withFailingKeyring(t, boom)

	_, err := LoadProfile("default")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, SaveProfile("default", testAccount), boom)
	assert.ErrorIs(t, DeleteProfile("default"), boom)
	_, err = ListProfiles()
	assert.ErrorIs(t, err, boom)
	_, err = CurrentProfile()
	assert.ErrorIs(t, err, boom)
}

func TestDeleteProfile_SwitchesCurrent(t *testing.T) {
	withMockKeyring(t)
	require.NoError(t, SaveProfile("a", testAccount))
	require.NoError(t, SaveProfile("b", testAccount))

	require.NoError(t, DeleteProfile("b"))

	current, err := CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "a", current)

	profiles, _ := ListProfiles()
	assert.Equal(t, []string{"a"}, profiles)

	_, err = LoadProfile("b")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	require.NoError(t, DeleteProfile("a"))
	current, _ = CurrentProfile()
	assert.Equal(t, defaultProfile, current)
}

func TestUseProfile(t *testing.T) {
	withMockKeyring(t)
	require.NoError(t, SaveProfile("a", testAccount))
	require.NoError(t, SaveProfile("b", testAccount))

	require.NoError(t, UseProfile("a"))
	current, _ := CurrentProfile()
	assert.Equal(t, "a", current)

	assert.ErrorIs(t, UseProfile("missing"), ErrProfileNotFound)
}

func TestAccountFromEnv(t *testing.T) {
	clearEnv(t)

	_, ok, err := AccountFromEnv()
	assert.False(t, ok)
	assert.NoError(t, err)

	t.Setenv(EnvSubdomain, "acme")
	_, ok, err = AccountFromEnv()
	assert.True(t, ok)
	assert.Error(t, err, "partial env is an error")

	t.Setenv(EnvUsername, "alice")
	t.Setenv(EnvAPIToken, "token")
	t.Setenv(EnvSigningToken, "sig")
	account, ok, err := AccountFromEnv()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Account{Subdomain: "acme", Username: "alice", Secret: "token", SigningToken: "sig"}, account)

	t.Setenv(EnvSecret, "secret-wins")
	account, _, _ = AccountFromEnv()
	assert.Equal(t, "secret-wins", account.Secret)

	t.Setenv(EnvSubdomain, "Acme")
	account, _, err = AccountFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "acme", account.Subdomain)
}

func TestResolveAccount(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t)
	require.NoError(t, SaveProfile("default", testAccount))
	require.NoError(t, SaveProfile("work", Account{Subdomain: "work", Username: "bob", Secret: "pw"}))
	require.NoError(t, UseProfile("default"))

	r, err := ResolveAccount("")
	require.NoError(t, err)
	assert.Equal(t, "default", r.Profile)
	assert.Equal(t, SourceProfile, r.Source)

	r, err = ResolveAccount("work")
	require.NoError(t, err)
	assert.Equal(t, "bob", r.Account.Username)

	t.Setenv(EnvProfile, "work")
	r, err = ResolveAccount("")
	require.NoError(t, err)
	assert.Equal(t, "work", r.Profile)

	t.Setenv(EnvBaseURL, "http://127.0.0.1:8080/IssueTracker/API/")
	r, err = ResolveAccount("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/IssueTracker/API/", r.Account.BaseURL)

	t.Setenv(EnvSubdomain, "envco")
	t.Setenv(EnvUsername, "eve")
	t.Setenv(EnvPassword, "pw")
	r, err = ResolveAccount("work")
	require.NoError(t, err)
	assert.Equal(t, SourceEnv, r.Source)
	assert.Equal(t, "envco", r.Account.Subdomain)
}

func TestResolveAccount_NotConfigured(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t)

	_, err := ResolveAccount("")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DONEDONE_SUBDOMAIN=fromfile\nDONEDONE_USERNAME=filed\n"), 0o600))
	t.Setenv(EnvEnvFile, path)
	t.Setenv(EnvUsername, "preset")
	// Unset so the file can fill it in; t.Setenv above restores it afterwards.
	require.NoError(t, os.Unsetenv(EnvSubdomain))

	require.NoError(t, LoadEnvFile())
	assert.Equal(t, "fromfile", os.Getenv(EnvSubdomain))
	assert.Equal(t, "preset", os.Getenv(EnvUsername), "existing env wins")
}

func TestLoadEnvFile_Missing(t *testing.T) {
	t.Setenv(EnvEnvFile, filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, LoadEnvFile())

	t.Setenv(EnvEnvFile, "")
	prev := userConfigDir
	userConfigDir = func() (string, error) { return t.TempDir(), nil }
	t.Cleanup(func() { userConfigDir = prev })
	assert.NoError(t, LoadEnvFile(), "a missing default file is fine")
}

func TestKeyringConfig(t *testing.T) {
	t.Setenv(envKeyringBackend, "system")
	cfg := keyringConfig()
	assert.Equal(t, serviceName, cfg.ServiceName)
	assert.Empty(t, cfg.FileDir)

	t.Setenv(envKeyringBackend, "file")
	t.Setenv(envCredentialsDir, "/tmp/dd-creds")
	cfg = keyringConfig()
	assert.Equal(t, filepath.Join("/tmp/dd-creds", "keyring"), cfg.FileDir)
	assert.Equal(t, []keyring.BackendType{keyring.FileBackend}, cfg.AllowedBackends)
}

func TestShouldForceFileBackend(t *testing.T) {
	assert.True(t, shouldForceFileBackend("darwin", keyringBackendFile, ""))
	assert.True(t, shouldForceFileBackend("linux", keyringBackendAuto, ""))
	assert.False(t, shouldForceFileBackend("linux", keyringBackendAuto, "unix:path=/run/bus"))
	assert.False(t, shouldForceFileBackend("darwin", keyringBackendAuto, ""))
	assert.False(t, shouldForceFileBackend("linux", keyringBackendSystem, ""))
}

func TestKeyringBackendMode(t *testing.T) {
	for in, want := range map[string]string{
		"":       keyringBackendAuto,
		"auto":   keyringBackendAuto,
		"FILE":   keyringBackendFile,
		"native": keyringBackendSystem,
		"bogus":  keyringBackendAuto,
	} {
		t.Setenv(envKeyringBackend, in)
		assert.Equal(t, want, keyringBackendMode(), "input %q", in)
	}
}

func TestKeyringFilePassword(t *testing.T) {
	t.Setenv(envKeyringPassword, "hunter2")
	pw, err := keyringFilePassword("prompt")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)

	t.Setenv(envKeyringPassword, "")
	prev := stdinHasTTY
	stdinHasTTY = func() bool { return false }
	t.Cleanup(func() { stdinHasTTY = prev })
	_, err = keyringFilePassword("prompt")
	assert.ErrorContains(t, err, envKeyringPassword)
}

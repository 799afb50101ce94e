package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read when resolving the account.
const (
	EnvSubdomain    = "DONEDONE_SUBDOMAIN"
	EnvUsername     = "DONEDONE_USERNAME"
	EnvSecret       = "DONEDONE_SECRET"
	EnvAPIToken     = "DONEDONE_API_TOKEN"
	EnvPassword     = "DONEDONE_PASSWORD"
	EnvSigningToken = "DONEDONE_SIGNING_TOKEN"
	EnvProfile      = "DONEDONE_PROFILE"
	EnvBaseURL      = "DONEDONE_BASE_URL"
	EnvEnvFile      = "DONEDONE_ENV_FILE"
)

// Source says where a resolved account came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceProfile Source = "profile"
)

// Resolved is the account a command will use.
type Resolved struct {
	Account Account
	Profile string
	Source  Source
}

// AccountFromEnv reads credentials from the environment. ok is false when
// DONEDONE_SUBDOMAIN is unset; a partial set is an error.
func AccountFromEnv() (account Account, ok bool, err error) {
	subdomain := strings.TrimSpace(os.Getenv(EnvSubdomain))
	if subdomain == "" {
		return Account{}, false, nil
	}

	account = Account{
		Subdomain:    subdomain,
		Username:     os.Getenv(EnvUsername),
		Secret:       firstEnv(EnvSecret, EnvAPIToken, EnvPassword),
		SigningToken: os.Getenv(EnvSigningToken),
		BaseURL:      os.Getenv(EnvBaseURL),
	}.Normalize()
	if account.Username == "" || account.Secret == "" {
		return Account{}, true, fmt.Errorf("%s is set, so %s and one of %s, %s or %s must be set too",
			EnvSubdomain, EnvUsername, EnvSecret, EnvAPIToken, EnvPassword)
	}
	if err := account.Validate(); err != nil {
		return Account{}, true, fmt.Errorf("invalid environment credentials: %w", err)
	}
	return account, true, nil
}

// ResolveAccount picks the account for a command. Environment credentials
// win, then the named profile, then DONEDONE_PROFILE, then the current
// profile. DONEDONE_BASE_URL overrides the stored base URL either way.
func ResolveAccount(profile string) (Resolved, error) {
	account, ok, err := AccountFromEnv()
	if err != nil {
		return Resolved{}, err
	}
	if ok {
		return Resolved{Account: account, Source: SourceEnv}, nil
	}

	if profile == "" {
		profile = strings.TrimSpace(os.Getenv(EnvProfile))
	}
	if profile == "" {
		if profile, err = CurrentProfile(); err != nil {
			return Resolved{}, err
		}
	}

	account, err = LoadProfile(profile)
	if err != nil {
		return Resolved{}, err
	}
	if baseURL := strings.TrimSpace(os.Getenv(EnvBaseURL)); baseURL != "" {
		account.BaseURL = baseURL
	}
	return Resolved{Account: account, Profile: normalizeProfile(profile), Source: SourceProfile}, nil
}

// DefaultEnvFile is the dotenv file read when DONEDONE_ENV_FILE is unset.
func DefaultEnvFile() string {
	return filepath.Join(configDir(), ".env")
}

// LoadEnvFile copies variables from a dotenv file into the process
// environment without overriding anything already set. A missing default
// file is not an error; a missing explicit file is.
func LoadEnvFile() error {
	path, explicit := os.LookupEnv(EnvEnvFile)
	if !explicit || strings.TrimSpace(path) == "" {
		path, explicit = DefaultEnvFile(), false
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	for key, value := range values {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

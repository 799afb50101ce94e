package config

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/donedone/donedone-cli/pkg/donedone"
)

// Account is one set of DoneDone credentials.
//
// Secret is the password or API token used for Basic auth. When
// SigningToken is set, Secret must be the password and every request is
// signed as well.
type Account struct {
	Subdomain    string `json:"subdomain"`
	Username     string `json:"username"`
	Secret       string `json:"secret"`
	SigningToken string `json:"signing_token,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
}

var subdomainPattern = regexp.MustCompile(`(?i)^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Normalize trims the account's fields and lowercases the subdomain, which
// is a DNS label and so case-insensitive.
func (a Account) Normalize() Account {
	a.Subdomain = strings.ToLower(strings.TrimSpace(a.Subdomain))
	a.Username = strings.TrimSpace(a.Username)
	a.BaseURL = strings.TrimSpace(a.BaseURL)
	return a
}

// Validate checks that the account can build a working client.
func (a Account) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Subdomain,
			validation.Required,
			validation.Match(subdomainPattern).Error("must be a single DNS label such as 'acme'"),
		),
		validation.Field(&a.Username, validation.Required),
		validation.Field(&a.Secret, validation.Required),
		validation.Field(&a.BaseURL, is.URL),
	)
}

// Signed reports whether requests for this account carry a signature.
func (a Account) Signed() bool {
	return a.SigningToken != ""
}

// Client builds a library client for the account.
func (a Account) Client() *donedone.Client {
	var c *donedone.Client
	if a.Signed() {
		c = donedone.NewWithSigning(a.Subdomain, a.Username, a.Secret, a.SigningToken)
	} else {
		c = donedone.New(a.Subdomain, a.Username, a.Secret)
	}
	if a.BaseURL != "" {
		c.BaseURL = a.BaseURL
	}
	return c
}

// Redacted returns a copy safe to print.
func (a Account) Redacted() Account {
	a.Secret = mask(a.Secret)
	a.SigningToken = mask(a.SigningToken)
	return a
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 4:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}

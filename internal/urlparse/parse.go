// Package urlparse extracts project and issue numbers from DoneDone web URLs.
package urlparse

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/donedone/donedone-cli/pkg/donedone"
)

// ParsedURL is a DoneDone page address.
type ParsedURL struct {
	BaseURL   string
	Subdomain string // empty for hosts outside mydonedone.com
	ProjectID int
	IssueID   int // 0 for project pages
}

// pathPattern matches /issuetracker/projects/{project}[/issues/{issue}] with
// anything after. The web app sometimes keeps the route in the fragment.
var pathPattern = regexp.MustCompile(`(?i)^/?issuetracker/projects/(\d+)(?:/issues/(\d+))?(?:[/?].*)?$`)

// LooksLikeURL reports whether s should be parsed as a URL rather than an ID.
func LooksLikeURL(s string) bool {
	return strings.Contains(s, "://")
}

// Parse extracts the project and issue from a URL such as
// https://acme.mydonedone.com/issuetracker/projects/12/issues/42.
func Parse(rawURL string) (*ParsedURL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, fmt.Errorf("invalid URL: missing scheme (expected https://...)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme %q: expected http or https", parsed.Scheme)
	}

	matches := pathPattern.FindStringSubmatch(parsed.Path)
	if matches == nil && parsed.Fragment != "" {
		matches = pathPattern.FindStringSubmatch(strings.TrimSuffix(parsed.Path, "/") + "/" + strings.TrimPrefix(parsed.Fragment, "/"))
	}
	if matches == nil {
		return nil, fmt.Errorf("invalid DoneDone URL format: expected /issuetracker/projects/{project}[/issues/{issue}]")
	}

	projectID, err := strconv.Atoi(matches[1])
	if err != nil || projectID <= 0 {
		return nil, fmt.Errorf("invalid project ID %q", matches[1])
	}
	var issueID int
	if matches[2] != "" {
		issueID, err = strconv.Atoi(matches[2])
		if err != nil || issueID <= 0 {
			return nil, fmt.Errorf("invalid issue ID %q", matches[2])
		}
	}

	return &ParsedURL{
		BaseURL:   fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host),
		Subdomain: subdomainOf(parsed.Hostname()),
		ProjectID: projectID,
		IssueID:   issueID,
	}, nil
}

func subdomainOf(host string) string {
	sub, ok := strings.CutSuffix(strings.ToLower(host), "."+donedone.ServiceHost)
	if !ok || strings.Contains(sub, ".") {
		return ""
	}
	return sub
}

// HasIssue reports whether the URL names an issue.
func (p *ParsedURL) HasIssue() bool {
	return p.IssueID > 0
}

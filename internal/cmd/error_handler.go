package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/donedone/donedone-cli/internal/config"
	"github.com/donedone/donedone-cli/internal/resolve"
	"github.com/donedone/donedone-cli/pkg/donedone"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var (
		apiErr       *donedone.APIError
		ioErr        *donedone.LocalIOError
		transportErr *donedone.TransportError
		ambiguous    *resolve.AmbiguousError
		multi        *multierror.Error
	)

	switch {
	case errors.As(err, &multi):
		fmt.Fprintf(&msg, "%d of the requests failed:\n", len(multi.Errors))
		for _, e := range multi.Errors {
			fmt.Fprintf(&msg, "  - %s\n", e)
		}

	case errors.Is(err, config.ErrNotConfigured):
		fmt.Fprintf(&msg, "Error: %s\n\n", err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: donedone auth login --subdomain <name> --username <user> --secret <token>\n")
		fmt.Fprintf(&msg, "  - Or set %s, %s and %s\n", config.EnvSubdomain, config.EnvUsername, config.EnvAPIToken)

	case errors.Is(err, config.ErrProfileNotFound):
		fmt.Fprintf(&msg, "Error: %s\n\n", err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - List profiles: donedone auth profiles\n")

	case errors.As(err, &apiErr):
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n\n", apiErr.StatusCode, apiErr.Summary())
		msg.WriteString(suggestionsForStatusCode(apiErr.StatusCode, apiErr.Body))
		if apiErr.RequestID != "" {
			fmt.Fprintf(&msg, "\nRequest ID: %s\n", apiErr.RequestID)
		}

	case errors.As(err, &ioErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", ioErr)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the attachment path and permissions\n")
		msg.WriteString("  - Nothing was sent\n")

	case errors.As(err, &ambiguous):
		fmt.Fprintf(&msg, "Error: %s\n\n", ambiguous)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Pass the numeric ID or a more specific name\n")

	case errors.As(err, &transportErr):
		msg.WriteString(transportMessage(transportErr))

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func transportMessage(err *donedone.TransportError) string {
	var msg strings.Builder
	text := err.Error()
	switch {
	case strings.Contains(text, "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the subdomain spelling: donedone auth status\n")
		msg.WriteString("  - Verify your DNS settings\n")
	case strings.Contains(text, "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check DONEDONE_BASE_URL if you set one\n")
		msg.WriteString("  - Check your network connection\n")
	case strings.Contains(text, "certificate"):
		msg.WriteString("TLS certificate error.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the server's certificate\n")
	case donedone.StructuredErrorFromError(err).Code == donedone.ErrTimeout:
		fmt.Fprintf(&msg, "Request timed out: %s\n\n", text)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Retry with a longer --timeout\n")
	default:
		fmt.Fprintf(&msg, "Error: %s\n", text)
	}
	return msg.String()
}

func suggestionsForStatusCode(code int, body string) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400:
		suggestions.WriteString("  - Check your request parameters\n")
		suggestions.WriteString("  - Use --dry-run to see the fields that would be sent\n")
		if strings.Contains(strings.ToLower(body), "required") {
			suggestions.WriteString("  - A required field may be missing\n")
		}

	case 401:
		suggestions.WriteString("  - Your username, password or API token may be wrong\n")
		suggestions.WriteString("  - If the account signs requests, check the signing token\n")
		suggestions.WriteString("  - Run: donedone auth login\n")

	case 403:
		suggestions.WriteString("  - You don't have permission for this action\n")
		suggestions.WriteString("  - Check that API access is enabled for the project\n")

	case 404:
		suggestions.WriteString("  - The project or issue doesn't exist\n")
		suggestions.WriteString("  - List projects: donedone projects list\n")

	case 422:
		suggestions.WriteString("  - Validation failed\n")
		suggestions.WriteString("  - Check the IDs and date formats (YYYY-MM-DD)\n")

	case 429:
		suggestions.WriteString("  - Too many requests\n")
		suggestions.WriteString("  - Wait and retry in a few seconds\n")

	case 500, 502, 503, 504:
		suggestions.WriteString("  - Server error - not your fault\n")
		suggestions.WriteString("  - Wait and retry\n")

	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}

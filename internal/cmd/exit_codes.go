package cmd

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/spf13/pflag"

	"github.com/donedone/donedone-cli/internal/config"
	"github.com/donedone/donedone-cli/pkg/donedone"
)

const (
	exitOK          = 0
	exitGeneric     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitNotFound    = 4
	exitForbidden   = 5
	exitRateLimited = 6
	exitServer      = 7
	exitNetwork     = 8
	exitFileAccess  = 9
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	if errors.Is(err, config.ErrNotConfigured) || errors.Is(err, config.ErrProfileNotFound) {
		return exitAuth
	}
	if code := exitCodeFromStructured(err); code != 0 {
		return code
	}
	if isUsageError(err) {
		return exitUsage
	}
	if isNetworkError(err) {
		return exitNetwork
	}
	return exitGeneric
}

func exitCodeFromStructured(err error) int {
	structured := donedone.StructuredErrorFromError(err)
	if structured == nil {
		return 0
	}
	switch structured.Code {
	case donedone.ErrUnauthorized:
		return exitAuth
	case donedone.ErrForbidden:
		return exitForbidden
	case donedone.ErrNotFound:
		return exitNotFound
	case donedone.ErrRateLimited:
		return exitRateLimited
	case donedone.ErrServerError:
		return exitServer
	case donedone.ErrTimeout, donedone.ErrNetwork:
		return exitNetwork
	case donedone.ErrFileAccess:
		return exitFileAccess
	case donedone.ErrBadRequest, donedone.ErrValidation, donedone.ErrConflict:
		return exitUsage
	default:
		return 0
	}
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isUsageError(err error) bool {
	msg := strings.ToLower(err.Error())
	indicators := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid ",
		"must be",
		"is required",
		"required flag",
		"conflicts with",
		"cannot be used together",
		"nothing to update",
		"exceeds maximum",
		"ambiguous",
		"no match",
	}
	for _, indicator := range indicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

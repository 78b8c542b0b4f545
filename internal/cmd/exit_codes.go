package cmd

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/spf13/pflag"

	"github.com/viber/viber-cli/internal/config"
	"github.com/viber/viber-cli/internal/viber"
)

const (
	exitOK      = 0
	exitGeneric = 1
	exitUsage   = 2
	exitAuth    = 3
	exitRemote  = 4
	exitConfig  = 5
	exitNetwork = 8
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

	var remote *viber.RemoteAPIError
	switch {
	case errors.As(err, &remote):
		if remote.Status == viber.StatusInvalidAuthToken {
			return exitAuth
		}
		return exitRemote
	case viber.IsConfigurationError(err), errors.Is(err, config.ErrNotConfigured), errors.Is(err, errNoToken):
		return exitConfig
	case viber.IsTransportError(err), isNetworkError(err):
		return exitNetwork
	case isUsageError(err):
		return exitUsage
	}
	return exitGeneric
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
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
		"unknown endpoint",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid value",
		"must be",
		"is required",
		"cannot be empty",
		"too many",
		"exceeds maximum",
	}
	for _, indicator := range indicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

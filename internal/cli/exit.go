package cli

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	"github.com/courierapi/courier"
)

// Exit codes, stable for scripting.
const (
	exitOK        = 0
	exitGeneric   = 1
	exitUsage     = 2
	exitBackend   = 3 // server returned a decodable error payload
	exitTransport = 4 // network failure, timeout, or undecodable response
)

// ExitCode maps an Execute error to a process exit code so scripts can
// distinguish backend-reported failures from connectivity problems.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if _, ok := courier.AsBackendError[anyShape](err); ok {
		return exitBackend
	}
	if isTransportError(err) {
		return exitTransport
	}
	if isUsageError(err) {
		return exitUsage
	}
	return exitGeneric
}

func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if courier.IsStatusError(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func isUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"invalid argument",
		"accepts ",
		"requires ",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

package importer

import (
	"errors"
	"strings"

	"github.com/yurifrl/sheetload/pkg/config"
)

// Failure categories of a run. Errors returned by Run and Plan wrap at most
// one of these; anything else is unclassified.
var (
	ErrSourceNotFound  = errors.New("source file not found")
	ErrStoreConnection = errors.New("error connecting to database")

	// ErrCutoffQuery is never returned: the run continues without a cutoff.
	ErrCutoffQuery = errors.New("error getting max date from database")
)

// Exit codes used by the CLI.
const (
	ExitSuccess          = 0
	ExitUnexpected       = 1
	ExitSourceNotFound   = 2
	ExitStoreConnection  = 3
	ExitConfigurationErr = 4
)

// Diagnostic renders err as the line shown to the user.
func Diagnostic(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceNotFound):
		return "Error: " + err.Error()
	case errors.Is(err, ErrStoreConnection), errors.Is(err, ErrCutoffQuery):
		return capitalize(err.Error())
	case errors.Is(err, config.ErrInvalidConfig):
		return "Error: " + err.Error()
	default:
		return "An unexpected error occurred: " + err.Error()
	}
}

func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrSourceNotFound):
		return ExitSourceNotFound
	case errors.Is(err, ErrStoreConnection):
		return ExitStoreConnection
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfigurationErr
	default:
		return ExitUnexpected
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

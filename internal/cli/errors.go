package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/driverstore"
	"github.com/roach88/fleetdesk/internal/ingest"
	"github.com/roach88/fleetdesk/internal/otp"
	"github.com/roach88/fleetdesk/internal/seed"
	"github.com/roach88/fleetdesk/internal/viewer"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation ran and failed: validation, unsaved change, unknown id
	ExitCommandError = 2 // the command could not run: bad arguments, unreadable files or database
)

// ExitError is returned from RunE to choose the process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps the error returned by Execute to a process exit code.
// Errors that are not ExitErrors exit with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		return ExitFailure
	}
}

// Error codes reported in the CLI envelope.
const (
	ErrCodeGeneric    = "E001"
	ErrCodeNotFound   = "E002"
	ErrCodeValidation = "E003"
	ErrCodeStorage    = "E004"
	ErrCodeDatabase   = "E005"
	ErrCodeFile       = "E006"
	ErrCodeArgument   = "E007"
	ErrCodeOTP        = "E008"
	ErrCodeRoster     = "E009"
)

// report writes err through the formatter and returns the ExitError the
// command should fail with.
func report(f *OutputFormatter, err error) error {
	code, message, details, exit := classify(err)
	return fail(f, code, message, details, exit, err)
}

// fail writes one error envelope and returns the matching ExitError.
func fail(f *OutputFormatter, code, message string, details any, exit int, err error) error {
	if outErr := f.Error(code, message, details); outErr != nil {
		return WrapExitError(ExitCommandError, "failed to write output", outErr)
	}
	return WrapExitError(exit, fmt.Sprintf("%s: %s", code, message), err)
}

func classify(err error) (code, message string, details any, exit int) {
	var (
		ve     *driver.ValidationError
		se     *driverstore.StorageError
		le     *seed.LoadError
		locked *otp.ResendLockedError
		exitE  *ExitError
	)
	switch {
	case errors.As(err, &exitE):
		return ErrCodeGeneric, exitE.Error(), nil, exitE.Code
	case errors.As(err, &ve):
		return ErrCodeValidation, "validation failed", ve.Fields, ExitFailure
	case errors.As(err, &se):
		return ErrCodeStorage, "change applied but not saved: " + se.Err.Error(), se.Keys, ExitFailure
	case errors.As(err, &le):
		return ErrCodeRoster, le.Error(), le.Code, ExitCommandError
	case errors.As(err, &locked):
		return ErrCodeOTP, locked.Error(), map[string]int{"remaining": locked.Remaining}, ExitFailure
	case errors.Is(err, otp.ErrMismatch), errors.Is(err, otp.ErrNotSent), errors.Is(err, otp.ErrNoPhone):
		return ErrCodeOTP, err.Error(), nil, ExitFailure
	case errors.Is(err, viewer.ErrNoDocument):
		return ErrCodeNotFound, err.Error(), nil, ExitFailure
	case errors.Is(err, ingest.ErrTooLarge):
		return ErrCodeFile, err.Error(), map[string]int64{"limit": ingest.DefaultMaxSize}, ExitFailure
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return ErrCodeFile, err.Error(), nil, ExitCommandError
	default:
		return ErrCodeGeneric, err.Error(), nil, ExitFailure
	}
}

// notFound reports a driver id that is not in the list.
func notFound(f *OutputFormatter, id int64) error {
	return fail(f, ErrCodeNotFound, fmt.Sprintf("driver %d not found", id), nil, ExitFailure, nil)
}

// badArgument reports a malformed argument.
func badArgument(f *OutputFormatter, msg string) error {
	return fail(f, ErrCodeArgument, msg, nil, ExitCommandError, nil)
}

package cli

import "errors"

// Sentinel errors for exit code classification
var (
	// ErrUsage indicates invalid command usage, flags, or arguments
	ErrUsage = errors.New("usage error")

	// ErrConfig indicates invalid or unusable configuration
	ErrConfig = errors.New("configuration error")

	// ErrAuth indicates rejected or expired credentials
	ErrAuth = errors.New("authentication error")

	// ErrRuntime indicates plugin lifecycle or execution failures
	ErrRuntime = errors.New("runtime error")

	// ErrInternal indicates internal system errors
	ErrInternal = errors.New("internal error")
)

// Process exit codes returned by ExitCode.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitUsage    = 2
	ExitConfig   = 3
	ExitAuth     = 4
	ExitRuntime  = 5
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrConfig):
		return ExitConfig
	case errors.Is(err, ErrAuth):
		return ExitAuth
	case errors.Is(err, ErrRuntime):
		return ExitRuntime
	default:
		return ExitInternal
	}
}

package main

import "errors"

// Exit codes. Not-found and duplicate outcomes are reported on stdout and
// exit with ExitSuccess.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, store failure)
	ExitConfigError = 2 // Configuration error (unreadable config, unknown driver)
)

// exitError attaches an exit code to an error returned from a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// exitCode maps an error returned by the root command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}

package orerr

import (
	"fmt"
	"runtime"
	"strings"
)

// SimError is the error type used for spec.md §7 "simulation errors":
// invalid SPR range configuration, invalid decode-cache size, corrupt ELF,
// invalid RSP packet, unknown remote command. It carries the call site and
// an exit code the CLI driver should use if it decides to terminate.
type SimError struct {
	File     string
	Line     int
	Pattern  string
	Values   []interface{}
	ExitCode int
}

// Errorf creates a new SimError, capturing the immediate caller's file and
// line. exitCode is the code the driver should exit with if this error is
// allowed to propagate all the way out; it has no effect if the error is
// handled and discarded before then.
func Errorf(exitCode int, pattern string, values ...interface{}) error {
	_, file, line, _ := runtime.Caller(1)
	return SimError{
		File:     file,
		Line:     line,
		Pattern:  pattern,
		Values:   values,
		ExitCode: exitCode,
	}
}

// Error implements the error interface. The chain is normalised so that
// repeated wrapping (err := Errorf("x: %v", Errorf("x: %v", ...))) does not
// duplicate the "x: " prefix, matching the curated package's rule.
func (e SimError) Error() string {
	msg := fmt.Sprintf(e.Pattern, e.Values...)

	parts := strings.SplitN(msg, ": ", 2)
	if len(parts) == 2 {
		for _, v := range e.Values {
			if inner, ok := v.(error); ok {
				if strings.HasPrefix(inner.Error(), parts[0]+": ") {
					return inner.Error()
				}
			}
		}
	}
	return msg
}

// Location formats the call site, useful for -w diagnostic output.
func (e SimError) Location() string {
	return fmt.Sprintf("%s:%d", e.File, e.Line)
}

// Is reports whether err was created by a call to Errorf with the given
// pattern. Only err itself is inspected (SimError does not implement
// Unwrap).
func Is(err error, pattern string) bool {
	se, ok := err.(SimError)
	return ok && se.Pattern == pattern
}

// Has reports whether pattern occurs anywhere in err's message chain.
func Has(err error, pattern string) bool {
	if err == nil {
		return false
	}
	if Is(err, pattern) {
		return true
	}
	return strings.Contains(err.Error(), pattern)
}

// ExitCodeOf extracts the exit code carried by err, defaulting to 1 for any
// error that is not a SimError (programmer contract violations should have
// already panicked before reaching this point).
func ExitCodeOf(err error) int {
	if se, ok := err.(SimError); ok {
		return se.ExitCode
	}
	if err != nil {
		return 1
	}
	return 0
}

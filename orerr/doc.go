// Package orerr is a helper package for the plain Go error interface,
// adapted from the "curated error" idiom: errors are created with Errorf(),
// which behaves like fmt.Errorf but additionally records the call site
// (file/line) and, for simulation-fatal errors, a process exit code.
//
// Is() reports whether an error was itself created with a given pattern; it
// does not look at wrapped errors. Has() also matches when the pattern text
// occurs anywhere in the error's message, which covers errors folded into
// another error's message as they propagate up to the CLI driver.
package orerr

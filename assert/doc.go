// Package assert holds small debugging helpers shared across or1kiss's
// concurrent subsystems — currently just a goroutine identifier used by
// logger to tag which goroutine (core loop, RSP server, script call)
// produced a given log entry.
package assert

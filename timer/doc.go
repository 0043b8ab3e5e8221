// Package timer implements the tick timer peripheral: a 28-bit counter
// (TTCR) that compares against a 28-bit limit (TTMR) and raises an
// interrupt when it catches up, in one of three modes (restart, one-shot,
// continue).
package timer

// Package logger implements a small central, in-memory log used throughout
// or1kiss. The core, mmu and timer packages write tagged entries here
// instead of to stdout directly; the CLI driver decides at the
// end (or via -w) whether and how to surface them.
//
// Adjacent identical entries are coalesced with a repeat counter, so a
// component that warns on every offending instruction in a tight loop does
// not flood the log.
package logger

// Package port implements the memory transaction abstraction that sits
// between a core's load/store/fetch path and whatever backs it: a flat
// byte slice for a simple bring-up, or something that models bus latency
// and can fail. A Port wraps a Transactor and adds the bookkeeping every
// backend needs for free: endianness conversion, an optional direct
// pointer fast path, and single-reservation exclusive access for
// l.lwa/l.swa.
package port

// Package govern defines the types that describe the current condition of
// the simulation. There are two: Mode, which says who is driving the core
// (a headless run or an attached debugger), and State, which says what the
// core is presently doing.
//
// This is also the coordination point between the core goroutine and the
// GDB remote-serial-protocol goroutine described in spec.md §5: the RSP
// server never mutates core state directly: it posts rsp.Command values over
// a channel to the goroutine that owns the core and waits for each reply.
// It does not change State.
package govern

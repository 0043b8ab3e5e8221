// Package rsp implements the GDB remote-serial-protocol subset spec.md §6
// names: q, s, c, D, k, p, P, g, G, m, M, X, Z, z, H, v, ?, served over a
// plain TCP socket. The wire format follows the architecture manual's
// register ordering (GPR0..31, PPC, NPC, SR, each an 8-hex-digit
// big-endian word) rather than any particular reference client.
//
// The server goroutine never touches core state directly. It decodes a
// packet into a Command and posts it to a channel; whatever goroutine owns
// the core (see RunCore) picks it up, drives the engine through the Core
// interface, and answers on the Command's own reply channel. This is the
// "command channel between threads" handoff spec.md §9 recommends, and
// mirrors govern's Mode/State split: govern says what the core is doing,
// this package is how a remote client asks it to do something else.
package rsp

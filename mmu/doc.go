// Package mmu implements one OR1K MMU: a set-associative TLB with
// software or hardware refill, backing either the instruction or data
// side of a core (a core owns one of each). Address translation, access
// right checks and the two-level hardware page table walk all live here;
// the core only ever calls Translate.
package mmu

// Package dcache implements the engine's decode cache: a direct-mapped
// table from instruction address to its already-decoded form, so a tight
// loop only pays the decode cost once per distinct address rather than
// once per execution.
package dcache

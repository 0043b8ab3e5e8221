// Package pic implements the programmable interrupt controller: a 32-line
// mask/status register pair where lines 0 and 1 are hardwired
// non-maskable. Raising external interrupt delivery from the masked
// status (SR & MR) to the core's EX_EXTERNAL exception is the core's job;
// this package only tracks the registers themselves.
package pic

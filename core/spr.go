package core

import (
	"github.com/janweinstock/or1kiss/logger"
	"github.com/janweinstock/or1kiss/orerr"
)

func (e *Engine) warnf(format string, args ...any) {
	if e.warnings {
		logger.Logf(logger.Allow, "core", format, args...)
	}
}

// Special-purpose register groups and addresses, laid out exactly as the
// architecture specifies: group in bits [15:11], register number within
// the group in bits [10:0].
const (
	sprGroupSys  = 0 << 11
	sprGroupDMMU = 1 << 11
	sprGroupIMMU = 2 << 11
	sprGroupDC   = 3 << 11
	sprGroupIC   = 4 << 11
	sprGroupMAC  = 5 << 11
	sprGroupPM   = 8 << 11
	sprGroupPIC  = 9 << 11
	sprGroupTT   = 10 << 11
)

const (
	sprVR       = sprGroupSys + 0
	sprUPR      = sprGroupSys + 1
	sprCPUCFGR  = sprGroupSys + 2
	sprDMMUCFGR = sprGroupSys + 3
	sprIMMUCFGR = sprGroupSys + 4
	sprDCCFGR   = sprGroupSys + 5
	sprICCFGR   = sprGroupSys + 6
	sprVR2      = sprGroupSys + 9
	sprAVR      = sprGroupSys + 10
	sprEVBAR    = sprGroupSys + 11
	sprAECR     = sprGroupSys + 12
	sprAESR     = sprGroupSys + 13
	sprNPC      = sprGroupSys + 16
	sprSR       = sprGroupSys + 17
	sprPPC      = sprGroupSys + 18
	sprFPCSR    = sprGroupSys + 20
	sprEPCR     = sprGroupSys + 32
	sprEEAR     = sprGroupSys + 48
	sprESR      = sprGroupSys + 64
	sprCOREID   = sprGroupSys + 128
	sprNUMCORES = sprGroupSys + 129
	sprGPR      = sprGroupSys + 1024
	sprShadows  = 512

	sprDMMUCR  = sprGroupDMMU + 0
	sprDMMUPR  = sprGroupDMMU + 1
	sprDTLBEIR = sprGroupDMMU + 2
	sprDTLBW0  = sprGroupDMMU + 512 // 4 ways * (match,translate) * 128 sets

	sprIMMUCR  = sprGroupIMMU + 0
	sprIMMUPR  = sprGroupIMMU + 1
	sprITLBEIR = sprGroupIMMU + 2
	sprITLBW0  = sprGroupIMMU + 512

	sprICBIR = sprGroupIC + 2

	sprMACLO = sprGroupMAC + 1
	sprMACHI = sprGroupMAC + 2

	sprPMR = sprGroupPM + 0

	sprPICMR = sprGroupPIC + 0
	sprPICSR = sprGroupPIC + 2

	sprTTMR = sprGroupTT + 0
	sprTTCR = sprGroupTT + 1

	tlbWindowSize = 2 * 128 * 4 // (match+translate) * sets * ways
)

// SPR access-rights bits, per register group.
const (
	sprAccSRE = 1 << 0 // supervisor read enable
	sprAccSWE = 1 << 1 // supervisor write enable
	sprAccURE = 1 << 2 // user read enable
	sprAccUWE = 1 << 3 // user write enable
)

// sprAccess reports the access-rights bitmask for reg, mirroring the
// architecture's per-register access matrix. Registers this simulator
// does not implement fall through to "grant everything" so the
// unimplemented-SPR warning below is what reports them, not a bogus
// privilege violation.
func sprAccess(reg uint32) int {
	switch reg {
	case sprVR, sprUPR, sprCPUCFGR, sprDMMUCFGR, sprIMMUCFGR, sprDCCFGR,
		sprICCFGR, sprVR2, sprAVR, sprCOREID, sprNUMCORES:
		return sprAccSRE
	case sprEVBAR, sprAECR, sprAESR, sprNPC, sprSR, sprPPC, sprFPCSR,
		sprEPCR, sprEEAR, sprESR, sprDMMUCR, sprDMMUPR, sprIMMUCR, sprIMMUPR,
		sprMACHI, sprMACLO, sprPMR, sprPICMR, sprPICSR, sprTTMR, sprTTCR:
		return sprAccSRE | sprAccSWE
	case sprDTLBEIR, sprITLBEIR, sprICBIR:
		return sprAccSWE
	}

	if reg >= sprGPR && reg < sprGPR+sprShadows {
		return sprAccSRE | sprAccSWE
	}
	if reg >= sprDTLBW0 && reg < sprDTLBW0+tlbWindowSize {
		return sprAccSRE | sprAccSWE
	}
	if reg >= sprITLBW0 && reg < sprITLBW0+tlbWindowSize {
		return sprAccSRE | sprAccSWE
	}

	return sprAccSRE | sprAccSWE | sprAccURE | sprAccUWE
}

// sprCheckAccess reports whether a read (write=false) or write
// (write=true) of reg is permitted from the current privilege level.
func sprCheckAccess(reg uint32, write, isSuper bool) bool {
	a := sprAccess(reg)
	if isSuper {
		if write {
			return a&sprAccSWE != 0
		}
		return a&sprAccSRE != 0
	}
	if write {
		return a&sprAccUWE != 0
	}
	return a&sprAccURE != 0
}

// ReadSPR implements exec.Machine. Supervisor-only registers silently
// return 0 when read from user mode (unless SR_SUMRA grants user-mode
// read access), matching the access checks the hardware performs before
// a mfspr retires; no exception is raised for the violation itself.
func (e *Engine) ReadSPR(reg uint32) (uint32, error) {
	return e.readSPR(reg, false)
}

// ReadSPRDebug reads an SPR the way an attached debugger does: bypassing
// the privilege check entirely, since a debugger inspecting guest state
// is not the guest program performing a privileged mfspr.
func (e *Engine) ReadSPRDebug(reg uint32) (uint32, error) {
	return e.readSPR(reg, true)
}

func (e *Engine) readSPR(reg uint32, debug bool) (uint32, error) {
	isSuper := debug || e.isSupervisor() || e.status&srSUMRA != 0
	if !sprCheckAccess(reg, false, isSuper) {
		e.warnf("illegal attempt to read SPR %#x", reg)
		return 0, nil
	}

	switch reg {
	case sprVR:
		return e.version, nil
	case sprVR2:
		return e.version2, nil
	case sprAVR:
		return e.avr, nil
	case sprUPR:
		return e.unit, nil
	case sprCPUCFGR:
		return e.cpucfg, nil
	case sprDCCFGR:
		return e.dccfgr, nil
	case sprICCFGR:
		return e.iccfgr, nil
	case sprDMMUCFGR:
		return e.dmmu.CFGR(), nil
	case sprIMMUCFGR:
		return e.immu.CFGR(), nil
	case sprAECR:
		return e.aecr, nil
	case sprAESR:
		return e.aesr, nil
	case sprSR:
		return e.status, nil
	case sprNPC:
		return e.nextPC, nil
	case sprPPC:
		return e.prevPC, nil
	case sprFPCSR:
		return e.fpcsr, nil
	case sprEPCR:
		return e.expc, nil
	case sprEEAR:
		return e.exea, nil
	case sprESR:
		return e.exsr, nil
	case sprEVBAR:
		return e.evbar, nil
	case sprCOREID:
		return e.coreID, nil
	case sprNUMCORES:
		return e.numCores, nil
	case sprDMMUCR:
		return e.dmmu.CR(), nil
	case sprDMMUPR:
		return e.dmmu.PR(), nil
	case sprIMMUCR:
		return e.immu.CR(), nil
	case sprIMMUPR:
		return e.immu.PR(), nil
	case sprMACHI:
		return uint32(e.mac >> 32), nil
	case sprMACLO:
		return uint32(e.mac), nil
	case sprPMR:
		return e.pmr, nil
	case sprPICMR:
		return e.pic.MR(), nil
	case sprPICSR:
		return e.pic.SR(), nil
	case sprTTMR:
		return e.tick.TTMR(), nil
	case sprTTCR:
		return e.tick.TTCR(), nil
	}

	if reg >= sprGPR && reg < sprGPR+sprShadows {
		return e.shadow[reg-sprGPR], nil
	}
	if reg >= sprDTLBW0 && reg < sprDTLBW0+tlbWindowSize {
		return e.dmmu.GetTLB(reg - sprDTLBW0), nil
	}
	if reg >= sprITLBW0 && reg < sprITLBW0+tlbWindowSize {
		return e.immu.GetTLB(reg - sprITLBW0), nil
	}

	e.warnf("ignoring SPR read (g%d:r%d) @ %#x", reg>>11, reg&0x7ff, e.nextPC)
	return 0, orerr.Errorf(1, "read of unimplemented SPR %#x", reg)
}

// WriteSPR implements exec.Machine. Writing an SPR always counts as
// breaking the quantum (mtspr is allowed to change mode bits the fetch
// loop needs to re-examine before the next instruction), mirroring
// breaks_quantum in the reference loop.
func (e *Engine) WriteSPR(reg uint32, val uint32) error {
	e.breakRequested = true
	return e.writeSPR(reg, val, false)
}

// WriteSPRDebug writes an SPR the way an attached debugger does: bypassing
// the privilege check, so e.g. a GDB client can force the guest back into
// supervisor mode via SR regardless of the mode it is currently in.
func (e *Engine) WriteSPRDebug(reg uint32, val uint32) error {
	return e.writeSPR(reg, val, true)
}

func (e *Engine) writeSPR(reg uint32, val uint32, debug bool) error {
	if !debug && !sprCheckAccess(reg, true, e.isSupervisor()) {
		e.warnf("illegal attempt to write SPR %#x", reg)
		return nil
	}

	switch reg {
	case sprNPC:
		e.nextPC = val
		return nil
	case sprPPC:
		e.prevPC = val
		return nil
	case sprFPCSR:
		e.fpcsr = val
		return nil
	case sprEPCR:
		e.expc = val
		return nil
	case sprEEAR:
		e.exea = val
		return nil
	case sprESR:
		e.exsr = val
		return nil
	case sprEVBAR:
		e.evbar = val
		return nil
	case sprAECR:
		e.aecr = val
		return nil
	case sprAESR:
		e.aesr = val
		return nil
	case sprSR:
		e.status = val
		return nil
	case sprDMMUCR:
		e.dmmu.SetCR(val)
		return nil
	case sprDTLBEIR:
		e.dmmu.FlushEntry(val)
		return nil
	case sprIMMUCR:
		e.immu.SetCR(val)
		return nil
	case sprITLBEIR:
		e.immu.FlushEntry(val)
		return nil
	case sprICBIR:
		e.dcache.InvalidateBlock(val)
		return nil
	case sprMACHI:
		e.mac = uint64(val)<<32 | (e.mac & 0xffffffff)
		return nil
	case sprMACLO:
		e.mac = e.mac&0xffffffff00000000 | uint64(val)
		return nil
	case sprPMR:
		e.pmr = val
		e.doze()
		return nil
	case sprPICMR:
		e.pic.SetMR(val)
		return nil
	case sprPICSR:
		e.pic.SetSR(val)
		return nil
	case sprTTMR:
		e.tick.SetTTMR(val)
		return nil
	case sprTTCR:
		e.tick.SetTTCR(val)
		return nil

	case sprVR, sprVR2, sprAVR, sprUPR, sprCPUCFGR, sprDCCFGR, sprICCFGR,
		sprDMMUCFGR, sprIMMUCFGR, sprCOREID, sprNUMCORES:
		e.warnf("attempt to write read-only SPR %#x", reg)
		return orerr.Errorf(1, "attempt to write read-only SPR %#x", reg)
	}

	if reg >= sprGPR && reg < sprGPR+sprShadows {
		e.shadow[reg-sprGPR] = val
		return nil
	}
	if reg >= sprDTLBW0 && reg < sprDTLBW0+tlbWindowSize {
		e.dmmu.SetTLB(reg-sprDTLBW0, val)
		return nil
	}
	if reg >= sprITLBW0 && reg < sprITLBW0+tlbWindowSize {
		e.immu.SetTLB(reg-sprITLBW0, val)
		return nil
	}

	e.warnf("ignoring SPR write g%d:r%d = %#x @ %#x", reg>>11, reg&0x7ff, val, e.nextPC)
	return orerr.Errorf(1, "write to unimplemented SPR %#x = %#x", reg, val)
}

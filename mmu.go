// mmu.go - Sv32 two-level page-table walk
//
// PTE fields are accessed via shift/mask helpers rather than a bit-field
// union, so layout doesn't depend on struct packing. The walk itself is
// two levels (vpn1 selects a level-1 PTE, vpn0 a level-0 PTE) per the Sv32
// scheme, with a leaf found at level 1 treated as a 4 MiB megapage.

package main

// pte32 bit layout: V R W X U G A D RSW[1:0] PPN[21:0]
const (
	pteV = uint32(1) << 0
	pteR = uint32(1) << 1
	pteW = uint32(1) << 2
	pteX = uint32(1) << 3
	pteU = uint32(1) << 4
	pteA = uint32(1) << 6
	pteD = uint32(1) << 7

	ptePPNShift = 10
	ptePPNMask  = uint32(0x3FFFFF) << ptePPNShift

	ptePPN0Mask = uint32(0x3FF) << ptePPNShift        // bits [19:10] of ppn field position
	ptePPN1Mask = uint32(0xFFF) << (ptePPNShift + 10) // bits [31:20]
)

func pteValid(pte uint32) bool { return pte&pteV != 0 && !(pte&pteW != 0 && pte&pteR == 0) }
func pteLeaf(pte uint32) bool  { return pte&(pteR|pteW|pteX) != 0 }
func ppnOf(pte uint32) uint32  { return (pte & ptePPNMask) >> ptePPNShift }
func ppn0Of(pte uint32) uint32 { return ppnOf(pte) & 0x3FF }
func ppn1Of(pte uint32) uint32 { return ppnOf(pte) >> 10 }

// sv32EffectivePriv returns the privilege level that governs Sv32
// permission checks for this access: if mstatus.MPRV is set and the access
// is not itself an instruction fetch, checks use mstatus.MPP instead of the
// current mode.
func sv32EffectivePriv(cpu *CPU, intent AccessIntent) Privilege {
	if cpu.CSR.MstatusMPRV() && intent != IntentFetch {
		return cpu.CSR.MstatusMPP()
	}
	return cpu.PrivMode
}

// effectivePriv is like sv32EffectivePriv, but MPRV is ignored entirely
// while satp is bare. Used by the memory-mapped MTIME/MTIMECMP register
// gate, which cares about "is this hart really running with M-mode
// privilege" even when translation itself is switched off.
func effectivePriv(cpu *CPU, intent AccessIntent) Privilege {
	if cpu.CSR.SatpIsBare() {
		return cpu.PrivMode
	}
	return sv32EffectivePriv(cpu, intent)
}

func isAccessAllowed(cpu *CPU, pte uint32, intent AccessIntent) bool {
	if intent == IntentWrite && pte&pteW == 0 {
		return false
	}
	if intent == IntentFetch && pte&pteX == 0 {
		return false
	}
	readableViaMXR := cpu.CSR.MstatusMXR() && pte&pteX != 0
	if intent == IntentRead && pte&pteR == 0 && !readableViaMXR {
		return false
	}

	priv := sv32EffectivePriv(cpu, intent)
	if priv == PrivS {
		if !cpu.CSR.MstatusSUM() && pte&pteU != 0 {
			return false
		}
		if intent == IntentFetch && pte&pteU != 0 {
			return false
		}
	}
	if priv == PrivU && pte&pteU == 0 {
		return false
	}
	return true
}

func makePhysFromPPN(virt uint32, pte uint32, megapage bool) uint64 {
	pageOffset := uint64(virt & 0x00000FFF)
	virtVPN0 := uint64(virt&0x003FF000) >> 12
	ptePPN0 := uint64(ppn0Of(pte))
	ptePPN1 := uint64(ppn1Of(pte))

	physPPN0 := ptePPN0
	if megapage {
		physPPN0 = virtVPN0
	}
	return (ptePPN1 << 22) | (physPPN0 << 12) | pageOffset
}

func pageFaultFor(intent AccessIntent) uint32 {
	switch intent {
	case IntentFetch:
		return ExcInstructionPageFault
	case IntentWrite:
		return ExcStoreAMOPageFault
	default:
		return ExcLoadPageFault
	}
}

// satpActive reports whether Sv32 translation applies to this access:
// satp is not bare, and the governing privilege is S or below.
func satpActive(cpu *CPU, intent AccessIntent) bool {
	return !cpu.CSR.SatpIsBare() && sv32EffectivePriv(cpu, intent) <= PrivS
}

// Translate walks the Sv32 page table for virt and returns the 36-bit
// physical address, or a page-fault exception code. noisy=false performs
// the walk without writing back the accessed/dirty bits (used by debugger
// address-translation dumps).
//
// If the accessed/dirty write-back itself lands on a read-only or
// otherwise unwritable region, that failure is silently ignored: the
// translation still succeeds even though the PTE's A/D bits go stale.
func (cpu *CPU) Translate(virt uint32, intent AccessIntent, noisy bool) (uint64, uint32, bool) {
	if !satpActive(cpu, intent) {
		return uint64(virt), 0, false
	}

	vpn0 := (virt & 0x003FF000) >> 12
	vpn1 := (virt & 0xFFC00000) >> 22
	ppn := cpu.CSR.SatpPPN()

	a := uint64(ppn) << 12
	pteAddr := a + uint64(vpn1)*4
	pte := cpu.pm.Read32(cpu.CSR.Mhartid, pteAddr, noisy)

	if !pteValid(pte) {
		return 0, pageFaultFor(intent), true
	}

	megapage := false
	if pteLeaf(pte) {
		if ppn0Of(pte) != 0 {
			return 0, pageFaultFor(intent), true
		}
		megapage = true
	} else {
		a = uint64(ppnOf(pte)) << 12
		pteAddr = a + uint64(vpn0)*4
		pte = cpu.pm.Read32(cpu.CSR.Mhartid, pteAddr, noisy)

		if !pteValid(pte) {
			return 0, pageFaultFor(intent), true
		}
		if !pteLeaf(pte) {
			return 0, pageFaultFor(intent), true
		}
	}

	if !isAccessAllowed(cpu, pte, intent) {
		return 0, pageFaultFor(intent), true
	}

	pte |= pteA
	if intent == IntentWrite {
		pte |= pteD
	}
	if noisy {
		cpu.pm.Write32(cpu.CSR.Mhartid, pteAddr, pte, true)
	}

	return makePhysFromPPN(virt, pte, megapage), 0, false
}

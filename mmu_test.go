package main

// Tests for Sv32 translation: identity mapping while satp is bare, a
// two-level walk through a mapped page, and the page-fault path when a
// leaf PTE denies the requested access.

import "testing"

func newTestCPU(t *testing.T) (*CPU, *PhysicalMemory) {
	t.Helper()
	pm := NewPhysicalMemory()
	if err := pm.AddRegion(&Region{Start: 0, Size: 0x10000, Writable: true, Backing: NewRAMBacking(0, 0x10000)}); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}
	dic := NewInstructionCache()
	cpu := NewCPU(0, pm, dic)
	cpu.Init()
	return cpu, pm
}

// TestTranslateBareSatpIsIdentity verifies that with satp.MODE clear,
// Translate returns the virtual address unchanged and never faults.
func TestTranslateBareSatpIsIdentity(t *testing.T) {
	cpu, _ := newTestCPU(t)
	cpu.CSR.Satp = 0

	phys, _, faulted := cpu.Translate(0x1234, IntentRead, true)
	if faulted {
		t.Fatal("bare satp faulted")
	}
	if phys != 0x1234 {
		t.Fatalf("phys = %#x, want identity 0x1234", phys)
	}
}

// TestTranslateSv32TwoLevelWalk builds a two-level Sv32 page table mapping
// virtual page 0x00401000 to physical page 0x00003000 and verifies the walk
// resolves it and sets the accessed bit.
func TestTranslateSv32TwoLevelWalk(t *testing.T) {
	cpu, pm := newTestCPU(t)

	const rootPPN = 0x2 // root table at phys 0x2000
	const leafPPN = 0x3 // leaf table at phys 0x3000
	const dataPPN = 0x1 // mapped data page at phys 0x1000

	vpn1 := uint32(0x00401000) >> 22
	vpn0 := (uint32(0x00401000) >> 12) & 0x3FF

	rootAddr := uint64(rootPPN) << 12
	leafAddr := uint64(leafPPN) << 12

	nonLeafPTE := (leafPPN << ptePPNShift) | pteV
	pm.Write32(0, rootAddr+uint64(vpn1)*4, nonLeafPTE, true)

	leafPTE := (dataPPN << ptePPNShift) | pteV | pteR | pteW | pteX
	pm.Write32(0, leafAddr+uint64(vpn0)*4, leafPTE, true)

	cpu.CSR.Satp = satpModeMask | rootPPN

	phys, _, faulted := cpu.Translate(0x00401004, IntentRead, true)
	if faulted {
		t.Fatal("walk faulted on a valid mapping")
	}
	if want := (uint64(dataPPN) << 12) + 4; phys != want {
		t.Fatalf("phys = %#x, want %#x", phys, want)
	}

	updated := pm.Read32(0, leafAddr+uint64(vpn0)*4, true)
	if updated&pteA == 0 {
		t.Fatal("accessed bit was not set after a successful walk")
	}
}

// TestTranslateStoreToReadOnlyPageFaults verifies a store intent against a
// read-only leaf PTE raises a store/AMO page fault.
func TestTranslateStoreToReadOnlyPageFaults(t *testing.T) {
	cpu, pm := newTestCPU(t)

	const rootPPN = 0x2
	vpn1 := uint32(0x00401000) >> 22
	rootAddr := uint64(rootPPN) << 12

	// A single-level leaf mapping at the root (a 4 MiB megapage) with only
	// the read bit set.
	dataPPN1 := uint32(0x1)
	pte := (dataPPN1 << (ptePPNShift + 10)) | pteV | pteR
	pm.Write32(0, rootAddr+uint64(vpn1)*4, pte, true)

	cpu.CSR.Satp = satpModeMask | rootPPN

	_, code, faulted := cpu.Translate(0x00401000, IntentWrite, true)
	if !faulted {
		t.Fatal("expected a page fault writing to a read-only page")
	}
	if code != ExcStoreAMOPageFault {
		t.Fatalf("cause = %d, want ExcStoreAMOPageFault (%d)", code, ExcStoreAMOPageFault)
	}
}

// TestSv32EffectivePrivHonorsMPRV verifies that mstatus.MPRV redirects
// non-fetch permission checks to MPP, but never affects a fetch.
func TestSv32EffectivePrivHonorsMPRV(t *testing.T) {
	cpu, _ := newTestCPU(t)
	cpu.PrivMode = PrivM
	cpu.CSR.SetMstatusMPP(PrivU)
	cpu.CSR.Mstatus |= mstatusMPRVMask

	if got := sv32EffectivePriv(cpu, IntentRead); got != PrivU {
		t.Fatalf("read priv = %s, want U under MPRV", got)
	}
	if got := sv32EffectivePriv(cpu, IntentFetch); got != PrivM {
		t.Fatalf("fetch priv = %s, want M (MPRV never applies to fetch)", got)
	}
}

package main

// Tests for the CPU step engine: pc advance, SetPC alignment, the SEI
// special case in InterruptUp/Down, and LR/SC reservation invalidation via
// the StoreObserver path.

import "testing"

func newStepTestCPU(t *testing.T) (*CPU, *PhysicalMemory) {
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

// TestStepAdvancesPCPastANop verifies a plain instruction (addi x0,x0,0,
// i.e. a nop) leaves no trap pending and advances pc by 4.
func TestStepAdvancesPCPastANop(t *testing.T) {
	cpu, pm := newStepTestCPU(t)
	pm.Write32(0, rvStartAddress, addiEncode(0, 0, 0), true)

	start := cpu.PC
	cpu.Step()

	if cpu.PC != start+4 {
		t.Fatalf("PC = %#x, want %#x", cpu.PC, start+4)
	}
}

// TestStepTrapsOnIllegalInstruction verifies fetching an all-ones word
// (an illegal encoding) redirects execution to mtvec rather than advancing
// past it.
func TestStepTrapsOnIllegalInstruction(t *testing.T) {
	cpu, pm := newStepTestCPU(t)
	pm.Write32(0, rvStartAddress, 0xFFFFFFFF, true)
	cpu.CSR.Mtvec = 0x9000

	cpu.Step()

	if cpu.CSR.Mcause != ExcIllegalInstruction {
		t.Fatalf("mcause = %d, want %d (illegal instruction)", cpu.CSR.Mcause, ExcIllegalInstruction)
	}
	if cpu.PC != 0x9000 {
		t.Fatalf("PC = %#x, want mtvec base 0x9000", cpu.PC)
	}
}

// TestSetPCRejectsMisalignedTarget verifies SetPC silently ignores a target
// that is not 4-byte aligned.
func TestSetPCRejectsMisalignedTarget(t *testing.T) {
	cpu, _ := newStepTestCPU(t)
	before := cpu.PC

	cpu.SetPC(0x1001)

	if cpu.PC != before {
		t.Fatalf("PC changed to %#x after a misaligned SetPC", cpu.PC)
	}
}

// TestInterruptUpSEIUsesExternalSEIPNotMip verifies raising SEI through
// InterruptUp sets CSR.ExternalSEIP rather than touching the software Mip
// register directly.
func TestInterruptUpSEIUsesExternalSEIPNotMip(t *testing.T) {
	cpu, _ := newStepTestCPU(t)

	cpu.InterruptUp(IntSupervisorExternal)
	if !cpu.CSR.ExternalSEIP {
		t.Fatal("InterruptUp(SEI) did not set ExternalSEIP")
	}
	if cpu.CSR.Mip&mipSEIPMask != 0 {
		t.Fatal("InterruptUp(SEI) touched the software Mip register")
	}

	cpu.InterruptDown(IntSupervisorExternal)
	if cpu.CSR.ExternalSEIP {
		t.Fatal("InterruptDown(SEI) did not clear ExternalSEIP")
	}
}

// TestInterruptUpCoercesUnknownCodeToMEI verifies an interrupt number other
// than MSI/SSI/MEI/SEI is coerced to the machine-external line.
func TestInterruptUpCoercesUnknownCodeToMEI(t *testing.T) {
	cpu, _ := newStepTestCPU(t)

	cpu.InterruptUp(99)

	if cpu.CSR.Mip&mipMEIPMask == 0 {
		t.Fatal("an unrecognized interrupt number was not coerced to MEI")
	}
}

// TestScAccessInvalidatesMatchingReservation verifies a store observed at
// the reserved address clears the reservation, and a store to a different
// address leaves it untouched.
func TestScAccessInvalidatesMatchingReservation(t *testing.T) {
	cpu, _ := newStepTestCPU(t)
	cpu.reservedValid = true
	cpu.reservedAddr = 0x40

	if hit := cpu.ScAccess(0x80); hit {
		t.Fatal("ScAccess reported a hit for an address that does not match the reservation")
	}
	if !cpu.reservedValid {
		t.Fatal("a non-matching store cleared the reservation")
	}

	if hit := cpu.ScAccess(0x40); !hit {
		t.Fatal("ScAccess did not report a hit for the reserved address")
	}
	if cpu.reservedValid {
		t.Fatal("reservation still valid after a matching ScAccess")
	}
}

// TestLRSCReservationClearedByAnotherHartsStore verifies the StoreObserver
// wiring: a Write32 through the shared bus (as if issued by a different
// hart) invalidates a reservation registered via NewCPU/RegisterObserver.
func TestLRSCReservationClearedByAnotherHartsStore(t *testing.T) {
	cpu, pm := newStepTestCPU(t)
	cpu.reservedValid = true
	cpu.reservedAddr = 0x100

	pm.Write32(0, 0x100, 0xDEADBEEF, true)

	if cpu.reservedValid {
		t.Fatal("a bus-wide store did not invalidate the reservation via ScAccess")
	}
}

package main

// Tests for trap delivery: mTrap/sTrap field latching, medeleg-based
// delegation, and the fixed interrupt-priority order.

import "testing"

func newTrapTestCPU() *CPU {
	pm := NewPhysicalMemory()
	dic := NewInstructionCache()
	cpu := NewCPU(0, pm, dic)
	cpu.Init()
	return cpu
}

// TestMTrapLatchesStateAndSwitchesToM verifies mTrap records mepc/mcause,
// pushes MIE into MPIE, records the pre-trap privilege into MPP, and
// switches to M-mode with pc_next redirected to mtvec's base.
func TestMTrapLatchesStateAndSwitchesToM(t *testing.T) {
	cpu := newTrapTestCPU()
	cpu.PrivMode = PrivS
	cpu.PC = 0x2000
	cpu.CSR.SetMstatusMIE(true)
	cpu.CSR.Mtvec = 0x8000_0000 // direct mode

	cpu.mTrap(ExcIllegalInstruction)

	if cpu.CSR.Mepc != 0x2000 {
		t.Fatalf("mepc = %#x, want 0x2000", cpu.CSR.Mepc)
	}
	if cpu.CSR.Mcause != ExcIllegalInstruction {
		t.Fatalf("mcause = %d, want %d", cpu.CSR.Mcause, ExcIllegalInstruction)
	}
	if cpu.CSR.MstatusMIE() {
		t.Fatal("MIE still set after trap entry")
	}
	if !cpu.CSR.MstatusMPIE() {
		t.Fatal("MPIE was not set from the pre-trap MIE")
	}
	if cpu.CSR.MstatusMPP() != PrivS {
		t.Fatalf("MPP = %s, want S (pre-trap privilege)", cpu.CSR.MstatusMPP())
	}
	if cpu.PrivMode != PrivM {
		t.Fatalf("PrivMode = %s, want M", cpu.PrivMode)
	}
	if cpu.PCNext != tvecBase(cpu.CSR.Mtvec) {
		t.Fatalf("PCNext = %#x, want mtvec base %#x", cpu.PCNext, tvecBase(cpu.CSR.Mtvec))
	}
}

// TestMTrapVectoredInterruptOffsetsByCause verifies vectored mode adds
// 4*cause to the base only for interrupts, not synchronous exceptions.
func TestMTrapVectoredInterruptOffsetsByCause(t *testing.T) {
	cpu := newTrapTestCPU()
	cpu.CSR.Mtvec = 0x1000 | tvecVectored

	cpu.mTrap(IntMachineTimer | ExcInterruptBit)
	want := uint32(0x1000) + 4*IntMachineTimer
	if cpu.PCNext != want {
		t.Fatalf("PCNext = %#x, want %#x", cpu.PCNext, want)
	}
}

// TestHandleExceptionDelegatesViaMedeleg verifies a delegated exception
// taken from S or U mode traps to S-mode, not M-mode.
func TestHandleExceptionDelegatesViaMedeleg(t *testing.T) {
	cpu := newTrapTestCPU()
	cpu.PrivMode = PrivU
	cpu.CSR.Medeleg = excMask(ExcEnvironmentCallFromU)
	cpu.CSR.Stvec = 0x4000

	cpu.handleException(ExcEnvironmentCallFromU)

	if cpu.PrivMode != PrivS {
		t.Fatalf("PrivMode = %s, want S (delegated exception)", cpu.PrivMode)
	}
	if cpu.CSR.Scause != ExcEnvironmentCallFromU {
		t.Fatalf("scause = %d, want %d", cpu.CSR.Scause, ExcEnvironmentCallFromU)
	}
}

// TestHandleExceptionIgnoresDelegationFromMMode verifies that even a
// delegated cause traps to M-mode when the hart is already in M-mode.
func TestHandleExceptionIgnoresDelegationFromMMode(t *testing.T) {
	cpu := newTrapTestCPU()
	cpu.PrivMode = PrivM
	cpu.CSR.Medeleg = excMask(ExcBreakpoint)

	cpu.handleException(ExcBreakpoint)

	if cpu.PrivMode != PrivM {
		t.Fatalf("PrivMode = %s, want M (delegation does not apply from M-mode)", cpu.PrivMode)
	}
}

// TestTryHandleInterruptPicksHighestPriority verifies that when both a
// pending machine-timer and machine-external interrupt are enabled,
// MEI wins per the fixed priority order.
func TestTryHandleInterruptPicksHighestPriority(t *testing.T) {
	cpu := newTrapTestCPU()
	cpu.PrivMode = PrivM
	cpu.CSR.SetMstatusMIE(true)
	cpu.CSR.Mie = excMask(IntMachineTimer) | excMask(IntMachineExternal)
	cpu.CSR.Mip = excMask(IntMachineTimer)
	cpu.CSR.ExternalSEIP = false
	cpu.InterruptUp(IntMachineExternal)

	cpu.tryHandleInterrupt()

	if cpu.CSR.Mcause != (IntMachineExternal | ExcInterruptBit) {
		t.Fatalf("mcause = %#x, want MEI", cpu.CSR.Mcause)
	}
}

// TestTryHandleInterruptRespectsMideleg verifies an interrupt delegated to
// S-mode is not taken while in M-mode's interrupt scan, and instead lands
// in S-mode when SIE permits it.
func TestTryHandleInterruptRespectsMideleg(t *testing.T) {
	cpu := newTrapTestCPU()
	cpu.PrivMode = PrivS
	cpu.CSR.SetMstatusSIE(true)
	cpu.CSR.Mie = excMask(IntSupervisorTimer)
	cpu.CSR.Mip = excMask(IntSupervisorTimer)
	cpu.CSR.Mideleg = excMask(IntSupervisorTimer)

	cpu.tryHandleInterrupt()

	if cpu.PrivMode != PrivS {
		t.Fatalf("PrivMode = %s, want S", cpu.PrivMode)
	}
	if cpu.CSR.Scause != (IntSupervisorTimer | ExcInterruptBit) {
		t.Fatalf("scause = %#x, want STI", cpu.CSR.Scause)
	}
}

// TestTryHandleInterruptNoopWhenMIEClear verifies that a pending, enabled
// M-mode interrupt is not taken while mstatus.MIE is clear and the hart is
// already in M-mode.
func TestTryHandleInterruptNoopWhenMIEClear(t *testing.T) {
	cpu := newTrapTestCPU()
	cpu.PrivMode = PrivM
	cpu.CSR.SetMstatusMIE(false)
	cpu.CSR.Mie = excMask(IntMachineTimer)
	cpu.CSR.Mip = excMask(IntMachineTimer)

	before := cpu.CSR.Mcause
	cpu.tryHandleInterrupt()

	if cpu.CSR.Mcause != before {
		t.Fatal("an interrupt was taken despite mstatus.MIE being clear in M-mode")
	}
}

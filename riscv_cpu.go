// riscv_cpu.go - RV32IMA hart state and the per-tick step engine
//
// Each tick runs four phases in order: fetch/decode/execute, account
// (advance the free-running counters and re-derive the level-triggered
// timer interrupt bits), trap delivery, then pc advance. Register-file
// layout, the NewCPU/Init/Done naming, and returning host errors from
// configuration-facing setters follow this codebase's other CPU cores.

package main

import (
	"fmt"
	"sync"
)

// CPU is one RV32IMA hart: architectural registers, privilege mode, and the
// CSR file, plus its LR/SC reservation. Host code drives it exclusively
// through Init/Done/Step/SetPC/InterruptUp/InterruptDown/ReadMem*/WriteMem* —
// nothing here blocks or suspends mid-step.
type CPU struct {
	PC     uint32
	PCNext uint32
	Regs   [32]uint32

	PrivMode Privilege
	Stdby    bool

	reservedAddr  uint64
	reservedValid bool

	CSR *CSRFile

	pm  *PhysicalMemory
	dic *InstructionCache

	// Trace is per-hart rather than a single process-wide flag, so
	// tracing one hart in a multi-hart machine doesn't spam the others.
	Trace bool

	mu sync.Mutex
}

const rvStartAddress = 0x1000

// NewCPU allocates a hart bound to the given physical memory and the
// simulator-wide decoded-instruction cache.
func NewCPU(hartid uint32, pm *PhysicalMemory, dic *InstructionCache) *CPU {
	cpu := &CPU{
		CSR: NewCSRFile(hartid),
		pm:  pm,
		dic: dic,
	}
	pm.RegisterObserver(cpu)
	return cpu
}

// Init resets architectural state to power-on values: pc at the reset
// vector, pc_next one instruction ahead, and M-mode.
func (cpu *CPU) Init() {
	cpu.mu.Lock()
	defer cpu.mu.Unlock()

	cpu.Regs = [32]uint32{}
	cpu.PC = rvStartAddress
	cpu.PCNext = rvStartAddress + 4
	cpu.PrivMode = PrivM
	cpu.Stdby = false
	cpu.reservedValid = false
	hartid := cpu.CSR.Mhartid
	cpu.CSR = NewCSRFile(hartid)
}

// Done clears the simulator's shared decoded-instruction cache. The cache
// is flushed whole rather than per-hart for simplicity; a future
// finer-grained scheme could scope invalidation to just this hart's
// working set if the round-robin scheduler ever needs it.
func (cpu *CPU) Done() {
	cpu.dic.ClearAll()
}

// SetPC sets both pc and pc_next, as the debugger does to redirect
// execution: unless the next-executed instruction itself writes pc_next,
// the hart would otherwise resume where it left off. Requires 4-byte
// alignment; misaligned requests are silently ignored.
func (cpu *CPU) SetPC(value uint32) {
	if !isAligned(value, 4) {
		return
	}
	cpu.PC = value
	cpu.PCNext = value + 4
}

// ScAccess implements StoreObserver: any store through the physical-memory
// bus (from any hart) invalidates a matching LR/SC reservation.
func (cpu *CPU) ScAccess(phys uint64) bool {
	hit := cpu.reservedValid && cpu.reservedAddr == alignDown(phys, 4)
	if hit {
		cpu.reservedValid = false
	}
	return hit
}

func (cpu *CPU) traceStep(d DecodedInstr) {
	fmt.Printf("%08x: %08x priv=%s op=%d\n", cpu.PC, d.Raw, cpu.PrivMode, d.Op)
}

// fetchAndExecute performs the fetch/decode/execute phase of one tick.
func (cpu *CPU) fetchAndExecute() Trap {
	phys, faultCode, faulted := cpu.Translate(cpu.PC, IntentFetch, true)
	if faulted {
		cpu.CSR.TvalNext = cpu.PC
		return syncTrap(faultCode)
	}

	decoded := cpu.dic.Fetch(cpu.pm, cpu.CSR.Mhartid, phys)
	if cpu.Trace {
		cpu.traceStep(decoded)
	}

	trap := cpu.exec(decoded)
	if trap.Trapped && !trap.isInterrupt() && trap.code() == ExcIllegalInstruction {
		cpu.CSR.TvalNext = decoded.Raw
	}
	return trap
}

// account advances the free-running counters once per tick: cycle,
// instret, the 29 programmable hpmcounters, mtime by host wall-clock
// delta, and recomputes the level-triggered timer interrupt pending bits.
func (cpu *CPU) account(exceptionRaised bool) {
	if cpu.CSR.Mcountinhibit&mcountinhibitCycleMask == 0 {
		cpu.CSR.Cycle++
	}

	now := nowNanos()
	cpu.CSR.Mtime += now - cpu.CSR.LastTickTime
	cpu.CSR.LastTickTime = now

	if cpu.CSR.Mcountinhibit&mcountinhibitInstretMask == 0 && !exceptionRaised && !cpu.Stdby {
		cpu.CSR.Instret++
	}

	for i := 0; i < numHPMCounters; i++ {
		cpu.accountHPM(i)
	}

	cpu.raiseTimerInterrupts()
}

func (cpu *CPU) accountHPM(i int) {
	if cpu.CSR.Mcountinhibit&mcountinhibitBitFor(i) != 0 {
		return
	}
	switch cpu.CSR.HPMEvents[i] {
	case HPMEventUCycles:
		if cpu.PrivMode == PrivU {
			cpu.CSR.HPMCounters[i]++
		}
	case HPMEventSCycles:
		if cpu.PrivMode == PrivS {
			cpu.CSR.HPMCounters[i]++
		}
	case HPMEventMCycles:
		if cpu.PrivMode == PrivM {
			cpu.CSR.HPMCounters[i]++
		}
	case HPMEventWCycles:
		if cpu.Stdby {
			cpu.CSR.HPMCounters[i]++
		}
	}
}

func (cpu *CPU) raiseTimerInterrupts() {
	if uint32(cpu.CSR.Cycle) >= cpu.CSR.Scyclecmp {
		cpu.CSR.Mip |= mipSTIPMask
	} else {
		cpu.CSR.Mip &^= mipSTIPMask
	}

	if cpu.CSR.Mtime >= cpu.CSR.Mtimecmp {
		cpu.CSR.Mip |= mipMTIPMask
	} else {
		cpu.CSR.Mip &^= mipMTIPMask
	}
}

// Step performs one tick: fetch/decode/execute, account, deliver at most
// one trap, then advance pc.
func (cpu *CPU) Step() {
	cpu.mu.Lock()
	defer cpu.mu.Unlock()

	trap := noTrap()
	if !cpu.Stdby {
		trap = cpu.fetchAndExecute()
	}

	cpu.account(trap.Trapped)

	if trap.Trapped {
		cpu.handleException(trap.Cause)
	} else {
		cpu.tryHandleInterrupt()
	}

	if !cpu.Stdby {
		cpu.PC = cpu.PCNext
		cpu.PCNext = cpu.PC + 4
	}

	cpu.Regs[0] = 0
	cpu.CSR.TvalNext = 0
}

// InterruptUp asserts an interrupt line. SEI is special: it sets the
// interrupt controller's ExternalSEIP line rather than the software mip
// bit, since SEIP is independently writable from M-mode and the two
// sources must not clobber each other. Any code other than MSI/SSI/MEI is
// coerced to MEI.
func (cpu *CPU) InterruptUp(no uint32) {
	cpu.mu.Lock()
	defer cpu.mu.Unlock()

	if no == IntSupervisorExternal {
		cpu.CSR.ExternalSEIP = true
		return
	}
	if no != IntMachineSoftware && no != IntSupervisorSoftware && no != IntMachineExternal {
		no = IntMachineExternal
	}
	cpu.CSR.Mip |= excMask(no)
}

// InterruptDown is the symmetric clear of InterruptUp.
func (cpu *CPU) InterruptDown(no uint32) {
	cpu.mu.Lock()
	defer cpu.mu.Unlock()

	if no == IntSupervisorExternal {
		cpu.CSR.ExternalSEIP = false
		return
	}
	if no != IntMachineSoftware && no != IntSupervisorSoftware && no != IntMachineExternal {
		no = IntMachineExternal
	}
	cpu.CSR.Mip &^= excMask(no)
}

// trap.go - exception/interrupt classification, delegation, and entry

package main

// mTrap delivers cause into M-mode: mepc/mcause/mtval are latched, MIE is
// pushed into MPIE and cleared, MPP records the pre-trap privilege, and the
// hart is redirected to mtvec.
func (cpu *CPU) mTrap(cause uint32) {
	isInterrupt := cause&ExcInterruptBit != 0
	cpu.Stdby = false

	if isInterrupt {
		cpu.CSR.Mepc = cpu.PCNext
	} else {
		cpu.CSR.Mepc = cpu.PC
	}
	cpu.CSR.Mcause = cause
	cpu.CSR.Mtval = cpu.CSR.TvalNext

	cpu.CSR.SetMstatusMPIE(cpu.CSR.MstatusMIE())
	cpu.CSR.SetMstatusMIE(false)
	cpu.CSR.SetMstatusMPP(cpu.PrivMode)

	cpu.PrivMode = PrivM

	base := tvecBase(cpu.CSR.Mtvec)
	switch tvecMode(cpu.CSR.Mtvec) {
	case tvecModeDirect:
		cpu.PCNext = base
	case tvecVectored:
		if isInterrupt {
			cpu.PCNext = base + 4*(cause&^ExcInterruptBit)
		} else {
			cpu.PCNext = base
		}
	default:
		// Other mtvec modes are illegal at entry and treated as fatal:
		// this is a host configuration error, not a guest-visible trap.
		panic("msim: mtvec has an unsupported mode field")
	}
}

// sTrap is the S-mode symmetric equivalent of mTrap.
func (cpu *CPU) sTrap(cause uint32) {
	isInterrupt := cause&ExcInterruptBit != 0
	cpu.Stdby = false

	if isInterrupt {
		cpu.CSR.Sepc = cpu.PCNext
	} else {
		cpu.CSR.Sepc = cpu.PC
	}
	cpu.CSR.Scause = cause
	cpu.CSR.Stval = cpu.CSR.TvalNext

	cpu.CSR.SetMstatusSPIE(cpu.CSR.MstatusSIE())
	cpu.CSR.SetMstatusSIE(false)
	cpu.CSR.SetMstatusSPP(cpu.PrivMode)

	cpu.PrivMode = PrivS

	base := tvecBase(cpu.CSR.Stvec)
	switch tvecMode(cpu.CSR.Stvec) {
	case tvecModeDirect:
		cpu.PCNext = base
	case tvecVectored:
		if isInterrupt {
			cpu.PCNext = base + 4*(cause&^ExcInterruptBit)
		} else {
			cpu.PCNext = base
		}
	default:
		panic("msim: stvec has an unsupported mode field")
	}
}

// handleException routes a synchronous exception to S-mode if medeleg
// delegates it and the hart is not already in M-mode, otherwise to M-mode.
func (cpu *CPU) handleException(cause uint32) {
	delegated := cpu.CSR.Medeleg&excMask(cause) != 0
	if delegated && cpu.PrivMode != PrivM {
		cpu.sTrap(cause)
	} else {
		cpu.mTrap(cause)
	}
}

// tryHandleInterrupt is called only when no synchronous exception fired
// this step. It computes the effective mip (including the external SEIP
// line), then checks M-mode eligibility before S-mode, taking the
// highest-priority pending&enabled&non-delegated interrupt in the fixed
// order MEI, MSI, MTI, SEI, SSI, STI.
func (cpu *CPU) tryHandleInterrupt() {
	mip := cpu.CSR.EffectiveMip()
	if mip == 0 {
		return
	}

	canTrapToM := (cpu.PrivMode == PrivM && cpu.CSR.MstatusMIE()) || cpu.PrivMode < PrivM
	if canTrapToM {
		active := mip & cpu.CSR.Mie &^ cpu.CSR.Mideleg
		for _, code := range [...]uint32{
			IntMachineExternal, IntMachineSoftware, IntMachineTimer,
			IntSupervisorExternal, IntSupervisorSoftware, IntSupervisorTimer,
		} {
			if active&excMask(code) != 0 {
				cpu.mTrap(code | ExcInterruptBit)
				return
			}
		}
	}

	canTrapToS := (cpu.PrivMode == PrivS && cpu.CSR.MstatusSIE()) || cpu.PrivMode < PrivS
	if canTrapToS {
		// msim does not allow delegating M-mode interrupts to S-mode even
		// though the privileged spec permits it; mask to S-only bits.
		active := mip & cpu.CSR.Mie & mipSMask
		for _, code := range [...]uint32{
			IntSupervisorExternal, IntSupervisorSoftware, IntSupervisorTimer,
		} {
			if active&excMask(code) != 0 {
				cpu.sTrap(code | ExcInterruptBit)
				return
			}
		}
	}
}

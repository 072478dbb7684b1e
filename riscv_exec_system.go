// riscv_exec_system.go - ECALL/EBREAK/MRET/SRET/WFI and the CSR instructions

package main

func (cpu *CPU) execSystem(d DecodedInstr) Trap {
	switch d.Op {
	case OpECALL:
		switch cpu.PrivMode {
		case PrivU:
			return syncTrap(ExcEnvironmentCallFromU)
		case PrivS:
			return syncTrap(ExcEnvironmentCallFromS)
		default:
			return syncTrap(ExcEnvironmentCallFromM)
		}
	case OpEBREAK:
		return syncTrap(ExcBreakpoint)
	case OpMRET:
		return cpu.execMRET()
	case OpSRET:
		return cpu.execSRET()
	case OpWFI:
		cpu.Stdby = true
		return noTrap()
	default:
		return cpu.execCSR(d)
	}
}

// execMRET is legal only in M-mode: it restores mstatus.MIE from MPIE,
// switches to the privilege recorded in MPP, and resumes at mepc.
func (cpu *CPU) execMRET() Trap {
	if cpu.PrivMode != PrivM {
		return syncTrap(ExcIllegalInstruction)
	}
	target := cpu.CSR.MstatusMPP()
	cpu.CSR.SetMstatusMIE(cpu.CSR.MstatusMPIE())
	cpu.CSR.SetMstatusMPIE(true)
	cpu.CSR.SetMstatusMPP(PrivU)
	cpu.PrivMode = target
	cpu.PCNext = cpu.CSR.Mepc
	return noTrap()
}

// execSRET is the S-mode symmetric equivalent, legal from S-mode or above.
func (cpu *CPU) execSRET() Trap {
	if cpu.PrivMode < PrivS {
		return syncTrap(ExcIllegalInstruction)
	}
	target := cpu.CSR.MstatusSPP()
	cpu.CSR.SetMstatusSIE(cpu.CSR.MstatusSPIE())
	cpu.CSR.SetMstatusSPIE(true)
	cpu.CSR.SetMstatusSPP(PrivU)
	cpu.PrivMode = target
	cpu.PCNext = cpu.CSR.Sepc
	return noTrap()
}

// execCSR implements the six CSRRW/S/C(I) forms. Reading an unimplemented
// or insufficiently privileged CSR is illegal_instruction; so is a write
// that readCSR allowed to be observed but writeCSR then refuses (e.g. a
// read-only counter shadow). CSRRS/CSRRC(I) skip the write entirely when
// their mask operand is zero, so they never fault on a read-only CSR when
// used purely to read (matches the privileged spec's recommendation).
func (cpu *CPU) execCSR(d DecodedInstr) Trap {
	switch d.Op {
	case OpCSRRW, OpCSRRWI:
		var newVal uint32
		if d.Op == OpCSRRW {
			newVal = cpu.reg(d.Rs1)
		} else {
			newVal = uint32(d.Rs1)
		}
		old, ok := cpu.readCSR(d.CSR)
		if !ok {
			return syncTrap(ExcIllegalInstruction)
		}
		if !cpu.writeCSR(d.CSR, newVal) {
			return syncTrap(ExcIllegalInstruction)
		}
		cpu.setReg(d.Rd, old)

	case OpCSRRS, OpCSRRSI, OpCSRRC, OpCSRRCI:
		var mask uint32
		if d.Op == OpCSRRSI || d.Op == OpCSRRCI {
			mask = uint32(d.Rs1)
		} else {
			mask = cpu.reg(d.Rs1)
		}
		old, ok := cpu.readCSR(d.CSR)
		if !ok {
			return syncTrap(ExcIllegalInstruction)
		}
		cpu.setReg(d.Rd, old)
		if mask != 0 {
			var newVal uint32
			if d.Op == OpCSRRS || d.Op == OpCSRRSI {
				newVal = old | mask
			} else {
				newVal = old &^ mask
			}
			if !cpu.writeCSR(d.CSR, newVal) {
				return syncTrap(ExcIllegalInstruction)
			}
		}
	}
	return noTrap()
}

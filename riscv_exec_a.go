// riscv_exec_a.go - the A-extension (load-reserved/store-conditional, AMOs)
//
// Step holds cpu.mu for its whole duration, so AMO read-modify-write needs
// no locking beyond the physical-memory bus's own; SC/LR correctness comes
// entirely from the StoreObserver notification the bus delivers to every
// hart on every store.

package main

// amoTranslate resolves virt to a physical address for a 4-byte atomic
// access, reporting the same alignment/page-fault classification as an
// ordinary store.
func (cpu *CPU) amoTranslate(virt uint32) (uint64, Trap) {
	if !isAligned(virt, 4) {
		cpu.CSR.TvalNext = virt
		return 0, syncTrap(ExcStoreAMOAddressMisaligned)
	}
	phys, faultCode, faulted := cpu.Translate(virt, IntentWrite, true)
	if faulted {
		cpu.CSR.TvalNext = virt
		return 0, syncTrap(faultCode)
	}
	return phys, noTrap()
}

func (cpu *CPU) execA(d DecodedInstr) Trap {
	virt := cpu.reg(d.Rs1)

	if d.Op == OpLRW {
		phys, trap := cpu.amoTranslate(virt)
		if trap.Trapped {
			return trap
		}
		cpu.reservedAddr = alignDown(phys, 4)
		cpu.reservedValid = true
		cpu.setReg(d.Rd, cpu.pm.Read32(cpu.CSR.Mhartid, phys, true))
		return noTrap()
	}

	if d.Op == OpSCW {
		phys, trap := cpu.amoTranslate(virt)
		if trap.Trapped {
			return trap
		}
		if cpu.reservedValid && cpu.reservedAddr == alignDown(phys, 4) {
			cpu.pm.Write32(cpu.CSR.Mhartid, phys, cpu.reg(d.Rs2), true)
			cpu.reservedValid = false
			cpu.setReg(d.Rd, 0)
		} else {
			cpu.setReg(d.Rd, 1)
		}
		return noTrap()
	}

	phys, trap := cpu.amoTranslate(virt)
	if trap.Trapped {
		return trap
	}
	old := cpu.pm.Read32(cpu.CSR.Mhartid, phys, true)
	rs2 := cpu.reg(d.Rs2)

	var result uint32
	switch d.Op {
	case OpAMOSWAPW:
		result = rs2
	case OpAMOADDW:
		result = old + rs2
	case OpAMOXORW:
		result = old ^ rs2
	case OpAMOANDW:
		result = old & rs2
	case OpAMOORW:
		result = old | rs2
	case OpAMOMINW:
		if int32(old) < int32(rs2) {
			result = old
		} else {
			result = rs2
		}
	case OpAMOMAXW:
		if int32(old) > int32(rs2) {
			result = old
		} else {
			result = rs2
		}
	case OpAMOMINUW:
		if old < rs2 {
			result = old
		} else {
			result = rs2
		}
	case OpAMOMAXUW:
		if old > rs2 {
			result = old
		} else {
			result = rs2
		}
	}

	cpu.pm.Write32(cpu.CSR.Mhartid, phys, result, true)
	cpu.setReg(d.Rd, old)
	return noTrap()
}

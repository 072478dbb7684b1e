// riscv_exec.go - exec dispatch and the RV32I base instruction set
//
// exec is a single switch over the OpKind tag Decode produced, so
// execution never re-derives funct3/funct7 from the raw instruction word.

package main

// exec dispatches a decoded instruction to its semantics, mutating cpu
// state and returning any synchronous trap it raised. Op-specific behavior
// lives here and in riscv_exec_m.go/riscv_exec_a.go/riscv_exec_system.go;
// this file also holds the shared register-write and branch/jump helpers.
func (cpu *CPU) exec(d DecodedInstr) Trap {
	switch d.Op {
	case OpIllegal:
		return syncTrap(ExcIllegalInstruction)

	case OpLUI:
		cpu.setReg(d.Rd, uint32(d.Imm))
	case OpAUIPC:
		cpu.setReg(d.Rd, cpu.PC+uint32(d.Imm))

	case OpJAL:
		cpu.setReg(d.Rd, cpu.PC+4)
		cpu.PCNext = cpu.PC + uint32(d.Imm)
	case OpJALR:
		target := (cpu.reg(d.Rs1) + uint32(d.Imm)) &^ 1
		cpu.setReg(d.Rd, cpu.PC+4)
		cpu.PCNext = target

	case OpBEQ:
		cpu.branch(d, cpu.reg(d.Rs1) == cpu.reg(d.Rs2))
	case OpBNE:
		cpu.branch(d, cpu.reg(d.Rs1) != cpu.reg(d.Rs2))
	case OpBLT:
		cpu.branch(d, int32(cpu.reg(d.Rs1)) < int32(cpu.reg(d.Rs2)))
	case OpBGE:
		cpu.branch(d, int32(cpu.reg(d.Rs1)) >= int32(cpu.reg(d.Rs2)))
	case OpBLTU:
		cpu.branch(d, cpu.reg(d.Rs1) < cpu.reg(d.Rs2))
	case OpBGEU:
		cpu.branch(d, cpu.reg(d.Rs1) >= cpu.reg(d.Rs2))

	case OpLB:
		return cpu.execLoad(d, 8, true)
	case OpLH:
		return cpu.execLoad(d, 16, true)
	case OpLW:
		return cpu.execLoad(d, 32, true)
	case OpLBU:
		return cpu.execLoad(d, 8, false)
	case OpLHU:
		return cpu.execLoad(d, 16, false)

	case OpSB:
		return cpu.execStore(d, 8)
	case OpSH:
		return cpu.execStore(d, 16)
	case OpSW:
		return cpu.execStore(d, 32)

	case OpADDI:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)+uint32(d.Imm))
	case OpSLTI:
		cpu.setReg(d.Rd, boolToWord(int32(cpu.reg(d.Rs1)) < d.Imm))
	case OpSLTIU:
		cpu.setReg(d.Rd, boolToWord(cpu.reg(d.Rs1) < uint32(d.Imm)))
	case OpXORI:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)^uint32(d.Imm))
	case OpORI:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)|uint32(d.Imm))
	case OpANDI:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)&uint32(d.Imm))
	case OpSLLI:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)<<(uint32(d.Imm)&0x1F))
	case OpSRLI:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)>>(uint32(d.Imm)&0x1F))
	case OpSRAI:
		cpu.setReg(d.Rd, uint32(int32(cpu.reg(d.Rs1))>>(uint32(d.Imm)&0x1F)))

	case OpADD:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)+cpu.reg(d.Rs2))
	case OpSUB:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)-cpu.reg(d.Rs2))
	case OpSLL:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)<<(cpu.reg(d.Rs2)&0x1F))
	case OpSLT:
		cpu.setReg(d.Rd, boolToWord(int32(cpu.reg(d.Rs1)) < int32(cpu.reg(d.Rs2))))
	case OpSLTU:
		cpu.setReg(d.Rd, boolToWord(cpu.reg(d.Rs1) < cpu.reg(d.Rs2)))
	case OpXOR:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)^cpu.reg(d.Rs2))
	case OpSRL:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)>>(cpu.reg(d.Rs2)&0x1F))
	case OpSRA:
		cpu.setReg(d.Rd, uint32(int32(cpu.reg(d.Rs1))>>(cpu.reg(d.Rs2)&0x1F)))
	case OpOR:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)|cpu.reg(d.Rs2))
	case OpAND:
		cpu.setReg(d.Rd, cpu.reg(d.Rs1)&cpu.reg(d.Rs2))

	case OpFENCE:
		// no cross-hart memory ordering is modeled; a no-op is sound.

	case OpMUL, OpMULH, OpMULHSU, OpMULHU, OpDIV, OpDIVU, OpREM, OpREMU:
		cpu.execM(d)

	case OpLRW, OpSCW, OpAMOSWAPW, OpAMOADDW, OpAMOXORW, OpAMOANDW, OpAMOORW,
		OpAMOMINW, OpAMOMAXW, OpAMOMINUW, OpAMOMAXUW:
		return cpu.execA(d)

	case OpECALL, OpEBREAK, OpMRET, OpSRET, OpWFI,
		OpCSRRW, OpCSRRS, OpCSRRC, OpCSRRWI, OpCSRRSI, OpCSRRCI:
		return cpu.execSystem(d)

	default:
		return syncTrap(ExcIllegalInstruction)
	}
	return noTrap()
}

// reg reads a register, x0 hardwired to zero (Step also re-clears Regs[0]
// every tick as a second line of defense, in case something wrote it
// directly).
func (cpu *CPU) reg(i uint8) uint32 {
	if i == 0 {
		return 0
	}
	return cpu.Regs[i]
}

func (cpu *CPU) setReg(i uint8, v uint32) {
	if i == 0 {
		return
	}
	cpu.Regs[i] = v
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (cpu *CPU) branch(d DecodedInstr, taken bool) {
	if taken {
		cpu.PCNext = cpu.PC + uint32(d.Imm)
	}
}

func (cpu *CPU) execLoad(d DecodedInstr, width int, signExtend bool) Trap {
	virt := cpu.reg(d.Rs1) + uint32(d.Imm)
	var value uint32
	var trap Trap
	switch width {
	case 8:
		var v uint8
		v, trap = cpu.ReadMem8(virt, true)
		if signExtend {
			value = uint32(int32(int8(v)))
		} else {
			value = uint32(v)
		}
	case 16:
		var v uint16
		v, trap = cpu.ReadMem16(virt, true)
		if signExtend {
			value = uint32(int32(int16(v)))
		} else {
			value = uint32(v)
		}
	default:
		value, trap = cpu.ReadMem32(virt, false, true)
	}
	if trap.Trapped {
		return trap
	}
	cpu.setReg(d.Rd, value)
	return noTrap()
}

func (cpu *CPU) execStore(d DecodedInstr, width int) Trap {
	virt := cpu.reg(d.Rs1) + uint32(d.Imm)
	value := cpu.reg(d.Rs2)
	switch width {
	case 8:
		return cpu.WriteMem8(virt, uint8(value), true)
	case 16:
		return cpu.WriteMem16(virt, uint16(value), true)
	default:
		return cpu.WriteMem32(virt, value, true)
	}
}

// riscv_exec_m.go - the M-extension (integer multiply/divide)
//
// Division-by-zero and overflow results follow the RISC-V spec's defined
// values rather than trapping, per the original's mul/div branch of
// execute() (there is no divide-by-zero exception in RV32M).

package main

func (cpu *CPU) execM(d DecodedInstr) {
	a := int32(cpu.reg(d.Rs1))
	b := int32(cpu.reg(d.Rs2))
	ua := cpu.reg(d.Rs1)
	ub := cpu.reg(d.Rs2)

	switch d.Op {
	case OpMUL:
		cpu.setReg(d.Rd, uint32(a*b))
	case OpMULH:
		cpu.setReg(d.Rd, uint32(int64(a)*int64(b)>>32))
	case OpMULHSU:
		cpu.setReg(d.Rd, uint32((int64(a)*int64(ub))>>32))
	case OpMULHU:
		cpu.setReg(d.Rd, uint32((uint64(ua)*uint64(ub))>>32))
	case OpDIV:
		switch {
		case b == 0:
			cpu.setReg(d.Rd, 0xFFFFFFFF)
		case a == -0x80000000 && b == -1:
			cpu.setReg(d.Rd, uint32(a))
		default:
			cpu.setReg(d.Rd, uint32(a/b))
		}
	case OpDIVU:
		if ub == 0 {
			cpu.setReg(d.Rd, 0xFFFFFFFF)
		} else {
			cpu.setReg(d.Rd, ua/ub)
		}
	case OpREM:
		switch {
		case b == 0:
			cpu.setReg(d.Rd, uint32(a))
		case a == -0x80000000 && b == -1:
			cpu.setReg(d.Rd, 0)
		default:
			cpu.setReg(d.Rd, uint32(a%b))
		}
	case OpREMU:
		if ub == 0 {
			cpu.setReg(d.Rd, ua)
		} else {
			cpu.setReg(d.Rd, ua%ub)
		}
	}
}

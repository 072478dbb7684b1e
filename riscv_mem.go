// riscv_mem.go - host-facing virtual memory access, MTIME/MTIMECMP MMIO

package main

// MTimeAddress and MTimeCmpAddress are the fixed, 8-byte-aligned physical
// addresses of the memory-mapped mtime/mtimecmp registers, chosen just past
// a conventional 256 MiB RAM ceiling, out of the way of typical guest
// RAM/ROM layouts.
const (
	MTimeAddress    = 0xF0000000
	MTimeCmpAddress = 0xF0000008
)

func extractBits(v uint64, loBit, hiBit int) uint64 {
	width := hiBit - loBit
	mask := uint64(1)<<width - 1
	return (v >> loBit) & mask
}

func writeBits(v uint64, val uint32, loBit, hiBit int) uint64 {
	width := hiBit - loBit
	mask := uint64(1)<<width - 1
	cleared := v &^ (mask << loBit)
	return cleared | ((uint64(val) & mask) << loBit)
}

// tryReadMMIOReg reads MTIME/MTIMECMP if virt targets them, effective
// privilege is M, and the access is naturally aligned for width.
func (cpu *CPU) tryReadMMIOReg(virt uint32, width int) (uint32, bool) {
	if !isAligned(virt, uint32(width/8)) {
		return 0, false
	}
	if effectivePriv(cpu, IntentRead) != PrivM {
		return 0, false
	}
	offset := int(virt&0x7) * 8
	base := virt &^ 0x7
	switch uint64(base) {
	case MTimeAddress:
		return uint32(extractBits(cpu.CSR.Mtime, offset, offset+width)), true
	case MTimeCmpAddress:
		return uint32(extractBits(cpu.CSR.Mtimecmp, offset, offset+width)), true
	}
	return 0, false
}

func (cpu *CPU) tryWriteMMIOReg(virt uint32, width int, value uint32) bool {
	if !isAligned(virt, uint32(width/8)) {
		return false
	}
	if effectivePriv(cpu, IntentWrite) != PrivM {
		return false
	}
	offset := int(virt&0x7) * 8
	base := virt &^ 0x7
	switch uint64(base) {
	case MTimeAddress:
		cpu.CSR.Mtime = writeBits(cpu.CSR.Mtime, value, offset, offset+width)
		return true
	case MTimeCmpAddress:
		cpu.CSR.Mtimecmp = writeBits(cpu.CSR.Mtimecmp, value, offset, offset+width)
		return true
	}
	return false
}

func readAddrMisalignedExc(fetch bool) uint32 {
	if fetch {
		return ExcInstructionAddressMisaligned
	}
	return ExcLoadAddressMisaligned
}

// readMem is shared by ReadMem8/16/32: translation exceptions take
// priority over alignment exceptions.
func (cpu *CPU) readMem(virt uint32, width int, fetch bool, noisy bool) (uint32, Trap) {
	if v, ok := cpu.tryReadMMIOReg(virt, width); ok {
		return v, noTrap()
	}

	intent := IntentRead
	if fetch {
		intent = IntentFetch
	}
	phys, faultCode, faulted := cpu.Translate(virt, intent, noisy)
	if faulted {
		if noisy {
			cpu.CSR.TvalNext = virt
		}
		return 0, syncTrap(faultCode)
	}

	if !isAligned(virt, uint32(width/8)) {
		if noisy {
			cpu.CSR.TvalNext = virt
		}
		return 0, syncTrap(readAddrMisalignedExc(fetch))
	}

	switch width {
	case 8:
		return uint32(cpu.pm.Read8(cpu.CSR.Mhartid, phys, true)), noTrap()
	case 16:
		return uint32(cpu.pm.Read16(cpu.CSR.Mhartid, phys, true)), noTrap()
	default:
		return cpu.pm.Read32(cpu.CSR.Mhartid, phys, true), noTrap()
	}
}

func (cpu *CPU) ReadMem8(virt uint32, noisy bool) (uint8, Trap) {
	v, t := cpu.readMem(virt, 8, false, noisy)
	return uint8(v), t
}

func (cpu *CPU) ReadMem16(virt uint32, noisy bool) (uint16, Trap) {
	v, t := cpu.readMem(virt, 16, false, noisy)
	return uint16(v), t
}

func (cpu *CPU) ReadMem32(virt uint32, fetch bool, noisy bool) (uint32, Trap) {
	return cpu.readMem(virt, 32, fetch, noisy)
}

// writeMem is shared by WriteMem8/16/32. Writes to a region PM refuses
// (ROM, or nothing mapped) are not architectural faults; PM silently drops
// them instead of raising a store/AMO access fault.
func (cpu *CPU) writeMem(virt uint32, width int, value uint32, noisy bool) Trap {
	if cpu.tryWriteMMIOReg(virt, width, value) {
		return noTrap()
	}

	phys, faultCode, faulted := cpu.Translate(virt, IntentWrite, noisy)
	if faulted {
		if noisy {
			cpu.CSR.TvalNext = virt
		}
		return syncTrap(faultCode)
	}

	if !isAligned(virt, uint32(width/8)) {
		if noisy {
			cpu.CSR.TvalNext = virt
		}
		return syncTrap(ExcStoreAMOAddressMisaligned)
	}

	switch width {
	case 8:
		cpu.pm.Write8(cpu.CSR.Mhartid, phys, uint8(value), true)
	case 16:
		cpu.pm.Write16(cpu.CSR.Mhartid, phys, uint16(value), true)
	default:
		cpu.pm.Write32(cpu.CSR.Mhartid, phys, value, true)
	}
	return noTrap()
}

func (cpu *CPU) WriteMem8(virt uint32, value uint8, noisy bool) Trap {
	return cpu.writeMem(virt, 8, uint32(value), noisy)
}

func (cpu *CPU) WriteMem16(virt uint32, value uint16, noisy bool) Trap {
	return cpu.writeMem(virt, 16, uint32(value), noisy)
}

func (cpu *CPU) WriteMem32(virt uint32, value uint32, noisy bool) Trap {
	return cpu.writeMem(virt, 32, value, noisy)
}

// dump.go - operator-console register, CSR, and page-table dump commands
//
// DumpWalk repeats the Sv32 walk with noisy=false so inspecting an address
// from the shell never perturbs accessed/dirty bits or the decoded-
// instruction cache.
package main

import (
	"fmt"
	"strings"
)

// DumpRegs formats a hart's integer register file, 4 registers per line.
func (cpu *CPU) DumpRegs() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pc=%08x pc_next=%08x priv=%s stdby=%v\n", cpu.PC, cpu.PCNext, cpu.PrivMode, cpu.Stdby)
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(&b, "x%-2d=%08x x%-2d=%08x x%-2d=%08x x%-2d=%08x\n",
			i, cpu.Regs[i], i+1, cpu.Regs[i+1], i+2, cpu.Regs[i+2], i+3, cpu.Regs[i+3])
	}
	return b.String()
}

// DumpCSR formats the core machine- and supervisor-mode CSR fields.
func (cpu *CPU) DumpCSR() string {
	c := cpu.CSR
	var b strings.Builder
	fmt.Fprintf(&b, "mstatus=%08x mie=%08x mip=%08x (eff=%08x)\n", c.Mstatus, c.Mie, c.Mip, c.EffectiveMip())
	fmt.Fprintf(&b, "mtvec=%08x mepc=%08x mcause=%08x mtval=%08x\n", c.Mtvec, c.Mepc, c.Mcause, c.Mtval)
	fmt.Fprintf(&b, "stvec=%08x sepc=%08x scause=%08x stval=%08x\n", c.Stvec, c.Sepc, c.Scause, c.Stval)
	fmt.Fprintf(&b, "medeleg=%08x mideleg=%08x satp=%08x\n", c.Medeleg, c.Mideleg, c.Satp)
	fmt.Fprintf(&b, "mtime=%016x mtimecmp=%016x cycle=%d instret=%d\n", c.Mtime, c.Mtimecmp, c.Cycle, c.Instret)
	return b.String()
}

// DumpWalk repeats the Sv32 walk for virt without side effects and reports
// either the resolved physical address or the page-fault code that would be
// raised, for the shell's `walk <vaddr>` command.
func (cpu *CPU) DumpWalk(virt uint32) string {
	phys, code, faulted := cpu.Translate(virt, IntentRead, false)
	if faulted {
		return fmt.Sprintf("virt=%08x -> page fault (cause=%d)", virt, code)
	}
	return fmt.Sprintf("virt=%08x -> phys=%#010x", virt, phys)
}

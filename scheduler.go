// scheduler.go - the Simulator: hart set, physical memory, and the
// round-robin tick driver
//
// Every hart registered through AddHart shares one *InstructionCache and
// one *PhysicalMemory. Neither the cache's Fetch (an unprotected append
// plus an unsynchronized Frame.Valid write) nor Frame itself carries any
// locking, so Step is a plain sequential loop over every hart rather than a
// goroutine fan-out: stepping two harts concurrently would race on that
// shared, unguarded state.
package main

import "fmt"

// Simulator owns every hart, the shared physical memory bus, the
// decoded-instruction cache they all read through, and the operator-console
// bookkeeping: breakpoints, single-step count, and the trace toggle.
type Simulator struct {
	Harts []*CPU
	PM    *PhysicalMemory
	DIC   *InstructionCache
	IntC  *IntController

	Tick uint64

	Breakpoints map[uint32]bool
	StepCount   uint64
	Trace       bool
}

// NewSimulator wires up an empty machine: no RAM, no harts, no devices yet.
// Callers build the physical memory map with AddRegion, then AddHart.
func NewSimulator() *Simulator {
	return &Simulator{
		PM:          NewPhysicalMemory(),
		DIC:         NewInstructionCache(),
		IntC:        NewIntController(),
		Breakpoints: make(map[uint32]bool),
	}
}

// AddHart creates and registers a new hart bound to this simulator's shared
// memory and instruction cache.
func (s *Simulator) AddHart() *CPU {
	cpu := NewCPU(uint32(len(s.Harts)), s.PM, s.DIC)
	cpu.Init()
	s.Harts = append(s.Harts, cpu)
	s.IntC.AddHart(cpu)
	return cpu
}

// atBreakpoint reports whether any hart's PC currently sits on a set
// breakpoint. A breakpoint only halts a Run; it never blocks a single
// explicit Step.
func (s *Simulator) atBreakpoint() (uint32, bool) {
	for _, h := range s.Harts {
		if s.Breakpoints[h.PC] {
			return h.PC, true
		}
	}
	return 0, false
}

// Step advances every hart by exactly one tick, in hart order, then ticks
// device Step4 hooks every 4th global tick.
func (s *Simulator) Step() error {
	for _, h := range s.Harts {
		h.Step()
	}

	s.Tick++
	s.StepCount++
	if s.Tick%4 == 0 {
		s.PM.Step4()
	}
	return nil
}

// Run steps until a breakpoint is hit or n steps have executed (n<=0 means
// run until a breakpoint). Returns the PC that stopped it, if any.
func (s *Simulator) Run(n int64) (uint32, bool, error) {
	for i := int64(0); n <= 0 || i < n; i++ {
		if err := s.Step(); err != nil {
			return 0, false, fmt.Errorf("simulator: step failed: %w", err)
		}
		if pc, hit := s.atBreakpoint(); hit {
			return pc, true, nil
		}
	}
	return 0, false, nil
}

// Done releases every hart's decoded-instruction cache reference (a no-op
// beyond the first call, since ClearAll is idempotent) and runs every
// device's Done hook.
func (s *Simulator) Done(devices ...Device) {
	for _, h := range s.Harts {
		h.Done()
	}
	for _, d := range devices {
		d.Done()
	}
}

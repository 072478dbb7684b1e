// device_terminal.go - a UART-like console MMIO device
//
// Input and output are each a byte-slice queue guarded by one mutex. New
// input raises SEI through the interrupt controller rather than only
// setting a polled status bit, so a guest can sleep waiting for a
// keystroke instead of spin-polling the status register.
package main

import "sync"

// Terminal register offsets, relative to the device's physical base.
const (
	termData   = 0x0 // R: pop next input byte (0xFFFFFFFF if empty); W: emit output byte
	termStatus = 0x4 // R: bit0 input-available, bit1 output-always-ready
)

const terminalIRQLine = 0

// TerminalDevice is a byte-oriented console: EnqueueInput feeds host
// keystrokes in, DrainOutput drains bytes the guest has written out.
type TerminalDevice struct {
	mu sync.Mutex

	input  []byte
	output []byte

	intc *IntController
}

func NewTerminalDevice(intc *IntController) *TerminalDevice {
	return &TerminalDevice{intc: intc}
}

// EnqueueInput appends host-supplied bytes (e.g. from the shell's stdin
// reader) to the input queue and raises SEI so the guest can service it.
func (t *TerminalDevice) EnqueueInput(b []byte) {
	if len(b) == 0 {
		return
	}
	t.mu.Lock()
	t.input = append(t.input, b...)
	t.mu.Unlock()
	if t.intc != nil {
		t.intc.Raise(terminalIRQLine)
	}
}

// DrainOutput returns and clears everything the guest has written so far.
func (t *TerminalDevice) DrainOutput() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.output
	t.output = nil
	return out
}

func (t *TerminalDevice) Read(addr uint32, width int, noisy bool) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch addr {
	case termData:
		if len(t.input) == 0 {
			return 0xFFFFFFFF
		}
		b := t.input[0]
		if noisy {
			t.input = t.input[1:]
			if len(t.input) == 0 && t.intc != nil {
				t.intc.Lower(terminalIRQLine)
			}
		}
		return uint32(b)
	case termStatus:
		var status uint32 = 2
		if len(t.input) > 0 {
			status |= 1
		}
		return status
	default:
		return 0
	}
}

func (t *TerminalDevice) Write(addr uint32, width int, value uint32, noisy bool) bool {
	if addr != termData {
		return false
	}
	t.mu.Lock()
	t.output = append(t.output, byte(value))
	t.mu.Unlock()
	return true
}

func (t *TerminalDevice) Step4() {}

func (t *TerminalDevice) Done() {}

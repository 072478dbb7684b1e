// device.go - the peripheral interface every memory-mapped device implements
//
// A device is register-mapped: Read/Write see only an offset from the
// device's own base address, never a raw physical address, so a device
// implementation doesn't need to know where it's mapped.

package main

// Device is a memory-mapped peripheral, routed to through physmem.go's
// DeviceBacking. Read/Write addr is the device's own base-relative offset.
// Step4 is ticked once every 4 CPU ticks by the scheduler; Done releases any
// host resources (open files, raw terminal mode) when the simulator stops.
type Device interface {
	Read(addr uint32, width int, noisy bool) uint32
	Write(addr uint32, width int, value uint32, noisy bool) bool
	Step4()
	Done()
}

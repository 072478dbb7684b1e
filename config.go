// config.go - Lua-scripted machine configuration
//
// The interactive shell already exposes a small fixed vocabulary of
// machine-building operations (add a memory range, map a device, set the
// pc, set a breakpoint). This recasts that same vocabulary as Lua globals
// under a single `msim` table, so a startup script can build a machine
// declaratively in one file instead of via a sequence of shell commands
// typed at the prompt.
package main

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
)

// ConfigContext is the machine a startup script is allowed to build:
// physical memory regions, harts, and the small set of built-in devices.
type ConfigContext struct {
	Sim      *Simulator
	Terminal *TerminalDevice
	Printer  *PrinterDevice
	Disk     *DiskDevice
}

// LoadConfig runs the Lua script at path against sim, registering the
// msim.* builtins below before executing it.
func LoadConfig(path string, ctx *ConfigContext) error {
	L := lua.NewState()
	defer L.Close()

	msim := L.NewTable()
	L.SetGlobal("msim", msim)

	L.SetField(msim, "add_ram", L.NewFunction(ctx.luaAddRAM))
	L.SetField(msim, "add_rom", L.NewFunction(ctx.luaAddROM))
	L.SetField(msim, "map_terminal", L.NewFunction(ctx.luaMapTerminal))
	L.SetField(msim, "map_printer", L.NewFunction(ctx.luaMapPrinter))
	L.SetField(msim, "map_disk", L.NewFunction(ctx.luaMapDisk))
	L.SetField(msim, "add_hart", L.NewFunction(ctx.luaAddHart))
	L.SetField(msim, "set_pc", L.NewFunction(ctx.luaSetPC))
	L.SetField(msim, "breakpoint", L.NewFunction(ctx.luaBreakpoint))

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

func argUint64(L *lua.LState, n int) uint64 {
	return uint64(L.CheckNumber(n))
}

func argUint32(L *lua.LState, n int) uint32 {
	return uint32(L.CheckNumber(n))
}

// msim.add_ram(start, size)
func (c *ConfigContext) luaAddRAM(L *lua.LState) int {
	start, size := argUint64(L, 1), argUint64(L, 2)
	err := c.Sim.PM.AddRegion(&Region{
		Start: start, Size: size, Writable: true,
		Backing: NewRAMBacking(start, size),
	})
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// msim.add_rom(start, size, path)
func (c *ConfigContext) luaAddROM(L *lua.LState) int {
	start, size := argUint64(L, 1), argUint64(L, 2)
	path := L.CheckString(3)
	image, err := os.ReadFile(path)
	if err != nil {
		L.RaiseError("reading rom image %s: %v", path, err)
		return 0
	}
	err = c.Sim.PM.AddRegion(&Region{
		Start: start, Size: size, Writable: false,
		Backing: NewROMBacking(image, size),
	})
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// msim.map_terminal(start)
func (c *ConfigContext) luaMapTerminal(L *lua.LState) int {
	start := argUint64(L, 1)
	c.Terminal = NewTerminalDevice(c.Sim.IntC)
	err := c.Sim.PM.AddRegion(&Region{
		Start: start, Size: 8, Writable: true,
		Backing: &DeviceBacking{start: start, dev: c.Terminal},
	})
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// msim.map_printer(start)
func (c *ConfigContext) luaMapPrinter(L *lua.LState) int {
	start := argUint64(L, 1)
	c.Printer = NewPrinterDevice()
	err := c.Sim.PM.AddRegion(&Region{
		Start: start, Size: 8, Writable: true,
		Backing: &DeviceBacking{start: start, dev: c.Printer},
	})
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// msim.map_disk(start, imagePath)
func (c *ConfigContext) luaMapDisk(L *lua.LState) int {
	start := argUint64(L, 1)
	path := L.CheckString(2)
	image, err := os.ReadFile(path)
	if err != nil {
		L.RaiseError("reading disk image %s: %v", path, err)
		return 0
	}
	c.Disk = NewDiskDevice(image, c.Sim.IntC)
	err = c.Sim.PM.AddRegion(&Region{
		Start: start, Size: 16, Writable: true,
		Backing: &DeviceBacking{start: start, dev: c.Disk},
	})
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// msim.add_hart() -> hart index
func (c *ConfigContext) luaAddHart(L *lua.LState) int {
	c.Sim.AddHart()
	L.Push(lua.LNumber(len(c.Sim.Harts) - 1))
	return 1
}

// msim.set_pc(hartIndex, addr)
func (c *ConfigContext) luaSetPC(L *lua.LState) int {
	idx := int(L.CheckNumber(1))
	addr := argUint32(L, 2)
	if idx < 0 || idx >= len(c.Sim.Harts) {
		L.RaiseError("set_pc: no such hart %d", idx)
		return 0
	}
	c.Sim.Harts[idx].SetPC(addr)
	return 0
}

// msim.breakpoint(addr)
func (c *ConfigContext) luaBreakpoint(L *lua.LState) int {
	c.Sim.Breakpoints[argUint32(L, 1)] = true
	return 0
}

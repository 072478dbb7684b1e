// shell.go - the interactive operator console
//
// A line-oriented prompt accepting step/continue/break/trace/register-dump
// commands against a running machine, built over bufio.Scanner rather than
// a full readline-style lexer since there is exactly one operator terminal
// to serve. The quit flag lets a "quit"/"exit" line stop the prompt loop
// outright instead of merely printing a farewell and looping back to read
// another line.
package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Shell runs the msim> prompt against sim until the operator quits.
type Shell struct {
	sim     *Simulator
	term    *TerminalDevice
	out     io.Writer
	scanner *bufio.Scanner
	quit    bool
}

func NewShell(sim *Simulator, term *TerminalDevice, in io.Reader, out io.Writer) *Shell {
	return &Shell{sim: sim, term: term, out: out, scanner: bufio.NewScanner(in)}
}

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	return uint32(v), nil
}

// Run executes the REPL loop until EOF or a `quit` command.
func (sh *Shell) Run() {
	fmt.Fprint(sh.out, "msim> ")
	for !sh.quit && sh.scanner.Scan() {
		sh.dispatch(strings.Fields(sh.scanner.Text()))
		if sh.term != nil {
			sh.drainTerminal()
		}
		if sh.quit {
			break
		}
		fmt.Fprint(sh.out, "msim> ")
	}
}

func (sh *Shell) drainTerminal() {
	if out := sh.term.DrainOutput(); len(out) > 0 {
		sh.out.Write(out)
	}
}

func (sh *Shell) dispatch(args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "step":
		n := int64(1)
		if len(args) > 1 {
			if v, err := strconv.ParseInt(args[1], 10, 64); err == nil {
				n = v
			}
		}
		pc, hit, err := sh.sim.Run(n)
		sh.reportRun(pc, hit, err)

	case "continue", "run":
		// Hand stdin to the guest's raw keystroke feed for the duration of
		// the run, then restore cooked mode for the next command prompt.
		var console *ConsoleInput
		if sh.term != nil {
			console = NewConsoleInput(sh.term)
			console.Start()
		}
		pc, hit, err := sh.sim.Run(0)
		if console != nil {
			console.Stop()
		}
		sh.reportRun(pc, hit, err)

	case "break":
		if len(args) < 2 {
			fmt.Fprintln(sh.out, "usage: break <addr>")
			return
		}
		addr, err := parseAddr(args[1])
		if err != nil {
			fmt.Fprintln(sh.out, err)
			return
		}
		sh.sim.Breakpoints[addr] = true

	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(sh.out, "usage: delete <addr>")
			return
		}
		addr, err := parseAddr(args[1])
		if err != nil {
			fmt.Fprintln(sh.out, err)
			return
		}
		delete(sh.sim.Breakpoints, addr)

	case "trace":
		on := len(args) > 1 && args[1] == "on"
		for _, h := range sh.sim.Harts {
			h.Trace = on
		}
		sh.sim.Trace = on

	case "regs":
		hart := sh.hartArg(args, 1)
		if hart != nil {
			fmt.Fprint(sh.out, hart.DumpRegs())
		}

	case "csr":
		hart := sh.hartArg(args, 1)
		if hart != nil {
			fmt.Fprint(sh.out, hart.DumpCSR())
		}

	case "walk":
		if len(args) < 2 {
			fmt.Fprintln(sh.out, "usage: walk <vaddr> [hart]")
			return
		}
		virt, err := parseAddr(args[1])
		if err != nil {
			fmt.Fprintln(sh.out, err)
			return
		}
		hart := sh.hartArg(args, 2)
		if hart != nil {
			fmt.Fprintln(sh.out, hart.DumpWalk(virt))
		}

	case "quit", "exit":
		fmt.Fprintln(sh.out, "bye")
		sh.quit = true

	default:
		fmt.Fprintf(sh.out, "unknown command: %s\n", args[0])
	}
}

func (sh *Shell) hartArg(args []string, idx int) *CPU {
	i := 0
	if len(args) > idx {
		if v, err := strconv.Atoi(args[idx]); err == nil {
			i = v
		}
	}
	if i < 0 || i >= len(sh.sim.Harts) {
		fmt.Fprintf(sh.out, "no such hart %d\n", i)
		return nil
	}
	return sh.sim.Harts[i]
}

func (sh *Shell) reportRun(pc uint32, hit bool, err error) {
	if err != nil {
		fmt.Fprintln(sh.out, err)
		return
	}
	if hit {
		fmt.Fprintf(sh.out, "breakpoint hit at %#010x\n", pc)
	}
}

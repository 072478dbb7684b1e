// main.go - msim entry point
//
// One machine, built from a required Lua configuration script, then either
// run to completion in batch mode or handed to the interactive shell.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	var (
		configPath string
		batch      bool
		stepCount  int64
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&configPath, "config", "", "Lua machine configuration script (required)")
	flagSet.BoolVar(&batch, "batch", false, "run to completion or breakpoint without a shell prompt")
	flagSet.Int64Var(&stepCount, "steps", 0, "in -batch mode, run at most this many ticks (0 = run until breakpoint)")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: msim -config machine.lua [-batch [-steps N]]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if configPath == "" {
		fmt.Println("Error: -config is required")
		flagSet.Usage()
		os.Exit(1)
	}

	sim := NewSimulator()
	ctx := &ConfigContext{Sim: sim}
	if err := LoadConfig(configPath, ctx); err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if len(sim.Harts) == 0 {
		sim.AddHart()
	}

	if batch {
		pc, hit, err := sim.Run(stepCount)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if hit {
			fmt.Printf("breakpoint hit at %#010x\n", pc)
		}
		if ctx.Terminal != nil {
			os.Stdout.Write(ctx.Terminal.DrainOutput())
		}
	} else {
		shell := NewShell(sim, ctx.Terminal, os.Stdin, os.Stdout)
		shell.Run()
	}

	devices := []Device{}
	if ctx.Terminal != nil {
		devices = append(devices, ctx.Terminal)
	}
	if ctx.Printer != nil {
		devices = append(devices, ctx.Printer)
	}
	if ctx.Disk != nil {
		devices = append(devices, ctx.Disk)
	}
	sim.Done(devices...)
}

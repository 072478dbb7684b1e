//go:build windows

// host_console_windows.go - Windows counterpart to host_console.go
//
// golang.org/x/term supports raw mode on Windows directly, but the
// non-blocking single-byte reads host_console.go relies on via
// syscall.Read do not exist there. This variant instead polls with a
// blocking os.Stdin.Read on a background goroutine, and depends on Stop's
// channel close plus process exit to reclaim that goroutine.
package main

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

type ConsoleInput struct {
	dev          *TerminalDevice
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	oldTermState *term.State
}

func NewConsoleInput(dev *TerminalDevice) *ConsoleInput {
	return &ConsoleInput{
		dev:    dev,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (h *ConsoleInput) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "host_console: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)
		for {
			select {
			case <-h.stopCh:
				return
			default:
			}
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				b := buf[0]
				if b == '\r' {
					b = '\n'
				}
				if b == 0x7F {
					b = 0x08
				}
				h.dev.EnqueueInput([]byte{b})
			}
			if err != nil {
				return
			}
		}
	}()
}

func (h *ConsoleInput) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}

//go:build !windows

// host_console.go - raw stdin passthrough into a TerminalDevice
//
// Puts stdin into raw, non-blocking mode and polls it on a background
// goroutine, forwarding each byte into the guest terminal device's input
// queue. Raw mode is required so keystrokes reach the guest one at a time
// instead of buffered a line behind the host's own line editor.
package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// ConsoleInput reads raw stdin and feeds bytes into a guest TerminalDevice.
// Only instantiated by the shell's `run` command for interactive use, never
// in tests.
type ConsoleInput struct {
	dev          *TerminalDevice
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

func NewConsoleInput(dev *TerminalDevice) *ConsoleInput {
	return &ConsoleInput{
		dev:    dev,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start puts stdin into raw, non-blocking mode and begins forwarding bytes
// to the guest terminal device. Call Stop to restore stdin.
func (h *ConsoleInput) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "host_console: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "host_console: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return
	}
	h.nonblockSet = true

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
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
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// Stop terminates the stdin reading goroutine and restores stdin.
func (h *ConsoleInput) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}

package main

// Tests for the operator shell: quit actually stops the prompt loop rather
// than merely printing a message.

import (
	"bytes"
	"strings"
	"testing"
)

// TestQuitStopsRunLoop verifies that after a "quit" line, Run returns
// without dispatching any further input lines.
func TestQuitStopsRunLoop(t *testing.T) {
	sim := NewSimulator()
	sim.AddHart()

	in := strings.NewReader("quit\nbreak 100\n")
	var out bytes.Buffer
	sh := NewShell(sim, nil, in, &out)

	sh.Run()

	if !sh.quit {
		t.Fatal("Shell.quit was not set after a quit command")
	}
	if len(sim.Breakpoints) != 0 {
		t.Fatal("Run kept dispatching commands after quit")
	}
}

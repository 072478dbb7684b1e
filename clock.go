// clock.go - host wall-clock source for mtime accounting
//
// Grounded on current_timestamp() in the original source's account(); a
// single indirection point keeps mtime's dependence on the host clock
// explicit and easy to stub in tests.

package main

import "time"

func nowNanos() uint64 { return uint64(time.Now().UnixNano()) }

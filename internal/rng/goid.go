package rng

import "runtime"

// goroutineID parses the current goroutine's ID from the first line of its
// stack trace, which always has the form "goroutine 123 [running]:". This
// is the portable way to identify the calling goroutine; it needs no
// knowledge of runtime internals that shift between Go releases.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	const prefix = len("goroutine ")
	var id uint64
	for i := prefix; i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

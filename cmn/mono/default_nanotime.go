//go:build !mono

package mono

import "time"

// NanoTime is the portable fallback for the linkname-based fast path in
// fast_nanotime.go: not guaranteed monotonic across tests that fake the
// wall clock, but adequate outside the "mono" build tag.
func NanoTime() int64 { return time.Now().UnixNano() }

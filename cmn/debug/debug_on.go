//go:build debug

// Package debug provides invariant-checking helpers that compile to no-ops
// unless the "debug" build tag is set. With the tag set, every Assert* call
// is live and panics with caller context on failure - this is how spec §8's
// testable properties (schema immutability, port-name uniqueness, ...) are
// meant to be caught in development and CI, not in production binaries.
package debug

import (
	"fmt"
	"runtime"
	"sync"
)

func ON() bool { return true }

func Infof(format string, args ...any) { fmt.Printf("[debug] "+format+"\n", args...) }

func Func(f func()) { f() }

func Assert(cond bool, args ...any) {
	if cond {
		return
	}
	panic(assertMsg(args...))
}

func Assertf(cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic(fmt.Sprintf(format, args...))
}

func AssertFunc(f func() bool, args ...any) { Assert(f(), args...) }

func AssertNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

func assertMsg(args ...any) string {
	if len(args) == 0 {
		_, file, line, _ := runtime.Caller(2)
		return fmt.Sprintf("assertion failed at %s:%d", file, line)
	}
	return fmt.Sprint(args...)
}

// AssertMutexLocked/AssertRWMutexLocked probe via TryLock rather than
// unexported state - best-effort, debug-build-only.
func AssertMutexLocked(m *sync.Mutex) {
	if m.TryLock() {
		m.Unlock()
		panic("mutex expected to be locked")
	}
}

func AssertRWMutexLocked(m *sync.RWMutex) {
	if m.TryLock() {
		m.Unlock()
		panic("rwmutex expected to be locked (write)")
	}
}

func AssertRWMutexRLocked(m *sync.RWMutex) {
	if m.TryLock() {
		m.Unlock()
		panic("rwmutex expected to be locked (read)")
	}
}

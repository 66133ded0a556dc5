// Package cos provides common low-level types and utilities shared by all
// babeltrace2-go packages.
package cos

import (
	"errors"
	"fmt"
	"os"
	"sync"
	ratomic "sync/atomic"
	"syscall"
)

// Kind is the status taxonomy every component method, iterator, and the
// graph scheduler return. It is the Go-native rendering of the enum
// described in spec §7: a method never panics to signal a recoverable
// condition, it returns one of these.
type Kind int

const (
	KOk Kind = iota
	KEnd
	KAgain
	KCanceled
	KUnsupported
	KUnknownObject
	KOverflow
	KIoError
	KError
	KMemoryError
)

func (k Kind) String() string {
	switch k {
	case KOk:
		return "ok"
	case KEnd:
		return "end"
	case KAgain:
		return "again"
	case KCanceled:
		return "canceled"
	case KUnsupported:
		return "unsupported"
	case KUnknownObject:
		return "unknown-object"
	case KOverflow:
		return "overflow"
	case KIoError:
		return "io-error"
	case KError:
		return "error"
	case KMemoryError:
		return "memory-error"
	default:
		return "kind(?)"
	}
}

// Status wraps a Kind with optional causal context, matching spec §7's
// "structured error context... causal chain" requirement. Status is itself
// an error so component methods can simply `return nil, &cos.Status{...}`.
type Status struct {
	Kind    Kind
	Comp    string // originating component/package, e.g. "ctfser", "graph"
	Cause   error
	Message string
}

func NewStatus(k Kind, comp, msg string, cause error) *Status {
	return &Status{Kind: k, Comp: comp, Message: msg, Cause: cause}
}

func (s *Status) Error() string {
	if s.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", s.Comp, s.Kind, s.Message, s.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", s.Comp, s.Kind, s.Message)
}

func (s *Status) Unwrap() error { return s.Cause }

// Is lets errors.Is(err, &cos.Status{Kind: cos.KOverflow}) match by Kind:
// the target must be a bare Status (empty Comp) carrying the wanted Kind.
func (s *Status) Is(target error) bool {
	t, ok := target.(*Status)
	return ok && t.Kind == s.Kind && t.Comp == ""
}

// KindOf extracts the Kind carried by err, defaulting to KError for any
// error that didn't originate as a *Status (e.g. a raw I/O error bubbled
// out of a component method without translation).
func KindOf(err error) Kind {
	if err == nil {
		return KOk
	}
	var s *Status
	if errors.As(err, &s) {
		return s.Kind
	}
	return KError
}

//
// ErrNotFound
//

type ErrNotFound struct{ what string }

func NewErrNotFound(format string, a ...any) *ErrNotFound {
	return &ErrNotFound{fmt.Sprintf(format, a...)}
}

func (e *ErrNotFound) Error() string { return e.what + " does not exist" }

func IsErrNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

//
// ErrFrozen - schema-immutability violations (spec §4.1, §8 property 1)
//

type ErrFrozen struct{ what string }

func NewErrFrozen(what string) *ErrFrozen { return &ErrFrozen{what} }
func (e *ErrFrozen) Error() string        { return e.what + " is frozen, cannot be mutated" }

//
// Errs - bounded, deduplicated error aggregation
//

type Errs struct {
	errs []error
	cnt  int64
	mu   sync.Mutex
}

const maxErrs = 4

func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			e.mu.Unlock()
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
		ratomic.StoreInt64(&e.cnt, int64(len(e.errs)))
	}
	e.mu.Unlock()
}

func (e *Errs) Cnt() int { return int(ratomic.LoadInt64(&e.cnt)) }

func (e *Errs) JoinErr() (cnt int, err error) {
	if cnt = e.Cnt(); cnt > 0 {
		e.mu.Lock()
		err = errors.Join(e.errs...)
		e.mu.Unlock()
	}
	return
}

func (e *Errs) Error() (s string) {
	var (
		err error
		cnt = e.Cnt()
	)
	if cnt == 0 {
		return
	}
	e.mu.Lock()
	if cnt = len(e.errs); cnt > 0 {
		err = e.errs[0]
	}
	e.mu.Unlock()
	if err == nil {
		return
	}
	if cnt > 1 {
		err = fmt.Errorf("%v (and %d more error%s)", err, cnt-1, Plural(cnt-1))
	}
	s = err.Error()
	return
}

//
// syscall helpers - used by ctfser to classify mmap/fallocate failures
//

func IsErrOOS(err error) bool { return errors.Is(err, syscall.ENOSPC) }

func UnwrapSyscallErr(err error) error {
	if syscallErr, ok := err.(*os.SyscallError); ok {
		return syscallErr.Unwrap()
	}
	return nil
}

//
// abnormal termination
//

const fatalPrefix = "FATAL ERROR: "

func Exitf(f string, a ...any) {
	msg := fmt.Sprintf(fatalPrefix+f, a...)
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

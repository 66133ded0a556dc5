package cos

import (
	"crypto/rand"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/teris-io/shortid"
)

// Alphabet for generating short IDs, borrowed from the shortid default
// alphabet with two characters ('-', '_') moved to the edges so GenTie's
// masking trick below stays a simple `&0x3f`.
const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

const (
	LenShortID = 9  // UUID length, as per https://github.com/teris-io/shortid#id-length
	tooLongID  = 32 // cannot be smaller than any valid max length below
)

var (
	sid  *shortid.Shortid
	rtie atomic.Uint32
)

// InitShortID seeds the process-wide short-ID generator. If it has not been
// called, the first GenUUID call seeds the generator with 1.
func InitShortID(seed uint64) {
	sid = shortid.MustNew(4 /*worker*/, uuidABC, seed)
}

// GenUUID produces a short, URL-safe, globally-distinct-enough identifier
// used for Connection and MessageIterator instance IDs that appear in log
// lines.
func GenUUID() (uuid string) {
	if sid == nil {
		InitShortID(1)
	}
	var h, t string
	uuid = sid.MustGenerate()
	if !isAlpha(uuid[0]) {
		tie := int(rtie.Add(1))
		h = string(rune('A' + tie%26))
	}
	c := uuid[len(uuid)-1]
	if c == '-' || c == '_' {
		tie := int(rtie.Add(1))
		t = string(rune('a' + tie%26))
	}
	return h + uuid + t
}

func IsValidUUID(uuid string) bool {
	return len(uuid) >= LenShortID && IsAlphaNice(uuid)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsAlphaNice reports whether s is letters/numbers with interior '-'/'_'
// only. IsValidUUID uses it; class names are not checked against it.
func IsAlphaNice(s string) bool {
	l := len(s)
	if l > tooLongID {
		return false
	}
	for i := 0; i < l; i++ {
		c := s[i]
		if isAlpha(c) || (c >= '0' && c <= '9') {
			continue
		}
		if c != '-' && c != '_' {
			return false
		}
		if i == 0 || i == l-1 {
			return false
		}
	}
	return true
}

// GenTie is a fast 3-character tie-breaker drawn from the shared tie
// counter that GenUUID also advances.
func GenTie() string {
	tie := rtie.Add(1)
	b0 := uuidABC[tie&0x3f]
	b1 := uuidABC[(-tie)&0x3f]
	b2 := uuidABC[(tie>>2)&0x3f]
	return string([]byte{b0, b1, b2})
}

// CryptoRandS returns a cryptographically random alphanumeric string of
// length l, used where GenUUID's shortid-based scheme is overkill (tests).
func CryptoRandS(l int) string {
	const abc = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, l)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = abc[int(b[i])%len(abc)]
	}
	return string(b)
}

// UnsafeB/UnsafeS: zero-copy string<->[]byte conversions for hot paths
// (bval.Value hashing, cmn/prob filter keys) that never outlive or mutate
// the backing array.

func UnsafeB(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func UnsafeS(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Short formats a numeric ID compactly as hex (%#x).
func Short(id uint64) string { return fmt.Sprintf("%#x", id) }

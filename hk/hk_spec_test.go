package hk_test

import (
	"sync/atomic"
	"time"

	"github.com/efficios/babeltrace2-go/hk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("HK", func() {
	It("invokes a registered callback after its delay", func() {
		var fired int32
		hk.DefaultHK.Reg("once", func() time.Duration {
			atomic.AddInt32(&fired, 1)
			return -1
		}, 10*time.Millisecond)

		Eventually(func() int32 {
			return atomic.LoadInt32(&fired)
		}, time.Second, 5*time.Millisecond).Should(Equal(int32(1)))
	})

	It("reschedules when the callback returns a non-negative delay", func() {
		var count int32
		hk.DefaultHK.Reg("repeating", func() time.Duration {
			if atomic.AddInt32(&count, 1) >= 3 {
				return -1
			}
			return 5 * time.Millisecond
		}, 5*time.Millisecond)

		Eventually(func() int32 {
			return atomic.LoadInt32(&count)
		}, time.Second, 5*time.Millisecond).Should(BeNumerically(">=", 3))
	})

	It("drops an unregistered callback before it fires", func() {
		var fired int32
		hk.DefaultHK.Reg("cancel-me", func() time.Duration {
			atomic.AddInt32(&fired, 1)
			return -1
		}, 50*time.Millisecond)
		hk.DefaultHK.Unreg("cancel-me")

		Consistently(func() int32 {
			return atomic.LoadInt32(&fired)
		}, 100*time.Millisecond, 10*time.Millisecond).Should(Equal(int32(0)))
	})
})

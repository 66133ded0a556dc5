package prob_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/efficios/babeltrace2-go/cmn/prob"
)

func TestFilter(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, t.Name())
}

var _ = Describe("Filter", func() {
	It("never reports a false negative for an inserted key", func() {
		f := prob.NewFilter(64)
		f.Add("trace-packet-header")
		f.Add("stream-packet-context")
		Expect(f.MightContain("trace-packet-header")).To(BeTrue())
		Expect(f.MightContain("stream-packet-context")).To(BeTrue())
	})

	It("reports absence for a key that was never added", func() {
		f := prob.NewFilter(64)
		f.Add("event-payload")
		Expect(f.MightContain("event-common-context")).To(BeFalse())
	})

	It("forgets a deleted key", func() {
		f := prob.NewFilter(64)
		f.Add("k")
		Expect(f.Delete("k")).To(BeTrue())
		Expect(f.Count()).To(Equal(uint(0)))
	})
})

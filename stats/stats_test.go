package stats_test

import (
	"testing"
	"time"

	"github.com/efficios/babeltrace2-go/cmn/cos"
	"github.com/efficios/babeltrace2-go/stats"
)

func TestObservePoolAccumulatesAndRegisters(t *testing.T) {
	tr := stats.New()
	tr.ObservePool("event.my_stream", 10, 2)
	tr.ObservePool("event.my_stream", 1, 0)

	mfs, err := tr.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected at least one registered metric family")
	}
}

func TestObserveSchedKindCoversAllKinds(t *testing.T) {
	tr := stats.New()
	for _, k := range []cos.Kind{cos.KOk, cos.KAgain, cos.KEnd, cos.KCanceled, cos.KError} {
		tr.ObserveSchedKind(k)
	}
}

func TestObserveQueryDuration(t *testing.T) {
	tr := stats.New()
	tr.ObserveQueryDuration(5 * time.Millisecond)
}

// Package stats tracks pool, scheduler, and query counters for a running
// graph and exposes them both as Prometheus metrics and as a single
// dedup'd, periodically-logged summary line, the way the teacher's
// coreStats.log kept a name->value Tracker and only re-logged a line when it
// actually changed (and skipped logging altogether while idle).
package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/efficios/babeltrace2-go/cmn/cos"
	"github.com/efficios/babeltrace2-go/cmn/nlog"
	"github.com/efficios/babeltrace2-go/hk"
	"github.com/prometheus/client_golang/prometheus"
)

// Naming convention (kept from the teacher's StatsD-era counters):
//
//	-> "*.n"   - counter
//	-> "*.ns"  - latency (nanoseconds, recorded here as a Prometheus
//	             histogram in seconds)
const (
	PoolHitSuffix  = ".pool.hit.n"
	PoolMissSuffix = ".pool.miss.n"

	SchedOkCount      = "sched.ok.n"
	SchedAgainCount   = "sched.again.n"
	SchedEndCount     = "sched.end.n"
	SchedCanceledCnt  = "sched.canceled.n"
	SchedErrorCount   = "sched.error.n"
	IterAutoSeekCount = "iter.autoseek.n"
	QueryLatency      = "query.ns"
)

// Tracker is the process-wide home for every counter named above: a thin
// name->value accumulator (for the periodic summary line) fronting a set of
// registered Prometheus collectors (for scrape-based consumption).
type Tracker struct {
	mu    sync.Mutex
	named map[string]int64
	prev  string

	reg        *prometheus.Registry
	poolHits   *prometheus.CounterVec
	poolMisses *prometheus.CounterVec
	sched      *prometheus.CounterVec
	iterStates *prometheus.GaugeVec
	queryNS    prometheus.Histogram
}

func New() *Tracker {
	t := &Tracker{
		named: make(map[string]int64, 16),
		reg:   prometheus.NewRegistry(),
		poolHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "babeltrace2", Subsystem: "pool", Name: "hits_total",
			Help: "object pool Create() calls satisfied from the free list, by pool name",
		}, []string{"pool"}),
		poolMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "babeltrace2", Subsystem: "pool", Name: "misses_total",
			Help: "object pool Create() calls that allocated fresh, by pool name",
		}, []string{"pool"}),
		sched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "babeltrace2", Subsystem: "graph", Name: "runonce_total",
			Help: "Graph.RunOnce results, by returned status kind",
		}, []string{"kind"}),
		iterStates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "babeltrace2", Subsystem: "graph", Name: "iterator_state",
			Help: "current count of message iterators in each state",
		}, []string{"state"}),
		queryNS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "babeltrace2", Subsystem: "query", Name: "run_duration_seconds",
			Help:    "Executor.Run wall time",
			Buckets: prometheus.DefBuckets,
		}),
	}
	t.reg.MustRegister(t.poolHits, t.poolMisses, t.sched, t.iterStates, t.queryNS)
	return t
}

// Registry exposes the collectors for an HTTP scrape handler to serve.
func (t *Tracker) Registry() *prometheus.Registry { return t.reg }

// ObservePool records one object.Pool[T].Stats() sample under name.
func (t *Tracker) ObservePool(name string, hits, misses int64) {
	if hits > 0 {
		t.poolHits.WithLabelValues(name).Add(float64(hits))
		t.addNamed(name+PoolHitSuffix, hits)
	}
	if misses > 0 {
		t.poolMisses.WithLabelValues(name).Add(float64(misses))
		t.addNamed(name+PoolMissSuffix, misses)
	}
}

// ObserveSchedKind records one Graph.RunOnce (or MessageIterator.Next)
// result.
func (t *Tracker) ObserveSchedKind(k cos.Kind) {
	t.sched.WithLabelValues(k.String()).Inc()
	switch k {
	case cos.KOk:
		t.addNamed(SchedOkCount, 1)
	case cos.KAgain:
		t.addNamed(SchedAgainCount, 1)
	case cos.KEnd:
		t.addNamed(SchedEndCount, 1)
	case cos.KCanceled:
		t.addNamed(SchedCanceledCnt, 1)
	default:
		t.addNamed(SchedErrorCount, 1)
	}
}

// ObserveAutoSeek records a MessageIterator falling back to its auto-seek
// buffer (spec §4.7).
func (t *Tracker) ObserveAutoSeek() {
	t.addNamed(IterAutoSeekCount, 1)
}

// SetIteratorState adjusts the live count of iterators in state by delta;
// pass +1 on transition-in, -1 on transition-out.
func (t *Tracker) SetIteratorState(state string, delta float64) {
	t.iterStates.WithLabelValues(state).Add(delta)
}

// ObserveQueryDuration records one query.Executor.Run wall-clock sample.
func (t *Tracker) ObserveQueryDuration(d time.Duration) {
	t.queryNS.Observe(d.Seconds())
}

func (t *Tracker) addNamed(name string, delta int64) {
	t.mu.Lock()
	t.named[name] += delta
	t.mu.Unlock()
}

// line renders the non-zero named counters as a single sorted, compact
// summary, e.g. "{event.pool.hit.n=104,sched.ok.n=9}".
func (t *Tracker) line() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.named))
	for k, v := range t.named {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, t.named[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// RegisterPeriodicLog arranges for a summary line to be logged every
// interval, skipping the log call whenever the line is unchanged since the
// last tick - idle runs produce no log spam.
func (t *Tracker) RegisterPeriodicLog(interval time.Duration) {
	hk.DefaultHK.Reg("stats-log", func() time.Duration {
		line := t.line()
		t.mu.Lock()
		changed := line != t.prev
		if changed {
			t.prev = line
		}
		t.mu.Unlock()
		if changed && line != "{}" {
			nlog.Infof("stats: %s", line)
		}
		return interval
	}, interval)
}

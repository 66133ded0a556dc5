package core

// PoolObserver receives one (name, hits, misses) sample per live instance
// pool; stats.Tracker.ObservePool satisfies this without core importing the
// stats package back.
type PoolObserver interface {
	ObservePool(name string, hits, misses int64)
}

// CollectPoolStats reports every currently-live Event/Packet/ClockSnapshot
// pool's object.Pool.Stats() to o, named after the owning class. Intended to
// be called periodically (e.g. from stats.Tracker's hk-registered tick).
func CollectPoolStats(o PoolObserver) {
	eventPoolsMu.Lock()
	for sc, p := range eventPools {
		hits, misses := p.Stats()
		o.ObservePool("event."+sc.Name, hits, misses)
	}
	eventPoolsMu.Unlock()

	packetPoolsMu.Lock()
	for sc, p := range packetPools {
		hits, misses := p.Stats()
		o.ObservePool("packet."+sc.Name, hits, misses)
	}
	packetPoolsMu.Unlock()

	csPoolsMu.Lock()
	for cc, p := range csPools {
		hits, misses := p.Stats()
		o.ObservePool("clocksnapshot."+cc.Name, hits, misses)
	}
	csPoolsMu.Unlock()
}

package ctfser

import (
	"container/list"
	"os"
	"sync"
	"syscall"

	"github.com/efficios/babeltrace2-go/cmn/nlog"
)

// FDCache bounds the number of concurrently open stream-file descriptors
// across every Writer in one process, refcounted by path and recycling the
// least-recently-used handle with no outstanding reference when the
// process nears its open-file soft limit - the writer-side counterpart of
// the original's read-side fd-cache (original_source/fd-cache/fd-cache.c),
// which keyed handles by (device, inode) instead of path since it served
// read-only access to files that could be replaced underneath a stable
// name. A serializer always creates its own file (O_CREAT|O_TRUNC), so a
// path key is exact here.
type FDCache struct {
	mu         sync.Mutex
	byPath     map[string]*list.Element // -> *fdEntry
	lru        *list.List               // front = most recently used
	headroom   uint64                   // soft-limit headroom that triggers eviction
}

type fdEntry struct {
	path     string
	file     *os.File
	refCount int
}

func NewFDCache() *FDCache {
	return &FDCache{
		byPath:   map[string]*list.Element{},
		lru:      list.New(),
		headroom: 64,
	}
}

// Acquire opens (or reuses) the writer fd for path, incrementing its
// refcount. Callers must Release exactly once per successful Acquire.
func (c *FDCache) Acquire(path string) (*os.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.byPath[path]; ok {
		e := elem.Value.(*fdEntry)
		e.refCount++
		c.lru.MoveToFront(elem)
		return e.file, nil
	}

	c.evictIfNearLimitLocked()

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	e := &fdEntry{path: path, file: f, refCount: 1}
	c.byPath[path] = c.lru.PushFront(e)
	return f, nil
}

// Release decrements path's refcount. Once it drops to zero the handle
// stays open for a likely reopen (e.g. the next packet of the same stream),
// and idle handles, least recently used first, are closed only while the
// process is within headroom of RLIMIT_NOFILE.
func (c *FDCache) Release(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.byPath[path]
	if !ok {
		return
	}
	e := elem.Value.(*fdEntry)
	if e.refCount > 0 {
		e.refCount--
	}
	if e.refCount == 0 {
		c.evictIfNearLimitLocked()
	}
}

// evictIfNearLimitLocked closes idle (refCount==0) handles, least-recently
// used first, while the process is within headroom of RLIMIT_NOFILE.
// Called with c.mu held.
func (c *FDCache) evictIfNearLimitLocked() {
	var rlim syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlim); err != nil {
		return
	}
	for uint64(len(c.byPath))+c.headroom >= rlim.Cur {
		victim := c.evictOneIdleLocked()
		if victim == nil {
			return // nothing idle left to reclaim
		}
	}
}

func (c *FDCache) evictOneIdleLocked() *fdEntry {
	for e := c.lru.Back(); e != nil; e = e.Prev() {
		entry := e.Value.(*fdEntry)
		if entry.refCount == 0 {
			c.lru.Remove(e)
			delete(c.byPath, entry.path)
			if err := entry.file.Close(); err != nil {
				nlog.Warningf("ctfser: failed to close evicted fd for %q: %v", entry.path, err)
			}
			return entry
		}
	}
	return nil
}

// Close closes every still-open, idle handle - called at process shutdown.
func (c *FDCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for e := c.lru.Front(); e != nil; {
		next := e.Next()
		entry := e.Value.(*fdEntry)
		if entry.refCount == 0 {
			c.lru.Remove(e)
			delete(c.byPath, entry.path)
			_ = entry.file.Close()
		}
		e = next
	}
}

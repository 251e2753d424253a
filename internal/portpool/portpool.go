// Package portpool implements the process-wide free-port lease used to
// stand up one ephemeral gRPC listener per query proxy.
package portpool

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/singnet/dasbus/internal/logging"
)

var log = logging.Scope("busnode")

// ErrExhausted is returned when no port in the configured range is free.
var ErrExhausted = fmt.Errorf("portpool: exhausted")

// ErrNotInitialized is returned by Acquire/Release before Initialize has run.
var ErrNotInitialized = fmt.Errorf("portpool: not initialized")

const cooldown = 2 * time.Second

// Pool is a singleton free-port list, guarded by one mutex, realizing the
// acquire-oldest / release-to-head semantics the command bus relies on:
// a released port goes back to the head of the line so the next acquire
// prefers recently-freed ports over ports that have never been used.
type Pool struct {
	mu    sync.Mutex
	free  *list.List // front = next to acquire
	lower uint16
	upper uint16
	inUse map[uint16]struct{}

	// recent remembers recently released ports for operational visibility
	// (see Recent). Acquire does not consult it.
	recent *lru.Cache
}

var (
	instMu sync.Mutex
	inst   *Pool
)

// Initialize (re)creates the singleton pool for [lower, upper]. Unlike the
// Rust original, a second call does not panic: it replaces the pool,
// matching this module's general idempotent-singleton posture (see
// servicebus.Singleton).
func Initialize(lower, upper uint16) error {
	instMu.Lock()
	defer instMu.Unlock()
	p, err := newPool(lower, upper)
	if err != nil {
		return err
	}
	inst = p
	return nil
}

func newPool(lower, upper uint16) (*Pool, error) {
	if upper < lower {
		return nil, fmt.Errorf("portpool: invalid range [%d, %d]", lower, upper)
	}
	cache, err := lru.New(256)
	if err != nil {
		return nil, err
	}
	p := &Pool{
		free:   list.New(),
		lower:  lower,
		upper:  upper,
		inUse:  map[uint16]struct{}{},
		recent: cache,
	}
	for port := lower; ; port++ {
		p.free.PushBack(port)
		if port == upper {
			break
		}
	}
	return p, nil
}

// Instance returns the process-wide pool, or ErrNotInitialized.
func Instance() (*Pool, error) {
	instMu.Lock()
	defer instMu.Unlock()
	if inst == nil {
		return nil, ErrNotInitialized
	}
	return inst, nil
}

// Acquire leases the front-most free port. A proxy's Close synchronously
// waits for its RPC server to fully stop before calling Release (see
// internal/queryproxy.Base.Close), so by the time a port reaches the front
// of this list it is genuinely free to bind again - no cooldown needed.
func (p *Pool) Acquire() (uint16, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.free.Front()
	if e == nil {
		return 0, ErrExhausted
	}
	port := e.Value.(uint16)
	p.free.Remove(e)
	p.inUse[port] = struct{}{}
	log.Debugw("port acquired", "port", port)
	return port, nil
}

// Release returns port to the head of the free list, so the next Acquire
// prefers it over a port that has never been used, and records it in the
// recent-release cache for operational visibility (Recent).
func (p *Pool) Release(port uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inUse, port)
	p.free.PushFront(port)
	p.recent.Add(port, time.Now())
	log.Debugw("port released", "port", port)
}

// Recent reports whether port was released within recently-seen history
// (a debug/observability hook, not an acquisition gate).
func (p *Pool) Recent(port uint16) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.recent.Get(port)
	return ok
}

// Len reports the number of currently free ports (test hook).
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free.Len()
}

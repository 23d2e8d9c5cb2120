package store

import (
	"sync/atomic"
	"time"
)

// opMetric holds the counters for one operation name.
type opMetric struct {
	calls  atomic.Uint64
	errors atomic.Uint64
	nanos  atomic.Uint64
}

func (m *opMetric) record(d time.Duration, failed bool) {
	m.calls.Add(1)
	m.nanos.Add(uint64(d.Nanoseconds()))
	if failed {
		m.errors.Add(1)
	}
}

// Registry tracks per-operation call counts, error counts and accumulated
// latency. The operation set is fixed at construction, so recording is a
// map lookup plus atomic adds: no locks, safe from any goroutine.
//
// Each Store owns its own Registry; there is no process-wide state.
type Registry struct {
	ops map[string]*opMetric
}

func newRegistry(names ...string) *Registry {
	ops := make(map[string]*opMetric, len(names))
	for _, name := range names {
		ops[name] = &opMetric{}
	}
	return &Registry{ops: ops}
}

// record counts one completed operation. Unknown names are dropped rather
// than grown: growing the map would need a lock.
func (r *Registry) record(name string, d time.Duration, failed bool) {
	if m, ok := r.ops[name]; ok {
		m.record(d, failed)
	}
}

// OpStats is a point-in-time view of one operation's counters.
type OpStats struct {
	Calls  uint64
	Errors uint64
	Mean   time.Duration
}

// Stats returns a snapshot of all counters. Counters may advance while the
// snapshot is taken; each individual value is consistent.
func (r *Registry) Stats() map[string]OpStats {
	out := make(map[string]OpStats, len(r.ops))
	for name, m := range r.ops {
		calls := m.calls.Load()
		s := OpStats{
			Calls:  calls,
			Errors: m.errors.Load(),
		}
		if calls > 0 {
			s.Mean = time.Duration(m.nanos.Load() / calls)
		}
		out[name] = s
	}
	return out
}

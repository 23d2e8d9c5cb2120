// Package store maps typed records onto an embedded ordered key-value
// engine and serializes all engine access through a single-writer
// dispatcher.
//
// A Store owns one engine.Engine handle and one worker goroutine. Callers
// never touch the engine: typed operations are built by a Set view
// (see set.go), encoded to byte keys and values, and sent to the worker
// as messages. The worker executes them strictly in arrival order, which
// makes the engine-visible effect order equal to the enqueue order under
// any number of concurrent callers.
//
// Every record is written twice: the full body under its primary key and
// a compact summary under its index key. Range queries read only index
// entries, so listing never needs a second engine read (covering index).
package store

import (
	"io"
	"sync"

	"github.com/strata/strata/internal/engine"
	"github.com/strata/strata/internal/observability"
)

// Operation names used by the metric registry.
const (
	opInsert = "insert"
	opFetch  = "fetch"
	opUpdate = "update"
	opDelete = "delete"
	opQuery  = "query"
	opBulk   = "bulk"
)

// Store is the async facade over one engine handle. Safe for concurrent
// use from any number of goroutines.
type Store struct {
	eng engine.Engine
	reg *Registry
	log *observability.Logger

	requests chan request
	closing  chan struct{} // closed by Close to stop the worker
	done     chan struct{} // closed when the worker has exited

	closeOnce sync.Once
	closeErr  error
}

// New wraps an engine and starts the dispatcher worker. The Store takes
// ownership of the engine handle; it must not be used elsewhere. A nil
// logger discards output.
func New(eng engine.Engine, log *observability.Logger) *Store {
	if log == nil {
		log = observability.NewLogger("store", io.Discard)
	}
	s := &Store{
		eng:      eng,
		reg:      newRegistry(opInsert, opFetch, opUpdate, opDelete, opQuery, opBulk),
		log:      log,
		requests: make(chan request, queueDepth),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	s.log.Info("store open")
	return s
}

// Open opens an engine backend by kind and wraps it in a Store.
func Open(kind, path string, log *observability.Logger) (*Store, error) {
	eng, err := engine.Open(kind, path)
	if err != nil {
		return nil, err
	}
	return New(eng, log), nil
}

// Close stops the worker and closes the engine. Operations still queued
// fail with ErrUnavailable. Close is idempotent.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
		<-s.done
		s.closeErr = s.eng.Close()
		s.log.Info("store closed")
	})
	return s.closeErr
}

// Stats returns a snapshot of the per-operation metric counters.
func (s *Store) Stats() map[string]OpStats {
	return s.reg.Stats()
}

// Key namespacing: primary records and index entries live in disjoint
// regions of the flat engine keyspace, partitioned per entity name.
//
//	data:  'd' 0x00 name 0x00 <primary key>
//	index: 'i' 0x00 name 0x00 <index bytes>
//
// Entity names must not contain 0x00; the tag byte and separators keep
// regions from ever overlapping.
const (
	dataTag  = 'd'
	indexTag = 'i'
	nameSep  = 0x00
)

func dataKey(name string, key []byte) []byte {
	out := make([]byte, 0, 3+len(name)+len(key))
	out = append(out, dataTag, nameSep)
	out = append(out, name...)
	out = append(out, nameSep)
	return append(out, key...)
}

func indexKey(name string, idx []byte) []byte {
	out := make([]byte, 0, 3+len(name)+len(idx))
	out = append(out, indexTag, nameSep)
	out = append(out, name...)
	out = append(out, nameSep)
	return append(out, idx...)
}

func indexPrefix(name string) []byte {
	out := make([]byte, 0, 3+len(name))
	out = append(out, indexTag, nameSep)
	out = append(out, name...)
	return append(out, nameSep)
}

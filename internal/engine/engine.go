// Package engine abstracts the embedded ordered key-value engine the
// storage core runs on.
//
// An Engine is an opaque ordered map from bytes to bytes: point get,
// atomic batch write, and forward range iteration. Two backends are
// provided: goleveldb (default, also usable purely in memory) and SQLite.
// SQLite compares BLOB keys with memcmp, so both backends iterate in the
// exact unsigned byte order the key encoding relies on.
//
// Engines are not safe for concurrent use; the storage core confines each
// handle to a single worker goroutine.
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("engine: key not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("engine: closed")
)

// Engine is the ordered byte-keyed store contract.
type Engine interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Write applies every operation in the batch as one unit.
	Write(b *Batch) error

	// Scan iterates keys in [start, limit) in ascending byte order.
	// A nil start begins at the first key; a nil limit means no upper
	// bound. The iterator's Key/Value slices are only valid until the
	// next call to Next.
	Scan(start, limit []byte) (Iterator, error)

	// Sync flushes buffered state to stable storage.
	Sync() error

	// Close releases the engine. Further calls return ErrClosed.
	Close() error
}

// Iterator walks a key range in ascending order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Close() error
}

type op struct {
	key, value []byte
	delete     bool
}

// Batch accumulates puts and deletes for a single atomic Write.
type Batch struct {
	ops []op
}

// Put queues an upsert of key to value.
func (b *Batch) Put(key, value []byte) {
	b.ops = append(b.ops, op{key: key, value: value})
}

// Delete queues removal of key. Deleting an absent key is a no-op.
func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, op{key: key, delete: true})
}

// Len reports the number of queued operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Backend kinds accepted by Open.
const (
	KindLevelDB = "leveldb"
	KindSQLite  = "sqlite"
	KindMemory  = "memory"
)

// Open opens a backend by kind. KindMemory ignores path and is
// non-durable; the other kinds create path as needed.
func Open(kind, path string) (Engine, error) {
	switch kind {
	case KindLevelDB, "":
		return OpenLevelDB(path)
	case KindSQLite:
		return OpenSQLite(path)
	case KindMemory:
		return OpenMemory()
	default:
		return nil, fmt.Errorf("unknown engine kind %q", kind)
	}
}

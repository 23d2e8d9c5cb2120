package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/strata/strata/internal/engine"
	"github.com/strata/strata/internal/keys"
)

// Entity is the capability set a record type must implement to be
// persisted: a stable unique primary key, an order-preserving index
// derived from its fields, and a cheap summary projection stored as the
// index entry's value.
//
// Implementations must use value receivers: the store decodes into the
// zero value of the concrete type. Name must be constant per type and
// must not contain 0x00.
type Entity[S any] interface {
	Name() string
	Key() []byte
	Index() []byte
	Summary() S
}

// DefaultLimit is used when a Query does not set a positive Limit.
const DefaultLimit = 10

// bulkChunk bounds how many records one bulk message writes, keeping
// per-operation batch size and memory flat regardless of input length.
const bulkChunk = 1000

// Query describes a bounded, resumable range scan over index bytes.
type Query struct {
	// Prefix selects the index range to scan.
	Prefix []byte

	// After is an exclusive lower bound, used as a resume cursor: pass
	// the Index of the last Match from the previous page.
	After []byte

	// Limit caps the number of results; DefaultLimit if not positive.
	Limit int
}

// Match is one query result. Index is the entry's raw index bytes and
// doubles as the cursor for the next page.
type Match[S any] struct {
	Index   []byte
	Summary S
}

// Set is a typed view of a Store for one entity type, bound at the call
// site. Copies share the underlying Store and are safe for concurrent use.
type Set[E Entity[S], S any] struct {
	store *Store
	name  string
}

// NewSet binds a Store to an entity type.
func NewSet[E Entity[S], S any](s *Store) Set[E, S] {
	var zero E
	return Set[E, S]{store: s, name: zero.Name()}
}

// Insert writes the record body and its covering index entry as one
// engine batch. Inserting under an existing key overwrites; uniqueness is
// the caller's contract.
func (c Set[E, S]) Insert(ctx context.Context, e E) error {
	body, summary, err := c.encode(e)
	if err != nil {
		return err
	}
	dk := dataKey(c.name, e.Key())
	ik := indexKey(c.name, e.Index())

	_, err = c.store.dispatch(ctx, opInsert, func(eng engine.Engine) (any, error) {
		b := new(engine.Batch)
		b.Put(dk, body)
		b.Put(ik, summary)
		if err := eng.Write(b); err != nil {
			return nil, fmt.Errorf("insert %s: %w", c.name, err)
		}
		return nil, nil
	})
	return err
}

// Fetch reads the record stored under key. The second return value is
// false when the key is absent.
func (c Set[E, S]) Fetch(ctx context.Context, key []byte) (E, bool, error) {
	var zero E
	dk := dataKey(c.name, key)

	v, err := c.store.dispatch(ctx, opFetch, func(eng engine.Engine) (any, error) {
		buf, err := eng.Get(dk)
		if errors.Is(err, engine.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", c.name, err)
		}
		return buf, nil
	})
	if err != nil {
		return zero, false, err
	}
	if v == nil {
		return zero, false, nil
	}

	var out E
	if err := json.Unmarshal(v.([]byte), &out); err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return out, true, nil
}

// Update reads the current record, applies transform and writes the
// result back as the new primary record. Fails with ErrMissing when the
// key is absent.
//
// The index entry is not rewritten: a transform that changes
// index-relevant fields must be followed by an explicit Delete + Insert,
// otherwise the old index entry goes stale.
//
// The transform runs on the dispatcher worker, which is what makes
// concurrent read-modify-write sequences on one key linearize. It must be
// pure and must not call back into the Store.
func (c Set[E, S]) Update(ctx context.Context, key []byte, transform func(E) E) (E, error) {
	var zero E
	dk := dataKey(c.name, key)

	v, err := c.store.dispatch(ctx, opUpdate, func(eng engine.Engine) (any, error) {
		cur, err := eng.Get(dk)
		if errors.Is(err, engine.ErrNotFound) {
			return nil, ErrMissing
		}
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", c.name, err)
		}

		var before E
		if err := json.Unmarshal(cur, &before); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		after := transform(before)

		body, err := json.Marshal(after)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", c.name, err)
		}
		b := new(engine.Batch)
		b.Put(dk, body)
		if err := eng.Write(b); err != nil {
			return nil, fmt.Errorf("update %s: %w", c.name, err)
		}
		return after, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(E), nil
}

// Delete removes the record and its current index entry in one batch and
// returns the removed record. Fails with ErrMissing when the key is
// absent.
func (c Set[E, S]) Delete(ctx context.Context, key []byte) (E, error) {
	var zero E
	dk := dataKey(c.name, key)

	v, err := c.store.dispatch(ctx, opDelete, func(eng engine.Engine) (any, error) {
		cur, err := eng.Get(dk)
		if errors.Is(err, engine.ErrNotFound) {
			return nil, ErrMissing
		}
		if err != nil {
			return nil, fmt.Errorf("delete %s: %w", c.name, err)
		}

		var rec E
		if err := json.Unmarshal(cur, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}

		b := new(engine.Batch)
		b.Delete(dk)
		b.Delete(indexKey(c.name, rec.Index()))
		if err := eng.Write(b); err != nil {
			return nil, fmt.Errorf("delete %s: %w", c.name, err)
		}
		return rec, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(E), nil
}

// Query scans the covering index forward from max(Prefix, After)
// (exclusive at After) to the prefix's upper bound, returning up to Limit
// decoded summaries in ascending index-byte order. The last Match's Index
// is the After cursor for the next page.
func (c Set[E, S]) Query(ctx context.Context, q Query) ([]Match[S], error) {
	raw, err := c.scan(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]Match[S], 0, len(raw))
	for _, p := range raw {
		var summary S
		if err := json.Unmarshal(p.value, &summary); err != nil {
			return nil, fmt.Errorf("decode %s summary: %w", c.name, err)
		}
		out = append(out, Match[S]{Index: p.key, Summary: summary})
	}
	return out, nil
}

// Keys returns only the raw index keys a Query would visit. Intended for
// index verification in tests and maintenance tooling.
func (c Set[E, S]) Keys(ctx context.Context, q Query) ([][]byte, error) {
	raw, err := c.scan(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(raw))
	for i, p := range raw {
		out[i] = p.key
	}
	return out, nil
}

type pair struct {
	key, value []byte
}

// scan runs the bounded range scan on the worker and returns copied
// (index, summary) pairs; keys come back with the namespace stripped.
func (c Set[E, S]) scan(ctx context.Context, q Query) ([]pair, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	ns := indexPrefix(c.name)

	start := append(append([]byte{}, ns...), q.Prefix...)
	upper := keys.Successor(start)
	if q.After != nil {
		// Smallest key strictly greater than After.
		resume := append(append(append([]byte{}, ns...), q.After...), 0x00)
		if bytes.Compare(resume, start) > 0 {
			start = resume
		}
	}

	v, err := c.store.dispatch(ctx, opQuery, func(eng engine.Engine) (any, error) {
		it, err := eng.Scan(start, upper)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", c.name, err)
		}
		defer it.Close()

		var out []pair
		for len(out) < limit && it.Next() {
			out = append(out, pair{
				key:   append([]byte{}, it.Key()[len(ns):]...),
				value: append([]byte{}, it.Value()...),
			})
		}
		if err := it.Err(); err != nil {
			return nil, fmt.Errorf("query %s: %w", c.name, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]pair), nil
}

// Bulk inserts records in chunks of up to 1000, each chunk one engine
// batch. Equivalent to sequential Inserts except that visibility order
// across chunk boundaries is not guaranteed while Bulk is in flight.
func (c Set[E, S]) Bulk(ctx context.Context, records iter.Seq[E]) error {
	b := new(engine.Batch)
	n := 0

	flush := func() error {
		if n == 0 {
			return nil
		}
		chunk := b
		b, n = new(engine.Batch), 0
		_, err := c.store.dispatch(ctx, opBulk, func(eng engine.Engine) (any, error) {
			if err := eng.Write(chunk); err != nil {
				return nil, fmt.Errorf("bulk %s: %w", c.name, err)
			}
			return nil, nil
		})
		return err
	}

	for e := range records {
		body, summary, err := c.encode(e)
		if err != nil {
			return err
		}
		b.Put(dataKey(c.name, e.Key()), body)
		b.Put(indexKey(c.name, e.Index()), summary)
		n++
		if n == bulkChunk {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// encode serializes a record body and its summary projection.
func (c Set[E, S]) encode(e E) (body, summary []byte, err error) {
	body, err = json.Marshal(e)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s: %w", c.name, err)
	}
	summary, err = json.Marshal(e.Summary())
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s summary: %w", c.name, err)
	}
	return body, summary, nil
}

package store

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/strata/strata/internal/engine"
	"github.com/strata/strata/internal/observability"
)

func newBenchStore(b *testing.B) *Store {
	b.Helper()
	eng, err := engine.OpenMemory()
	if err != nil {
		b.Fatal(err)
	}
	s := New(eng, observability.NewLogger("store", io.Discard))
	b.Cleanup(func() { s.Close() })
	return s
}

func BenchmarkInsert(b *testing.B) {
	s := newBenchStore(b)
	things := NewSet[thing, brief](s)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := things.Insert(ctx, newThing(0, uint64(i), "bench")); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFetch(b *testing.B) {
	s := newBenchStore(b)
	things := NewSet[thing, brief](s)
	ctx := context.Background()

	rec := newThing(0, 1, "bench")
	if err := things.Insert(ctx, rec); err != nil {
		b.Fatal(err)
	}
	key := rec.Key()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok, err := things.Fetch(ctx, key); err != nil || !ok {
			b.Fatal(err)
		}
	}
}

func BenchmarkQuery(b *testing.B) {
	s := newBenchStore(b)
	things := NewSet[thing, brief](s)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		if err := things.Insert(ctx, newThing(0, uint64(i), fmt.Sprintf("q%d", i))); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		matches, err := things.Query(ctx, Query{Prefix: []byte{0}, Limit: 50})
		if err != nil {
			b.Fatal(err)
		}
		if len(matches) != 50 {
			b.Fatalf("matches = %d", len(matches))
		}
	}
}

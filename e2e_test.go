package strata_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/strata/strata/internal/keys"
	"github.com/strata/strata/internal/observability"
	"github.com/strata/strata/internal/store"
)

// =============================================================================
// End-to-End Tests
//
// These run the full stack (typed set, dispatcher, key encoding) against
// real file-backed engine backends, including close-and-reopen durability.
// =============================================================================

type event struct {
	ID      uuid.UUID `json:"id"`
	Level   uint8     `json:"level"`
	Created uint64    `json:"created"`
	Message string    `json:"message"`
}

type eventBrief struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

func (e event) Name() string { return "events" }

func (e event) Key() []byte { return e.ID[:] }

func (e event) Index() []byte {
	return keys.Reserve(1 + keys.TimeWidth + keys.IDWidth).
		Kind(e.Level).
		Time(e.Created).
		ID(e.ID).
		Build()
}

func (e event) Summary() eventBrief { return eventBrief{ID: e.ID, Message: e.Message} }

func openStore(t *testing.T, kind, dir string) *store.Store {
	t.Helper()
	s, err := store.Open(kind, dir, observability.NewLogger("e2e", io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestE2E_Lifecycle(t *testing.T) {
	for _, kind := range []string{"leveldb", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			dir := t.TempDir()
			if kind == "sqlite" {
				dir += "/data.db"
			}
			s := openStore(t, kind, dir)
			defer s.Close()

			events := store.NewSet[event, eventBrief](s)
			ctx := context.Background()

			// Insert a spread of levels and timestamps.
			var inserted []event
			for i := 0; i < 30; i++ {
				e := event{
					ID:      uuid.New(),
					Level:   uint8(i % 3),
					Created: uint64(1000 + i),
					Message: fmt.Sprintf("event-%02d", i),
				}
				if err := events.Insert(ctx, e); err != nil {
					t.Fatal(err)
				}
				inserted = append(inserted, e)
			}

			// Paginate level 1 newest-first, 4 at a time.
			var got []string
			var after []byte
			for {
				page, err := events.Query(ctx, store.Query{Prefix: []byte{1}, After: after, Limit: 4})
				if err != nil {
					t.Fatal(err)
				}
				if len(page) == 0 {
					break
				}
				for _, m := range page {
					got = append(got, m.Summary.Message)
				}
				after = page[len(page)-1].Index
			}
			if len(got) != 10 {
				t.Fatalf("level-1 events = %d, want 10", len(got))
			}
			for i := 1; i < len(got); i++ {
				if got[i-1] < got[i] {
					t.Errorf("not newest-first: %v", got)
				}
			}

			// Read-modify-write, then remove.
			target := inserted[4]
			if _, err := events.Update(ctx, target.Key(), func(e event) event {
				e.Message = "edited"
				return e
			}); err != nil {
				t.Fatal(err)
			}
			fetched, ok, err := events.Fetch(ctx, target.Key())
			if err != nil || !ok {
				t.Fatalf("fetch after update: ok=%v err=%v", ok, err)
			}
			if fetched.Message != "edited" {
				t.Errorf("Message = %q", fetched.Message)
			}

			if _, err := events.Delete(ctx, target.Key()); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := events.Fetch(ctx, target.Key()); ok {
				t.Error("record present after delete")
			}

			stats := s.Stats()
			if stats["insert"].Calls != 30 {
				t.Errorf("insert calls = %d", stats["insert"].Calls)
			}
			if stats["insert"].Errors != 0 {
				t.Errorf("insert errors = %d", stats["insert"].Errors)
			}
		})
	}
}

func TestE2E_ReopenKeepsData(t *testing.T) {
	for _, kind := range []string{"leveldb", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			dir := t.TempDir()
			if kind == "sqlite" {
				dir += "/data.db"
			}
			ctx := context.Background()

			rec := event{ID: uuid.New(), Level: 0, Created: 7, Message: "durable"}

			s := openStore(t, kind, dir)
			events := store.NewSet[event, eventBrief](s)
			if err := events.Insert(ctx, rec); err != nil {
				t.Fatal(err)
			}
			if err := s.Close(); err != nil {
				t.Fatal(err)
			}

			s2 := openStore(t, kind, dir)
			defer s2.Close()
			events2 := store.NewSet[event, eventBrief](s2)

			got, ok, err := events2.Fetch(ctx, rec.Key())
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("record lost across reopen")
			}
			if got != rec {
				t.Errorf("got = %+v", got)
			}

			page, err := events2.Query(ctx, store.Query{Prefix: []byte{0}, Limit: 1})
			if err != nil {
				t.Fatal(err)
			}
			if len(page) != 1 || page[0].Summary.Message != "durable" {
				t.Errorf("index lost across reopen: %+v", page)
			}
		})
	}
}

// Package main is the strata maintenance CLI.
//
// Usage:
//
//	strata demo [dir]          — run a smoke workload and print metrics
//	strata keys <dir>          — dump raw index keys from a data directory
//	strata version             — print version
//
// The engine backend is selected with STRATA_ENGINE (leveldb, sqlite,
// memory) or the config file at ~/.strata/config.json; leveldb is the
// default.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strata/strata/internal/engine"
	"github.com/strata/strata/internal/keys"
	"github.com/strata/strata/internal/observability"
	"github.com/strata/strata/internal/store"
)

const (
	version = "0.1.0"
	appName = "strata"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch cmd := os.Args[1]; cmd {
	case "demo":
		runDemo(os.Args[2:])
	case "keys":
		runKeys(os.Args[2:])
	case "version":
		fmt.Printf("%s v%s\n", appName, version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `%s v%s — embedded entity store maintenance tool

Usage:
  %s <command>

Commands:
  demo [dir]    Run a smoke workload against a store and print metrics
  keys <dir>    Dump raw index keys from a data directory
  version       Print version
  help          Show this help

Environment:
  STRATA_ENGINE   Backend: leveldb (default), sqlite, memory
  STRATA_DATA     Base directory holding config.json (default ~/.strata)
`, appName, version, appName)
}

// note is the sample record the demo workload stores.
type note struct {
	ID      uuid.UUID `json:"id"`
	State   uint8     `json:"state"`
	Created uint64    `json:"created"`
	Title   string    `json:"title"`
}

type noteBrief struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

func (n note) Name() string { return "notes" }

func (n note) Key() []byte { return n.ID[:] }

func (n note) Index() []byte {
	return keys.Reserve(1 + keys.TimeWidth + keys.IDWidth).
		Kind(n.State).
		Time(n.Created).
		ID(n.ID).
		Build()
}

func (n note) Summary() noteBrief { return noteBrief{ID: n.ID, Title: n.Title} }

func runDemo(args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	kind := engineKind(cfg)
	dir := dataDir(args, cfg)

	log := observability.NewLogger(appName, os.Stderr)
	s, err := store.Open(kind, dir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	notes := store.NewSet[note, noteBrief](s)
	ctx := context.Background()

	now := uint64(time.Now().UnixNano())
	for i := 0; i < 10; i++ {
		n := note{
			ID:      uuid.New(),
			State:   uint8(i % 3),
			Created: now + uint64(i),
			Title:   fmt.Sprintf("note %d", i),
		}
		if err := notes.Insert(ctx, n); err != nil {
			fmt.Fprintf(os.Stderr, "insert: %v\n", err)
			os.Exit(1)
		}
	}

	matches, err := notes.Query(ctx, store.Query{Prefix: []byte{0}, Limit: 10})
	if err != nil {
		fmt.Fprintf(os.Stderr, "query: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("engine: %s, dir: %s\n\n", kind, dir)
	fmt.Println("newest notes in state 0:")
	for _, m := range matches {
		fmt.Printf("  %s  %s\n", m.Summary.ID, m.Summary.Title)
	}
	fmt.Println()
	fmt.Print(renderStats(s.Stats()))
}

func runKeys(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: strata keys <dir>")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	eng, err := engine.Open(engineKind(cfg), args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "open engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	it, err := eng.Scan(nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		os.Exit(1)
	}
	defer it.Close()

	count := 0
	for it.Next() {
		fmt.Printf("%x\n", it.Key())
		count++
	}
	if err := it.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", count)
}

// renderStats formats the per-operation counters as a fixed-width table,
// operations sorted by name.
func renderStats(stats map[string]store.OpStats) string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %8s %8s %12s\n", "op", "calls", "errors", "mean")
	for _, name := range names {
		s := stats[name]
		fmt.Fprintf(&b, "%-8s %8d %8d %12s\n", name, s.Calls, s.Errors, s.Mean)
	}
	return b.String()
}

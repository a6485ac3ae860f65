package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/sticky/internal/platform"
	"github.com/aretw0/sticky/pkg/board"
	"github.com/aretw0/sticky/pkg/core"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to generate")
	rounds := flag.Int("rounds", 20, "Number of save/load rounds")
	keep := flag.Bool("keep", false, "Keep the benchmark directory after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "sticky_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	// Unversioned: measure encoding and file I/O, not git.
	store, err := platform.OpenStore(ctx, benchDir,
		platform.WithVersioning(false),
		platform.WithLogger(logger),
	)
	if err != nil {
		panic(err)
	}

	b := board.New(store, board.WithLogger(logger), board.WithPersistDelay(time.Hour))
	defer b.Close()
	if err := b.Open(ctx, "bench"); err != nil {
		panic(err)
	}

	fmt.Printf("Generating %d notes in %s...\n", *count, benchDir)
	start := time.Now()
	text := "The quick brown fox jumps over the lazy dog."
	for i := 0; i < *count; i++ {
		if _, err := b.AddNote(&core.NoteData{Text: &text}); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(start))

	start = time.Now()
	for i := 0; i < *rounds; i++ {
		if err := b.Flush(ctx); err != nil {
			panic(err)
		}
	}
	saved := time.Since(start)
	fmt.Printf("Save: %v per round\n", saved/time.Duration(*rounds))

	start = time.Now()
	for i := 0; i < *rounds; i++ {
		if err := b.Open(ctx, "bench"); err != nil {
			panic(err)
		}
	}
	loaded := time.Since(start)
	fmt.Printf("Load: %v per round (notes: %d)\n", loaded/time.Duration(*rounds), len(b.Notes()))

	start = time.Now()
	for _, n := range b.Notes() {
		if err := b.Select(n.ID); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Select every note: %v\n", time.Since(start))
}

package sticky_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/sticky"
	"github.com/aretw0/sticky/pkg/core"
)

// Example_basic opens an in-memory board, adds two notes and raises the first.
func Example_basic() {
	ctx := context.Background()

	store, err := sticky.OpenStore(ctx, "", sticky.WithAdapter("memory"))
	if err != nil {
		log.Fatal(err)
	}
	b := sticky.New(store)
	defer b.Close()

	if err := b.Open(ctx, "groceries"); err != nil {
		log.Fatal(err)
	}

	milk := "milk"
	first, err := b.AddNote(&sticky.NoteData{ID: "first", Text: &milk})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := b.AddNote(&sticky.NoteData{ID: "second", Position: &core.Position{X: 40, Y: 40}}); err != nil {
		log.Fatal(err)
	}
	if err := b.Select(first.ID); err != nil {
		log.Fatal(err)
	}

	for _, n := range b.Notes() {
		fmt.Println(n.ID)
	}
	// Output:
	// second
	// first
}

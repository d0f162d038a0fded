package main

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/bodul/gridwit/internal/grid"
)

func TestAnalyzeImage(t *testing.T) {
	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		t.Skip("GCP_PROJECT_ID not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := NewGeminiClient(ctx, projectID, "", "")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()

	imageData, err := os.ReadFile("test_data/example.png")
	if err != nil {
		t.Skipf("read image: %v", err)
	}

	x, err := client.AnalyzeImage(ctx, imageData, "image/png")
	if err != nil {
		t.Fatalf("analyze image: %v", err)
	}

	p, err := puzzleFromExtraction(x, grid.DefaultSize)
	if err != nil {
		t.Fatalf("extracted grid is unusable: %v", err)
	}
	t.Logf("Puzzle by %q, %d clues placed", p.Author, len(p.Clues))

	// Print a sample for manual inspection.
	out, _ := json.MarshalIndent(x, "", "  ")
	t.Logf("Extracted puzzle:\n%s", string(out))
}

func TestPuzzleFromExtraction(t *testing.T) {
	x := &Extraction{
		Author: "Photo",
		Date:   "5/6/2007",
		Grid:   []string{" a", "b", "c", ".", "d", "e", "f", ".", "g "},
		Clues: []grid.Clue{
			{Number: 1, Direction: "Across", Text: "First three"},
			{Number: 3, Direction: grid.Down, Text: "Right side", Answer: "CEG"},
			{Number: 4, Direction: "sideways", Text: "Bad direction"},
			{Number: 5, Direction: grid.Down, Text: "No such start"},
		},
	}

	p, err := puzzleFromExtraction(x, 3)
	if err != nil {
		t.Fatal(err)
	}
	if p.Grid != testGrid {
		t.Fatalf("expected normalized grid %s, got %s", testGrid, p.Grid)
	}
	if len(p.Clues) != 2 {
		t.Fatalf("expected 2 placed clues, got %+v", p.Clues)
	}
	if p.Clues[0].Answer != "ABC" || p.Clues[0].Row != 0 || p.Clues[0].Column != 0 {
		t.Fatalf("unexpected first clue %+v", p.Clues[0])
	}
	if p.Clues[1].Column != 2 {
		t.Fatalf("3 down should start at column 2, got %+v", p.Clues[1])
	}

	if _, err := puzzleFromExtraction(&Extraction{Grid: []string{"A", "B"}}, 3); err == nil {
		t.Fatal("expected an error for a short grid")
	}
}

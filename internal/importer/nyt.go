// Package importer loads NYT-style JSON puzzle archives into the puzzle store.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/bodul/gridwit/internal/database"
	"github.com/bodul/gridwit/internal/grid"
)

// File is one archived puzzle.
type File struct {
	Date    string   `json:"date"`
	Author  string   `json:"author"`
	Grid    []string `json:"grid"`
	Clues   Sides    `json:"clues"`
	Answers Sides    `json:"answers"`
}

// Sides holds across and down entries in clue order.
type Sides struct {
	Across []string `json:"across"`
	Down   []string `json:"down"`
}

// Creator persists a puzzle.
type Creator interface {
	Create(ctx context.Context, p *database.Puzzle) (int64, error)
}

// Result summarizes an import run.
type Result struct {
	Imported int
	Skipped  int
	Dropped  int // clues with no matching start in their grid
}

// Convert turns an archived puzzle into a stored one. Clue positions come
// from the grid's own numbering.
func Convert(f File, size int) (*database.Puzzle, int, error) {
	g, err := grid.Parse(f.Grid, size)
	if err != nil {
		return nil, 0, err
	}

	across, err := clues(f.Clues.Across, f.Answers.Across, grid.Across)
	if err != nil {
		return nil, 0, err
	}
	down, err := clues(f.Clues.Down, f.Answers.Down, grid.Down)
	if err != nil {
		return nil, 0, err
	}
	placed, dropped := g.PlaceClues(append(across, down...))

	raw, err := json.Marshal(g.Tokens())
	if err != nil {
		return nil, 0, fmt.Errorf("encode grid: %w", err)
	}
	return &database.Puzzle{
		DatePublished: f.Date,
		Author:        f.Author,
		Grid:          string(raw),
		Clues:         placed,
	}, len(dropped), nil
}

// clues splits "12. Text" entries and pairs them with answers by position.
func clues(texts, answers []string, d grid.Direction) ([]grid.Clue, error) {
	out := make([]grid.Clue, 0, len(texts))
	for i, t := range texts {
		num, text, ok := strings.Cut(t, ".")
		if !ok {
			return nil, fmt.Errorf("%s clue %d: missing number in %q", d, i, t)
		}
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return nil, fmt.Errorf("%s clue %d: %w", d, i, err)
		}
		c := grid.Clue{Number: n, Direction: d, Text: strings.TrimSpace(text)}
		if i < len(answers) {
			c.Answer = answers[i]
		}
		out = append(out, c)
	}
	return out, nil
}

// Dir imports every *.json file under root, laid out as <year>/<month>/*.json.
// Files that fail to decode, parse or save are logged and skipped.
func Dir(ctx context.Context, fsys fs.FS, store Creator, size int) (Result, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path.Ext(p) == ".json" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walk archive: %w", err)
	}
	sort.Strings(files)

	var res Result
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dropped, err := importFile(ctx, fsys, store, name, size)
		if err != nil {
			log.Printf("Import ignoré %s : %v", name, err)
			res.Skipped++
			continue
		}
		res.Imported++
		res.Dropped += dropped
	}
	return res, nil
}

func importFile(ctx context.Context, fsys fs.FS, store Creator, name string, size int) (int, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return 0, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	p, dropped, err := Convert(f, size)
	if err != nil {
		return 0, err
	}
	if _, err := store.Create(ctx, p); err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	return dropped, nil
}

package main

import (
	"github.com/bodul/gridwit/internal/database"
	"github.com/bodul/gridwit/internal/grid"
)

// Board is a stored puzzle parsed for play. It is read-only once built.
type Board struct {
	PuzzleID      int64
	Author        string
	DatePublished string
	Grid          *grid.Grid
	Clues         *grid.ClueIndex
}

// NewBoard parses the puzzle grid. A malformed grid returns *grid.FormatError
// and no board.
func NewBoard(p *database.Puzzle, size int) (*Board, error) {
	g, err := grid.Load(p.Grid, size)
	if err != nil {
		return nil, err
	}
	clues := p.Clues
	if clues == nil {
		clues = []grid.Clue{}
	}
	return &Board{
		PuzzleID:      p.ID,
		Author:        p.Author,
		DatePublished: p.DatePublished,
		Grid:          g,
		Clues:         grid.NewClueIndex(clues),
	}, nil
}

// ActiveClue returns the clue of the word under a cursor.
func (b *Board) ActiveClue(row, col int, d grid.Direction) (grid.Clue, bool) {
	return b.Grid.ClueFor(b.Clues, row, col, d)
}

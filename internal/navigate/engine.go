package navigate

import (
	"strings"

	"github.com/bodul/gridwit/internal/grid"
)

// Cursor is the active cell and the direction typing moves in.
type Cursor struct {
	Row       int            `json:"row"`
	Col       int            `json:"col"`
	Direction grid.Direction `json:"direction"`
}

// Engine owns the cursor of one solver. It starts with no active cell; every
// operation leaves the cursor unchanged when its target is off the board or
// black, and reports whether anything changed.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	grid     *grid.Grid
	progress *Progress
	cursor   *Cursor
}

// New returns an engine over g writing letters into p.
func New(g *grid.Grid, p *Progress) *Engine {
	return &Engine{grid: g, progress: p}
}

// Active returns the cursor, if any cell has been selected.
func (e *Engine) Active() (Cursor, bool) {
	if e.cursor == nil {
		return Cursor{}, false
	}
	return *e.cursor, true
}

// Select moves the cursor to (row, col) facing d.
func (e *Engine) Select(row, col int, d grid.Direction) bool {
	if !d.Valid() || !e.grid.Playable(row, col) {
		return false
	}
	next := Cursor{Row: row, Col: col, Direction: d}
	if e.cursor != nil && *e.cursor == next {
		return false
	}
	e.cursor = &next
	return true
}

// Click selects (row, col) keeping the current direction, or across on the
// first selection.
func (e *Engine) Click(row, col int) bool {
	return e.Select(row, col, e.direction())
}

// SelectClue moves the cursor to the start of c facing its direction.
func (e *Engine) SelectClue(c grid.Clue) bool {
	return e.Select(c.Row, c.Column, c.Direction)
}

// MoveBy shifts the cursor by a row and column delta.
func (e *Engine) MoveBy(dr, dc int) bool {
	if e.cursor == nil {
		return false
	}
	return e.Select(e.cursor.Row+dr, e.cursor.Col+dc, e.cursor.Direction)
}

// Advance steps one cell forward in the cursor direction.
func (e *Engine) Advance() bool {
	dr, dc := e.direction().Step()
	return e.MoveBy(dr, dc)
}

// Retreat steps one cell backward in the cursor direction.
func (e *Engine) Retreat() bool {
	dr, dc := e.direction().Step()
	return e.MoveBy(-dr, -dc)
}

// EnterLetter writes the first A-Z letter of raw, uppercased, at (row, col)
// and advances the cursor. Input with no such letter changes nothing.
func (e *Engine) EnterLetter(row, col int, raw string) bool {
	if !e.grid.Playable(row, col) {
		return false
	}
	letter := Normalize(raw)
	if letter == "" {
		return false
	}
	e.progress.Set(row, col, letter[:1])
	e.Advance()
	return true
}

// Type enters raw at the cursor.
func (e *Engine) Type(raw string) bool {
	if e.cursor == nil {
		return false
	}
	return e.EnterLetter(e.cursor.Row, e.cursor.Col, raw)
}

// Backspace clears the entry under the cursor, or steps back in the word
// when that cell is already empty.
func (e *Engine) Backspace() bool {
	if e.cursor == nil {
		return false
	}
	if e.progress.Clear(e.cursor.Row, e.cursor.Col) {
		return true
	}
	return e.Retreat()
}

// HandleKey applies a navigation key.
func (e *Engine) HandleKey(k Key) bool {
	switch k {
	case KeyRight:
		return e.MoveBy(0, 1)
	case KeyLeft:
		return e.MoveBy(0, -1)
	case KeyDown:
		return e.MoveBy(1, 0)
	case KeyUp:
		return e.MoveBy(-1, 0)
	case KeyTab:
		return e.Advance()
	case KeyBackspace:
		return e.Backspace()
	}
	return false
}

// Word returns the cells of the word under the cursor.
func (e *Engine) Word() []grid.Cell {
	if e.cursor == nil {
		return nil
	}
	return e.grid.Word(e.cursor.Row, e.cursor.Col, e.cursor.Direction)
}

func (e *Engine) direction() grid.Direction {
	if e.cursor == nil {
		return grid.Across
	}
	return e.cursor.Direction
}

// Normalize uppercases raw and drops every character outside A-Z.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

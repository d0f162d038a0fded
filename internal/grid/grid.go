// Package grid turns a serialized crossword grid into a numbered cell matrix.
package grid

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSize is the board dimension used by daily puzzles.
const DefaultSize = 15

// Black is the token of an unplayable cell.
const Black = "."

// Direction is a word direction.
type Direction string

const (
	Across Direction = "across"
	Down   Direction = "down"
)

// Valid reports whether d is across or down.
func (d Direction) Valid() bool { return d == Across || d == Down }

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Down {
		return Across
	}
	return Down
}

// Step returns the row and column delta of one step forward in d.
func (d Direction) Step() (int, int) {
	if d == Down {
		return 1, 0
	}
	return 0, 1
}

// Starts records which words begin at a cell.
type Starts struct {
	Across bool `json:"across"`
	Down   bool `json:"down"`
}

// In reports whether a word in direction d starts here.
func (s Starts) In(d Direction) bool {
	if d == Down {
		return s.Down
	}
	return s.Across
}

// Cell is a single grid position. Number is 0 when the cell starts no word.
type Cell struct {
	Value   string `json:"value"`
	IsBlack bool   `json:"isBlack"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Number  int    `json:"number,omitempty"`
	IsStart Starts `json:"isStart"`
}

// Grid is an immutable N×N cell matrix.
type Grid struct {
	Size  int      `json:"size"`
	Cells [][]Cell `json:"cells"`
}

// Decode splits a serialized grid into tokens. The usual form is a JSON array
// of single-character strings; a bare string is read one character per token.
func Decode(serialized string) ([]string, error) {
	s := strings.TrimSpace(serialized)
	if s == "" {
		return nil, &FormatError{Reason: "empty grid"}
	}

	if strings.HasPrefix(s, "[") {
		var tokens []string
		if err := json.Unmarshal([]byte(s), &tokens); err != nil {
			return nil, &FormatError{Reason: "undecodable grid", Err: err}
		}
		return tokens, nil
	}

	tokens := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		tokens = append(tokens, string(r))
	}
	return tokens, nil
}

// Parse builds the numbered cell matrix for an N×N board. It fails without
// returning a partial grid when the token count or a token is malformed.
func Parse(tokens []string, size int) (*Grid, error) {
	if size <= 0 {
		return nil, &FormatError{Reason: "invalid board size", Want: size}
	}
	if len(tokens) == 0 {
		return nil, &FormatError{Reason: "empty grid", Want: size * size}
	}
	if len(tokens) != size*size {
		return nil, &FormatError{Reason: "wrong cell count", Got: len(tokens), Want: size * size}
	}
	for i, t := range tokens {
		if utf8.RuneCountInString(t) != 1 {
			return nil, &FormatError{Reason: fmt.Sprintf("token %d is not a single character", i)}
		}
	}

	black := func(row, col int) bool { return tokens[row*size+col] == Black }

	cells := make([][]Cell, size)
	number := 1
	for row := 0; row < size; row++ {
		cells[row] = make([]Cell, size)
		for col := 0; col < size; col++ {
			c := Cell{
				Value:   tokens[row*size+col],
				IsBlack: black(row, col),
				Row:     row,
				Col:     col,
			}
			if !c.IsBlack {
				c.IsStart.Across = (col == 0 || black(row, col-1)) && col < size-1 && !black(row, col+1)
				c.IsStart.Down = (row == 0 || black(row-1, col)) && row < size-1 && !black(row+1, col)
			}
			if c.IsStart.Across || c.IsStart.Down {
				c.Number = number
				number++
			}
			cells[row][col] = c
		}
	}

	return &Grid{Size: size, Cells: cells}, nil
}

// Load decodes and parses a serialized grid in one step.
func Load(serialized string, size int) (*Grid, error) {
	tokens, err := Decode(serialized)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, size)
}

// InBounds reports whether (row, col) lies on the board.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Size && col >= 0 && col < g.Size
}

// At returns the cell at (row, col).
func (g *Grid) At(row, col int) (Cell, bool) {
	if !g.InBounds(row, col) {
		return Cell{}, false
	}
	return g.Cells[row][col], true
}

// Playable reports whether (row, col) is on the board and not black.
func (g *Grid) Playable(row, col int) bool {
	c, ok := g.At(row, col)
	return ok && !c.IsBlack
}

// Starts returns the numbered cells in scan order.
func (g *Grid) Starts() []Cell {
	var out []Cell
	for _, row := range g.Cells {
		for _, c := range row {
			if c.Number > 0 {
				out = append(out, c)
			}
		}
	}
	return out
}

// Word returns the run of playable cells through (row, col) in direction d,
// first cell first. It is empty for black or off-board positions.
func (g *Grid) Word(row, col int, d Direction) []Cell {
	if !g.Playable(row, col) {
		return nil
	}
	dr, dc := d.Step()
	for g.Playable(row-dr, col-dc) {
		row, col = row-dr, col-dc
	}
	var out []Cell
	for g.Playable(row, col) {
		out = append(out, g.Cells[row][col])
		row, col = row+dr, col+dc
	}
	return out
}

// Tokens serializes the grid back into its token sequence.
func (g *Grid) Tokens() []string {
	out := make([]string, 0, g.Size*g.Size)
	for _, row := range g.Cells {
		for _, c := range row {
			out = append(out, c.Value)
		}
	}
	return out
}

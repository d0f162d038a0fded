// Package navigate holds the cursor and letter state of a crossword being solved.
package navigate

import "github.com/bodul/gridwit/internal/grid"

// Progress is the letters a solver has entered, one per playable cell.
// An empty string means the cell is untouched.
type Progress struct {
	grid    *grid.Grid
	entries [][]string
}

// NewProgress returns empty progress for g.
func NewProgress(g *grid.Grid) *Progress {
	entries := make([][]string, g.Size)
	for i := range entries {
		entries[i] = make([]string, g.Size)
	}
	return &Progress{grid: g, entries: entries}
}

// Get returns the entry at (row, col), or "" when off the board.
func (p *Progress) Get(row, col int) string {
	if !p.grid.InBounds(row, col) {
		return ""
	}
	return p.entries[row][col]
}

// Set stores value at (row, col). It returns false for black or off-board cells.
func (p *Progress) Set(row, col int, value string) bool {
	if !p.grid.Playable(row, col) {
		return false
	}
	p.entries[row][col] = value
	return true
}

// Clear empties (row, col). It returns false when nothing was removed.
func (p *Progress) Clear(row, col int) bool {
	if p.Get(row, col) == "" {
		return false
	}
	p.entries[row][col] = ""
	return true
}

// Filled counts non-empty entries.
func (p *Progress) Filled() int {
	n := 0
	for _, row := range p.entries {
		for _, v := range row {
			if v != "" {
				n++
			}
		}
	}
	return n
}

// Snapshot returns a copy of the entries.
func (p *Progress) Snapshot() [][]string {
	cp := make([][]string, len(p.entries))
	for i, row := range p.entries {
		cp[i] = make([]string, len(row))
		copy(cp[i], row)
	}
	return cp
}

// Restore loads entries from a snapshot, skipping black and off-board cells.
func (p *Progress) Restore(snapshot [][]string) {
	for r, row := range snapshot {
		for c, v := range row {
			p.Set(r, c, v)
		}
	}
}

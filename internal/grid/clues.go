package grid

import "sort"

// Clue is one across or down clue of a puzzle.
type Clue struct {
	Number    int       `json:"number"`
	Direction Direction `json:"direction"`
	Text      string    `json:"text"`
	Answer    string    `json:"answer"`
	Row       int       `json:"row"`
	Column    int       `json:"column"`
}

type clueKey struct {
	number    int
	direction Direction
}

// ClueIndex looks clues up by number and direction. It does not check that
// every start in a grid has a clue.
type ClueIndex struct {
	clues []Clue
	byKey map[clueKey]int
}

// NewClueIndex indexes clues, ordered across first then down, each by number.
// A later clue with the same number and direction replaces an earlier one.
func NewClueIndex(clues []Clue) *ClueIndex {
	idx := &ClueIndex{byKey: make(map[clueKey]int, len(clues))}
	for _, c := range clues {
		k := clueKey{c.Number, c.Direction}
		if i, ok := idx.byKey[k]; ok {
			idx.clues[i] = c
			continue
		}
		idx.byKey[k] = len(idx.clues)
		idx.clues = append(idx.clues, c)
	}

	sort.SliceStable(idx.clues, func(i, j int) bool {
		a, b := idx.clues[i], idx.clues[j]
		if a.Direction != b.Direction {
			return a.Direction == Across
		}
		return a.Number < b.Number
	})
	for i, c := range idx.clues {
		idx.byKey[clueKey{c.Number, c.Direction}] = i
	}
	return idx
}

// Lookup returns the clue for (number, direction).
func (idx *ClueIndex) Lookup(number int, d Direction) (Clue, bool) {
	i, ok := idx.byKey[clueKey{number, d}]
	if !ok {
		return Clue{}, false
	}
	return idx.clues[i], true
}

// All returns the indexed clues in display order.
func (idx *ClueIndex) All() []Clue {
	out := make([]Clue, len(idx.clues))
	copy(out, idx.clues)
	return out
}

// InDirection returns the clues of one direction ordered by number.
func (idx *ClueIndex) InDirection(d Direction) []Clue {
	out := []Clue{}
	for _, c := range idx.clues {
		if c.Direction == d {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of indexed clues.
func (idx *ClueIndex) Len() int { return len(idx.clues) }

// Neighbor returns the clue offset positions away from (number, d) in display
// order, wrapping around at both ends.
func (idx *ClueIndex) Neighbor(number int, d Direction, offset int) (Clue, bool) {
	if len(idx.clues) == 0 {
		return Clue{}, false
	}
	i, ok := idx.byKey[clueKey{number, d}]
	if !ok {
		if offset >= 0 {
			return idx.clues[0], true
		}
		return idx.clues[len(idx.clues)-1], true
	}
	n := len(idx.clues)
	return idx.clues[((i+offset)%n+n)%n], true
}

// ClueFor returns the clue of the word through (row, col) in direction d.
func (g *Grid) ClueFor(idx *ClueIndex, row, col int, d Direction) (Clue, bool) {
	word := g.Word(row, col, d)
	if len(word) == 0 || !word[0].IsStart.In(d) {
		return Clue{}, false
	}
	return idx.Lookup(word[0].Number, d)
}

// PlaceClues sets Row and Column of each clue from the start cell carrying its
// number and direction. Clues with no matching start are returned in dropped.
func (g *Grid) PlaceClues(clues []Clue) (placed, dropped []Clue) {
	starts := make(map[clueKey]Cell)
	for _, c := range g.Starts() {
		if c.IsStart.Across {
			starts[clueKey{c.Number, Across}] = c
		}
		if c.IsStart.Down {
			starts[clueKey{c.Number, Down}] = c
		}
	}

	placed = []Clue{}
	for _, cl := range clues {
		cell, ok := starts[clueKey{cl.Number, cl.Direction}]
		if !ok {
			dropped = append(dropped, cl)
			continue
		}
		cl.Row, cl.Column = cell.Row, cell.Col
		placed = append(placed, cl)
	}
	return placed, dropped
}

// Answer reads the solution letters of the word starting at a numbered cell.
func (g *Grid) Answer(number int, d Direction) string {
	for _, c := range g.Starts() {
		if c.Number != number || !c.IsStart.In(d) {
			continue
		}
		var s string
		for _, w := range g.Word(c.Row, c.Col, d) {
			s += w.Value
		}
		return s
	}
	return ""
}

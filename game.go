package main

import (
	"errors"
	"sync"
	"time"

	"github.com/bodul/gridwit/internal/grid"
	"github.com/bodul/gridwit/internal/navigate"
)

var errUnknownPlayer = errors.New("unknown player")

// Player represents a connected player. Each player moves their own cursor.
type Player struct {
	Pseudo   string           `json:"pseudo"`
	Color    string           `json:"color"`
	JoinedAt time.Time        `json:"joined_at"`
	Cursor   *navigate.Cursor `json:"cursor,omitempty"`
	Online   bool             `json:"online"`
	engine   *navigate.Engine
	streams  int
}

// CellChange is one letter written or erased.
type CellChange struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

// Update is the result of one input event for one player.
type Update struct {
	Pseudo  string           `json:"pseudo"`
	Changed bool             `json:"changed"`
	Cursor  *navigate.Cursor `json:"cursor,omitempty"`
	Clue    *grid.Clue       `json:"clue,omitempty"`
	Cells   []CellChange     `json:"cells"`
}

// GameSession represents a collaborative game on a puzzle. Players share one
// progress grid; the session lock serializes their input events. Players are
// never removed, so a dropped event stream keeps their cursor.
type GameSession struct {
	ID        string
	PuzzleID  int64
	CreatedAt time.Time
	board     *Board
	progress  *navigate.Progress
	players   map[string]*Player
	mu        sync.Mutex
}

// GameState is a consistent copy of a session.
type GameState struct {
	ID        string             `json:"id"`
	PuzzleID  int64              `json:"puzzle_id"`
	Size      int                `json:"size"`
	Cells     [][]grid.Cell      `json:"cells"`
	Clues     []grid.Clue        `json:"clues"`
	State     [][]string         `json:"state"` // current letters [row][col]
	Players   map[string]*Player `json:"players"`
	Author    string             `json:"author"`
	Date      string             `json:"date_published"`
	CreatedAt time.Time          `json:"created_at"`
}

// playerColors is the palette assigned to players in order.
var playerColors = []string{
	"#2563eb", "#dc2626", "#16a34a", "#9333ea",
	"#ea580c", "#0891b2", "#c026d3", "#ca8a04",
}

func newGameSession(id string, b *Board) *GameSession {
	return &GameSession{
		ID:        id,
		PuzzleID:  b.PuzzleID,
		CreatedAt: time.Now(),
		board:     b,
		progress:  navigate.NewProgress(b.Grid),
		players:   make(map[string]*Player),
	}
}

// AddPlayer adds a player to the session and returns a copy of it.
func (g *GameSession) AddPlayer(pseudo string) Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addPlayer(pseudo).view()
}

func (g *GameSession) addPlayer(pseudo string) *Player {
	if p, ok := g.players[pseudo]; ok {
		return p
	}
	p := &Player{
		Pseudo:   pseudo,
		Color:    playerColors[len(g.players)%len(playerColors)],
		JoinedAt: time.Now(),
		engine:   navigate.New(g.board.Grid, g.progress),
	}
	g.players[pseudo] = p
	return p
}

// Connect records an open event stream for pseudo, adding the player if
// needed. It reports whether this is the player's only open stream.
func (g *GameSession) Connect(pseudo string) (Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.addPlayer(pseudo)
	p.streams++
	return p.view(), p.streams == 1
}

// Disconnect closes one event stream of pseudo. It reports whether the
// player has no stream left.
func (g *GameSession) Disconnect(pseudo string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[pseudo]
	if !ok || p.streams == 0 {
		return false
	}
	p.streams--
	return p.streams == 0
}

// Restore loads previously entered letters, e.g. from a saved State.
func (g *GameSession) Restore(state [][]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.progress.Restore(state)
}

// Select moves a player's cursor. An empty direction keeps the current one.
func (g *GameSession) Select(pseudo string, row, col int, d grid.Direction) (Update, error) {
	return g.apply(pseudo, func(e *navigate.Engine) bool {
		if d == "" {
			return e.Click(row, col)
		}
		return e.Select(row, col, d)
	})
}

// Key applies a navigation key to a player's cursor.
func (g *GameSession) Key(pseudo string, k navigate.Key) (Update, error) {
	return g.apply(pseudo, func(e *navigate.Engine) bool {
		return e.HandleKey(k)
	})
}

// Input enters a letter at (row, col) for a player.
func (g *GameSession) Input(pseudo string, row, col int, raw string) (Update, error) {
	return g.apply(pseudo, func(e *navigate.Engine) bool {
		return e.EnterLetter(row, col, raw)
	})
}

// apply runs one input event under the session lock and reports what it changed.
func (g *GameSession) apply(pseudo string, op func(e *navigate.Engine) bool) (Update, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[pseudo]
	if !ok {
		return Update{}, errUnknownPlayer
	}

	before := g.progress.Snapshot()
	changed := op(p.engine)

	u := Update{Pseudo: pseudo, Changed: changed, Cells: []CellChange{}}
	for r, row := range before {
		for c, v := range row {
			if now := g.progress.Get(r, c); now != v {
				u.Cells = append(u.Cells, CellChange{Row: r, Col: c, Value: now})
			}
		}
	}
	if cur, ok := p.engine.Active(); ok {
		u.Cursor = &cur
		if clue, ok := g.board.ActiveClue(cur.Row, cur.Col, cur.Direction); ok {
			u.Clue = &clue
		}
	}
	return u, nil
}

// State returns a copy of the current game state.
func (g *GameSession) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	players := make(map[string]*Player, len(g.players))
	for k, p := range g.players {
		v := p.view()
		players[k] = &v
	}
	return GameState{
		ID:        g.ID,
		PuzzleID:  g.PuzzleID,
		Size:      g.board.Grid.Size,
		Cells:     g.board.Grid.Cells,
		Clues:     g.board.Clues.All(),
		State:     g.progress.Snapshot(),
		Players:   players,
		Author:    g.board.Author,
		Date:      g.board.DatePublished,
		CreatedAt: g.CreatedAt,
	}
}

func (p *Player) view() Player {
	v := Player{Pseudo: p.Pseudo, Color: p.Color, JoinedAt: p.JoinedAt, Online: p.streams > 0}
	if cur, ok := p.engine.Active(); ok {
		v.Cursor = &cur
	}
	return v
}

package main

import (
	"sync"
	"testing"
	"time"

	"github.com/bodul/gridwit/internal/database"
	"github.com/bodul/gridwit/internal/grid"
	"github.com/bodul/gridwit/internal/navigate"
)

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	p := testPuzzle()
	p.ID = 7
	b, err := NewBoard(p, 3)
	if err != nil {
		t.Fatalf("new board: %v", err)
	}
	return b
}

func TestNewBoard(t *testing.T) {
	b := newTestBoard(t)
	if b.PuzzleID != 7 || b.Author != "Will Shortz" {
		t.Fatalf("unexpected board %+v", b)
	}
	if b.Clues.Len() != 4 {
		t.Fatalf("expected 4 clues, got %d", b.Clues.Len())
	}

	clue, ok := b.ActiveClue(2, 2, grid.Down)
	if !ok || clue.Number != 3 {
		t.Fatalf("(2,2) down should belong to 3 down, got %+v", clue)
	}
	if _, ok := b.ActiveClue(2, 0, grid.Across); ok {
		t.Fatal("an isolated cell has no clue")
	}

	_, err := NewBoard(&database.Puzzle{Grid: `["A"]`}, 3)
	if _, ok := err.(*grid.FormatError); !ok {
		t.Fatalf("expected *grid.FormatError, got %v", err)
	}
}

func TestCreateGame(t *testing.T) {
	s := NewStore()
	game := s.CreateGame(newTestBoard(t))

	if game.ID == "" {
		t.Fatal("expected game to have an ID")
	}
	if game.PuzzleID != 7 {
		t.Fatal("game should reference the puzzle")
	}
	if got := s.GetGame(game.ID); got != game {
		t.Fatal("expected to find created game")
	}
	if got := s.GetGame("nonexistent"); got != nil {
		t.Fatal("expected nil for unknown ID")
	}

	st := game.State()
	if len(st.State) != 3 || len(st.State[0]) != 3 {
		t.Fatalf("expected 3x3 state, got %dx%d", len(st.State), len(st.State[0]))
	}
}

func TestListAndDeleteGamesInStore(t *testing.T) {
	s := NewStore()
	first := s.CreateGame(newTestBoard(t))
	time.Sleep(time.Millisecond)
	second := s.CreateGame(newTestBoard(t))

	list := s.ListGames()
	if len(list) != 2 {
		t.Fatalf("expected 2 games, got %d", len(list))
	}
	// Most recent first.
	if list[0] != second || list[1] != first {
		t.Fatal("expected games sorted by descending creation time")
	}

	if !s.DeleteGame(first.ID) {
		t.Fatal("expected delete to report an existing game")
	}
	if s.DeleteGame(first.ID) {
		t.Fatal("second delete should report nothing removed")
	}
	if len(s.ListGames()) != 1 {
		t.Fatal("expected one game left")
	}
}

func TestGameAddPlayer(t *testing.T) {
	game := NewStore().CreateGame(newTestBoard(t))

	p1 := game.AddPlayer("Alice")
	p2 := game.AddPlayer("Bob")

	if p1.Pseudo != "Alice" || p2.Pseudo != "Bob" {
		t.Fatal("unexpected pseudo")
	}
	if p1.Color == p2.Color {
		t.Fatal("players should have different colors")
	}

	// Adding same pseudo returns existing player.
	p1bis := game.AddPlayer("Alice")
	if p1bis.Color != p1.Color {
		t.Fatal("same pseudo should return same player")
	}

	if _, err := game.Key("Eve", navigate.KeyRight); err != errUnknownPlayer {
		t.Fatalf("unknown player: expected errUnknownPlayer, got %v", err)
	}
}

func TestGameStreamsKeepPlayer(t *testing.T) {
	game := NewStore().CreateGame(newTestBoard(t))
	game.AddPlayer("Alice")
	game.Select("Alice", 1, 1, grid.Across)

	p, first := game.Connect("Alice")
	if !first || !p.Online {
		t.Fatalf("first stream: expected online and first, got %+v %v", p, first)
	}
	if _, first := game.Connect("Alice"); first {
		t.Fatal("second tab should not count as a new arrival")
	}

	if game.Disconnect("Alice") {
		t.Fatal("one tab still open, player should not leave")
	}
	if !game.Disconnect("Alice") {
		t.Fatal("closing the last stream should report the player gone")
	}
	if game.Disconnect("Alice") {
		t.Fatal("extra disconnects should be ignored")
	}

	// The player and their cursor survive the dropped streams.
	st := game.State()
	alice := st.Players["Alice"]
	if alice == nil || alice.Online || alice.Cursor == nil || alice.Cursor.Col != 1 {
		t.Fatalf("unexpected player after disconnect %+v", alice)
	}
	if u, err := game.Key("Alice", navigate.KeyRight); err != nil || !u.Changed {
		t.Fatalf("player should still type after reconnecting: %+v %v", u, err)
	}

	// Connecting with an unknown pseudo joins the game.
	if p, _ := game.Connect("Bob"); p.Pseudo != "Bob" {
		t.Fatalf("expected Bob to join, got %+v", p)
	}
}

func TestGameInputAndStateCopy(t *testing.T) {
	game := NewStore().CreateGame(newTestBoard(t))
	game.AddPlayer("Alice")

	u, err := game.Input("Alice", 0, 0, "x")
	if err != nil {
		t.Fatal(err)
	}
	if !u.Changed || len(u.Cells) != 1 || u.Cells[0].Value != "X" {
		t.Fatalf("unexpected update %+v", u)
	}
	// Typing without a cursor writes the cell but leaves no cursor.
	if u.Cursor != nil {
		t.Fatalf("expected no cursor, got %+v", u.Cursor)
	}

	state := game.State().State
	state[0][0] = "Z" // mutate the copy

	if original := game.State().State; original[0][0] != "X" {
		t.Fatal("State should return a copy, not a reference")
	}
}

func TestGameRestore(t *testing.T) {
	game := NewStore().CreateGame(newTestBoard(t))
	game.Restore([][]string{{"A", "B", ""}, {"X", "D", ""}, {"", "", "G", "Q"}})

	st := game.State().State
	if st[0][0] != "A" || st[1][1] != "D" || st[2][2] != "G" {
		t.Fatalf("letters were not restored: %v", st)
	}
	if st[1][0] != "" {
		t.Fatal("black cells must stay empty")
	}
}

func TestGameSelectKeepsDirection(t *testing.T) {
	game := NewStore().CreateGame(newTestBoard(t))
	game.AddPlayer("Alice")

	u, _ := game.Select("Alice", 0, 2, grid.Down)
	if u.Clue == nil || u.Clue.Number != 3 {
		t.Fatalf("expected clue 3 down, got %+v", u.Clue)
	}

	// A click without direction keeps down.
	u, _ = game.Select("Alice", 1, 1, "")
	if u.Cursor.Direction != grid.Down {
		t.Fatalf("expected direction down, got %s", u.Cursor.Direction)
	}
	if u.Clue == nil || u.Clue.Number != 2 {
		t.Fatalf("(1,1) down belongs to 2 down, got %+v", u.Clue)
	}

	// Black cell: nothing changes.
	u, _ = game.Select("Alice", 1, 0, grid.Across)
	if u.Changed || u.Cursor.Row != 1 || u.Cursor.Col != 1 {
		t.Fatalf("black cell should not move the cursor, got %+v", u)
	}
}

func TestConcurrentAccess(t *testing.T) {
	game := NewStore().CreateGame(newTestBoard(t))
	for _, p := range []string{"A", "B", "C", "D"} {
		game.AddPlayer("player" + p)
	}

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pseudo := "player" + string(rune('A'+i%4))
			game.Select(pseudo, i%3, i%3, grid.Across)
			game.Key(pseudo, navigate.KeyTab)
			game.Input(pseudo, i%3, (i+1)%3, "A")
			game.State()
		}(i)
	}
	wg.Wait()

	if n := len(game.State().Players); n != 4 {
		t.Fatalf("expected 4 players, got %d", n)
	}
}

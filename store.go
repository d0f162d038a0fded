package main

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store holds all game sessions in memory. Puzzles live in the database.
type Store struct {
	mu    sync.RWMutex
	games map[string]*GameSession
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		games: make(map[string]*GameSession),
	}
}

// CreateGame starts a new game session on a parsed board.
func (s *Store) CreateGame(b *Board) *GameSession {
	game := newGameSession(uuid.NewString(), b)

	s.mu.Lock()
	s.games[game.ID] = game
	s.mu.Unlock()

	return game
}

// GetGame returns a game session by ID, or nil if not found.
func (s *Store) GetGame(id string) *GameSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[id]
}

// ListGames returns all game sessions, most recent first.
func (s *Store) ListGames() []*GameSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*GameSession, 0, len(s.games))
	for _, g := range s.games {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// DeleteGame drops a session. It reports whether one existed.
func (s *Store) DeleteGame(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return false
	}
	delete(s.games, id)
	return true
}

package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bodul/gridwit/internal/database"
	"github.com/bodul/gridwit/internal/grid"
	"github.com/bodul/gridwit/internal/navigate"
)

//go:embed frontend
var frontendFS embed.FS

const (
	maxUploadSize = 10 << 20 // 10 Mo
	maxActionBody = 4 << 10
)

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// PuzzleStore is the puzzle data access the server needs.
type PuzzleStore interface {
	Create(ctx context.Context, p *database.Puzzle) (int64, error)
	Get(ctx context.Context, id int64) (*database.Puzzle, error)
	Random(ctx context.Context) (*database.Puzzle, error)
	List(ctx context.Context, page, perPage int) (database.Page, error)
	Search(ctx context.Context, params database.SearchParams) (database.Page, error)
	Stats(ctx context.Context) (database.Stats, error)
}

// Server is the main HTTP server.
type Server struct {
	mux      *http.ServeMux
	store    *Store
	puzzles  PuzzleStore
	analyzer ImageAnalyzer
	sse      *Broadcaster
	size     int
	uploadRL *rateLimiter
	moveRL   *rateLimiter
}

// NewServer creates a configured HTTP server. analyzer may be nil, which
// disables photo import. size is the board dimension of every puzzle.
func NewServer(store *Store, puzzles PuzzleStore, analyzer ImageAnalyzer, size int) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		store:    store,
		puzzles:  puzzles,
		analyzer: analyzer,
		sse:      NewBroadcaster(),
		size:     size,
		uploadRL: newRateLimiter(5, time.Minute), // 5 uploads/min per IP
		moveRL:   newRateLimiter(60, time.Second), // 60 moves/sec per IP
	}
	s.routes()
	return s
}

// Start runs background cleanup until ctx ends.
func (s *Server) Start(ctx context.Context) {
	go s.uploadRL.janitor(ctx)
	go s.moveRL.janitor(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/status", s.handleStatus)

	// Puzzle API
	s.mux.HandleFunc("GET /api/puzzles", s.handleListPuzzles)
	s.mux.HandleFunc("GET /api/puzzles/daily", s.handleDailyPuzzle)
	s.mux.HandleFunc("GET /api/puzzles/search", s.handleSearchPuzzles)
	s.mux.HandleFunc("GET /api/puzzles/{id}", s.handleGetPuzzle)
	s.mux.HandleFunc("POST /api/puzzles", s.handleCreatePuzzle)

	// Game API
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("POST /api/games", s.handleCreateGame)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	s.mux.HandleFunc("DELETE /api/games/{id}", s.handleDeleteGame)
	s.mux.HandleFunc("POST /api/games/{id}/join", s.handleJoinGame)
	s.mux.HandleFunc("POST /api/games/{id}/select", s.handleSelect)
	s.mux.HandleFunc("POST /api/games/{id}/key", s.handleKey)
	s.mux.HandleFunc("POST /api/games/{id}/move", s.handleMove)
	s.mux.HandleFunc("GET /api/games/{id}/events", s.handleGameEvents)

	// Frontend static files
	frontendDir, _ := fs.Sub(frontendFS, "frontend")
	fileServer := http.FileServer(http.FS(frontendDir))
	s.mux.HandleFunc("GET /game/{id}", s.handleGamePage)
	s.mux.Handle("GET /", fileServer)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
	s.mux.ServeHTTP(w, r)
}

// GET /api/status — database health and counts.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)
	stats, err := s.puzzles.Stats(r.Context())
	if err != nil {
		log.Printf("Status check error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     err.Error(),
			"timestamp": now,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"database":     "connected",
		"puzzle_count": stats.Puzzles,
		"clue_count":   stats.Clues,
		"timestamp":    now,
	})
}

// --- Puzzle handlers ---

// GET /api/puzzles — paginated list.
func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)
	list, err := s.puzzles.List(r.Context(), page, perPage)
	if err != nil {
		s.puzzleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/puzzles/daily — any puzzle, picked at random.
func (s *Server) handleDailyPuzzle(w http.ResponseWriter, r *http.Request) {
	p, err := s.puzzles.Random(r.Context())
	if err != nil {
		s.puzzleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /api/puzzles/search — filter by author, date, word or clue text.
func (s *Server) handleSearchPuzzles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := pageParams(r)
	list, err := s.puzzles.Search(r.Context(), database.SearchParams{
		Author:  q.Get("author"),
		Date:    q.Get("date"),
		Word:    q.Get("word"),
		Clue:    q.Get("clue"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		s.puzzleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/puzzles/{id} — a single puzzle.
func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, "Identifiant invalide", http.StatusBadRequest)
		return
	}
	p, err := s.puzzles.Get(r.Context(), id)
	if err != nil {
		s.puzzleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// POST /api/puzzles — upload a photo, read it with Gemini, save the puzzle.
func (s *Server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	if !s.uploadRL.allow(r.RemoteAddr) {
		jsonError(w, "Trop de requêtes, réessayez plus tard", http.StatusTooManyRequests)
		return
	}

	if s.analyzer == nil {
		jsonError(w, "Analyse d'image non configurée", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, "Image trop volumineuse (max 10 Mo)", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, "Champ 'image' requis", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !allowedMIME[mimeType] {
		jsonError(w, "Format accepté : JPEG ou PNG", http.StatusBadRequest)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "Erreur de lecture de l'image", http.StatusInternalServerError)
		return
	}

	x, err := s.analyzer.AnalyzeImage(r.Context(), imageData, mimeType)
	if err != nil {
		log.Printf("Gemini analyze error: %v", err)
		jsonError(w, "Erreur lors de l'analyse de la grille", http.StatusInternalServerError)
		return
	}

	p, err := puzzleFromExtraction(x, s.size)
	if err != nil {
		log.Printf("Grille extraite invalide : %v", err)
		jsonError(w, "Grille illisible", http.StatusUnprocessableEntity)
		return
	}

	if _, err := s.puzzles.Create(r.Context(), p); err != nil {
		s.puzzleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// --- Game handlers ---

// GET /api/games — list running games.
func (s *Server) handleListGames(w http.ResponseWriter, _ *http.Request) {
	type summary struct {
		ID        string    `json:"id"`
		PuzzleID  int64     `json:"puzzle_id"`
		Players   int       `json:"players"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := []summary{}
	for _, g := range s.store.ListGames() {
		st := g.State()
		out = append(out, summary{ID: st.ID, PuzzleID: st.PuzzleID, Players: len(st.Players), CreatedAt: st.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/games — create a game from a puzzle.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PuzzleID int64      `json:"puzzle_id"`
		State    [][]string `json:"state"` // optional saved letters
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PuzzleID == 0 {
		jsonError(w, "Champ 'puzzle_id' requis", http.StatusBadRequest)
		return
	}

	p, err := s.puzzles.Get(r.Context(), req.PuzzleID)
	if err != nil {
		s.puzzleError(w, err)
		return
	}

	board, err := NewBoard(p, s.size)
	if err != nil {
		log.Printf("Puzzle %d illisible : %v", p.ID, err)
		jsonError(w, "Puzzle indisponible", http.StatusUnprocessableEntity)
		return
	}

	game := s.store.CreateGame(board)
	if req.State != nil {
		game.Restore(normalizeState(req.State))
	}
	writeJSON(w, http.StatusCreated, game.State())
}

// GET /api/games/{id} — get current game state.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, game.State())
}

// DELETE /api/games/{id} — end a game and disconnect its players.
func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.DeleteGame(id) {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}
	s.sse.CloseGame(id)
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/games/{id}/join — join a game with a pseudo.
func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}

	var req struct {
		Pseudo string `json:"pseudo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Pseudo == "" {
		jsonError(w, "Champ 'pseudo' requis", http.StatusBadRequest)
		return
	}

	pseudo := sanitizePseudo(req.Pseudo)
	if pseudo == "" {
		jsonError(w, "Pseudo invalide", http.StatusBadRequest)
		return
	}

	player := game.AddPlayer(pseudo)
	s.sse.Publish(game.ID, Event{Type: "player_joined", Data: map[string]string{
		"pseudo": player.Pseudo,
		"color":  player.Color,
	}})

	writeJSON(w, http.StatusOK, player)
}

// POST /api/games/{id}/select — click a cell, optionally with a direction.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pseudo    string         `json:"pseudo"`
		Row       int            `json:"row"`
		Col       int            `json:"col"`
		Direction grid.Direction `json:"direction"`
	}
	s.playerAction(w, r, &req, func(g *GameSession) (Update, error) {
		return g.Select(sanitizePseudo(req.Pseudo), req.Row, req.Col, req.Direction)
	})
}

// POST /api/games/{id}/key — arrow keys, Tab and Backspace.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pseudo string `json:"pseudo"`
		Key    string `json:"key"`
	}
	s.playerAction(w, r, &req, func(g *GameSession) (Update, error) {
		// Unknown names map to KeyNone, which changes nothing.
		k, _ := navigate.ParseKey(req.Key)
		return g.Key(sanitizePseudo(req.Pseudo), k)
	})
}

// POST /api/games/{id}/move — type a letter into a cell.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pseudo string `json:"pseudo"`
		Row    int    `json:"row"`
		Col    int    `json:"col"`
		Value  string `json:"value"`
	}
	s.playerAction(w, r, &req, func(g *GameSession) (Update, error) {
		return g.Input(sanitizePseudo(req.Pseudo), req.Row, req.Col, req.Value)
	})
}

// playerAction decodes req, applies one input event and broadcasts its effects.
func (s *Server) playerAction(w http.ResponseWriter, r *http.Request, req any, apply func(g *GameSession) (Update, error)) {
	if !s.moveRL.allow(r.RemoteAddr) {
		jsonError(w, "Trop de requêtes, réessayez plus tard", http.StatusTooManyRequests)
		return
	}

	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxActionBody)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		jsonError(w, "Requête invalide", http.StatusBadRequest)
		return
	}

	u, err := apply(game)
	if errors.Is(err, errUnknownPlayer) {
		jsonError(w, "Rejoignez la partie d'abord", http.StatusForbidden)
		return
	}
	if err != nil {
		jsonError(w, "Requête invalide", http.StatusBadRequest)
		return
	}

	for _, c := range u.Cells {
		s.sse.Publish(game.ID, Event{Type: "cell_update", Data: map[string]any{
			"row":    c.Row,
			"col":    c.Col,
			"value":  c.Value,
			"pseudo": u.Pseudo,
		}})
	}
	if u.Changed {
		s.sse.Publish(game.ID, Event{Type: "cursor", Data: u})
	}

	writeJSON(w, http.StatusOK, u)
}

// GET /api/games/{id}/events — SSE stream.
func (s *Server) handleGameEvents(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}

	playerPseudo := sanitizePseudo(r.URL.Query().Get("pseudo"))

	s.sse.ServeSSE(w, r, game.ID, func() Event {
		if playerPseudo != "" {
			if player, first := game.Connect(playerPseudo); first {
				s.sse.Publish(game.ID, Event{Type: "player_joined", Data: map[string]string{
					"pseudo": player.Pseudo,
					"color":  player.Color,
				}})
			}
		}
		st := game.State()
		return Event{Type: "game_state", Data: map[string]any{
			"state":   st.State,
			"players": st.Players,
		}}
	}, func() {
		// The player keeps its cursor; others only see it go offline once
		// its last stream closes.
		if playerPseudo != "" && game.Disconnect(playerPseudo) {
			s.sse.Publish(game.ID, Event{Type: "player_left", Data: map[string]string{
				"pseudo": playerPseudo,
			}})
		}
	})
}

// --- Frontend page handlers ---

// GET /game/{id} — serve the game page.
func (s *Server) handleGamePage(w http.ResponseWriter, _ *http.Request) {
	data, _ := frontendFS.ReadFile("frontend/game.html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// --- Helpers ---

func (s *Server) puzzleError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrNotFound) {
		jsonError(w, "Puzzle introuvable", http.StatusNotFound)
		return
	}
	log.Printf("Puzzle store error: %v", err)
	jsonError(w, "Erreur de la base de données", http.StatusInternalServerError)
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return page, perPage
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// normalizeState keeps at most one A-Z letter per cell.
func normalizeState(state [][]string) [][]string {
	out := make([][]string, len(state))
	for r, row := range state {
		out[r] = make([]string, len(row))
		for c, v := range row {
			if l := navigate.Normalize(v); l != "" {
				out[r][c] = l[:1]
			}
		}
	}
	return out
}

func sanitizePseudo(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 20 {
		s = string([]rune(s)[:20])
	}
	return s
}

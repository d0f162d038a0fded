package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/bodul/gridwit/internal/grid"
)

// ErrNotFound is returned when no puzzle matches.
var ErrNotFound = errors.New("puzzle not found")

const (
	defaultPerPage = 10
	maxPerPage     = 50
)

// Puzzle is a stored puzzle. Clues is never nil.
type Puzzle struct {
	ID            int64       `json:"id"`
	DatePublished string      `json:"date_published"`
	Author        string      `json:"author"`
	Grid          string      `json:"grid"`
	Clues         []grid.Clue `json:"clues"`
}

// Page is one page of puzzles.
type Page struct {
	Puzzles    []Puzzle `json:"puzzles"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	TotalPages int      `json:"total_pages"`
}

// SearchParams filters puzzles. Empty fields match everything. Word matches
// answers containing it or within one edit of it.
type SearchParams struct {
	Author  string
	Date    string
	Word    string
	Clue    string
	Page    int
	PerPage int
}

// Stats counts stored rows.
type Stats struct {
	Puzzles int `json:"puzzle_count"`
	Clues   int `json:"clue_count"`
}

// PuzzleRepo handles puzzles and clues.
type PuzzleRepo struct {
	db *sql.DB
}

func NewPuzzleRepo(db *sql.DB) *PuzzleRepo { return &PuzzleRepo{db: db} }

// Create inserts p and its clues, returning the new puzzle id.
func (r *PuzzleRepo) Create(ctx context.Context, p *Puzzle) (int64, error) {
	var id int64
	err := WithTx(r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		INSERT INTO puzzles(date_published, author, grid) VALUES (?, ?, ?)
		`, p.DatePublished, p.Author, p.Grid)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO clues(puzzle_id, number, direction, text, answer, grid_row, grid_col)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range p.Clues {
			if _, err := stmt.ExecContext(ctx, id, c.Number, string(c.Direction), c.Text, c.Answer, c.Row, c.Column); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// Get returns a puzzle by id.
func (r *PuzzleRepo) Get(ctx context.Context, id int64) (*Puzzle, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, date_published, author, grid FROM puzzles WHERE id = ?`, id)
	return r.scanOne(ctx, row)
}

// Random returns any stored puzzle.
func (r *PuzzleRepo) Random(ctx context.Context) (*Puzzle, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, date_published, author, grid FROM puzzles ORDER BY RANDOM() LIMIT 1`)
	return r.scanOne(ctx, row)
}

// List pages through all puzzles.
func (r *PuzzleRepo) List(ctx context.Context, page, perPage int) (Page, error) {
	return r.Search(ctx, SearchParams{Page: page, PerPage: perPage})
}

// Search pages through puzzles matching params, ordered by id.
func (r *PuzzleRepo) Search(ctx context.Context, params SearchParams) (Page, error) {
	page, perPage := normalizePage(params.Page, params.PerPage)

	var where []string
	var args []any
	if params.Author != "" {
		where = append(where, `p.author LIKE ?`)
		args = append(args, "%"+params.Author+"%")
	}
	if params.Date != "" {
		where = append(where, `p.date_published = ?`)
		args = append(args, params.Date)
	}
	if params.Word != "" {
		w := strings.ToUpper(params.Word)
		where = append(where, `EXISTS (SELECT 1 FROM clues c WHERE c.puzzle_id = p.id
			AND (UPPER(c.answer) LIKE ? OR levenshtein(UPPER(c.answer), ?) <= 1))`)
		args = append(args, "%"+w+"%", w)
	}
	if params.Clue != "" {
		where = append(where, `EXISTS (SELECT 1 FROM clues c WHERE c.puzzle_id = p.id AND c.text LIKE ?)`)
		args = append(args, "%"+params.Clue+"%")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	out := Page{Puzzles: []Puzzle{}, Page: page, PerPage: perPage}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM puzzles p`+clause, args...).Scan(&out.Total); err != nil {
		return Page{}, err
	}
	out.TotalPages = (out.Total + perPage - 1) / perPage

	rows, err := r.db.QueryContext(ctx, `
	SELECT p.id, p.date_published, p.author, p.grid FROM puzzles p`+clause+`
	ORDER BY p.id LIMIT ? OFFSET ?`, append(args, perPage, (page-1)*perPage)...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var p Puzzle
		if err := rows.Scan(&p.ID, &p.DatePublished, &p.Author, &p.Grid); err != nil {
			return Page{}, err
		}
		out.Puzzles = append(out.Puzzles, p)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}
	rows.Close()

	for i := range out.Puzzles {
		clues, err := r.clues(ctx, out.Puzzles[i].ID)
		if err != nil {
			return Page{}, err
		}
		out.Puzzles[i].Clues = clues
	}
	return out, nil
}

// Stats counts puzzles and clues.
func (r *PuzzleRepo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
	SELECT (SELECT COUNT(*) FROM puzzles), (SELECT COUNT(*) FROM clues)`).Scan(&s.Puzzles, &s.Clues)
	return s, err
}

// DeleteAll removes every puzzle and clue.
func (r *PuzzleRepo) DeleteAll(ctx context.Context) error {
	return WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM clues`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM puzzles`)
		return err
	})
}

func (r *PuzzleRepo) scanOne(ctx context.Context, row *sql.Row) (*Puzzle, error) {
	var p Puzzle
	if err := row.Scan(&p.ID, &p.DatePublished, &p.Author, &p.Grid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	clues, err := r.clues(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Clues = clues
	return &p, nil
}

func (r *PuzzleRepo) clues(ctx context.Context, puzzleID int64) ([]grid.Clue, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT number, direction, text, answer, grid_row, grid_col
	FROM clues WHERE puzzle_id = ? ORDER BY number, direction`, puzzleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []grid.Clue{}
	for rows.Next() {
		var c grid.Clue
		var dir string
		if err := rows.Scan(&c.Number, &dir, &c.Text, &c.Answer, &c.Row, &c.Column); err != nil {
			return nil, err
		}
		c.Direction = grid.Direction(dir)
		out = append(out, c)
	}
	return out, rows.Err()
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

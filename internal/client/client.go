// Package client fetches puzzles from a gridwit server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bodul/gridwit/internal/database"
	"github.com/bodul/gridwit/internal/grid"
)

// Client calls the puzzle API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Daily returns the puzzle of the day.
func (c *Client) Daily(ctx context.Context) (*database.Puzzle, error) {
	var p database.Puzzle
	if err := c.get(ctx, "/api/puzzles/daily", nil, &p); err != nil {
		return nil, fmt.Errorf("fetch daily puzzle: %w", err)
	}
	fillClues(&p)
	return &p, nil
}

// Get returns one puzzle.
func (c *Client) Get(ctx context.Context, id int64) (*database.Puzzle, error) {
	var p database.Puzzle
	if err := c.get(ctx, "/api/puzzles/"+strconv.FormatInt(id, 10), nil, &p); err != nil {
		return nil, fmt.Errorf("fetch puzzle %d: %w", id, err)
	}
	fillClues(&p)
	return &p, nil
}

// List returns one page of puzzles.
func (c *Client) List(ctx context.Context, page, perPage int) (database.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	var out database.Page
	if err := c.get(ctx, "/api/puzzles", q, &out); err != nil {
		return database.Page{}, fmt.Errorf("fetch puzzles: %w", err)
	}
	fillPage(&out)
	return out, nil
}

// Search returns puzzles matching params.
func (c *Client) Search(ctx context.Context, params database.SearchParams) (database.Page, error) {
	q := url.Values{}
	for k, v := range map[string]string{
		"author": params.Author,
		"date":   params.Date,
		"word":   params.Word,
		"clue":   params.Clue,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(params.PerPage))
	}
	var out database.Page
	if err := c.get(ctx, "/api/puzzles/search", q, &out); err != nil {
		return database.Page{}, fmt.Errorf("search puzzles: %w", err)
	}
	fillPage(&out)
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, body.Error)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// fillClues replaces an absent clue list with an empty one.
func fillClues(p *database.Puzzle) {
	if p.Clues == nil {
		p.Clues = []grid.Clue{}
	}
}

func fillPage(p *database.Page) {
	if p.Puzzles == nil {
		p.Puzzles = []database.Puzzle{}
	}
	for i := range p.Puzzles {
		fillClues(&p.Puzzles[i])
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bodul/gridwit/internal/database"
	"github.com/bodul/gridwit/internal/grid"
)

const analyzePrompt = `Analyze this photo of an American-style crossword puzzle.

Extract its full content as JSON in the following format:
{
  "author": "<author, or empty>",
  "date": "<publication date as M/D/YYYY, or empty>",
  "grid": ["A", "B", ".", ...],
  "clues": [
    {"number": 1, "direction": "across", "text": "Clue text", "answer": "ANSWER"},
    ...
  ]
}

Rules:
- "grid" lists every square row by row, left to right, top to bottom.
- A black square is ".". A white square is its solution letter in uppercase, or "?" if unknown.
- "direction" is "across" or "down".
- "answer" is empty when the solution is not printed.
- Reply ONLY with the JSON, without comment or markdown.`

// Extraction is the raw puzzle read from a photo.
type Extraction struct {
	Author string      `json:"author"`
	Date   string      `json:"date"`
	Grid   []string    `json:"grid"`
	Clues  []grid.Clue `json:"clues"`
}

// ImageAnalyzer reads a puzzle from an image.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Extraction, error)
}

// AnalyzeImage sends an image to Gemini Flash and returns the extracted puzzle.
func (g *GeminiClient) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Extraction, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: analyzePrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: imageData}},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.1)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty gemini response")
	}

	var x Extraction
	if err := json.Unmarshal([]byte(text), &x); err != nil {
		return nil, fmt.Errorf("parse puzzle JSON: %w\nraw response: %s", err, text)
	}
	return &x, nil
}

// puzzleFromExtraction validates the extracted grid and places the clues on
// it. Clues that match no word start are dropped.
func puzzleFromExtraction(x *Extraction, size int) (*database.Puzzle, error) {
	tokens := make([]string, len(x.Grid))
	for i, t := range x.Grid {
		tokens[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	g, err := grid.Parse(tokens, size)
	if err != nil {
		return nil, err
	}

	clues := make([]grid.Clue, 0, len(x.Clues))
	for _, c := range x.Clues {
		c.Direction = grid.Direction(strings.ToLower(string(c.Direction)))
		if !c.Direction.Valid() {
			continue
		}
		if c.Answer == "" {
			c.Answer = g.Answer(c.Number, c.Direction)
		}
		clues = append(clues, c)
	}
	placed, _ := g.PlaceClues(clues)

	raw, err := json.Marshal(g.Tokens())
	if err != nil {
		return nil, err
	}
	return &database.Puzzle{
		DatePublished: x.Date,
		Author:        x.Author,
		Grid:          string(raw),
		Clues:         placed,
	}, nil
}

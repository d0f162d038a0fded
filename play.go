package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bodul/gridwit/internal/grid"
	"github.com/bodul/gridwit/internal/navigate"
)

const (
	cellWidth = 3
	gridTop   = 2 // title line and a blank line above the grid
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1e1e2e")).Background(lipgloss.Color("#cdd6f4"))
	blackStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#11111b"))
	wordStyle   = cellStyle.Background(lipgloss.Color("#89b4fa"))
	activeStyle = cellStyle.Background(lipgloss.Color("#f9e2af")).Bold(true)
	numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086")).Background(lipgloss.Color("#cdd6f4"))
	clueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cba6f7"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// playModel solves one board in the terminal. Letters stay local.
type playModel struct {
	board    *Board
	progress *navigate.Progress
	engine   *navigate.Engine
	playable int
}

func newPlayModel(b *Board) playModel {
	p := navigate.NewProgress(b.Grid)
	n := 0
	for _, row := range b.Grid.Cells {
		for _, c := range row {
			if !c.IsBlack {
				n++
			}
		}
	}
	return playModel{board: b, progress: p, engine: navigate.New(b.Grid, p), playable: n}
}

func (m playModel) Init() tea.Cmd { return nil }

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.engine.Click(msg.Y-gridTop, msg.X/cellWidth)
		}
	}
	return m, nil
}

func (m playModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return m, tea.Quit
	case "[":
		m.jumpClue(-1)
		return m, nil
	case "]":
		m.jumpClue(1)
		return m, nil
	}

	if msg.Type == tea.KeySpace {
		if cur, ok := m.engine.Active(); ok {
			m.engine.Select(cur.Row, cur.Col, cur.Direction.Opposite())
		}
		return m, nil
	}
	if k, ok := navigate.ParseKey(msg.String()); ok {
		m.engine.HandleKey(k)
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		m.engine.Type(string(msg.Runes))
	}
	return m, nil
}

// jumpClue moves to the start of the clue offset positions away from the
// active one, or to the first clue when none is active.
func (m playModel) jumpClue(offset int) {
	number, d := 0, grid.Across
	if clue, ok := m.activeClue(); ok {
		number, d = clue.Number, clue.Direction
	}
	if next, ok := m.board.Clues.Neighbor(number, d, offset); ok {
		m.engine.SelectClue(next)
	}
}

func (m playModel) activeClue() (grid.Clue, bool) {
	cur, ok := m.engine.Active()
	if !ok {
		return grid.Clue{}, false
	}
	return m.board.ActiveClue(cur.Row, cur.Col, cur.Direction)
}

func (m playModel) View() string {
	var b strings.Builder

	title := "Grille du jour"
	if m.board.Author != "" {
		title = fmt.Sprintf("%s, %s", m.board.Author, m.board.DatePublished)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	inWord := make(map[[2]int]bool)
	for _, c := range m.engine.Word() {
		inWord[[2]int{c.Row, c.Col}] = true
	}
	cur, active := m.engine.Active()

	rows := make([]string, 0, len(m.board.Grid.Cells))
	for _, row := range m.board.Grid.Cells {
		var line strings.Builder
		for _, c := range row {
			line.WriteString(m.renderCell(c, inWord[[2]int{c.Row, c.Col}], active && cur.Row == c.Row && cur.Col == c.Col))
		}
		rows = append(rows, line.String())
	}
	// The grid stays in the top-left corner so mouse coordinates map to cells.
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(rows, "\n"), "   ", m.renderClues()))
	b.WriteString("\n\n")

	if clue, ok := m.activeClue(); ok {
		b.WriteString(clueStyle.Render(fmt.Sprintf("%d %s. %s", clue.Number, directionLabel(clue.Direction), clue.Text)))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("%d/%d cases · flèches/tab: déplacer · espace: sens · [ ]: définition · esc: quitter",
		m.progress.Filled(), m.playable)))
	b.WriteString("\n")
	return b.String()
}

func (m playModel) renderClues() string {
	current, hasCurrent := m.activeClue()
	var lines []string
	for _, d := range []grid.Direction{grid.Across, grid.Down} {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, titleStyle.Render(directionTitle(d)))
		for _, c := range m.board.Clues.InDirection(d) {
			line := fmt.Sprintf("%2d %s", c.Number, c.Text)
			if hasCurrent && c.Number == current.Number && c.Direction == current.Direction {
				line = clueStyle.Render(line)
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m playModel) renderCell(c grid.Cell, inWord, isActive bool) string {
	if c.IsBlack {
		return blackStyle.Render(strings.Repeat(" ", cellWidth))
	}
	style := cellStyle
	switch {
	case isActive:
		style = activeStyle
	case inWord:
		style = wordStyle
	}
	if v := m.progress.Get(c.Row, c.Col); v != "" {
		return style.Render(" " + v + " ")
	}
	if c.Number > 0 && !isActive && !inWord {
		return numberStyle.Render(fmt.Sprintf("%-*d", cellWidth, c.Number))
	}
	return style.Render(strings.Repeat(" ", cellWidth))
}

func directionTitle(d grid.Direction) string {
	if d == grid.Down {
		return "Verticalement"
	}
	return "Horizontalement"
}

func directionLabel(d grid.Direction) string {
	if d == grid.Down {
		return "V"
	}
	return "H"
}

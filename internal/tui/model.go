// Package tui is the interactive search box: results are refreshed on every
// keystroke and only the answer to the latest query is shown.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"semsearch/internal/domain"
	"semsearch/internal/usecase"
)

const snippetWidth = 100

// searchCompleted carries one query outcome back to the model.
type searchCompleted struct {
	result usecase.SearchResult
	stale  bool
}

// Model is the bubbletea model for the search box.
type Model struct {
	ctx     context.Context
	session *usecase.SearchSession
	input   textinput.Model
	styles  *Styles

	query    string
	results  []domain.RankedResult
	status   usecase.Status
	selected int
	chosen   *domain.RankedResult
	width    int
}

func NewModel(ctx context.Context, session *usecase.SearchSession) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search the docs..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	return &Model{
		ctx:     ctx,
		session: session,
		input:   ti,
		styles:  DefaultStyles(),
		width:   80,
	}
}

// Chosen returns the result picked with enter, if any.
func (m *Model) Chosen() *domain.RankedResult {
	return m.chosen
}

func (m *Model) Results() []domain.RankedResult { return m.results }
func (m *Model) Status() usecase.Status          { return m.status }

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-10)
		return m, nil

	case searchCompleted:
		if msg.stale || msg.result.Query != m.query {
			return m, nil
		}
		m.status = msg.result.Status
		m.results = msg.result.Results
		m.selected = 0
		return m, nil

	case tea.KeyMsg:
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.session.Close()
			return m, tea.Quit
		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case tea.KeyDown:
			if m.selected < len(m.results)-1 {
				m.selected++
			}
			return m, nil
		case tea.KeyEnter:
			if len(m.results) > 0 {
				chosen := m.results[m.selected]
				m.chosen = &chosen
				m.session.Close()
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if value := m.input.Value(); value != m.query {
		m.query = value
		return m, tea.Batch(cmd, m.search(value))
	}
	return m, cmd
}

// search issues the token before returning the command: bubbletea runs
// commands on their own goroutines, so tokens must follow keystroke order.
func (m *Model) search(query string) tea.Cmd {
	token, ctx := m.session.Begin(m.ctx)
	return func() tea.Msg {
		res, stale := m.session.Run(ctx, token, query, 0)
		return searchCompleted{result: res, stale: stale}
	}
}

func (m *Model) View() string {
	sections := []string{
		m.styles.Title.Render("semsearch"),
		"",
		m.input.View(),
		"",
	}

	switch {
	case m.status == usecase.StatusUnavailable:
		sections = append(sections, m.styles.Error.Render("Search is temporarily unavailable."))
	case strings.TrimSpace(m.query) == "":
		sections = append(sections, m.styles.Muted.Render("Type to search."))
	case len(m.results) == 0:
		sections = append(sections, m.styles.Muted.Render("No results."))
	default:
		for i, r := range m.results {
			sections = append(sections, m.renderResult(i, r))
		}
	}

	sections = append(sections, "", m.styles.Muted.Render("up/down select  enter open  esc quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderResult(i int, r domain.RankedResult) string {
	title := r.DocumentPath
	if r.Header != "" {
		title = r.Header + "  " + m.styles.Muted.Render(r.DocumentPath)
	}

	marker := "  "
	titleStyle := m.styles.Header
	if i == m.selected {
		marker = "> "
		titleStyle = m.styles.Selected
	}

	lines := []string{
		marker + titleStyle.Render(title) + m.styles.Muted.Render(fmt.Sprintf("  %.3f", r.Score)),
		"  " + m.styles.Link.Render(r.Link),
	}
	if r.Content != "" {
		lines = append(lines, "  "+m.styles.Snippet.Render(Snippet(r.Content, snippetWidth)))
	}
	return strings.Join(lines, "\n")
}

// Snippet shortens s to at most width runes, ending in "..." when cut.
func Snippet(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package tui is the interactive country browser behind `locspoof browse`.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/staranto/locspoof/internal/country"
	"github.com/staranto/locspoof/internal/output"
	"github.com/staranto/locspoof/internal/viewmodel"
)

// Source is the view-model surface the browser needs.
type Source interface {
	Refresh(ctx context.Context) error
	Search(text string)
	Countries() []country.Country
	Loading() bool
	Error() string
	Subscribe(fn func(viewmodel.Event)) func()
}

// MapOpener opens the map for a country.
type MapOpener interface {
	OpenMap(ctx context.Context, c country.Country) error
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#02BA84"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF7CCB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// reservedLines is the height taken by everything but the list.
const reservedLines = 8

type (
	eventMsg   viewmodel.Event
	refreshMsg struct{ err error }
	mapMsg     struct {
		name string
		err  error
	}
)

type model struct {
	ctx    context.Context
	src    Source
	opener MapOpener

	input     textinput.Model
	lastQuery string

	countries []country.Country
	cursor    int
	offset    int
	detail    *country.Country

	loading bool
	errMsg  string
	status  string

	width, height int
	quitting      bool
}

func newModel(ctx context.Context, src Source, opener MapOpener) model {
	ti := textinput.New()
	ti.Placeholder = "search countries"
	ti.Prompt = "search: "
	ti.CharLimit = 64
	ti.Focus()

	return model{
		ctx:       ctx,
		src:       src,
		opener:    opener,
		input:     ti,
		countries: src.Countries(),
		loading:   src.Loading(),
		errMsg:    src.Error(),
		height:    24, //nolint:mnd
	}
}

// Run starts the browser and blocks until the user quits.
func Run(ctx context.Context, src Source, opener MapOpener) error {
	m := newModel(ctx, src, opener)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := src.Subscribe(func(ev viewmodel.Event) {
		p.Send(eventMsg(ev))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshCmd())
}

// refreshCmd reloads the full list. The query is applied when the refreshMsg
// arrives, so whatever was typed in the meantime is what filters the list.
func (m model) refreshCmd() tea.Cmd {
	src, ctx := m.src, m.ctx
	return func() tea.Msg {
		return refreshMsg{err: src.Refresh(ctx)}
	}
}

func (m model) openMapCmd(c country.Country) tea.Cmd {
	opener, ctx := m.opener, m.ctx
	return func() tea.Msg {
		return mapMsg{name: c.Name, err: opener.OpenMap(ctx, c)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clamp()
		return m, nil

	case eventMsg:
		m.countries = msg.Countries
		m.loading = msg.Loading
		m.errMsg = msg.Err
		m.clamp()
		return m, nil

	case refreshMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		if strings.TrimSpace(m.lastQuery) != "" {
			m.src.Search(m.lastQuery)
		}
		return m, nil

	case mapMsg:
		if msg.err != nil {
			log.WithError(msg.err).Warn("failed to open map")
			m.status = "could not open map: " + msg.err.Error()
		} else {
			m.status = "opened map for " + msg.name
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "m", "enter":
		return m, m.openMapCmd(*m.detail)
	case "esc", "backspace", "left", "h":
		m.detail = nil
		m.status = ""
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.input.Value() == "" {
			m.quitting = true
			return m, tea.Quit
		}
		m.input.SetValue("")
		return m.querySet()
	case tea.KeyUp:
		m.cursor--
		m.clamp()
		return m, nil
	case tea.KeyDown:
		m.cursor++
		m.clamp()
		return m, nil
	case tea.KeyPgUp:
		m.cursor -= m.visibleRows()
		m.clamp()
		return m, nil
	case tea.KeyPgDown:
		m.cursor += m.visibleRows()
		m.clamp()
		return m, nil
	case tea.KeyEnter:
		if len(m.countries) > 0 {
			c := m.countries[m.cursor]
			m.detail = &c
			m.status = ""
		}
		return m, nil
	case tea.KeyCtrlR:
		return m, m.refreshCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	next, searchCmd := m.querySet()
	return next, tea.Batch(cmd, searchCmd)
}

// querySet reacts to a change of the search text. Narrowing the query filters
// the current list; anything else needs the full list back first.
func (m model) querySet() (model, tea.Cmd) {
	q := m.input.Value()
	if q == m.lastQuery {
		return m, nil
	}
	prev := m.lastQuery
	m.lastQuery = q
	m.cursor, m.offset = 0, 0

	if strings.HasPrefix(strings.ToLower(q), strings.ToLower(prev)) {
		m.src.Search(q)
		return m, nil
	}
	return m, m.refreshCmd()
}

func (m model) visibleRows() int {
	rows := m.height - reservedLines
	if rows < 1 {
		rows = 1
	}
	return rows
}

// clamp keeps the cursor inside the list and the window around the cursor.
func (m *model) clamp() {
	if m.cursor >= len(m.countries) {
		m.cursor = len(m.countries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Location Spoof"))
	b.WriteString("\n\n")

	if m.detail != nil {
		m.viewDetail(&b)
		return b.String()
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(helpStyle.Render("loading countries..."))
	case m.errMsg != "":
		b.WriteString(errorStyle.Render("error: " + m.errMsg))
	default:
		b.WriteString(helpStyle.Render(fmt.Sprintf("%d countries", len(m.countries))))
	}
	b.WriteString("\n\n")

	end := m.offset + m.visibleRows()
	if end > len(m.countries) {
		end = len(m.countries)
	}
	for i := m.offset; i < end; i++ {
		c := m.countries[i]
		line := fmt.Sprintf("%s  %s", c.Code, c.Name)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + selectedStyle.Render(line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ move • enter details • ctrl+r reload • esc clear/quit"))
	return b.String()
}

func (m model) viewDetail(b *strings.Builder) {
	d := output.NewDetail(*m.detail)

	fmt.Fprintf(b, "%s\n\n", selectedStyle.Render(d.Name))
	fmt.Fprintf(b, "  code  %s\n", d.Code)
	fmt.Fprintf(b, "  flag  %s\n", d.Flag)
	if d.FlagSize != "" {
		fmt.Fprintf(b, "  size  %s\n", d.FlagSize)
	}
	fmt.Fprintf(b, "  map   %s\n", d.MapURL)

	if m.status != "" {
		fmt.Fprintf(b, "\n%s\n", m.status)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("m open map • esc back • q quit"))
}

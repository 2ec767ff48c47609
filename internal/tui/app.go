package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/actions"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("236"))

	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

const helpText = "enter: activate  alt+enter/ctrl+x: close  ctrl+d: close all of app  esc: quit"

// itemsMsg carries the result of a Query for query.
type itemsMsg struct {
	query string
	items []switcher.Item
	err   error
}

// dispatchedMsg carries the result of a dispatched action.
type dispatchedMsg struct {
	action   actions.Action
	affected int
	err      error
}

// model is the root bubbletea model for the picker.
type model struct {
	ctx    context.Context
	api    switcher.API
	logger *zap.Logger

	filter textinput.Model
	items  []switcher.Item
	cursor int
	loaded bool

	// Close-all confirmation
	confirm    *huh.Form
	confirmYes *bool
	pending    actions.Action

	status   string
	lastErr  error
	fatalErr error

	width  int
	height int
}

func newModel(ctx context.Context, api switcher.API, logger *zap.Logger) model {
	ti := textinput.New()
	ti.Placeholder = "filter by title, workspace or app"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()

	return model{
		ctx:        ctx,
		api:        api,
		logger:     logger,
		filter:     ti,
		confirmYes: new(bool),
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.queryCmd(""))
}

func (m model) queryCmd(query string) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		items, err := api.Query(ctx, query)
		return itemsMsg{query: query, items: items, err: err}
	}
}

func (m model) dispatchCmd(a actions.Action) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		n, err := api.Dispatch(ctx, a)
		return dispatchedMsg{action: a, affected: n, err: err}
	}
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filter.Width = max(msg.Width-8, 10)
		return m, nil

	case itemsMsg:
		return m.applyItems(msg)

	case dispatchedMsg:
		return m.applyDispatch(msg)
	}

	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "ctrl+p", "ctrl+k":
			m.moveCursor(-1)
			return m, nil
		case "down", "ctrl+n", "ctrl+j", "tab":
			m.moveCursor(1)
			return m, nil
		case "enter":
			return m.runSelected(actions.KindActivate)
		case "alt+enter", "ctrl+x":
			return m.runSelected(actions.KindClose)
		case "ctrl+d":
			return m.startConfirm()
		}
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		return m, tea.Batch(cmd, m.queryCmd(m.filter.Value()))
	}
	return m, cmd
}

// applyItems drops results for a query the user has already typed past.
func (m model) applyItems(msg itemsMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.filter.Value() {
		return m, nil
	}
	if msg.err != nil {
		m.logger.Warn("failed to list windows", zap.Error(msg.err))
		m.items = nil
		m.lastErr = msg.err
		if !m.loaded {
			m.fatalErr = fmt.Errorf("failed to list windows: %w", msg.err)
			return m, tea.Quit
		}
		return m, nil
	}
	m.loaded = true
	m.lastErr = nil
	m.items = msg.items
	if m.cursor >= len(m.items) {
		m.cursor = max(len(m.items)-1, 0)
	}
	return m, nil
}

func (m model) applyDispatch(msg dispatchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("action failed", zap.String("action", string(msg.action.Kind)), zap.Error(msg.err))
		m.lastErr = msg.err
		m.status = ""
		return m, m.queryCmd(m.filter.Value())
	}
	m.lastErr = nil
	if msg.action.Kind == actions.KindActivate {
		if msg.affected > 0 {
			return m, tea.Quit
		}
		m.status = "window no longer exists"
		return m, m.queryCmd(m.filter.Value())
	}
	m.status = fmt.Sprintf("closed %d window(s)", msg.affected)
	return m, m.queryCmd(m.filter.Value())
}

func (m *model) moveCursor(delta int) {
	if len(m.items) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = (m.cursor + delta + len(m.items)) % len(m.items)
}

func (m model) selected() (switcher.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return switcher.Item{}, false
	}
	return m.items[m.cursor], true
}

func (m model) runSelected(kind actions.Kind) (tea.Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	a, ok := actionOf(item, kind)
	if !ok {
		return m, nil
	}
	return m, m.dispatchCmd(a)
}

func (m model) startConfirm() (tea.Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	a, ok := actionOf(item, actions.KindCloseAll)
	if !ok {
		return m, nil
	}

	count := 0
	for _, it := range m.items {
		if it.AppKey == item.AppKey {
			count++
		}
	}

	*m.confirmYes = false
	m.pending = a
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Close all windows of %s?", item.AppKey)).
				Description(fmt.Sprintf("%d listed window(s) will be asked to close.", count)).
				Affirmative("Close").
				Negative("Cancel").
				Value(m.confirmYes),
		),
	).WithShowHelp(false)
	return m, m.confirm.Init()
}

func (m model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m.finishConfirm(false)
		}
	}

	form, cmd := m.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		return m.finishConfirm(*m.confirmYes)
	case huh.StateAborted:
		return m.finishConfirm(false)
	}
	return m, cmd
}

func (m model) finishConfirm(accepted bool) (tea.Model, tea.Cmd) {
	a := m.pending
	m.confirm = nil
	m.pending = actions.Action{}
	if !accepted {
		m.status = "close all cancelled"
		return m, nil
	}
	return m, m.dispatchCmd(a)
}

func actionOf(item switcher.Item, kind actions.Kind) (actions.Action, bool) {
	for _, a := range item.Actions {
		if a.Kind == kind {
			return a, true
		}
	}
	return actions.Action{}, false
}

// View implements tea.Model.
func (m model) View() string {
	header := titleStyle.Render("xswitcher") + " " + dimStyle.Render(fmt.Sprintf("%d window(s)", len(m.items)))

	var body string
	if m.confirm != nil {
		body = frameStyle.Render(m.confirm.View())
	} else {
		body = m.renderList()
	}

	var footer string
	switch {
	case m.lastErr != nil:
		footer = errStyle.Render("error: " + m.lastErr.Error())
	case m.status != "":
		footer = okStyle.Render(m.status)
	default:
		footer = dimStyle.Render(helpText)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.filter.View(),
		body,
		footer,
	)
}

func (m model) listHeight() int {
	// header, filter and footer take one line each
	h := m.height - 3
	if m.height == 0 || h > len(m.items) {
		h = len(m.items)
	}
	return max(h, 1)
}

func (m model) renderList() string {
	if len(m.items) == 0 {
		if !m.loaded {
			return dimStyle.Render("  loading...")
		}
		return dimStyle.Render("  no matching windows")
	}

	rows := m.listHeight()
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.items))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(i))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderRow(i int) string {
	it := m.items[i]
	meta := dimStyle.Render(fmt.Sprintf("  %s · %s", it.Subtext, it.AppKey))
	if i == m.cursor {
		return selectedStyle.Render("▸ "+it.Title) + meta
	}
	return "  " + it.Title + meta
}

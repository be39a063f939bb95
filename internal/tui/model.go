// Package tui is a terminal demo of two host lists kept in sync through a
// shared model selection.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vango-dev/selsync/pkg/host"
	"github.com/vango-dev/selsync/pkg/reactive"
	"github.com/vango-dev/selsync/pkg/selection"
)

type pane int

const (
	extendedPane pane = iota
	singlePane
)

// Model is the bubbletea model of the demo. The reactive graph is only
// touched from Update, which bubbletea runs on one goroutine.
type Model struct {
	options []string
	model   *selection.List[string]
	panes   [2]*host.ListControl[string]
	cursor  [2]int
	focus   pane

	bindings []*host.Binding[string]
	subs     reactive.Composite

	primary   string
	refreshes int
	err       error

	keys   keyMap
	help   help.Model
	styles *Styles
	width  int
}

// New creates the demo over options with initial selected in the model.
func New(options, initial []string, logger *slog.Logger) (*Model, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("tui: no options")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Model{
		options: options,
		model:   selection.NewList(initial...),
		panes: [2]*host.ListControl[string]{
			host.NewListControl(host.Extended, options...),
			host.NewListControl(host.Single, options...),
		},
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: NewStyles(),
	}

	for i, name := range []string{"extended", "single"} {
		b, err := host.Bind[string](m.panes[i], m.model,
			selection.WithName(name),
			selection.WithLogger(logger),
		)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.bindings = append(m.bindings, b)
	}

	m.subs.Add(selection.BindPrimary[string](m.model, func(item string) {
		m.primary = item
	}))
	m.subs.Add(m.model.OnRefresh().Subscribe(func(struct{}) {
		m.refreshes++
	}))
	return m, nil
}

// Close releases the bindings.
func (m *Model) Close() {
	for _, b := range m.bindings {
		b.Dispose()
	}
	m.bindings = nil
	m.subs.Dispose()
}

// Items returns the model selection.
func (m *Model) Items() []string {
	return m.model.Items()
}

// Primary returns the most recently selected model item.
func (m *Model) Primary() string {
	return m.primary
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	ctl := m.panes[m.focus]
	item := m.options[m.cursor[m.focus]]

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.focus] < len(m.options)-1 {
			m.cursor[m.focus]++
		}
	case key.Matches(msg, m.keys.Switch):
		m.focus = 1 - m.focus
	case key.Matches(msg, m.keys.Toggle):
		m.err = ctl.Toggle(item)
	case key.Matches(msg, m.keys.Click):
		m.err = ctl.Click(item)
	case key.Matches(msg, m.keys.Clear):
		ctl.ClearSelection()
	case key.Matches(msg, m.keys.Focus):
		ctl.Focus()
	case key.Matches(msg, m.keys.Refresh):
		m.model.Refresh()
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("selsync"))
	b.WriteString("\n")

	left := m.renderPane(extendedPane, "Extended")
	right := m.renderPane(singlePane, "Single")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	primary := m.primary
	if primary == "" {
		primary = "-"
	}
	status := fmt.Sprintf("model: [%s]  primary: %s  refreshes: %d",
		strings.Join(m.model.Items(), ", "),
		m.styles.Highlight.Render(primary),
		m.refreshes)
	b.WriteString(m.styles.Status.Render(status))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(m.styles.Error.Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderPane(p pane, title string) string {
	ctl := m.panes[p]

	var b strings.Builder
	b.WriteString(m.styles.Dim.Render(title))
	for i, opt := range m.options {
		b.WriteString("\n")

		cursor := "  "
		if p == m.focus && i == m.cursor[p] {
			cursor = m.styles.Cursor.Render("> ")
		}
		mark := "[ ]"
		if ctl.Mode() == host.Single {
			mark = "( )"
		}
		line := opt
		if ctl.IsSelected(opt) {
			mark = strings.Replace(mark, " ", "x", 1)
			line = m.styles.Selected.Render(opt)
		}
		b.WriteString(cursor + mark + " " + line)
	}

	style := m.styles.Pane
	if p == m.focus {
		style = m.styles.Focused
	}
	return style.Render(b.String())
}

// Run starts the demo and blocks until the user quits or ctx is done.
func Run(ctx context.Context, m *Model) error {
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

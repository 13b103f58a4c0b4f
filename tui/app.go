package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"curius/graph"
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type item string

func (i item) Title() string       { return string(i) }
func (i item) Description() string { return "" }
func (i item) FilterValue() string { return string(i) }

type model struct {
	// ctx flows into pane fetches; Update itself receives no context.
	ctx  context.Context
	pane *Pane
	list list.Model
	err  error
}

func newModel(ctx context.Context, pane *Pane) model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false

	l := list.New(paneItems(pane), delegate, 0, 0)
	l.Title = pane.Title()
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return model{ctx: ctx, pane: pane, list: l}
}

func paneItems(pane *Pane) []list.Item {
	return lo.Map(pane.Keys(), func(key string, _ int) list.Item { return item(key) })
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			return m.selectCurrent(), nil
		case "esc", "backspace", "left":
			return m.goBack(), nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) selectCurrent() model {
	selected, ok := m.list.SelectedItem().(item)
	if !ok {
		return m
	}
	key := string(selected)

	child, err := m.pane.Child(key)
	if err != nil {
		m.err = err
		return m
	}
	if action, ok := child.(Action); ok {
		m.err = action.Run()
		return m
	}

	next, err := m.pane.Resolve(m.ctx, key)
	if err != nil {
		m.err = err
		return m
	}
	if key != BackKey && next != m.pane {
		next.AddPrev(m.pane)
	}
	return m.setPane(next)
}

func (m model) goBack() model {
	if !m.pane.HasPrev() {
		return m
	}
	next, err := m.pane.Resolve(m.ctx, BackKey)
	if err != nil {
		m.err = err
		return m
	}
	return m.setPane(next)
}

func (m model) setPane(pane *Pane) model {
	m.pane = pane
	m.err = nil
	m.list.SetItems(paneItems(pane))
	m.list.Title = pane.Title()
	m.list.Select(0)
	return m
}

func (m model) View() string {
	view := docStyle.Render(m.list.View())
	if m.err != nil {
		view += "\n" + errStyle.Render(m.err.Error())
	}
	return view
}

// Run opens the interactive browser rooted at a profile pane and blocks
// until the user quits.
func Run(ctx context.Context, cache *graph.Cache, userLink string, cfg Config) error {
	user, err := cache.User(ctx, userLink)
	if err != nil {
		return fmt.Errorf("failed to load start user: %w", err)
	}

	program := tea.NewProgram(newModel(ctx, UserPane(cache, user, cfg)), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}

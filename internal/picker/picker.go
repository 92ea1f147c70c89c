// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package picker is a small terminal multi-select used to choose cleanup
// targets interactively.
package picker

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrCancelled = errors.New("selection cancelled")

// Item is one choice. ID is returned, Label is shown.
type Item struct {
	ID    string
	Label string
}

type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	All    key.Binding
	Accept key.Binding
	Quit   key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space", "toggle"),
	),
	All: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "toggle all"),
	),
	Accept: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "accept"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "cancel"),
	),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f6be00"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00c8f0"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type Model struct {
	title     string
	items     []Item
	keys      KeyMap
	cursor    int
	selected  map[int]bool
	accepted  bool
	cancelled bool
}

func New(title string, items []Item) Model {
	return Model{title: title, items: items, keys: DefaultKeyMap, selected: map[int]bool{}}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(km, m.keys.Accept):
		m.accepted = true
		return m, tea.Quit
	case key.Matches(km, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(km, m.keys.Toggle):
		if len(m.items) > 0 {
			m.selected[m.cursor] = !m.selected[m.cursor]
		}
	case key.Matches(km, m.keys.All):
		all := len(m.Selected()) == len(m.items)
		for i := range m.items {
			m.selected[i] = !all
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.accepted || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	for i, it := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ]"
		if m.selected[i] {
			check = "[x]"
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, check, it.Label)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("%d selected • space toggle • a all • enter accept • q cancel", len(m.Selected()))))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the ids of the checked items in list order.
func (m Model) Selected() []string {
	var ids []string
	for i, it := range m.items {
		if m.selected[i] {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Run shows the picker on in/out and returns the chosen ids.
func Run(title string, items []Item, in io.Reader, out io.Writer) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	final, err := tea.NewProgram(New(title, items), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return nil, fmt.Errorf("picker failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok || m.cancelled {
		return nil, ErrCancelled
	}
	return m.Selected(), nil
}

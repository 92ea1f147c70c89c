// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package picker

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items() []Item {
	return []Item{
		{ID: "asst_1", Label: "alpha"},
		{ID: "asst_2", Label: "beta"},
		{ID: "asst_3", Label: "gamma"},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var updated tea.Model
		updated, cmd = m.Update(msg)
		var ok bool
		m, ok = updated.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func TestToggleAndMove(t *testing.T) {
	m, _ := send(t, New("Agents", items()),
		tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}},
		runes("j"), runes("j"), runes("j"),
		runes("x"),
		runes("k"), runes("x"), runes("x"),
	)
	assert.Equal(t, []string{"asst_1", "asst_3"}, m.Selected())
	assert.Equal(t, 1, m.cursor)
}

func TestToggleAll(t *testing.T) {
	m, _ := send(t, New("Agents", items()), runes("a"))
	assert.Equal(t, []string{"asst_1", "asst_2", "asst_3"}, m.Selected())

	m, _ = send(t, m, runes("a"))
	assert.Empty(t, m.Selected())
}

func TestAcceptAndCancel(t *testing.T) {
	m, cmd := send(t, New("Agents", items()), runes("x"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.accepted)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())

	m, _ = send(t, New("Agents", items()), tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.cancelled)
}

func TestView(t *testing.T) {
	m, _ := send(t, New("Agents", items()), runes("j"), runes("x"))
	v := m.View()
	assert.Contains(t, v, "Agents")
	assert.Contains(t, v, "[x] beta")
	assert.Contains(t, v, "[ ] alpha")
	assert.Contains(t, v, "1 selected")
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	maxTranscriptBytes = 64 * 1024 // Older output is dropped beyond this
	consoleChromeLines = 4         // Header, blank line, box borders
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// consoleModel is the Bubble Tea model for the operator console
type consoleModel struct {
	conn     Connection
	connInfo string

	viewport   viewport.Model
	transcript string

	bytesSent     int
	bytesReceived int
	lastErr       error

	width          int
	height         int
	ready          bool
	connectionLost bool
	quitting       bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type consoleDataMsg []byte

type consoleClosedMsg struct {
	err error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialConsoleModel(conn Connection, connInfo string) consoleModel {
	return consoleModel{
		conn:     conn,
		connInfo: connInfo,
		viewport: viewport.New(80, 20),
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m consoleModel) Init() tea.Cmd {
	return nil
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 10)
		m.viewport.Height = max(msg.Height-consoleChromeLines-1, 3)
		m.ready = true
		m.viewport.SetContent(m.transcript)
		m.viewport.GotoBottom()

	case consoleDataMsg:
		m.bytesReceived += len(msg)
		m.appendTranscript(string(msg))

	case consoleClosedMsg:
		m.connectionLost = true
		m.lastErr = msg.err
	}

	return m, nil
}

func (m consoleModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyRunes:
		m.send([]byte(string(msg.Runes)))

	case tea.KeySpace:
		m.send([]byte(" "))

	case tea.KeyEnter:
		m.send([]byte("\r"))
	}

	return m, nil
}

// send writes keys to the controller from the update loop, so they leave in
// the order they were typed
func (m *consoleModel) send(data []byte) {
	if m.connectionLost {
		return
	}
	n, err := m.conn.Write(data)
	m.bytesSent += n
	if err != nil {
		m.lastErr = err
	}
}

// appendTranscript adds controller output. Carriage returns are dropped so
// "\r\n" line ends render as plain newlines.
func (m *consoleModel) appendTranscript(s string) {
	m.transcript += strings.ReplaceAll(s, "\r", "")
	if len(m.transcript) > maxTranscriptBytes {
		cut := len(m.transcript) - maxTranscriptBytes
		if i := strings.IndexByte(m.transcript[cut:], '\n'); i >= 0 {
			cut += i + 1
		}
		m.transcript = m.transcript[cut:]
	}
	m.viewport.SetContent(m.transcript)
	m.viewport.GotoBottom()
}

func (m consoleModel) View() string {
	if m.quitting {
		return "Closing console...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder

	s.WriteString(titleStyle.Render("SENTINEL CONSOLE"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("DISCONNECTED")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | Ctrl+C=quit PgUp/PgDn=scroll | tx %d rx %d",
		connStatus, m.bytesSent, m.bytesReceived)))
	s.WriteString("\n\n")

	if !m.ready {
		s.WriteString("Waiting for terminal size...\n")
		return s.String()
	}

	s.WriteString(boxStyle.Render(m.viewport.View()))
	s.WriteString("\n")

	if m.lastErr != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.lastErr)))
	}

	return s.String()
}

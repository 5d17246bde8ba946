// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func TestLineSplitter_SplitAcrossReads(t *testing.T) {
	var l lineSplitter

	assert.Empty(t, l.Feed([]byte("Date and Ti")))
	assert.Equal(t, "Date and Ti", l.Pending())

	assert.Empty(t, l.Feed([]byte("me = Mon Jan  1 00:00:00 2024\r")))

	lines := l.Feed([]byte("\nAlarm is not activated.\r\n\r\n*"))
	assert.Equal(t, []string{
		"Date and Time = Mon Jan  1 00:00:00 2024",
		"Alarm is not activated.",
		"",
	}, lines)
	assert.Equal(t, "*", l.Pending())
}

func TestValidateCode(t *testing.T) {
	tests := []struct {
		code    string
		wantErr string
	}{
		{"1805", ""},
		{"0000", ""},
		{"180", "must be 4 digits"},
		{"18055", "must be 4 digits"},
		{"18a5", "position 3"},
		{"", "must be 4 digits"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := validateCode(tt.code)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestFormatDetail(t *testing.T) {
	assert.Equal(t, "(no detail)", formatDetail(nil))
	assert.Equal(t, "gas=true over_temperature=false siren=true",
		formatDetail(map[string]bool{"siren": true, "gas": true, "over_temperature": false}))
}

func TestAwaitDateTime(t *testing.T) {
	lines := make(chan string, 4)
	readErr := make(chan error, 1)

	lines <- "Commands:"
	lines <- "Date and Time = Tue Jan  2 03:04:05 2024"

	text, err := awaitDateTime(lines, readErr, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Tue Jan  2 03:04:05 2024", text)

	_, err = awaitDateTime(lines, readErr, 20*time.Millisecond)
	assert.ErrorContains(t, err, "TIMEOUT")

	readErr <- errors.New("boom")
	_, err = awaitDateTime(lines, readErr, time.Second)
	assert.ErrorContains(t, err, "READ FAILED")
}

func TestConsoleModel_Transcript(t *testing.T) {
	m := initialConsoleModel(nil, "test")
	m.appendTranscript("Temperature: 21.50 °C\r\n")
	m.appendTranscript("Alarm is not activated.\r\n")
	assert.Equal(t, "Temperature: 21.50 °C\nAlarm is not activated.\n", m.transcript)
}

func TestFormatPort(t *testing.T) {
	assert.Equal(t, "/dev/ttyS0", formatPort(&enumerator.PortDetails{Name: "/dev/ttyS0"}))
	assert.Equal(t, "/dev/ttyUSB0  USB 0403:6001  FT232R  (serial A10K)", formatPort(&enumerator.PortDetails{
		Name:         "/dev/ttyUSB0",
		IsUSB:        true,
		VID:          "0403",
		PID:          "6001",
		SerialNumber: "A10K",
		Product:      "FT232R",
	}))
}

// recordingConn collects everything written to it
type recordingConn struct {
	written bytes.Buffer
	writes  int
}

func (c *recordingConn) Read([]byte) (int, error) { return 0, errors.New("not readable") }
func (c *recordingConn) Close() error             { return nil }

func (c *recordingConn) Write(p []byte) (int, error) {
	c.writes++
	return c.written.Write(p)
}

func TestConsoleModel_KeysSentInOrder(t *testing.T) {
	conn := &recordingConn{}
	var model tea.Model = initialConsoleModel(conn, "test")

	input := "s2024-01-02T03:04:05"
	for i := 0; i < 20; i++ {
		for _, r := range input {
			var cmd tea.Cmd
			model, cmd = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
			assert.Nil(t, cmd, "keys must be written during Update")
		}
	}

	want := bytes.Repeat([]byte(input), 20)
	assert.Equal(t, string(want), conn.written.String())
	assert.Equal(t, len(want), conn.writes)
	assert.Equal(t, len(want), model.(consoleModel).bytesSent)
}

func TestConsoleModel_NoWritesAfterDisconnect(t *testing.T) {
	conn := &recordingConn{}
	var model tea.Model = initialConsoleModel(conn, "test")

	model, _ = model.Update(consoleClosedMsg{err: errors.New("gone")})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})

	assert.Zero(t, conn.writes)
	assert.True(t, model.(consoleModel).connectionLost)
}

func TestDrainLines_DropsLateReplies(t *testing.T) {
	lines := make(chan string, 4)
	readErr := make(chan error, 1)

	// Reply to a ping that already timed out
	lines <- "Date and Time = Tue Jan  2 03:04:05 2024"
	drainLines(lines)
	assert.Empty(t, lines)

	lines <- "Date and Time = Tue Jan  2 03:04:06 2024"
	text, err := awaitDateTime(lines, readErr, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Tue Jan  2 03:04:06 2024", text)
}

func TestRunPing_RejectsInvalidCount(t *testing.T) {
	defer func(count, timeout int) { pingCount, pingTimeout = count, timeout }(pingCount, pingTimeout)

	pingCount, pingTimeout = 0, 5
	assert.ErrorContains(t, runPing(pingCmd, nil), "--count must be at least 1")

	pingCount, pingTimeout = 3, 0
	assert.ErrorContains(t, runPing(pingCmd, nil), "--timeout must be at least 1")
}

func TestMonitorStream_StatusToErrorOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	r := strings.NewReader("The alarm is not activated\r\n*")

	require.NoError(t, monitorStream(r, &out, &errOut))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "] The alarm is not activated"), "line %q", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "] *"), "line %q", lines[1])
	assert.Equal(t, "Connection closed\n", errOut.String())
}

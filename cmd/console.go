// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Thermoquad/sentinel/pkg/wslink"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive operator console for a controller",
	Long: `Open the operator control channel of a controller.

Every key typed is sent to the controller as-is; the controller's replies are
shown in a scrolling transcript. Press any unassigned key to get the command
menu. Ctrl+C or Esc quits.

With --raw the terminal is put in raw mode and bytes are passed straight
through, without the TUI. Use Ctrl+] to quit raw mode.

Supports both serial and WebSocket connections.`,
	RunE: runConsole,
}

var consoleRaw bool

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().BoolVar(&consoleRaw, "raw", false, "Raw terminal pass-through instead of the TUI")
}

func runConsole(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if consoleRaw {
		return runRawConsole(conn, connInfo)
	}

	p := tea.NewProgram(initialConsoleModel(conn, connInfo), tea.WithAltScreen())
	go consoleReader(conn, p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// consoleReader forwards received bytes to the TUI until the connection ends
func consoleReader(conn Connection, p *tea.Program) {
	buf := make([]byte, 256)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			p.Send(consoleDataMsg(data))
		}
		if err != nil {
			if errors.Is(err, wslink.ErrConnectionClosed) || errors.Is(err, io.EOF) {
				p.Send(consoleClosedMsg{err: err})
				return
			}
			// Brief pause before retry on transient errors (e.g., serial)
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// rawEscape ends a raw console session (Ctrl+])
const rawEscape = 0x1D

func runRawConsole(conn Connection, connInfo string) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("--raw requires a terminal on stdin")
	}

	fmt.Fprintf(os.Stderr, "Connected to %s. Press Ctrl+] to quit.\r\n", connInfo)

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, state) }()

	go func() {
		_, _ = io.Copy(os.Stdout, conn)
	}()

	buf := make([]byte, 64)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil
		}
		for i := 0; i < n; i++ {
			if buf[i] == rawEscape {
				if i > 0 {
					_, _ = conn.Write(buf[:i])
				}
				return nil
			}
		}
		if _, err := conn.Write(buf[:n]); err != nil {
			return fmt.Errorf("write failed: %w", err)
		}
	}
}

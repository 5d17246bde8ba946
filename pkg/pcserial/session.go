// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pcserial

import "io"

// Session is one operator control channel. It is not safe for concurrent
// use: the host feeds characters from a single polling context.
type Session struct {
	out io.Writer
	p   Peripherals

	state state

	// Verify path hand-off, read by whoever enforces deactivation
	codeComplete bool
	enteredCode  [CodeLength]byte
}

// NewSession creates a session in command mode writing to out
func NewSession(out io.Writer, p Peripherals) *Session {
	return &Session{
		out:   out,
		p:     p,
		state: commandState{},
	}
}

// Start prints the command menu
func (s *Session) Start() {
	s.write(Menu)
}

// Mode returns the current input mode
func (s *Session) Mode() Mode {
	if s.state == nil {
		return ModeCommands
	}
	return s.state.mode()
}

// Advance processes a single received character through the active mode.
// A session without a valid mode is returned to command mode and the
// character is dropped.
func (s *Session) Advance(c byte) {
	if s.state == nil {
		s.state = commandState{}
		return
	}
	s.state = s.state.feed(s, c)
}

// Poll reads at most one pending character from r and advances with it.
// It reports whether a character was processed.
func (s *Session) Poll(r CharReader) bool {
	c, ok := r.ReadChar()
	if !ok {
		return false
	}
	s.Advance(c)
	return true
}

// Reset abandons any partial entry and returns to command mode
func (s *Session) Reset() {
	s.state = commandState{}
}

// CodeComplete reports whether a full deactivation code has been entered
// and not yet consumed
func (s *Session) CodeComplete() bool {
	return s.codeComplete
}

// EnteredCode returns the last completed deactivation code and whether it
// is still pending consumption
func (s *Session) EnteredCode() ([CodeLength]byte, bool) {
	return s.enteredCode, s.codeComplete
}

// ClearCodeComplete marks the entered code as consumed
func (s *Session) ClearCodeComplete() {
	s.codeComplete = false
}

func (s *Session) write(str string) {
	if s.out == nil {
		return
	}
	_, _ = io.WriteString(s.out, str)
}

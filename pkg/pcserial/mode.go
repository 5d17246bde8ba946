// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pcserial

// Mode identifies how the next received character is interpreted
type Mode int

const (
	ModeCommands Mode = iota
	ModeEnteringCode
	ModeEnteringNewCode
	ModeEnteringDateTime
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeCommands:
		return "COMMANDS"
	case ModeEnteringCode:
		return "ENTERING_CODE"
	case ModeEnteringNewCode:
		return "ENTERING_NEW_CODE"
	case ModeEnteringDateTime:
		return "ENTERING_DATE_TIME"
	default:
		return "UNKNOWN"
	}
}

// state is the active mode together with the input it has buffered so far.
// feed consumes one character and returns the state to continue in. Only
// Session.Advance stores the returned state.
type state interface {
	mode() Mode
	feed(s *Session, c byte) state
}

// commandState interprets single-key commands
type commandState struct{}

func (commandState) mode() Mode { return ModeCommands }

func (commandState) feed(s *Session, c byte) state {
	return s.command(c)
}

// codeBuffer accumulates exactly CodeLength keys
type codeBuffer struct {
	keys [CodeLength]byte
	n    int
}

// push stores c at the current position and reports whether the buffer is
// now full
func (b *codeBuffer) push(c byte) bool {
	b.keys[b.n] = c
	b.n++
	return b.n >= CodeLength
}

// codeState collects a code to deactivate the alarm
type codeState struct {
	code codeBuffer
}

func (*codeState) mode() Mode { return ModeEnteringCode }

func (st *codeState) feed(s *Session, c byte) state {
	s.write(maskEcho)
	if !st.code.push(c) {
		return st
	}

	s.enteredCode = st.code.keys
	s.codeComplete = true
	return commandState{}
}

// newCodeState collects a replacement access code
type newCodeState struct {
	code codeBuffer
}

func (*newCodeState) mode() Mode { return ModeEnteringNewCode }

func (st *newCodeState) feed(s *Session, c byte) state {
	s.write(maskEcho)
	if !st.code.push(c) {
		return st
	}

	s.p.Codes.StoreCode(st.code.keys)
	s.write(msgNewCodeConfigured)
	return commandState{}
}

// dateTimeState collects a "YYYY-MM-DDThh:mm:ss" timestamp without echo
type dateTimeState struct {
	buf [DateTimeLength]byte
	n   int
}

func (*dateTimeState) mode() Mode { return ModeEnteringDateTime }

func (st *dateTimeState) feed(s *Session, c byte) state {
	st.buf[st.n] = c
	st.n++
	if st.n < DateTimeLength {
		return st
	}

	dt := ParseDateTime(st.buf[:])
	s.p.Clock.SetDateTime(dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
	s.write(msgDateTimeSet)
	return commandState{}
}

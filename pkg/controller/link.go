// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package controller

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/Thermoquad/sentinel/pkg/pcserial"
)

// Link is one control channel transport
type Link interface {
	pcserial.CharReader
	io.Writer
	io.Closer

	// Name identifies the link in logs
	Name() string

	// Closed reports that the peer is gone and no input remains
	Closed() bool
}

// errLink is implemented by links that can report why their stream ended
type errLink interface {
	Err() error
}

// linkBufferSize bounds received but unprocessed characters
const linkBufferSize = 256

// StreamLink adapts a blocking byte stream (serial port, WebSocket) into a
// Link. A reader goroutine moves received bytes into a buffer that ReadChar
// drains without blocking.
type StreamLink struct {
	name string
	rw   io.ReadWriteCloser
	in   chan byte
	eof  atomic.Bool
	err  atomic.Value

	done      chan struct{}
	closeOnce sync.Once
}

// NewStreamLink starts reading from rw
func NewStreamLink(name string, rw io.ReadWriteCloser) *StreamLink {
	l := &StreamLink{
		name: name,
		rw:   rw,
		in:   make(chan byte, linkBufferSize),
		done: make(chan struct{}),
	}
	go l.readLoop()
	return l
}

func (l *StreamLink) readLoop() {
	defer func() {
		l.eof.Store(true)
		close(l.in)
	}()

	buf := make([]byte, 64)
	for {
		n, err := l.rw.Read(buf)
		for i := 0; i < n; i++ {
			select {
			case l.in <- buf[i]:
			case <-l.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				l.err.Store(err)
			}
			return
		}
	}
}

// ReadChar returns the next received character, if any
func (l *StreamLink) ReadChar() (byte, bool) {
	select {
	case c, ok := <-l.in:
		return c, ok
	default:
		return 0, false
	}
}

func (l *StreamLink) Write(p []byte) (int, error) {
	return l.rw.Write(p)
}

// Close closes the underlying stream and ends the reader, even when it is
// blocked on a full buffer
func (l *StreamLink) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return l.rw.Close()
}

// Name returns the link name
func (l *StreamLink) Name() string {
	return l.name
}

// Closed reports whether the stream ended and all input was consumed
func (l *StreamLink) Closed() bool {
	return l.eof.Load() && len(l.in) == 0
}

// Err returns the error that ended the stream, nil for a clean EOF
func (l *StreamLink) Err() error {
	if err, ok := l.err.Load().(error); ok {
		return err
	}
	return nil
}

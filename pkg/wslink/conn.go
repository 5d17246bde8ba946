// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package wslink carries the control channel byte stream over WebSocket.
package wslink

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed is returned when reading from a closed connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// Conn presents a WebSocket as a byte stream. Each received text or binary
// message is appended to the stream; each Write is sent as one text message.
type Conn struct {
	ws        *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

// NewConn wraps an established WebSocket
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

func (c *Conn) Read(p []byte) (int, error) {
	if c.closed {
		return 0, ErrConnectionClosed
	}

	if c.bufOffset < len(c.buf) {
		n := copy(p, c.buf[c.bufOffset:])
		c.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.closed = true
			return 0, err
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		if len(data) == 0 {
			continue
		}

		c.buf = data
		n := copy(p, c.buf)
		c.bufOffset = n
		return n, nil
	}
}

func (c *Conn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

// Dial opens a WebSocket connection with optional HTTP Basic auth
func Dial(wsURL, username, password string, skipSSLVerify bool) (*Conn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ws, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return NewConn(ws), nil
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/viper"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Thermoquad/sentinel/pkg/wslink"
)

// Connection provides a common interface for reading/writing bytes from serial or WebSocket
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// OpenSerialConnection opens a serial port connection, 8N1
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// readHidden reads a line from the terminal without echo. It falls back to
// a plain read when stdin is not a terminal.
func readHidden(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	secret, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(line), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(secret), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("SENTINEL_PASSWORD"); pw != "" {
		return pw, nil
	}
	return readHidden("Password: ")
}

// OpenConnection opens either a serial or WebSocket connection based on flags
// and configuration
func OpenConnection() (Connection, string, error) {
	if url := viper.GetString(keyWSURL); url != "" {
		username := viper.GetString(keyWSUsername)
		password := ""
		if username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := wslink.Dial(url, username, password, viper.GetBool(keyWSNoSSLVerify))
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("WebSocket: %s", url), nil
	}

	if port := viper.GetString(keySerialPort); port != "" {
		baud := viper.GetInt(keySerialBaud)
		conn, err := OpenSerialConnection(port, baud)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("Serial: %s @ %d baud", port, baud), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

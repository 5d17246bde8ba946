// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/sentinel/pkg/pcserial"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that a controller answers on its control channel",
	Long: `Send the show date/time command ('t') to a controller and wait for the
"Date and Time = ..." reply.

This is useful for verifying:
  - The serial or WebSocket connection is established
  - HTTP Basic authentication works
  - The controller host loop is polling the channel

A controller in the middle of code or date/time entry consumes the key as
input instead, so the ping times out until that entry completes.

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	if pingCount < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", pingCount)
	}
	if pingTimeout < 1 {
		return fmt.Errorf("--timeout must be at least 1 second, got %d", pingTimeout)
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Sentinel - Control Channel Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	lines := make(chan string, 64)
	readErr := make(chan error, 1)
	go func() {
		var splitter lineSplitter
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			for _, line := range splitter.Feed(buf[:n]) {
				lines <- line
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		// A reply to an earlier ping that timed out must not answer this one
		drainLines(lines)

		startTime := time.Now()
		if _, err := conn.Write([]byte("t")); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		if reply, err := awaitDateTime(lines, readErr, time.Duration(pingTimeout)*time.Second); err != nil {
			fmt.Printf("%v\n", err)
			failCount++
		} else {
			fmt.Printf("controller clock=%q, rtt=%v\n", reply, time.Since(startTime).Round(time.Millisecond))
			successCount++
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d replies received, %.0f%% loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}

// awaitDateTime waits for a date/time reply line and returns the clock text.
// Other lines (menu, alarm prompts) are skipped.
func awaitDateTime(lines <-chan string, readErr <-chan error, timeout time.Duration) (string, error) {
	deadline := time.After(timeout)
	for {
		select {
		case line := <-lines:
			if text, ok := strings.CutPrefix(line, pcserial.DateTimePrefix); ok {
				return text, nil
			}
		case err := <-readErr:
			return "", fmt.Errorf("READ FAILED: %w", err)
		case <-deadline:
			return "", fmt.Errorf("TIMEOUT (no reply in %v)", timeout)
		}
	}
}

// drainLines discards lines already received
func drainLines(lines <-chan string) {
	for {
		select {
		case <-lines:
		default:
			return
		}
	}
}

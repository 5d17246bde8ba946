// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/sentinel/pkg/wslink"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display control channel output with timestamps",
	Long: `Continuously display what a controller writes, one timestamped line at
a time. Nothing is sent.

To watch a controller that is operated from other terminals, connect to the
watch path of its WebSocket listener; every control channel's output is
copied there:

  sentinel monitor --url ws://host:8080/watch

Any other WebSocket path, or a serial port, is a control channel of its own,
so only that channel's output (the startup menu) is shown.`,
	RunE: runMonitor,
}

var monitorHex bool

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorHex, "hex", false, "Also show each line as hex bytes")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Sentinel - Control Channel Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	return monitorStream(conn, os.Stdout, os.Stderr)
}

// monitorStream prints timestamped lines read from r to out until the stream
// ends. Status messages go to errOut.
func monitorStream(r io.Reader, out, errOut io.Writer) error {
	var splitter lineSplitter
	buf := make([]byte, 128)

	for {
		n, err := r.Read(buf)
		for _, line := range splitter.Feed(buf[:n]) {
			printMonitorLine(out, line)
		}
		if err != nil {
			// A closed WebSocket or EOF on the port does not recover
			if errors.Is(err, wslink.ErrConnectionClosed) || errors.Is(err, io.EOF) {
				if pending := splitter.Pending(); pending != "" {
					printMonitorLine(out, pending)
				}
				fmt.Fprintln(errOut, "Connection closed")
				return nil
			}
			fmt.Fprintf(errOut, "Read error: %v\n", err)
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func printMonitorLine(out io.Writer, line string) {
	fmt.Fprintf(out, "[%s] %s\n", time.Now().Format("15:04:05.000"), line)
	if monitorHex {
		fmt.Fprintf(out, "               %x\n", line)
	}
}

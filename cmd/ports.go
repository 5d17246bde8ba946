// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports that may carry a control channel",
	Long: `List the serial ports present on this host.

USB adapters are shown with their vendor and product IDs so the controller's
port can be picked for --port or serial.port.

Examples:
  sentinel ports
  sentinel console --port /dev/ttyUSB0

Exit codes:
  0 - At least one port found
  1 - No ports found
  2 - Enumeration error`,
	RunE: runPorts,
}

var portsUSBOnly bool

func init() {
	rootCmd.AddCommand(portsCmd)
	portsCmd.Flags().BoolVar(&portsUSBOnly, "usb", false, "Only list USB serial adapters")
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Enumeration error: %v\n", err)
		os.Exit(2)
	}

	found := 0
	for _, port := range ports {
		if portsUSBOnly && !port.IsUSB {
			continue
		}
		found++
		fmt.Println(formatPort(port))
	}

	if found == 0 {
		fmt.Println("No serial ports found")
		os.Exit(1)
	}
	return nil
}

func formatPort(port *enumerator.PortDetails) string {
	if !port.IsUSB {
		return port.Name
	}
	line := fmt.Sprintf("%s  USB %s:%s", port.Name, port.VID, port.PID)
	if port.Product != "" {
		line += "  " + port.Product
	}
	if port.SerialNumber != "" {
		line += fmt.Sprintf("  (serial %s)", port.SerialNumber)
	}
	return line
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Configuration flags
	configFile string
	logLevel   string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Home alarm controller and operator console",
	Long: `Sentinel - Home alarm controller with a serial operator control channel.

The controller watches the gas and over temperature detectors, sounds the
siren, and keeps an event log. Operators query and configure it one key at a
time over a serial line or a WebSocket bridge.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the SENTINEL_PASSWORD
environment variable, or prompted interactively if not set.

Settings may also come from a YAML config file (--config, or
./configs/sentinel.yml) and SENTINEL_* environment variables.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Configuration flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (serve, events, code)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

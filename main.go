// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Sentinel - Home Alarm Controller
//
// Runs the alarm controller with its serial operator control channel, and
// provides the operator tools to talk to it.

package main

import (
	"os"

	"github.com/Thermoquad/sentinel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import "strings"

// lineSplitter reassembles control-channel output into lines. Reads may end
// anywhere, including between '\r' and '\n'.
type lineSplitter struct {
	partial strings.Builder
}

// Feed adds received bytes and returns every line completed by them, without
// line terminators. Empty lines are returned as "".
func (l *lineSplitter) Feed(data []byte) []string {
	var lines []string
	for _, b := range data {
		switch b {
		case '\r':
		case '\n':
			lines = append(lines, l.partial.String())
			l.partial.Reset()
		default:
			l.partial.WriteByte(b)
		}
	}
	return lines
}

// Pending returns the text received since the last complete line
func (l *lineSplitter) Pending() string {
	return l.partial.String()
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Thermoquad/sentinel/pkg/controller"
	"github.com/Thermoquad/sentinel/pkg/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the stored event log",
	Long: `Print the controller's event log from its database, oldest first.

The output matches the 'e' command of the control channel. With --detail the
detector snapshot recorded with each event is printed as well. The database
may be read while the controller is running.`,
	RunE: runEvents,
}

var (
	eventsDetail bool
	eventsUTC    bool
)

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().BoolVar(&eventsDetail, "detail", false, "Show the detector snapshot of each event")
	eventsCmd.Flags().BoolVar(&eventsUTC, "utc", false, "Print timestamps in UTC")
}

func runEvents(cmd *cobra.Command, args []string) error {
	db, err := store.Open(viper.GetString(keyDBPath))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	events, err := db.Events.List(ctx)
	if err != nil {
		return err
	}

	loc := time.Local
	if eventsUTC {
		loc = time.UTC
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(out, "No events recorded.")
		return nil
	}

	for _, e := range events {
		fmt.Fprintln(out, strings.ReplaceAll(controller.FormatEvent(e, loc), "\r\n", "\n"))
		if eventsDetail {
			fmt.Fprintf(out, "  %s\n", formatDetail(e.Detail))
		}
	}
	fmt.Fprintf(out, "\n%d of at most %d events\n", len(events), store.MaxEvents)
	return nil
}

// formatDetail renders a detector snapshot as sorted key=value pairs
func formatDetail(detail map[string]bool) string {
	if len(detail) == 0 {
		return "(no detail)"
	}

	keys := make([]string, 0, len(detail))
	for k := range detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%t", k, detail[k])
	}
	return strings.Join(parts, " ")
}

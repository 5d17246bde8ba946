// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/Thermoquad/sentinel/pkg/pcserial"
	"github.com/Thermoquad/sentinel/pkg/store"
)

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Manage access credentials",
}

var codeSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Provision the deactivation code",
	Long: `Store a new deactivation code in the controller database.

The code is read twice from the terminal without echo and must be exactly
four digits. This is the offline equivalent of command '5' on the control
channel; a running controller picks the new code up on the next attempt.`,
	RunE: runCodeSet,
}

var codeHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Hash a WebSocket password for ws.password_hash",
	Long: `Read a password without echo and print its bcrypt hash.

Put the output in the config file as ws.password_hash to require HTTP Basic
authentication on the controller's WebSocket listener.`,
	RunE: runCodeHash,
}

func init() {
	rootCmd.AddCommand(codeCmd)
	codeCmd.AddCommand(codeSetCmd)
	codeCmd.AddCommand(codeHashCmd)
}

// validateCode checks an operator-supplied deactivation code
func validateCode(code string) error {
	if len(code) != pcserial.CodeLength {
		return fmt.Errorf("code must be %d digits, got %d characters", pcserial.CodeLength, len(code))
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return fmt.Errorf("code must be numeric, invalid character at position %d", i+1)
		}
	}
	return nil
}

func runCodeSet(cmd *cobra.Command, args []string) error {
	code, err := readHidden(fmt.Sprintf("New %d digit code: ", pcserial.CodeLength))
	if err != nil {
		return err
	}
	if err := validateCode(code); err != nil {
		return err
	}
	confirm, err := readHidden("Repeat code: ")
	if err != nil {
		return err
	}
	if confirm != code {
		return fmt.Errorf("codes do not match")
	}

	db, err := store.Open(viper.GetString(keyDBPath))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	if err := db.Codes.Store(ctx, []byte(code)); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "New code configured")
	return nil
}

func runCodeHash(cmd *cobra.Command, args []string) error {
	password, err := readHidden("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(hash))
	return nil
}

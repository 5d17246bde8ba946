// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrNoCode is returned when no access code has been provisioned
var ErrNoCode = errors.New("no access code provisioned")

const (
	upsertCodeSQL = `INSERT INTO access_code (id, hash, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET hash = excluded.hash, updated_at = excluded.updated_at`
	selectCodeSQL = `SELECT hash FROM access_code WHERE id = 1`
)

// CodeSQLite keeps a bcrypt hash of the single access code
type CodeSQLite struct {
	db   *sql.DB
	cost int
}

// NewCodeSQLite creates a code repository using bcrypt.DefaultCost
func NewCodeSQLite(db *sql.DB) *CodeSQLite {
	return &CodeSQLite{db: db, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost used for new codes
func (r *CodeSQLite) WithCost(cost int) *CodeSQLite {
	r.cost = cost
	return r
}

// Store replaces the access code
func (r *CodeSQLite) Store(ctx context.Context, code []byte) error {
	hash, err := bcrypt.GenerateFromPassword(code, r.cost)
	if err != nil {
		return fmt.Errorf("hash access code: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, upsertCodeSQL, string(hash), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("store access code: %w", err)
	}
	return nil
}

// Verify reports whether code matches the stored access code
func (r *CodeSQLite) Verify(ctx context.Context, code []byte) (bool, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, selectCodeSQL).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNoCode
	}
	if err != nil {
		return false, fmt.Errorf("select access code: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), code)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare access code: %w", err)
	}
	return true, nil
}

// EnsureDefault stores code if no access code exists yet. It reports
// whether the default was written.
func (r *CodeSQLite) EnsureDefault(ctx context.Context, code []byte) (bool, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, selectCodeSQL).Scan(&hash)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("select access code: %w", err)
	}
	if err := r.Store(ctx, code); err != nil {
		return false, err
	}
	return true, nil
}

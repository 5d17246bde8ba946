// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// MaxEvents is the number of events retained; older events are dropped
const MaxEvents = 100

// detailEncoding sorts map keys so equal snapshots encode identically
var detailEncoding = mustEncMode(cbor.CanonicalEncOptions())

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// ErrNoEvent is returned when an event index is out of range
var ErrNoEvent = errors.New("no such event")

// Event is a single log entry
type Event struct {
	ID         string
	OccurredAt time.Time
	Name       string          // ALARM_ON, GAS_DET_OFF, CODE_WRONG, ...
	Detail     map[string]bool // detector snapshot at the time of the event
}

const (
	insertEventSQL = `INSERT INTO events (id, occurred_at, name, detail) VALUES (?, ?, ?, ?)`
	trimEventsSQL  = `DELETE FROM events WHERE seq NOT IN (SELECT seq FROM events ORDER BY seq DESC LIMIT ?)`
	countEventsSQL = `SELECT COUNT(*) FROM events`
	eventAtSQL     = `SELECT id, occurred_at, name, detail FROM events ORDER BY seq ASC LIMIT 1 OFFSET ?`
	listEventsSQL  = `SELECT id, occurred_at, name, detail FROM events ORDER BY seq ASC`
)

// EventSQLite stores events in insertion order
type EventSQLite struct {
	db       *sql.DB
	capacity int
}

// NewEventSQLite creates an event repository retaining MaxEvents entries
func NewEventSQLite(db *sql.DB) *EventSQLite {
	return &EventSQLite{db: db, capacity: MaxEvents}
}

// Append inserts e and drops events beyond capacity. ID and OccurredAt are
// filled in when empty.
func (r *EventSQLite) Append(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var detail []byte
	if len(e.Detail) > 0 {
		b, err := detailEncoding.Marshal(e.Detail)
		if err != nil {
			return fmt.Errorf("encode event detail: %w", err)
		}
		detail = b
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.ID,
		e.OccurredAt.Format(time.RFC3339Nano),
		strings.ToUpper(strings.TrimSpace(e.Name)),
		detail,
	)
	if err != nil {
		return fmt.Errorf("insert event %q: %w", e.Name, err)
	}

	if _, err := r.db.ExecContext(ctx, trimEventsSQL, r.capacity); err != nil {
		return fmt.Errorf("trim events: %w", err)
	}
	return nil
}

// Count returns the number of stored events
func (r *EventSQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countEventsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// At returns the event at index i, oldest first
func (r *EventSQLite) At(ctx context.Context, i int) (Event, error) {
	if i < 0 {
		return Event{}, ErrNoEvent
	}
	e, err := scanEvent(r.db.QueryRowContext(ctx, eventAtSQL, i))
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNoEvent
	}
	if err != nil {
		return Event{}, fmt.Errorf("select event %d: %w", i, err)
	}
	return e, nil
}

// List returns all stored events, oldest first
func (r *EventSQLite) List(ctx context.Context) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, listEventsSQL)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]Event, 0, r.capacity)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (Event, error) {
	var (
		e          Event
		occurredAt string
		detail     []byte
	)
	if err := row.Scan(&e.ID, &occurredAt, &e.Name, &detail); err != nil {
		return Event{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, occurredAt)
	if err != nil {
		return Event{}, fmt.Errorf("parse occurred_at %q: %w", occurredAt, err)
	}
	e.OccurredAt = t

	if len(detail) > 0 {
		if err := cbor.Unmarshal(detail, &e.Detail); err != nil {
			return Event{}, fmt.Errorf("decode event detail: %w", err)
		}
	}
	return e, nil
}

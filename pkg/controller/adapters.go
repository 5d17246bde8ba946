// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/Thermoquad/sentinel/pkg/clock"
	"github.com/Thermoquad/sentinel/pkg/logger"
	"github.com/Thermoquad/sentinel/pkg/pcserial"
	"github.com/Thermoquad/sentinel/pkg/store"
)

// storageTimeout bounds each storage call made on behalf of a session
const storageTimeout = 2 * time.Second

// EventRepo is the event storage used by the controller
type EventRepo interface {
	Append(ctx context.Context, e store.Event) error
	Count(ctx context.Context) (int, error)
	At(ctx context.Context, i int) (store.Event, error)
}

// CodeRepo is the access code storage used by the controller
type CodeRepo interface {
	Store(ctx context.Context, code []byte) error
	Verify(ctx context.Context, code []byte) (bool, error)
}

// FormatEvent renders an event the way it is listed on the control channel
func FormatEvent(e store.Event, loc *time.Location) string {
	return fmt.Sprintf("Event = %s%s%s%s", e.Name, pcserial.LineEnd, pcserial.DateTimePrefix, e.OccurredAt.In(loc).Format(clock.TextLayout))
}

// eventLog bridges the event repository to the session and alarm
type eventLog struct {
	repo  EventRepo
	clock *clock.Clock
	log   *logger.Logger
}

// Record appends an event stamped with the controller clock
func (e *eventLog) Record(ctx context.Context, name string, detail map[string]bool) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	err := e.repo.Append(ctx, store.Event{
		OccurredAt: e.clock.Now(),
		Name:       name,
		Detail:     detail,
	})
	if err != nil {
		e.log.Errorw("event append failed", "event", name, "err", err)
	}
}

func (e *eventLog) EventCount() int {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	n, err := e.repo.Count(ctx)
	if err != nil {
		e.log.Errorw("event count failed", "err", err)
		return 0
	}
	return n
}

func (e *eventLog) EventText(i int) string {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	ev, err := e.repo.At(ctx, i)
	if err != nil {
		e.log.Errorw("event read failed", "index", i, "err", err)
		return ""
	}
	return FormatEvent(ev, e.clock.Now().Location())
}

// codeStore bridges the code repository to the session and alarm
type codeStore struct {
	repo    CodeRepo
	log     *logger.Logger
	onStore func()
}

func (c *codeStore) StoreCode(code [pcserial.CodeLength]byte) {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	if err := c.repo.Store(ctx, code[:]); err != nil {
		c.log.Errorw("access code store failed", "err", err)
		return
	}
	c.log.Infow("access code reprovisioned")
	if c.onStore != nil {
		c.onStore()
	}
}

func (c *codeStore) Verify(ctx context.Context, code []byte) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	return c.repo.Verify(ctx, code)
}

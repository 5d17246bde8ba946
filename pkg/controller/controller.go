// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package controller runs the alarm controller host loop.
//
// The loop owns every control channel session and the alarm. All of their
// state is touched only from the loop goroutine; links attached from other
// goroutines are handed over through a channel.
package controller

import (
	"context"
	"time"

	"github.com/Thermoquad/sentinel/pkg/alarm"
	"github.com/Thermoquad/sentinel/pkg/clock"
	"github.com/Thermoquad/sentinel/pkg/logger"
	"github.com/Thermoquad/sentinel/pkg/pcserial"
)

// DefaultPollInterval is the period of the host loop
const DefaultPollInterval = 5 * time.Millisecond

// Config holds host loop settings
type Config struct {
	Alarm        alarm.Config
	PollInterval time.Duration
}

// Deps are the collaborators the controller is built from
type Deps struct {
	Devices alarm.Devices
	Events  EventRepo
	Codes   CodeRepo
	Clock   *clock.Clock
	Log     *logger.Logger
}

type channel struct {
	link    Link
	session *pcserial.Session
}

// Controller polls the attached control channels and updates the alarm
type Controller struct {
	cfg         Config
	log         *logger.Logger
	alarm       *alarm.Alarm
	peripherals pcserial.Peripherals

	pending  chan Link
	channels []*channel

	pendingWatchers chan Link
	watchers        []Link
}

// sessionOutput writes session text to its own link and copies it to every
// watcher
type sessionOutput struct {
	link Link
	c    *Controller
}

func (o sessionOutput) Write(p []byte) (int, error) {
	for _, w := range o.c.watchers {
		_, _ = w.Write(p)
	}
	return o.link.Write(p)
}

// New wires the alarm and session peripherals
func New(cfg Config, deps Deps) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New(time.Local)
	}

	events := &eventLog{repo: deps.Events, clock: deps.Clock, log: deps.Log}
	codes := &codeStore{repo: deps.Codes, log: deps.Log}
	a := alarm.New(cfg.Alarm, deps.Devices, codes, events, deps.Log)
	codes.onStore = a.ResetAttempts

	return &Controller{
		cfg:   cfg,
		log:   deps.Log,
		alarm: a,
		peripherals: pcserial.Peripherals{
			Detectors:   a,
			Thermometer: a,
			Codes:       codes,
			Clock:       deps.Clock,
			Events:      events,
		},
		pending:         make(chan Link, 16),
		pendingWatchers: make(chan Link, 16),
	}
}

// Alarm returns the alarm driven by the controller
func (c *Controller) Alarm() *alarm.Alarm {
	return c.alarm
}

// Attach hands a link to the loop. It is safe to call from any goroutine;
// the session starts on the next step.
func (c *Controller) Attach(l Link) {
	c.pending <- l
}

// Watch hands a read-only link to the loop. A watcher receives a copy of the
// output of every control channel; anything it sends is discarded. It is safe
// to call from any goroutine.
func (c *Controller) Watch(l Link) {
	c.pendingWatchers <- l
}

// Watchers returns the number of attached watchers
func (c *Controller) Watchers() int {
	return len(c.watchers)
}

// Channels returns the number of active control channels
func (c *Controller) Channels() int {
	return len(c.channels)
}

// Run steps the loop every poll interval until ctx is cancelled, then closes
// all links
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	defer c.closeAll()

	c.log.Infow("controller started", "poll_interval", c.cfg.PollInterval)
	for {
		select {
		case <-ctx.Done():
			c.log.Infow("controller stopped")
			return nil
		case now := <-ticker.C:
			c.Step(ctx, now)
		}
	}
}

// Step runs one loop iteration: accept new links, update the alarm, service
// watchers, then feed at most one character to each session
func (c *Controller) Step(ctx context.Context, now time.Time) {
	c.acceptPending()

	sources := make([]alarm.CodeSource, len(c.channels))
	for i, ch := range c.channels {
		sources[i] = ch.session
	}
	c.alarm.Update(ctx, now, sources)
	c.serviceWatchers()

	live := c.channels[:0]
	for _, ch := range c.channels {
		ch.session.Poll(ch.link)
		if ch.link.Closed() {
			c.dropLink(ch.link)
			continue
		}
		live = append(live, ch)
	}
	c.channels = live
}

func (c *Controller) acceptPending() {
	for {
		select {
		case w := <-c.pendingWatchers:
			c.watchers = append(c.watchers, w)
			c.log.Infow("watcher attached", "link", w.Name())
		case l := <-c.pending:
			s := pcserial.NewSession(sessionOutput{link: l, c: c}, c.peripherals)
			s.Start()
			c.channels = append(c.channels, &channel{link: l, session: s})
			c.log.Infow("control channel attached", "link", l.Name())
		default:
			return
		}
	}
}

// serviceWatchers discards watcher input and drops watchers that are gone
func (c *Controller) serviceWatchers() {
	live := c.watchers[:0]
	for _, w := range c.watchers {
		for {
			if _, ok := w.ReadChar(); !ok {
				break
			}
		}
		if w.Closed() {
			c.dropLink(w)
			continue
		}
		live = append(live, w)
	}
	c.watchers = live
}

// dropLink closes a link whose stream ended, logging why when known
func (c *Controller) dropLink(l Link) {
	if el, ok := l.(errLink); ok && el.Err() != nil {
		c.log.Warnw("control channel lost", "link", l.Name(), "err", el.Err())
	} else {
		c.log.Infow("control channel closed", "link", l.Name())
	}
	_ = l.Close()
}

func (c *Controller) closeAll() {
	c.acceptPending()
	for _, ch := range c.channels {
		_ = ch.link.Close()
	}
	for _, w := range c.watchers {
		_ = w.Close()
	}
	c.channels = nil
	c.watchers = nil
}

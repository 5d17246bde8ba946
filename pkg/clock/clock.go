// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package clock provides a settable wall clock for the controller.
package clock

import (
	"sync"
	"time"
)

// TextLayout renders times the way the C library ctime does, without the
// trailing newline
const TextLayout = "Mon Jan _2 15:04:05 2006"

// Clock is a wall clock that can be set to an arbitrary time. It keeps an
// offset over a time source so it keeps running after being set.
type Clock struct {
	mu     sync.Mutex
	now    func() time.Time
	loc    *time.Location
	offset time.Duration
}

// New creates a clock in loc that follows the system time until set
func New(loc *time.Location) *Clock {
	return NewWithSource(time.Now, loc)
}

// NewWithSource creates a clock driven by now
func NewWithSource(now func() time.Time, loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{now: now, loc: loc}
}

// Now returns the current clock time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Add(c.offset).In(c.loc)
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = t.Sub(c.now())
}

// SetDateTime sets the clock from numeric fields. Out of range fields are
// normalised, so month 13 becomes January of the following year.
func (c *Clock) SetDateTime(year, month, day, hour, minute, second int) {
	c.Set(time.Date(year, time.Month(month), day, hour, minute, second, 0, c.loc))
}

// DateTimeText returns the current time formatted with TextLayout
func (c *Clock) DateTimeText() string {
	return c.Now().Format(TextLayout)
}

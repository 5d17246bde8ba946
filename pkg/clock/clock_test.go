// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	t time.Time
}

func (f *fakeSource) now() time.Time { return f.t }

func TestClock_FollowsSourceUntilSet(t *testing.T) {
	src := &fakeSource{t: time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC)}
	c := NewWithSource(src.now, time.UTC)

	assert.True(t, src.t.Equal(c.Now()))
}

func TestClock_SetDateTimeKeepsRunning(t *testing.T) {
	src := &fakeSource{t: time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC)}
	c := NewWithSource(src.now, time.UTC)

	c.SetDateTime(2024, 1, 2, 3, 4, 5)
	assert.Equal(t, "Tue Jan  2 03:04:05 2024", c.DateTimeText())

	src.t = src.t.Add(90 * time.Second)
	assert.Equal(t, "Tue Jan  2 03:05:35 2024", c.DateTimeText())
}

func TestClock_SetDateTimeNormalisesRanges(t *testing.T) {
	src := &fakeSource{t: time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC)}
	c := NewWithSource(src.now, time.UTC)

	c.SetDateTime(2024, 13, 1, 0, 0, 0)
	assert.True(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Equal(c.Now()))
}

func TestNew_DefaultsToLocal(t *testing.T) {
	c := New(nil)
	assert.Equal(t, time.Local, c.Now().Location())
}

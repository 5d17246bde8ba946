// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package controller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/sentinel/pkg/alarm"
	"github.com/Thermoquad/sentinel/pkg/clock"
	"github.com/Thermoquad/sentinel/pkg/logger"
	"github.com/Thermoquad/sentinel/pkg/pcserial"
	"github.com/Thermoquad/sentinel/pkg/sensors"
	"github.com/Thermoquad/sentinel/pkg/store"
)

// ============================================================
// Test Helpers
// ============================================================

type fakeLink struct {
	pending []byte
	out     bytes.Buffer
	eof     bool
	closed  bool
}

func (l *fakeLink) ReadChar() (byte, bool) {
	if len(l.pending) == 0 {
		return 0, false
	}
	c := l.pending[0]
	l.pending = l.pending[1:]
	return c, true
}

func (l *fakeLink) Write(p []byte) (int, error) { return l.out.Write(p) }
func (l *fakeLink) Close() error                { l.closed = true; return nil }
func (l *fakeLink) Name() string                { return "fake" }
func (l *fakeLink) Closed() bool                { return l.eof && len(l.pending) == 0 }

type fakeEvents struct {
	events []store.Event
}

func (f *fakeEvents) Append(_ context.Context, e store.Event) error {
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) Count(context.Context) (int, error) { return len(f.events), nil }

func (f *fakeEvents) At(_ context.Context, i int) (store.Event, error) {
	if i < 0 || i >= len(f.events) {
		return store.Event{}, store.ErrNoEvent
	}
	return f.events[i], nil
}

type fakeCodes struct {
	code string
}

func (f *fakeCodes) Store(_ context.Context, code []byte) error {
	f.code = string(code)
	return nil
}

func (f *fakeCodes) Verify(_ context.Context, code []byte) (bool, error) {
	return string(code) == f.code, nil
}

type harness struct {
	ctrl   *Controller
	link   *fakeLink
	gas    *sensors.Switch
	events *fakeEvents
	codes  *fakeCodes
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		link:   &fakeLink{},
		gas:    sensors.NewSwitch(false),
		events: &fakeEvents{},
		codes:  &fakeCodes{code: "1805"},
		now:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	clk := clock.NewWithSource(func() time.Time { return h.now }, time.UTC)
	h.ctrl = New(Config{}, Deps{
		Devices: alarm.Devices{
			Gas:         h.gas,
			Thermometer: sensors.FixedCelsius(21.5),
		},
		Events: h.events,
		Codes:  h.codes,
		Clock:  clk,
	})
	h.ctrl.Attach(h.link)
	h.step()
	h.link.out.Reset()
	return h
}

func (h *harness) step() {
	h.ctrl.Step(context.Background(), h.now)
}

// send queues input and steps until it has all been consumed
func (h *harness) send(input string) string {
	h.link.out.Reset()
	h.link.pending = append(h.link.pending, input...)
	for len(h.link.pending) > 0 {
		h.step()
	}
	return h.link.out.String()
}

// ============================================================
// Controller Tests
// ============================================================

func TestController_AttachPrintsMenu(t *testing.T) {
	h := newHarness(t)
	l := &fakeLink{}
	h.ctrl.Attach(l)
	h.step()

	assert.Equal(t, pcserial.Menu, l.out.String())
	assert.Equal(t, 2, h.ctrl.Channels())
}

func TestController_StatusQueries(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "The alarm is not activated\r\n", h.send("1"))
	assert.Equal(t, "Temperature: 21.50 °C\r\n", h.send("c"))
	assert.Equal(t, "Date and Time = Tue Jan  2 03:04:05 2024\r\n", h.send("t"))
}

func TestController_OneCharacterPerStep(t *testing.T) {
	h := newHarness(t)
	h.link.pending = []byte("123")
	h.step()
	assert.Equal(t, []byte("23"), h.link.pending)
}

func TestController_DeactivateWithCode(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.gas.Set(true))
	h.step()
	require.True(t, h.ctrl.Alarm().SirenActive())
	require.NoError(t, h.gas.Set(false))

	out := h.send("4" + "1805")
	assert.True(t, strings.HasSuffix(out, "****"), "output %q", out)

	h.step()
	assert.False(t, h.ctrl.Alarm().SirenActive())
	assert.Equal(t, "The alarm is not activated\r\n", h.send("1"))
}

func TestController_ReprovisionResetsAttempts(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.gas.Set(true))
	h.step()

	for i := 0; i < alarm.DefaultMaxWrongCodes; i++ {
		h.send("4" + "0000")
		h.step()
	}
	require.True(t, h.ctrl.Alarm().Blocked())

	out := h.send("5" + "2468")
	assert.Contains(t, out, "New code configured")
	assert.Equal(t, "2468", h.codes.code)
	assert.False(t, h.ctrl.Alarm().Blocked())
}

func TestController_SetDateTimeStampsEvents(t *testing.T) {
	h := newHarness(t)

	out := h.send("s" + "2030-06-07T08:09:10")
	assert.Contains(t, out, "New date and time set.")
	assert.Equal(t, "Date and Time = Fri Jun  7 08:09:10 2030\r\n", h.send("t"))

	require.NoError(t, h.gas.Set(true))
	h.step()

	out = h.send("e")
	want := "Event = GAS_DET_ON\r\nDate and Time = Fri Jun  7 08:09:10 2030\r\n" +
		"Event = ALARM_ON\r\nDate and Time = Fri Jun  7 08:09:10 2030\r\n"
	assert.Equal(t, want, out)
}

func TestController_DropsClosedLinks(t *testing.T) {
	h := newHarness(t)
	h.link.pending = []byte("1")
	h.link.eof = true

	h.step()
	assert.Equal(t, 0, h.ctrl.Channels())
	assert.True(t, h.link.closed)
	assert.Equal(t, "The alarm is not activated\r\n", h.link.out.String())
}

func TestController_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, h.link.closed)
}

func TestController_WatcherSeesOperatorOutput(t *testing.T) {
	h := newHarness(t)
	watcher := &fakeLink{}
	h.ctrl.Watch(watcher)
	h.step()
	require.Equal(t, 1, h.ctrl.Watchers())

	out := h.send("1t")
	assert.Equal(t, "The alarm is not activated\r\nDate and Time = Tue Jan  2 03:04:05 2024\r\n", out)
	assert.Equal(t, out, watcher.out.String())
}

func TestController_WatcherSeesNewChannelMenu(t *testing.T) {
	h := newHarness(t)
	watcher := &fakeLink{}
	h.ctrl.Watch(watcher)
	h.step()

	h.ctrl.Attach(&fakeLink{})
	h.step()
	assert.Equal(t, pcserial.Menu, watcher.out.String())
}

func TestController_WatcherInputDiscarded(t *testing.T) {
	h := newHarness(t)
	watcher := &fakeLink{pending: []byte("4s")}
	h.ctrl.Watch(watcher)
	h.step()

	assert.Empty(t, watcher.pending)
	assert.Empty(t, watcher.out.String())
	assert.Equal(t, 1, h.ctrl.Channels())
	assert.Equal(t, "The alarm is not activated\r\n", h.send("1"))
}

func TestController_DropsClosedWatcher(t *testing.T) {
	h := newHarness(t)
	watcher := &fakeLink{eof: true}
	h.ctrl.Watch(watcher)
	h.step()

	assert.Equal(t, 0, h.ctrl.Watchers())
	assert.True(t, watcher.closed)

	h.send("1")
	assert.Empty(t, watcher.out.String())
}

// failedLink reports the error that ended its stream
type failedLink struct {
	fakeLink
	err error
}

func (l *failedLink) Err() error { return l.err }

func TestController_LogsStreamError(t *testing.T) {
	var logs bytes.Buffer
	ctrl := New(Config{}, Deps{
		Devices: alarm.Devices{
			Gas:         sensors.NewSwitch(false),
			Thermometer: sensors.FixedCelsius(21.5),
		},
		Events: &fakeEvents{},
		Codes:  &fakeCodes{code: "1805"},
		Log:    logger.NewWithWriter("debug", &logs),
	})

	l := &failedLink{fakeLink: fakeLink{eof: true}, err: errors.New("port unplugged")}
	ctrl.Attach(l)
	ctrl.Step(context.Background(), time.Now())

	assert.Equal(t, 0, ctrl.Channels())
	assert.True(t, l.closed)
	assert.Contains(t, logs.String(), "control channel lost")
	assert.Contains(t, logs.String(), "port unplugged")
}

// ============================================================
// StreamLink Tests
// ============================================================

func TestStreamLink(t *testing.T) {
	local, remote := net.Pipe()
	l := NewStreamLink("pipe", local)

	_, ok := l.ReadChar()
	assert.False(t, ok)

	go func() {
		_, _ = remote.Write([]byte("4"))
	}()

	var got byte
	require.Eventually(t, func() bool {
		c, ok := l.ReadChar()
		got = c
		return ok
	}, time.Second, time.Millisecond)
	assert.Equal(t, byte('4'), got)

	go func() {
		buf := make([]byte, 16)
		n, _ := remote.Read(buf)
		assert.Equal(t, "*", string(buf[:n]))
		_ = remote.Close()
	}()
	_, err := l.Write([]byte("*"))
	require.NoError(t, err)

	require.Eventually(t, l.Closed, time.Second, time.Millisecond)
	assert.NoError(t, l.Err())
	assert.NoError(t, l.Close())
}

// endlessStream returns data on every read until closed
type endlessStream struct {
	closed atomic.Bool
}

func (s *endlessStream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, io.EOF
	}
	for i := range p {
		p[i] = '1'
	}
	return len(p), nil
}

func (s *endlessStream) Write(p []byte) (int, error) { return len(p), nil }

func (s *endlessStream) Close() error {
	s.closed.Store(true)
	return nil
}

func TestStreamLink_CloseWithFullBuffer(t *testing.T) {
	l := NewStreamLink("endless", &endlessStream{})

	require.Eventually(t, func() bool { return len(l.in) == linkBufferSize }, time.Second, time.Millisecond)
	require.NoError(t, l.Close())

	assert.Eventually(t, l.eof.Load, time.Second, time.Millisecond, "reader still blocked after Close")
	assert.NoError(t, l.Close())
}

func TestFormatEvent(t *testing.T) {
	e := store.Event{
		Name:       "ALARM_ON",
		OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	assert.Equal(t, "Event = ALARM_ON\r\nDate and Time = Tue Jan  2 03:04:05 2024", FormatEvent(e, time.UTC))
}

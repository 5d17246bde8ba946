// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package alarm latches the siren on gas or over-temperature detection and
// releases it when a correct deactivation code is entered on a control
// channel.
package alarm

import (
	"context"
	"time"

	"github.com/Thermoquad/sentinel/pkg/logger"
	"github.com/Thermoquad/sentinel/pkg/pcserial"
	"github.com/Thermoquad/sentinel/pkg/sensors"
)

// Event names recorded on state changes
const (
	EventAlarmOn       = "ALARM_ON"
	EventAlarmOff      = "ALARM_OFF"
	EventGasOn         = "GAS_DET_ON"
	EventGasOff        = "GAS_DET_OFF"
	EventOverTempOn    = "OVER_TEMP_ON"
	EventOverTempOff   = "OVER_TEMP_OFF"
	EventCodeWrong     = "CODE_WRONG"
	EventSystemBlocked = "SYSTEM_BLOCKED"
)

// Defaults
const (
	DefaultTemperatureLimit = 50.0 // °C
	DefaultMaxWrongCodes    = 5
	DefaultStrobePeriod     = 100 * time.Millisecond
)

// CodeVerifier checks an entered code against the provisioned one
type CodeVerifier interface {
	Verify(ctx context.Context, code []byte) (bool, error)
}

// EventRecorder appends an event to the log
type EventRecorder interface {
	Record(ctx context.Context, name string, detail map[string]bool)
}

// CodeSource is a control channel that can hand over an entered code
type CodeSource interface {
	EnteredCode() ([pcserial.CodeLength]byte, bool)
	ClearCodeComplete()
}

// Config holds the alarm thresholds
type Config struct {
	TemperatureLimit float64 // °C, strictly above triggers
	MaxWrongCodes    int
	StrobePeriod     time.Duration
}

// Devices are the lines the alarm reads and drives
type Devices struct {
	Gas         sensors.DigitalInput
	Thermometer sensors.Thermometer
	Siren       sensors.DigitalOutput
	Strobe      sensors.DigitalOutput
}

// Alarm holds the siren latch and the last detector readings. It implements
// pcserial.Detectors and pcserial.Thermometer from those readings. Like a
// Session it is driven from a single polling context.
type Alarm struct {
	cfg      Config
	dev      Devices
	verifier CodeVerifier
	events   EventRecorder
	log      *logger.Logger
	strobe   *Strobe

	sirenActive bool
	gasDetected bool
	overTemp    bool
	celsius     float64

	wrongCodes int
	blocked    bool
}

// New creates an alarm. Zero config fields take their defaults.
func New(cfg Config, dev Devices, verifier CodeVerifier, events EventRecorder, log *logger.Logger) *Alarm {
	if cfg.TemperatureLimit == 0 {
		cfg.TemperatureLimit = DefaultTemperatureLimit
	}
	if cfg.MaxWrongCodes <= 0 {
		cfg.MaxWrongCodes = DefaultMaxWrongCodes
	}
	if cfg.StrobePeriod <= 0 {
		cfg.StrobePeriod = DefaultStrobePeriod
	}
	if dev.Siren == nil {
		dev.Siren = sensors.NopOutput{}
	}
	if dev.Strobe == nil {
		dev.Strobe = sensors.NopOutput{}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Alarm{
		cfg:      cfg,
		dev:      dev,
		verifier: verifier,
		events:   events,
		log:      log,
		strobe:   NewStrobe(dev.Strobe, cfg.StrobePeriod),
	}
}

// SirenActive reports whether the alarm is latched on
func (a *Alarm) SirenActive() bool { return a.sirenActive }

// GasDetected reports the last gas detector reading
func (a *Alarm) GasDetected() bool { return a.gasDetected }

// OverTemperature reports whether the last reading exceeded the limit
func (a *Alarm) OverTemperature() bool { return a.overTemp }

// Celsius returns the last temperature reading
func (a *Alarm) Celsius() float64 { return a.celsius }

// Fahrenheit returns the last temperature reading in Fahrenheit
func (a *Alarm) Fahrenheit() float64 { return a.celsius*9/5 + 32 }

// Blocked reports whether too many wrong codes locked out deactivation
func (a *Alarm) Blocked() bool { return a.blocked }

// Update reads the detectors, latches the siren, consumes entered codes from
// the given channels, and advances the strobe
func (a *Alarm) Update(ctx context.Context, now time.Time, channels []CodeSource) {
	a.readDetectors(ctx)

	if (a.gasDetected || a.overTemp) && !a.sirenActive {
		a.setSiren(ctx, true)
	}

	for _, ch := range channels {
		code, ok := ch.EnteredCode()
		if !ok {
			continue
		}
		ch.ClearCodeComplete()
		a.consumeCode(ctx, code)
	}

	if err := a.strobe.Update(now, a.sirenActive); err != nil {
		a.log.Warnw("strobe update failed", "err", err)
	}
}

// ResetAttempts clears the wrong code counter and any lockout. It is called
// when a new code is provisioned.
func (a *Alarm) ResetAttempts() {
	a.wrongCodes = 0
	a.blocked = false
}

func (a *Alarm) readDetectors(ctx context.Context) {
	if gas, err := a.dev.Gas.Read(); err != nil {
		a.log.Warnw("gas detector read failed", "err", err)
	} else if gas != a.gasDetected {
		a.gasDetected = gas
		a.record(ctx, pick(gas, EventGasOn, EventGasOff))
	}

	t, err := a.dev.Thermometer.Read()
	if err != nil {
		a.log.Warnw("temperature read failed", "err", err)
		return
	}
	a.celsius = sensors.Celsius(t)

	over := a.celsius > a.cfg.TemperatureLimit
	if over != a.overTemp {
		a.overTemp = over
		a.record(ctx, pick(over, EventOverTempOn, EventOverTempOff))
	}
}

func (a *Alarm) consumeCode(ctx context.Context, code [pcserial.CodeLength]byte) {
	if !a.sirenActive {
		return
	}
	if a.blocked {
		a.log.Warnw("code ignored, system blocked")
		return
	}

	ok, err := a.verifier.Verify(ctx, code[:])
	if err != nil {
		a.log.Errorw("code verification failed", "err", err)
		return
	}
	if ok {
		a.wrongCodes = 0
		a.setSiren(ctx, false)
		return
	}

	a.wrongCodes++
	a.log.Infow("wrong deactivation code", "attempts", a.wrongCodes)
	a.record(ctx, EventCodeWrong)
	if a.wrongCodes >= a.cfg.MaxWrongCodes {
		a.blocked = true
		a.record(ctx, EventSystemBlocked)
	}
}

func (a *Alarm) setSiren(ctx context.Context, on bool) {
	a.sirenActive = on
	if err := a.dev.Siren.Set(on); err != nil {
		a.log.Errorw("siren output failed", "on", on, "err", err)
	}
	a.log.Infow("alarm state changed", "active", on)
	a.record(ctx, pick(on, EventAlarmOn, EventAlarmOff))
}

func (a *Alarm) record(ctx context.Context, name string) {
	if a.events == nil {
		return
	}
	a.events.Record(ctx, name, map[string]bool{
		"siren":            a.sirenActive,
		"gas":              a.gasDetected,
		"over_temperature": a.overTemp,
	})
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

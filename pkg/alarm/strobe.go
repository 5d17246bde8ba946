// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package alarm

import (
	"time"

	"github.com/Thermoquad/sentinel/pkg/sensors"
)

// Strobe flashes an output while the alarm is active
type Strobe struct {
	out     sensors.DigitalOutput
	period  time.Duration
	running bool
	lit     bool
	toggled time.Time
}

// NewStrobe creates a strobe toggling out every period
func NewStrobe(out sensors.DigitalOutput, period time.Duration) *Strobe {
	return &Strobe{out: out, period: period}
}

// Lit reports the current output level
func (s *Strobe) Lit() bool { return s.lit }

// Update toggles the output when active and a period has elapsed, and turns
// it off when inactive
func (s *Strobe) Update(now time.Time, active bool) error {
	if !active {
		if !s.running {
			return nil
		}
		s.running = false
		s.lit = false
		return s.out.Set(false)
	}

	if !s.running {
		s.running = true
		s.toggled = now
		s.lit = true
		return s.out.Set(true)
	}

	if now.Sub(s.toggled) < s.period {
		return nil
	}
	s.toggled = now
	s.lit = !s.lit
	return s.out.Set(s.lit)
}

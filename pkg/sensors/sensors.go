// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sensors reads the detectors and drives the outputs of the alarm
// controller.
//
// Real hardware is accessed through periph.io GPIO. Switch, Fixed and
// NopOutput stand in for hardware on a desktop or in tests.
package sensors

import (
	"sync/atomic"

	"periph.io/x/conn/v3/physic"
)

// DigitalInput is a detector line
type DigitalInput interface {
	Read() (bool, error)
}

// DigitalOutput is a driven line such as a siren or strobe
type DigitalOutput interface {
	Set(on bool) error
}

// Thermometer reports the ambient temperature
type Thermometer interface {
	Read() (physic.Temperature, error)
}

// Switch is a DigitalInput whose level is set in software
type Switch struct {
	on atomic.Bool
}

// NewSwitch creates a switch at the given level
func NewSwitch(on bool) *Switch {
	s := &Switch{}
	s.on.Store(on)
	return s
}

// Read returns the current level
func (s *Switch) Read() (bool, error) {
	return s.on.Load(), nil
}

// Set changes the level
func (s *Switch) Set(on bool) error {
	s.on.Store(on)
	return nil
}

// NopOutput discards writes
type NopOutput struct{}

// Set does nothing
func (NopOutput) Set(bool) error { return nil }

// Fixed is a Thermometer that always reports the same temperature
type Fixed struct {
	T physic.Temperature
}

// FixedCelsius creates a Fixed thermometer at c degrees Celsius
func FixedCelsius(c float64) Fixed {
	return Fixed{T: FromCelsius(c)}
}

// Read returns the fixed temperature
func (f Fixed) Read() (physic.Temperature, error) {
	return f.T, nil
}

// FromCelsius converts degrees Celsius to a physic.Temperature
func FromCelsius(c float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Kelvin))
}

// Celsius converts t to degrees Celsius
func Celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)
}

// Fahrenheit converts t to degrees Fahrenheit
func Fahrenheit(t physic.Temperature) float64 {
	return Celsius(t)*9/5 + 32
}

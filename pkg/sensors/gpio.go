// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sensors

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// InitHost loads the periph host drivers. It is safe to call repeatedly.
func InitHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

// GPIOInput reads a detector wired to a GPIO pin
type GPIOInput struct {
	pin       gpio.PinIO
	activeLow bool
}

// OpenInput configures the named pin (e.g. "GPIO17") as a pulled-down
// input. With activeLow the reading is inverted.
func OpenInput(name string, activeLow bool) (*GPIOInput, error) {
	p, err := lookupPin(name)
	if err != nil {
		return nil, err
	}

	pull := gpio.PullDown
	if activeLow {
		pull = gpio.PullUp
	}
	if err := p.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure %s as input: %w", name, err)
	}
	return &GPIOInput{pin: p, activeLow: activeLow}, nil
}

// Read returns true when the detector is active
func (in *GPIOInput) Read() (bool, error) {
	high := in.pin.Read() == gpio.High
	return high != in.activeLow, nil
}

// GPIOOutput drives a GPIO pin
type GPIOOutput struct {
	pin gpio.PinIO
}

// OpenOutput configures the named pin as an output, initially low
func OpenOutput(name string) (*GPIOOutput, error) {
	p, err := lookupPin(name)
	if err != nil {
		return nil, err
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("configure %s as output: %w", name, err)
	}
	return &GPIOOutput{pin: p}, nil
}

// Set drives the pin high when on
func (out *GPIOOutput) Set(on bool) error {
	return out.pin.Out(gpio.Level(on))
}

func lookupPin(name string) (gpio.PinIO, error) {
	if err := InitHost(); err != nil {
		return nil, fmt.Errorf("initialize gpio host: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return p, nil
}

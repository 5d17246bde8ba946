// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sensors

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// SysfsThermometer reads a temperature file holding millidegrees Celsius,
// as exposed by Linux thermal zones and hwmon drivers.
type SysfsThermometer struct {
	Path string
}

// Read parses the current reading
func (s SysfsThermometer) Read() (physic.Temperature, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, fmt.Errorf("read temperature: %w", err)
	}

	milli, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse temperature %q: %w", strings.TrimSpace(string(data)), err)
	}
	return physic.ZeroCelsius + physic.Temperature(milli)*physic.MilliKelvin, nil
}

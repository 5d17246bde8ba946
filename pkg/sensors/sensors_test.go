// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sensors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemperatureConversions(t *testing.T) {
	tests := []struct {
		celsius    float64
		fahrenheit float64
	}{
		{0, 32},
		{100, 212},
		{-40, -40},
		{21.5, 70.7},
	}
	for _, tt := range tests {
		temp := FromCelsius(tt.celsius)
		assert.InDelta(t, tt.celsius, Celsius(temp), 1e-6)
		assert.InDelta(t, tt.fahrenheit, Fahrenheit(temp), 1e-6)
	}
}

func TestSysfsThermometer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp")
	require.NoError(t, os.WriteFile(path, []byte("45250\n"), 0o644))

	temp, err := SysfsThermometer{Path: path}.Read()
	require.NoError(t, err)
	assert.InDelta(t, 45.25, Celsius(temp), 1e-6)
}

func TestSysfsThermometer_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := SysfsThermometer{Path: filepath.Join(dir, "missing")}.Read()
	assert.ErrorContains(t, err, "read temperature")

	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(bad, []byte("hot"), 0o644))
	_, err = SysfsThermometer{Path: bad}.Read()
	assert.ErrorContains(t, err, "parse temperature")
}

func TestSwitch(t *testing.T) {
	s := NewSwitch(true)
	on, err := s.Read()
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, s.Set(false))
	on, _ = s.Read()
	assert.False(t, on)
}

func TestFixedCelsius(t *testing.T) {
	temp, err := FixedCelsius(30).Read()
	require.NoError(t, err)
	assert.InDelta(t, 30, Celsius(temp), 1e-6)
}

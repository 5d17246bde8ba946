// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pcserial

// Detectors reports the alarm and detector states
type Detectors interface {
	SirenActive() bool
	GasDetected() bool
	OverTemperature() bool
}

// Thermometer reports the current temperature
type Thermometer interface {
	Celsius() float64
	Fahrenheit() float64
}

// CodeStore persists a newly provisioned access code
type CodeStore interface {
	StoreCode(code [CodeLength]byte)
}

// Clock reads and sets the controller date and time
type Clock interface {
	DateTimeText() string
	SetDateTime(year, month, day, hour, minute, second int)
}

// EventLog gives indexed access to stored events, oldest first
type EventLog interface {
	EventCount() int
	EventText(index int) string
}

// CharReader is a non-blocking character source. ReadChar returns false when
// nothing is pending.
type CharReader interface {
	ReadChar() (byte, bool)
}

// Peripherals groups the collaborators a Session queries and updates. All
// fields are required.
type Peripherals struct {
	Detectors   Detectors
	Thermometer Thermometer
	Codes       CodeStore
	Clock       Clock
	Events      EventLog
}

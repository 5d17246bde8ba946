// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pcserial

import "fmt"

// command runs the action bound to key c and returns the next state
func (s *Session) command(c byte) state {
	switch c {
	case '1':
		s.showAlarmState()
	case '2':
		s.showGasDetectorState()
	case '3':
		s.showOverTemperatureState()
	case '4':
		return s.enterCode()
	case '5':
		return s.enterNewCode()
	case 'c', 'C':
		s.write(fmt.Sprintf("Temperature: %.2f °C%s", s.p.Thermometer.Celsius(), LineEnd))
	case 'f', 'F':
		s.write(fmt.Sprintf("Temperature: %.2f °F%s", s.p.Thermometer.Fahrenheit(), LineEnd))
	case 's', 'S':
		return s.enterDateTime()
	case 't', 'T':
		s.write(DateTimePrefix + s.p.Clock.DateTimeText() + LineEnd)
	case 'e', 'E':
		s.showStoredEvents()
	default:
		s.write(Menu)
	}
	return commandState{}
}

func (s *Session) showAlarmState() {
	if s.p.Detectors.SirenActive() {
		s.write(msgAlarmActive)
	} else {
		s.write(msgAlarmInactive)
	}
}

func (s *Session) showGasDetectorState() {
	if s.p.Detectors.GasDetected() {
		s.write(msgGasDetected)
	} else {
		s.write(msgGasNotDetected)
	}
}

func (s *Session) showOverTemperatureState() {
	if s.p.Detectors.OverTemperature() {
		s.write(msgOverTemperature)
	} else {
		s.write(msgBelowTemperature)
	}
}

// enterCode starts deactivation code entry. There is nothing to deactivate
// while the siren is off, so the request is refused without a mode change.
func (s *Session) enterCode() state {
	if !s.p.Detectors.SirenActive() {
		s.write(msgNothingToDisarm)
		return commandState{}
	}

	s.write(fmt.Sprintf("Please enter the %d digit numeric code to deactivate the alarm: ", CodeLength))
	s.codeComplete = false
	return &codeState{}
}

func (s *Session) enterNewCode() state {
	s.write(fmt.Sprintf("Please enter the new %d digit numeric code to deactivate the alarm: ", CodeLength))
	return &newCodeState{}
}

func (s *Session) enterDateTime() state {
	s.write(msgDateTimePrompt)
	return &dateTimeState{}
}

func (s *Session) showStoredEvents() {
	n := s.p.Events.EventCount()
	for i := 0; i < n; i++ {
		s.write(s.p.Events.EventText(i) + LineEnd)
	}
}

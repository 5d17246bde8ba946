// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package pcserial implements the operator control channel of the alarm
// controller.
//
// The channel is a plain text line protocol carried over a byte stream. A
// Session consumes one character at a time and interprets it according to
// its current input mode: single-key commands, masked code entry, or fixed
// format date and time entry.
package pcserial

// Input sizes
const (
	CodeLength     = 4  // Keys in an access code
	DateTimeLength = 19 // Length of "YYYY-MM-DDThh:mm:ss"
)

// LineEnd terminates every line written to the channel
const LineEnd = "\r\n"

// DateTimePrefix starts the reply to the show date/time command
const DateTimePrefix = "Date and Time = "

// maskEcho is written in place of each code key
const maskEcho = "*"

// dateTimeField is a [start, end) slice of the date/time buffer
type dateTimeField struct {
	start, end int
}

// Field offsets within "YYYY-MM-DDThh:mm:ss"
var dateTimeFields = [6]dateTimeField{
	{0, 4},   // year
	{5, 7},   // month
	{8, 10},  // day
	{11, 13}, // hour
	{14, 16}, // minute
	{17, 19}, // second
}

// Menu is printed on startup and for any unrecognised command key
const Menu = "Available commands:\r\n" +
	"Press '1' to get the alarm state\r\n" +
	"Press '2' to get the gas detector state\r\n" +
	"Press '3' to get the over temperature detector state\r\n" +
	"Press '4' to enter the code to deactivate the alarm\r\n" +
	"Press '5' to enter a new code to deactivate the alarm\r\n" +
	"Press 'f' or 'F' to get lm35 reading in Fahrenheit\r\n" +
	"Press 'c' or 'C' to get lm35 reading in Celsius\r\n" +
	"Press 's' or 'S' to set the date and time\r\n" +
	"Press 't' or 'T' to get the date and time\r\n" +
	"Press 'e' or 'E' to get the stored events\r\n" +
	"\r\n"

// Status and confirmation lines
const (
	msgAlarmActive       = "The alarm is activated\r\n"
	msgAlarmInactive     = "The alarm is not activated\r\n"
	msgGasDetected       = "Gas is being detected\r\n"
	msgGasNotDetected    = "Gas is not being detected\r\n"
	msgOverTemperature   = "Temperature is above the maximum level\r\n"
	msgBelowTemperature  = "Temperature is below the maximum level\r\n"
	msgNothingToDisarm   = "Alarm is not activated.\r\n"
	msgNewCodeConfigured = "\r\nNew code configured\r\n\r\n"
	msgDateTimeSet       = "\r\nNew date and time set.\r\n\r\n"
	msgDateTimePrompt    = "Please enter date and time in the format YYYY-MM-DDThh:mm:ss: "
)

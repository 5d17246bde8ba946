// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pcserial

// DateTime holds the six numeric fields of an entered timestamp. Values are
// not range checked.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// ParseDateTime extracts the fields of a "YYYY-MM-DDThh:mm:ss" buffer by
// fixed offset. Separator positions are ignored. A field that is cut short by
// a short buffer parses only the characters present.
func ParseDateTime(buf []byte) DateTime {
	var v [len(dateTimeFields)]int
	for i, f := range dateTimeFields {
		if f.start >= len(buf) {
			continue
		}
		end := f.end
		if end > len(buf) {
			end = len(buf)
		}
		v[i] = parseLenientUint(buf[f.start:end])
	}

	return DateTime{
		Year:   v[0],
		Month:  v[1],
		Day:    v[2],
		Hour:   v[3],
		Minute: v[4],
		Second: v[5],
	}
}

// parseLenientUint parses leading decimal digits after optional leading
// blanks, stopping at the first non-digit. It returns 0 if no digit is found.
func parseLenientUint(b []byte) int {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}

	n := 0
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

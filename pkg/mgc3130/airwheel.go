// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgc3130

// AirWheelTracker accumulates signed rotation from raw air-wheel samples.
// The sensor's counter is an unsigned byte that wraps modulo 256, so each
// delta is taken as the shortest signed distance from the previous sample;
// spinning faster than half the counter range between frames aliases, which
// the hardware frame rate rules out in practice.
//
// The decoder stays stateless; callers that want motion own one tracker per
// sensor and feed it every AirWheelSample in arrival order.
type AirWheelTracker struct {
	last   uint8
	primed bool
	steps  int
}

// Update consumes one raw sample and returns the signed step delta since
// the previous one. The first sample primes the tracker and returns 0.
func (t *AirWheelTracker) Update(raw uint8) int {
	if !t.primed {
		t.last = raw
		t.primed = true
		return 0
	}
	delta := int(int8(raw - t.last))
	t.last = raw
	t.steps += delta
	return delta
}

// Steps returns the cumulative signed step count since the last Reset.
// Clockwise motion counts positive.
func (t *AirWheelTracker) Steps() int {
	return t.steps
}

// Turns returns the cumulative rotation in full revolutions.
func (t *AirWheelTracker) Turns() float64 {
	return float64(t.steps) / StepsPerRevolution
}

// Reset clears the accumulator and forgets the last sample.
func (t *AirWheelTracker) Reset() {
	*t = AirWheelTracker{}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgc3130

import (
	"fmt"
	"math"
)

// Event is one decoded sensor report. The concrete types are
// PositionSample, GestureEvent, TouchEvent, AirWheelSample and
// FirmwareVersion.
type Event interface {
	fmt.Stringer
	event()
}

// CompassPoint locates an electrode or a flick endpoint on the sensing
// surface.
type CompassPoint uint8

// Electrode positions
const (
	Center CompassPoint = iota
	North
	East
	South
	West
)

var compassNames = [...]string{"center", "north", "east", "south", "west"}

func (p CompassPoint) String() string {
	if int(p) < len(compassNames) {
		return compassNames[p]
	}
	return fmt.Sprintf("compass(%d)", uint8(p))
}

// PositionSample is a hand position in normalized sensing-volume
// coordinates. Each axis is in [0, 1): 0 is one face of the volume and
// values approach but never reach 1 at the opposite face.
type PositionSample struct {
	X, Y, Z float64
}

func (PositionSample) event() {}

func (s PositionSample) String() string {
	return fmt.Sprintf("position x=%.4f y=%.4f z=%.4f", s.X, s.Y, s.Z)
}

// GestureKind classifies a recognized gesture.
type GestureKind uint8

// Gesture classes
const (
	// GestureGarbage is the sensor's "movement seen, no gesture
	// recognized" report.
	GestureGarbage GestureKind = iota
	GestureFlick
	GestureCircle
)

// GestureEvent is one recognized gesture. Flicks carry From and To;
// circles carry Clockwise.
type GestureEvent struct {
	Code      uint8
	Kind      GestureKind
	From, To  CompassPoint
	Clockwise bool
}

func (GestureEvent) event() {}

func (g GestureEvent) String() string {
	switch g.Kind {
	case GestureFlick:
		return fmt.Sprintf("flick %s to %s", g.From, g.To)
	case GestureCircle:
		if g.Clockwise {
			return "circle clockwise"
		}
		return "circle counter-clockwise"
	default:
		return "garbage"
	}
}

// TouchKind classifies contact with an electrode.
type TouchKind uint8

// Touch classes
const (
	TouchContact TouchKind = iota
	TouchTap
	TouchDoubleTap
)

var touchKindNames = [...]string{"touch", "tap", "double tap"}

func (k TouchKind) String() string {
	if int(k) < len(touchKindNames) {
		return touchKindNames[k]
	}
	return fmt.Sprintf("touch(%d)", uint8(k))
}

// TouchEvent is one contact report. A frame's action field can have many
// bits set; the decoder reports only the highest-priority one.
type TouchEvent struct {
	Kind     TouchKind
	Position CompassPoint
}

func (TouchEvent) event() {}

func (t TouchEvent) String() string {
	return fmt.Sprintf("%s %s", t.Kind, t.Position)
}

// AirWheelSample is the raw rotation accumulator from one frame. The
// counter wraps modulo 256 with 32 steps per full revolution; feed samples
// to an AirWheelTracker to recover signed motion.
type AirWheelSample struct {
	Raw uint8
}

func (AirWheelSample) event() {}

func (s AirWheelSample) String() string {
	return fmt.Sprintf("airwheel raw=%d", s.Raw)
}

// FirmwareVersion is the sensor's version announcement, published once
// after reset.
type FirmwareVersion struct {
	Version string
}

func (FirmwareVersion) event() {}

func (v FirmwareVersion) String() string {
	return "firmware " + v.Version
}

// gestures maps the gesture class byte to its event. Unlisted classes are
// dropped by the decoder.
var gestures = map[uint8]GestureEvent{
	1: {Code: 1, Kind: GestureGarbage},
	2: {Code: 2, Kind: GestureFlick, From: West, To: East},
	3: {Code: 3, Kind: GestureFlick, From: East, To: West},
	4: {Code: 4, Kind: GestureFlick, From: South, To: North},
	5: {Code: 5, Kind: GestureFlick, From: North, To: South},
	6: {Code: 6, Kind: GestureCircle, Clockwise: true},
	7: {Code: 7, Kind: GestureCircle, Clockwise: false},
}

// touchActions maps a touch action bit position to its event. Higher bit
// positions are stronger interactions and win when several bits are set,
// so index 14 (double tap center) outranks index 0 (touch south).
var touchActions = [15]TouchEvent{
	{Kind: TouchContact, Position: South},
	{Kind: TouchContact, Position: West},
	{Kind: TouchContact, Position: North},
	{Kind: TouchContact, Position: East},
	{Kind: TouchContact, Position: Center},
	{Kind: TouchTap, Position: South},
	{Kind: TouchTap, Position: West},
	{Kind: TouchTap, Position: North},
	{Kind: TouchTap, Position: East},
	{Kind: TouchTap, Position: Center},
	{Kind: TouchDoubleTap, Position: South},
	{Kind: TouchDoubleTap, Position: West},
	{Kind: TouchDoubleTap, Position: North},
	{Kind: TouchDoubleTap, Position: East},
	{Kind: TouchDoubleTap, Position: Center},
}

// normalize maps a raw 16-bit axis value to [0, 1) rounded to four decimal
// places. Rounding alone would carry the top three raw codes to 1.0, so
// those pin to 0.9999 to keep the interval open.
func normalize(v uint16) float64 {
	n := math.Round(float64(v)/65536.0*1e4) / 1e4
	if n >= 1 {
		n = 0.9999
	}
	return n
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgc3130

import (
	"encoding/binary"
	"reflect"
	"testing"
)

// ============================================================
// Frame Building Helpers
// ============================================================

// sensorWindow builds a full 32-byte SENSOR_DATA window with every field
// position populated explicitly, so tests pin the wire offsets rather
// than trusting any production builder.
func sensorWindow(mask ConfigMask, flags SystemFlags, gesture uint8, touch uint16, airWheel uint8, x, y, z uint16) []byte {
	raw := make([]byte, FrameWindow)
	raw[0] = 0x1A
	raw[3] = MsgSensorData
	p := raw[4:]
	binary.LittleEndian.PutUint16(p[0:], uint16(mask))
	p[3] = uint8(flags)
	p[6] = gesture
	binary.LittleEndian.PutUint16(p[10:], touch)
	p[14] = airWheel
	binary.LittleEndian.PutUint16(p[16:], x)
	binary.LittleEndian.PutUint16(p[18:], y)
	binary.LittleEndian.PutUint16(p[20:], z)
	return raw
}

func firmwareWindow(version string) []byte {
	raw := make([]byte, FrameWindow)
	raw[0] = uint8(4 + 8 + len(version))
	raw[3] = MsgFirmwareVersion
	copy(raw[12:], version)
	return raw
}

// ============================================================
// Frame Parsing Tests
// ============================================================

func TestParseFrame_ShortWindow(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, {0x1A}, {0x1A, 0x00}, {0x1A, 0x00, 0x01}} {
		if _, ok := ParseFrame(raw); ok {
			t.Errorf("Expected parse failure for %d-byte window", len(raw))
		}
	}
}

func TestParseFrame_Header(t *testing.T) {
	raw := []byte{0x1A, 0x02, 0x07, MsgSensorData, 0xAA, 0xBB}
	f, ok := ParseFrame(raw)
	if !ok {
		t.Fatal("Expected successful parse")
	}
	if f.Size != 0x1A || f.Flags != 0x02 || f.Seq != 0x07 || f.ID != MsgSensorData {
		t.Errorf("Header mismatch: %+v", f)
	}
	if len(f.Payload) != 2 || f.Payload[0] != 0xAA {
		t.Errorf("Payload mismatch: % X", f.Payload)
	}
}

// ============================================================
// Decode Dispatch Tests
// ============================================================

func TestDecode_ShortWindow(t *testing.T) {
	if events := Decode([]byte{0x1A, 0x00, 0x01}); events != nil {
		t.Errorf("Expected nil events for short window, got %v", events)
	}
}

func TestDecode_UnknownIdentifier(t *testing.T) {
	raw := make([]byte, FrameWindow)
	raw[3] = 0x42
	if events := Decode(raw); events != nil {
		t.Errorf("Expected nil events for unknown identifier, got %v", events)
	}
}

func TestDecode_StatusFrameProducesNoEvents(t *testing.T) {
	raw := make([]byte, FrameWindow)
	raw[3] = MsgSystemStatus
	raw[4] = CmdSetRuntime
	if events := Decode(raw); events != nil {
		t.Errorf("Expected nil events for status frame, got %v", events)
	}
}

// ============================================================
// Position Tests
// ============================================================

func TestDecode_PositionGating(t *testing.T) {
	tests := []struct {
		name  string
		mask  ConfigMask
		flags SystemFlags
		want  bool
	}{
		{"present and valid", DataAll, SysPositionValid, true},
		{"mask bit clear", DataAll &^ DataXYZ, SysPositionValid, false},
		{"validity bit clear", DataAll, 0, false},
		{"airwheel validity alone does not count", DataAll, SysAirWheelValid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := sensorWindow(tt.mask, tt.flags, 0, 0, 0, 0x8080, 0x8080, 0x8080)
			events := Decode(raw)
			got := false
			for _, ev := range events {
				if _, ok := ev.(PositionSample); ok {
					got = true
				}
			}
			if got != tt.want {
				t.Errorf("Expected position=%v, got events %v", tt.want, events)
			}
		})
	}
}

func TestDecode_PositionValues(t *testing.T) {
	raw := sensorWindow(DataAll, SysPositionValid, 0, 0, 0, 0x0000, 0x8080, 0xFFFF)
	events := Decode(raw)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d: %v", len(events), events)
	}
	pos, ok := events[0].(PositionSample)
	if !ok {
		t.Fatalf("Expected PositionSample, got %T", events[0])
	}
	if pos.X != 0.0 {
		t.Errorf("X: expected 0.0, got %v", pos.X)
	}
	if pos.Y != 0.502 {
		t.Errorf("Y: expected 0.502, got %v", pos.Y)
	}
	if pos.Z != 0.9999 {
		t.Errorf("Z: expected 0.9999, got %v", pos.Z)
	}
}

// ============================================================
// Gesture Tests
// ============================================================

func TestDecode_Gestures(t *testing.T) {
	tests := []struct {
		name string
		code uint8
		want GestureEvent
	}{
		{"garbage", 1, GestureEvent{Code: 1, Kind: GestureGarbage}},
		{"flick west to east", 2, GestureEvent{Code: 2, Kind: GestureFlick, From: West, To: East}},
		{"flick east to west", 3, GestureEvent{Code: 3, Kind: GestureFlick, From: East, To: West}},
		{"flick south to north", 4, GestureEvent{Code: 4, Kind: GestureFlick, From: South, To: North}},
		{"flick north to south", 5, GestureEvent{Code: 5, Kind: GestureFlick, From: North, To: South}},
		{"circle clockwise", 6, GestureEvent{Code: 6, Kind: GestureCircle, Clockwise: true}},
		{"circle counter-clockwise", 7, GestureEvent{Code: 7, Kind: GestureCircle, Clockwise: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := sensorWindow(DataAll, 0, tt.code, 0, 0, 0, 0, 0)
			events := Decode(raw)
			if len(events) != 1 {
				t.Fatalf("Expected 1 event, got %d: %v", len(events), events)
			}
			if events[0] != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, events[0])
			}
		})
	}
}

func TestDecode_GestureZeroAndUnknown(t *testing.T) {
	for _, code := range []uint8{0, 8, 0x7F, 0xFF} {
		raw := sensorWindow(DataAll, 0, code, 0, 0, 0, 0, 0)
		if events := Decode(raw); len(events) != 0 {
			t.Errorf("Gesture code %d: expected no events, got %v", code, events)
		}
	}
}

func TestDecode_GestureMaskClear(t *testing.T) {
	raw := sensorWindow(DataAll&^DataGesture, 0, 6, 0, 0, 0, 0, 0)
	if events := Decode(raw); len(events) != 0 {
		t.Errorf("Expected no events with gesture bit clear, got %v", events)
	}
}

// ============================================================
// Touch Tests
// ============================================================

func TestDecode_TouchSingleBits(t *testing.T) {
	tests := []struct {
		bit  uint
		want TouchEvent
	}{
		{0, TouchEvent{TouchContact, South}},
		{1, TouchEvent{TouchContact, West}},
		{2, TouchEvent{TouchContact, North}},
		{3, TouchEvent{TouchContact, East}},
		{4, TouchEvent{TouchContact, Center}},
		{5, TouchEvent{TouchTap, South}},
		{6, TouchEvent{TouchTap, West}},
		{7, TouchEvent{TouchTap, North}},
		{8, TouchEvent{TouchTap, East}},
		{9, TouchEvent{TouchTap, Center}},
		{10, TouchEvent{TouchDoubleTap, South}},
		{11, TouchEvent{TouchDoubleTap, West}},
		{12, TouchEvent{TouchDoubleTap, North}},
		{13, TouchEvent{TouchDoubleTap, East}},
		{14, TouchEvent{TouchDoubleTap, Center}},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			raw := sensorWindow(DataAll, 0, 0, 1<<tt.bit, 0, 0, 0, 0)
			events := Decode(raw)
			if len(events) != 1 {
				t.Fatalf("Expected 1 event, got %d: %v", len(events), events)
			}
			if events[0] != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, events[0])
			}
		})
	}
}

func TestDecode_TouchHighestBitWins(t *testing.T) {
	// Touch south + tap north + double tap east all set: double tap east
	// is the strongest interaction.
	action := uint16(1<<0 | 1<<7 | 1<<13)
	raw := sensorWindow(DataAll, 0, 0, action, 0, 0, 0, 0)
	events := Decode(raw)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d: %v", len(events), events)
	}
	want := TouchEvent{TouchDoubleTap, East}
	if events[0] != want {
		t.Errorf("Expected %v, got %v", want, events[0])
	}
}

func TestDecode_TouchReservedBitIgnored(t *testing.T) {
	raw := sensorWindow(DataAll, 0, 0, 1<<15, 0, 0, 0, 0)
	if events := Decode(raw); len(events) != 0 {
		t.Errorf("Expected reserved bit to decode to nothing, got %v", events)
	}
}

func TestDecode_TouchZeroField(t *testing.T) {
	raw := sensorWindow(DataAll, 0, 0, 0, 0, 0, 0, 0)
	if events := Decode(raw); len(events) != 0 {
		t.Errorf("Expected no events for zero action field, got %v", events)
	}
}

// ============================================================
// Air Wheel Tests
// ============================================================

func TestDecode_AirWheelGating(t *testing.T) {
	tests := []struct {
		name  string
		mask  ConfigMask
		flags SystemFlags
		want  bool
	}{
		{"present and valid", DataAll, SysAirWheelValid, true},
		{"mask bit clear", DataAll &^ DataAirWheel, SysAirWheelValid, false},
		{"validity bit clear", DataAll, 0, false},
		{"position validity alone does not count", DataAll, SysPositionValid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := sensorWindow(tt.mask, tt.flags, 0, 0, 0x10, 0, 0, 0)
			events := Decode(raw)
			got := false
			for _, ev := range events {
				if aw, ok := ev.(AirWheelSample); ok {
					got = true
					if aw.Raw != 0x10 {
						t.Errorf("Expected raw 0x10, got 0x%02X", aw.Raw)
					}
				}
			}
			if got != tt.want {
				t.Errorf("Expected airwheel=%v, got events %v", tt.want, events)
			}
		})
	}
}

// ============================================================
// Emission Order Tests
// ============================================================

func TestDecode_EmissionOrder(t *testing.T) {
	// One frame carrying all four reports: position, gesture, touch, air
	// wheel, in that order.
	raw := sensorWindow(DataAll, SysPositionValid|SysAirWheelValid, 6, 1<<9, 0x20, 0x8080, 0x8080, 0x8080)
	events := Decode(raw)
	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d: %v", len(events), events)
	}

	want := []Event{
		PositionSample{X: 0.502, Y: 0.502, Z: 0.502},
		GestureEvent{Code: 6, Kind: GestureCircle, Clockwise: true},
		TouchEvent{TouchTap, Center},
		AirWheelSample{Raw: 0x20},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("Event order mismatch:\n  expected %v\n  got      %v", want, events)
	}
}

func TestDecode_SameWindowSameEvents(t *testing.T) {
	raw := sensorWindow(DataAll, SysPositionValid|SysAirWheelValid, 2, 1<<4, 0x7F, 0x1234, 0x5678, 0x9ABC)
	first := Decode(raw)
	second := Decode(raw)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Decode is not stateless:\n  first  %v\n  second %v", first, second)
	}
}

// ============================================================
// Firmware Version Tests
// ============================================================

func TestDecode_FirmwareVersion(t *testing.T) {
	events := Decode(firmwareWindow("1.2.3;DSP:v41"))
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d: %v", len(events), events)
	}
	fw, ok := events[0].(FirmwareVersion)
	if !ok {
		t.Fatalf("Expected FirmwareVersion, got %T", events[0])
	}
	if fw.Version != "1.2.3;DSP:v41" {
		t.Errorf("Expected version '1.2.3;DSP:v41', got %q", fw.Version)
	}
}

func TestDecode_FirmwareTrimsPadding(t *testing.T) {
	raw := firmwareWindow("2.0 \r\n")
	events := Decode(raw)
	fw := events[0].(FirmwareVersion)
	if fw.Version != "2.0" {
		t.Errorf("Expected trimmed version '2.0', got %q", fw.Version)
	}
}

func TestDecode_FirmwareSkipsInvalidUTF8(t *testing.T) {
	raw := firmwareWindow("")
	copy(raw[12:], []byte{'v', 0xFF, 0xFE, '3', '.', '1'})
	events := Decode(raw)
	fw := events[0].(FirmwareVersion)
	if fw.Version != "v3.1" {
		t.Errorf("Expected 'v3.1' with invalid bytes skipped, got %q", fw.Version)
	}
}

func TestDecode_FirmwareAllPaddingIsEmpty(t *testing.T) {
	events := Decode(firmwareWindow(""))
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if fw := events[0].(FirmwareVersion); fw.Version != "" {
		t.Errorf("Expected empty version, got %q", fw.Version)
	}
}

// ============================================================
// Payload Length Guard Tests
// ============================================================

func TestDecode_TruncatedSensorPayloads(t *testing.T) {
	full := sensorWindow(DataAll, SysPositionValid|SysAirWheelValid, 6, 1<<9, 0x20, 0x8080, 0x8080, 0x8080)

	tests := []struct {
		name   string
		length int
		events int
	}{
		{"header only", HeaderSize, 0},
		{"mask only", HeaderSize + 2, 0},
		{"through sysinfo", HeaderSize + 4, 0},
		{"through gesture byte", HeaderSize + 7, 1},    // gesture only
		{"through touch field", HeaderSize + 12, 2},    // gesture, touch
		{"through airwheel byte", HeaderSize + 15, 3},  // gesture, touch, airwheel
		{"through position block", HeaderSize + 22, 4}, // everything
		{"full window", FrameWindow, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Decode(full[:tt.length])
			if len(events) != tt.events {
				t.Errorf("Expected %d events at length %d, got %d: %v",
					tt.events, tt.length, len(events), events)
			}
		})
	}
}

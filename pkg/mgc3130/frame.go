// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgc3130

import "fmt"

// Frame is one parsed frame window: the four header bytes plus whatever
// followed them in the read. Payload aliases the input slice.
//
// Size is informational only; the sensor reports the meaningful byte count
// there but transfers always span the full window, so parsing is driven by
// the window length, not by Size.
type Frame struct {
	Size    uint8
	Flags   uint8
	Seq     uint8
	ID      uint8
	Payload []byte
}

// ParseFrame splits a raw frame window into header and payload. It returns
// false when the window is too short to carry a header.
func ParseFrame(raw []byte) (Frame, bool) {
	if len(raw) < HeaderSize {
		return Frame{}, false
	}
	return Frame{
		Size:    raw[0],
		Flags:   raw[1],
		Seq:     raw[2],
		ID:      raw[3],
		Payload: raw[HeaderSize:],
	}, true
}

// IDName returns a short human-readable name for a message identifier.
func IDName(id uint8) string {
	switch id {
	case MsgSystemStatus:
		return "SYSTEM_STATUS"
	case MsgRequestMessage:
		return "REQUEST_MESSAGE"
	case MsgFirmwareVersion:
		return "FIRMWARE_VERSION"
	case MsgSensorData:
		return "SENSOR_DATA"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", id)
	}
}

func (f Frame) String() string {
	return fmt.Sprintf("%s seq=%d size=%d", IDName(f.ID), f.Seq, f.Size)
}

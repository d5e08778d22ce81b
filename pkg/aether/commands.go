// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package aether

// Command builder functions create Packet structs ready for encoding.
// These are convenience wrappers around NewPacketWithPayload that ensure
// correct payload key usage per the Aether protocol.

// NewBusWrite creates a BUS_WRITE packet (0x10).
// The bridge writes data to the sensor register in one bus transaction
// and answers with an ACK.
func NewBusWrite(reg uint8, data []byte) *Packet {
	payload := map[int]interface{}{
		0: uint64(reg),
		1: data,
	}
	return NewPacketWithPayload(MsgBusWrite, payload)
}

// NewBusRead creates a BUS_READ packet (0x11).
// The bridge reads count bytes from the sensor register and answers with
// BUS_DATA.
func NewBusRead(reg uint8, count int) *Packet {
	payload := map[int]interface{}{
		0: uint64(reg),
		1: uint64(count),
	}
	return NewPacketWithPayload(MsgBusRead, payload)
}

// NewLineDrive creates a LINE_DRIVE packet (0x20).
// The bridge reconfigures the line as an output at the given level.
// low=true drives 0 V.
func NewLineDrive(line uint8, low bool) *Packet {
	payload := map[int]interface{}{
		0: uint64(line),
		1: low,
	}
	return NewPacketWithPayload(MsgLineDrive, payload)
}

// NewLineRelease creates a LINE_RELEASE packet (0x21).
// The bridge drives the line high briefly, then returns it to
// input-with-pull-up so the sensor can pull it again.
func NewLineRelease(line uint8) *Packet {
	payload := map[int]interface{}{
		0: uint64(line),
	}
	return NewPacketWithPayload(MsgLineRelease, payload)
}

// NewLineQuery creates a LINE_QUERY packet (0x22).
// The bridge samples the line and answers with LINE_STATE.
func NewLineQuery(line uint8) *Packet {
	payload := map[int]interface{}{
		0: uint64(line),
	}
	return NewPacketWithPayload(MsgLineQuery, payload)
}

// NewToneFrequency creates a TONE_FREQ packet (0x28).
// Sets the bridge speaker's PWM frequency in hertz.
func NewToneFrequency(hz int) *Packet {
	payload := map[int]interface{}{
		0: uint64(hz),
	}
	return NewPacketWithPayload(MsgToneFreq, payload)
}

// NewToneDuty creates a TONE_DUTY packet (0x29).
// Sets the bridge speaker's PWM duty level, 0 (mute) to 65535.
func NewToneDuty(level uint16) *Packet {
	payload := map[int]interface{}{
		0: uint64(level),
	}
	return NewPacketWithPayload(MsgToneDuty, payload)
}

// NewPingRequest creates a PING_REQUEST packet (0x2F).
// The bridge answers with PING_RESPONSE containing its uptime.
func NewPingRequest() *Packet {
	return NewPacketWithPayload(MsgPingRequest, nil)
}

// NewAck creates an ACK packet (0x30). Status 0 is success; any other
// status may carry a detail string under key 1.
func NewAck(status uint8, detail string) *Packet {
	payload := map[int]interface{}{
		0: uint64(status),
	}
	if detail != "" {
		payload[1] = detail
	}
	return NewPacketWithPayload(MsgAck, payload)
}

// NewBusData creates a BUS_DATA packet (0x31) carrying read bytes.
func NewBusData(data []byte) *Packet {
	payload := map[int]interface{}{
		0: data,
	}
	return NewPacketWithPayload(MsgBusData, payload)
}

// NewLineState creates a LINE_STATE packet (0x32).
func NewLineState(line uint8, low bool) *Packet {
	payload := map[int]interface{}{
		0: uint64(line),
		1: low,
	}
	return NewPacketWithPayload(MsgLineState, payload)
}

// NewPingResponse creates a PING_RESPONSE packet (0x3F) carrying the
// bridge uptime in milliseconds.
func NewPingResponse(uptimeMs uint64) *Packet {
	payload := map[int]interface{}{
		0: uptimeMs,
	}
	return NewPacketWithPayload(MsgPingResponse, payload)
}

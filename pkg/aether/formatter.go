// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package aether

import "fmt"

// FormatMessageType returns a short name for a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgBusWrite:
		return "BUS_WRITE"
	case MsgBusRead:
		return "BUS_READ"
	case MsgLineDrive:
		return "LINE_DRIVE"
	case MsgLineRelease:
		return "LINE_RELEASE"
	case MsgLineQuery:
		return "LINE_QUERY"
	case MsgToneFreq:
		return "TONE_FREQ"
	case MsgToneDuty:
		return "TONE_DUTY"
	case MsgPingRequest:
		return "PING_REQUEST"
	case MsgAck:
		return "ACK"
	case MsgBusData:
		return "BUS_DATA"
	case MsgLineState:
		return "LINE_STATE"
	case MsgPingResponse:
		return "PING_RESPONSE"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", msgType)
	}
}

// FormatStatus returns a short name for an ACK status code
func FormatStatus(status uint8) string {
	switch status {
	case StatusOK:
		return "ok"
	case StatusBusFault:
		return "bus fault"
	case StatusBadRequest:
		return "bad request"
	case StatusUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("status 0x%02X", status)
	}
}

// FormatPacket returns a one-line summary of a packet
func FormatPacket(p *Packet) string {
	if err := p.ParseError(); err != nil {
		return fmt.Sprintf("%s len=%d (parse error: %v)", FormatMessageType(p.Type()), p.Length(), err)
	}
	return fmt.Sprintf("%s len=%d crc=0x%04X %v", FormatMessageType(p.Type()), p.Length(), p.CRC(), p.PayloadMap())
}

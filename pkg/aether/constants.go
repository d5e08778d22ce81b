// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

// Package aether implements the Aether bridge protocol: a framed binary
// protocol between this host and the small MCU the sensor hangs off on
// bench setups. The link is a byte stream (serial port or WebSocket
// relay); every request is answered by exactly one response.
//
// Wire format: START, byte-stuffed data section, END. The data section is
// a length byte followed by a CBOR payload of that many bytes, with a
// CRC-16-CCITT over both appended big-endian. The CBOR payload is a
// two-element array [msg_type, payload_map].
package aether

// Protocol framing bytes
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// Packet size limits. The bridge firmware decodes into a 128-byte buffer;
// the payload bound leaves room for framing and the CRC.
const (
	MaxPacketSize  = 128
	MaxPayloadSize = 114
)

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Message types - Requests (Host → Bridge) 0x10-0x2F
const (
	MsgBusWrite    = 0x10
	MsgBusRead     = 0x11
	MsgLineDrive   = 0x20
	MsgLineRelease = 0x21
	MsgLineQuery   = 0x22
	MsgToneFreq    = 0x28
	MsgToneDuty    = 0x29
	MsgPingRequest = 0x2F
)

// Message types - Responses (Bridge → Host) 0x30-0x3F
const (
	MsgAck          = 0x30
	MsgBusData      = 0x31
	MsgLineState    = 0x32
	MsgPingResponse = 0x3F
)

// Ack status codes
const (
	StatusOK          = 0x00
	StatusBusFault    = 0x01
	StatusBadRequest  = 0x02
	StatusUnsupported = 0x03
)

// Line identifiers for LINE_* requests
const (
	LineReset    = 0x00
	LineTransfer = 0x01
)

// Decoder states (internal)
// No separate TYPE state - type is embedded in CBOR payload
const (
	stateIdle = iota
	stateLength
	statePayload
	stateCRC1
	stateCRC2
)

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

// Package mgc3130 drives the MGC3130 3D gesture sensor.
//
// The sensor talks over a two-wire bus plus a shared transfer-ready line.
// This package provides the frame transport (freeze/read/release), the
// runtime configuration handshake, a stateless frame decoder producing
// typed events, and a polling loop. Hardware access goes through the HAL
// interface so the same driver runs against local peripherals, a remote
// bridge, or the simulator in mgctest.
package mgc3130

// Bus registers and addressing
const (
	// DefaultBusAddress is the sensor's fixed 7-bit bus address.
	DefaultBusAddress = 0x42

	// RegFrameBuffer is the register frames are read from.
	RegFrameBuffer = 0x00
	// RegRuntimeConfig is the register runtime commands are written to.
	RegRuntimeConfig = 0x10
)

// FrameWindow is the fixed read size for one frame. The sensor pads short
// messages to the full window; trailing bytes past the size byte carry no
// information.
const FrameWindow = 32

// HeaderSize is the number of header bytes before the payload.
const HeaderSize = 4

// Message identifiers (frame header byte 3)
const (
	MsgSystemStatus    = 0x15
	MsgRequestMessage  = 0x06 // host-to-sensor request, unused by this driver
	MsgFirmwareVersion = 0x83
	MsgSensorData      = 0x91
)

// CmdSetRuntime is the runtime-parameter command id carried in the third
// byte of a configuration write and echoed back in the first payload byte
// of the status frame that acknowledges it.
const CmdSetRuntime = 0xA2

// Runtime parameter addresses for SET_RUNTIME commands
const (
	ParamAutoCalibration = 0x80
	ParamGestureMask     = 0x85
	ParamAirWheel        = 0x90
	ParamDataOutput      = 0xA0
)

// ConfigMask describes which payload fields a sensor-data frame carries.
// The bits gate field presence, not field position: offsets are fixed.
type ConfigMask uint16

// Sensor-data payload field bits
const (
	DataDSP      ConfigMask = 1 << 0
	DataGesture  ConfigMask = 1 << 1
	DataTouch    ConfigMask = 1 << 2
	DataAirWheel ConfigMask = 1 << 3
	DataXYZ      ConfigMask = 1 << 4

	// DataAll is every field the driver enables during Configure.
	DataAll = DataDSP | DataGesture | DataTouch | DataAirWheel | DataXYZ
)

// Has reports whether every bit of flag is set in the mask.
func (m ConfigMask) Has(flag ConfigMask) bool {
	return m&flag == flag
}

// SystemFlags is the validity byte of a sensor-data frame.
type SystemFlags uint8

// Validity bits
const (
	SysPositionValid SystemFlags = 1 << 0
	SysAirWheelValid SystemFlags = 1 << 1
)

// Has reports whether every bit of flag is set.
func (f SystemFlags) Has(flag SystemFlags) bool {
	return f&flag == flag
}

// Sensor-data payload offsets (relative to the payload, not the frame)
const (
	offConfigMask = 0  // uint16 little-endian
	offTimestamp  = 2  // ignored
	offSysInfo    = 3  // SystemFlags
	offDSP        = 4  // uint16, ignored
	offGesture    = 6  // 4 bytes, first byte is the gesture class
	offTouch      = 10 // 4 bytes, first two are the action field
	offAirWheel   = 14 // 2 bytes, first byte is the rotation accumulator
	offPosition   = 16 // three uint16 little-endian: x, y, z
)

// touchActionMask keeps the fifteen defined touch action bits; the top bit
// of the action field is reserved.
const touchActionMask = 0x7FFF

// StepsPerRevolution is the air-wheel accumulator resolution: a full
// clockwise finger circle advances the counter by 32.
const StepsPerRevolution = 32

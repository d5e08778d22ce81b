// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgc3130

import (
	"encoding/binary"
	"math/bits"
	"strings"
)

// Decode turns one raw frame window into events. It is stateless: the same
// window always yields the same events, in payload order (position,
// gesture, touch, air wheel). Unknown identifiers, short windows and
// status frames decode to nil.
func Decode(raw []byte) []Event {
	f, ok := ParseFrame(raw)
	if !ok {
		return nil
	}
	switch f.ID {
	case MsgSensorData:
		return decodeSensorData(f.Payload)
	case MsgFirmwareVersion:
		return decodeFirmware(f.Payload)
	default:
		// SYSTEM_STATUS frames only matter to the configuration
		// handshake, which matches on the raw payload itself.
		return nil
	}
}

func decodeSensorData(p []byte) []Event {
	if len(p) < offSysInfo+1 {
		return nil
	}
	mask := ConfigMask(binary.LittleEndian.Uint16(p[offConfigMask:]))
	info := SystemFlags(p[offSysInfo])

	var events []Event

	if mask.Has(DataXYZ) && info.Has(SysPositionValid) && len(p) >= offPosition+6 {
		events = append(events, PositionSample{
			X: normalize(binary.LittleEndian.Uint16(p[offPosition:])),
			Y: normalize(binary.LittleEndian.Uint16(p[offPosition+2:])),
			Z: normalize(binary.LittleEndian.Uint16(p[offPosition+4:])),
		})
	}

	if mask.Has(DataGesture) && len(p) > offGesture {
		if g, ok := gestures[p[offGesture]]; ok {
			events = append(events, g)
		}
	}

	if mask.Has(DataTouch) && len(p) >= offTouch+2 {
		action := binary.LittleEndian.Uint16(p[offTouch:]) & touchActionMask
		if action != 0 {
			events = append(events, touchActions[bits.Len16(action)-1])
		}
	}

	if mask.Has(DataAirWheel) && info.Has(SysAirWheelValid) && len(p) > offAirWheel {
		events = append(events, AirWheelSample{Raw: p[offAirWheel]})
	}

	return events
}

// firmwareTextOffset is where the version text starts in a
// FIRMWARE_VERSION payload; the leading bytes are a status word and
// loader fields this driver does not interpret.
const firmwareTextOffset = 8

func decodeFirmware(p []byte) []Event {
	if len(p) < firmwareTextOffset {
		return nil
	}
	text := strings.ToValidUTF8(string(p[firmwareTextOffset:]), "")
	text = strings.Trim(text, "\x00\r\n ")
	return []Event{FirmwareVersion{Version: text}}
}

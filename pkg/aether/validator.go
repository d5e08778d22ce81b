// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package aether

import "fmt"

// AnomalyType represents different types of packet anomalies
type AnomalyType int

const (
	AnomalyDecodeError AnomalyType = iota
	AnomalyMissingField
	AnomalyInvalidValue
	AnomalyLengthMismatch
)

// ValidationError represents a packet validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidatePacket checks a decoded packet's payload against the message
// vocabulary. Returns a slice of validation errors (empty if the packet is
// valid). Message types outside the vocabulary validate clean so newer
// bridge firmware stays usable.
func ValidatePacket(p *Packet) []ValidationError {
	if err := p.ParseError(); err != nil {
		return []ValidationError{{
			Type:    AnomalyDecodeError,
			Message: fmt.Sprintf("Payload is not a protocol message: %v", err),
			Details: map[string]interface{}{"error": err.Error()},
		}}
	}

	m := p.PayloadMap()
	switch p.Type() {
	case MsgBusWrite:
		return validateBusWrite(m)
	case MsgBusRead:
		return validateBusRead(m)
	case MsgLineDrive:
		return validateLineDrive(m)
	case MsgLineRelease, MsgLineQuery:
		return validateLineNumber(m)
	case MsgToneFreq:
		return validateBoundedUint(m, 0, "frequency", 65535)
	case MsgToneDuty:
		return validateBoundedUint(m, 0, "duty level", 65535)
	case MsgPingRequest:
		return []ValidationError{}
	case MsgAck:
		return validateAck(m)
	case MsgBusData:
		return validateBusData(m)
	case MsgLineState:
		return validateLineState(m)
	case MsgPingResponse:
		return validateBoundedUint(m, 0, "uptime", 0)
	}

	return []ValidationError{}
}

func missingField(key int, field string) ValidationError {
	return ValidationError{
		Type:    AnomalyMissingField,
		Message: fmt.Sprintf("Missing %s (key %d)", field, key),
		Details: map[string]interface{}{"key": key, "field": field},
	}
}

// validateBoundedUint requires an unsigned value at key, optionally capped.
// A max of 0 means any value is accepted.
func validateBoundedUint(m map[int]interface{}, key int, field string, max uint64) []ValidationError {
	errors := []ValidationError{}

	v, ok := GetMapUint(m, key)
	if !ok {
		return append(errors, missingField(key, field))
	}
	if max > 0 && v > max {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("Invalid %s=%d (max %d)", field, v, max),
			Details: map[string]interface{}{"field": field, "value": v, "max": max},
		})
	}

	return errors
}

// validateRegister requires a bus register number at key 0.
func validateRegister(m map[int]interface{}) []ValidationError {
	return validateBoundedUint(m, 0, "register", 0xFF)
}

// validateLineNumber requires a known line number at key 0.
func validateLineNumber(m map[int]interface{}) []ValidationError {
	return validateBoundedUint(m, 0, "line", uint64(LineTransfer))
}

// validateBusWrite validates BUS_WRITE payload
func validateBusWrite(m map[int]interface{}) []ValidationError {
	errors := validateRegister(m)

	data, ok := GetMapBytes(m, 1)
	if !ok {
		return append(errors, missingField(1, "data"))
	}
	if len(data) == 0 {
		errors = append(errors, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: "BUS_WRITE data is empty",
			Details: map[string]interface{}{"length": 0},
		})
	}
	if len(data) > MaxPayloadSize {
		errors = append(errors, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("BUS_WRITE data exceeds payload limit (%d > %d)", len(data), MaxPayloadSize),
			Details: map[string]interface{}{"length": len(data), "max": MaxPayloadSize},
		})
	}

	return errors
}

// validateBusRead validates BUS_READ payload
func validateBusRead(m map[int]interface{}) []ValidationError {
	errors := validateRegister(m)

	count, ok := GetMapUint(m, 1)
	if !ok {
		return append(errors, missingField(1, "count"))
	}
	if count == 0 || count > MaxPayloadSize {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("Invalid read count=%d (valid 1-%d)", count, MaxPayloadSize),
			Details: map[string]interface{}{"count": count, "max": MaxPayloadSize},
		})
	}

	return errors
}

// validateLineDrive validates LINE_DRIVE payload
func validateLineDrive(m map[int]interface{}) []ValidationError {
	errors := validateLineNumber(m)

	if _, ok := GetMapBool(m, 1); !ok {
		errors = append(errors, missingField(1, "level"))
	}

	return errors
}

// validateAck validates ACK payload
func validateAck(m map[int]interface{}) []ValidationError {
	return validateBoundedUint(m, 0, "status", uint64(StatusUnsupported))
}

// validateBusData validates BUS_DATA payload
func validateBusData(m map[int]interface{}) []ValidationError {
	errors := []ValidationError{}

	data, ok := GetMapBytes(m, 0)
	if !ok {
		return append(errors, missingField(0, "data"))
	}
	if len(data) == 0 {
		errors = append(errors, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: "BUS_DATA data is empty",
			Details: map[string]interface{}{"length": 0},
		})
	}

	return errors
}

// validateLineState validates LINE_STATE payload
func validateLineState(m map[int]interface{}) []ValidationError {
	errors := validateLineNumber(m)

	if _, ok := GetMapBool(m, 1); !ok {
		errors = append(errors, missingField(1, "level"))
	}

	return errors
}

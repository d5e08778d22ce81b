// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgc3130

import (
	"fmt"
	"time"
)

// Statistics tracks frame and event counters for one polling session.
// It is not synchronized; record and read from the same goroutine.
type Statistics struct {
	StartTime time.Time

	// Frame counters by identifier
	Frames         uint64
	SensorFrames   uint64
	StatusFrames   uint64
	FirmwareFrames uint64
	UnknownFrames  uint64
	ShortFrames    uint64

	// Event counters by type
	Positions uint64
	Gestures  uint64
	Touches   uint64
	AirWheels uint64

	BusErrors uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	EventRate float64 // events/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// RecordFrame counts one raw frame window and the events decoded from it
func (s *Statistics) RecordFrame(raw []byte, events []Event) {
	s.Frames++

	f, ok := ParseFrame(raw)
	if !ok {
		s.ShortFrames++
		return
	}
	switch f.ID {
	case MsgSensorData:
		s.SensorFrames++
	case MsgSystemStatus:
		s.StatusFrames++
	case MsgFirmwareVersion:
		s.FirmwareFrames++
	default:
		s.UnknownFrames++
	}

	for _, ev := range events {
		switch ev.(type) {
		case PositionSample:
			s.Positions++
		case GestureEvent:
			s.Gestures++
		case TouchEvent:
			s.Touches++
		case AirWheelSample:
			s.AirWheels++
		}
	}
}

// RecordBusError counts one failed bus transaction
func (s *Statistics) RecordBusError() {
	s.BusErrors++
}

// TotalEvents returns the number of decoded events of any kind
func (s *Statistics) TotalEvents() uint64 {
	return s.Positions + s.Gestures + s.Touches + s.AirWheels
}

// CalculateRates calculates frame and event rates since StartTime
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.Frames) / elapsed
		s.EventRate = float64(s.TotalEvents()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Frames:          %8d\n", s.Frames)
	result += fmt.Sprintf("  Sensor Data:      %5d\n", s.SensorFrames)
	if s.StatusFrames > 0 {
		result += fmt.Sprintf("  System Status:    %5d\n", s.StatusFrames)
	}
	if s.FirmwareFrames > 0 {
		result += fmt.Sprintf("  Firmware:         %5d\n", s.FirmwareFrames)
	}
	if s.UnknownFrames > 0 {
		result += fmt.Sprintf("  Unknown:          %5d\n", s.UnknownFrames)
	}
	if s.ShortFrames > 0 {
		result += fmt.Sprintf("  Short:            %5d\n", s.ShortFrames)
	}
	result += fmt.Sprintf("Events:          %8d\n", s.TotalEvents())
	result += fmt.Sprintf("  Positions:        %5d\n", s.Positions)
	result += fmt.Sprintf("  Gestures:         %5d\n", s.Gestures)
	result += fmt.Sprintf("  Touches:          %5d\n", s.Touches)
	result += fmt.Sprintf("  Air Wheel:        %5d\n", s.AirWheels)
	if s.BusErrors > 0 {
		result += fmt.Sprintf("Bus Errors:      %8d\n", s.BusErrors)
	}
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Event Rate:      %8.1f events/sec\n", s.EventRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = Statistics{StartTime: time.Now()}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

// Package mgctest provides an in-memory sensor simulator implementing
// mgc3130.HAL, for tests and for the CLI's demo backend. The simulator
// models the parts of the sensor the driver can observe: the pending-frame
// queue behind the transfer line, the freeze/release discipline, runtime
// command acknowledgements and the post-reset firmware announcement.
package mgctest

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/skelhorn/aeolian/pkg/mgc3130"
)

// ErrUnfrozenRead is returned when a frame read happens without the
// transfer line frozen first. Real hardware would hand back a buffer the
// sensor is still rewriting; the simulator makes the ordering bug loud.
var ErrUnfrozenRead = errors.New("frame read without freezing the transfer line")

// Sim is a scriptable sensor on a fake bus. Queue frames, then run a
// Device or Transport against it. Safe for concurrent use.
type Sim struct {
	mu sync.Mutex

	frames        [][]byte
	seq           uint8
	frozen        bool
	readFrozen    bool
	resetAsserted bool

	firmware string
	autoAck  bool

	assertedCalls int
	runtimeWrites [][]byte

	readErr    error
	releaseErr error

	freq int
	duty uint16
}

// NewSim builds a simulator that acknowledges runtime writes and
// announces the given firmware string after reset. Pass an empty version
// to suppress the announcement.
func NewSim(firmware string) *Sim {
	return &Sim{firmware: firmware, autoAck: true}
}

// SetAutoAck controls whether runtime writes queue their SYSTEM_STATUS
// acknowledgement. Disable it to exercise the acknowledgement timeout.
func (s *Sim) SetAutoAck(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoAck = on
}

// FailNextRead makes the next frame read fail with err, once.
func (s *Sim) FailNextRead(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailNextRelease makes the next transfer release fail with err, once.
func (s *Sim) FailNextRelease(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseErr = err
}

// QueueFrame appends one raw frame window to the pending queue, padded to
// the full window size and stamped with the next sequence number.
func (s *Sim) QueueFrame(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queueLocked(raw)
}

func (s *Sim) queueLocked(raw []byte) {
	frame := make([]byte, mgc3130.FrameWindow)
	copy(frame, raw)
	if len(frame) >= mgc3130.HeaderSize {
		frame[2] = s.seq
		s.seq++
	}
	s.frames = append(s.frames, frame)
}

// QueueSensor queues one sensor-data frame built from r.
func (s *Sim) QueueSensor(r SensorReport) {
	s.QueueFrame(r.Frame())
}

// QueueFirmware queues one firmware announcement frame.
func (s *Sim) QueueFirmware(version string) {
	s.QueueFrame(FirmwareFrame(version))
}

// Pending returns how many frames are queued.
func (s *Sim) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Frozen reports whether the host currently holds the transfer line.
func (s *Sim) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen
}

// AssertedCalls returns how many times the transfer line was sampled.
func (s *Sim) AssertedCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assertedCalls
}

// RuntimeWrites returns copies of every block written to the runtime
// configuration register, in order.
func (s *Sim) RuntimeWrites() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.runtimeWrites))
	for i, w := range s.runtimeWrites {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// WriteBlock implements mgc3130.HAL. Runtime commands are recorded and,
// when auto-acknowledge is on, answered with a matching status frame.
func (s *Sim) WriteBlock(ctx context.Context, reg uint8, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetAsserted {
		return errors.New("bus write while sensor held in reset")
	}
	if reg != mgc3130.RegRuntimeConfig {
		return fmt.Errorf("write to unsupported register 0x%02X", reg)
	}
	s.runtimeWrites = append(s.runtimeWrites, append([]byte(nil), data...))
	if s.autoAck && len(data) > 2 && data[2] == mgc3130.CmdSetRuntime {
		s.queueLocked(StatusFrame(data[2]))
	}
	return nil
}

// ReadBlock implements mgc3130.HAL. Reads return the head of the frame
// queue without consuming it; the frame is retired when the host releases
// the transfer line after a successful read.
func (s *Sim) ReadBlock(ctx context.Context, reg uint8, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		err := s.readErr
		s.readErr = nil
		return err
	}
	if reg != mgc3130.RegFrameBuffer {
		return fmt.Errorf("read from unsupported register 0x%02X", reg)
	}
	if !s.frozen {
		return ErrUnfrozenRead
	}
	for i := range buf {
		buf[i] = 0
	}
	if len(s.frames) > 0 {
		copy(buf, s.frames[0])
	}
	s.readFrozen = true
	return nil
}

// TransferAsserted implements mgc3130.HAL.
func (s *Sim) TransferAsserted() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assertedCalls++
	if s.frozen {
		// The host is driving the line low itself.
		return true, nil
	}
	return len(s.frames) > 0 && !s.resetAsserted, nil
}

// FreezeTransfer implements mgc3130.HAL.
func (s *Sim) FreezeTransfer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
	s.readFrozen = false
	return nil
}

// ReleaseTransfer implements mgc3130.HAL.
func (s *Sim) ReleaseTransfer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.releaseErr != nil {
		err := s.releaseErr
		s.releaseErr = nil
		return err
	}
	if s.frozen && s.readFrozen && len(s.frames) > 0 {
		s.frames = s.frames[1:]
	}
	s.frozen = false
	s.readFrozen = false
	return nil
}

// SetReset implements mgc3130.HAL. Asserting reset drops pending frames;
// releasing it queues the firmware announcement.
func (s *Sim) SetReset(asserted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if asserted {
		s.frames = nil
		s.frozen = false
		s.readFrozen = false
	} else if s.resetAsserted && s.firmware != "" {
		s.queueLocked(FirmwareFrame(s.firmware))
	}
	s.resetAsserted = asserted
	return nil
}

// SetFrequency implements the chirp speaker interface.
func (s *Sim) SetFrequency(hz int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freq = hz
	return nil
}

// SetDuty implements the chirp speaker interface.
func (s *Sim) SetDuty(level uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duty = level
	return nil
}

// Frequency returns the last frequency set on the fake speaker.
func (s *Sim) Frequency() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freq
}

// Duty returns the last duty level set on the fake speaker.
func (s *Sim) Duty() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duty
}

// Close implements io.Closer so the simulator can stand in for a real
// backend.
func (s *Sim) Close() error {
	return nil
}

// SensorReport describes one sensor-data frame for the builders below.
// A zero Mask means every data output enabled.
type SensorReport struct {
	Mask      mgc3130.ConfigMask
	Flags     mgc3130.SystemFlags
	Gesture   uint8
	TouchBits uint16
	AirWheel  uint8
	X, Y, Z   uint16
}

// Frame builds the 32-byte sensor-data window for the report.
func (r SensorReport) Frame() []byte {
	mask := r.Mask
	if mask == 0 {
		mask = mgc3130.DataAll
	}
	raw := make([]byte, mgc3130.FrameWindow)
	raw[0] = 0x1A
	raw[3] = mgc3130.MsgSensorData
	p := raw[mgc3130.HeaderSize:]
	binary.LittleEndian.PutUint16(p[0:], uint16(mask))
	p[3] = uint8(r.Flags)
	p[6] = r.Gesture
	binary.LittleEndian.PutUint16(p[10:], r.TouchBits)
	p[14] = r.AirWheel
	binary.LittleEndian.PutUint16(p[16:], r.X)
	binary.LittleEndian.PutUint16(p[18:], r.Y)
	binary.LittleEndian.PutUint16(p[20:], r.Z)
	return raw
}

// StatusFrame builds a SYSTEM_STATUS window acknowledging cmd.
func StatusFrame(cmd uint8) []byte {
	raw := make([]byte, mgc3130.FrameWindow)
	raw[0] = 0x10
	raw[3] = mgc3130.MsgSystemStatus
	raw[mgc3130.HeaderSize] = cmd
	return raw
}

// FirmwareFrame builds a FIRMWARE_VERSION window carrying version text.
func FirmwareFrame(version string) []byte {
	raw := make([]byte, mgc3130.FrameWindow)
	raw[3] = mgc3130.MsgFirmwareVersion
	p := raw[mgc3130.HeaderSize:]
	p[0] = 0xAA
	text := p[8:]
	n := copy(text, version)
	raw[0] = uint8(mgc3130.HeaderSize + 8 + n)
	return raw
}

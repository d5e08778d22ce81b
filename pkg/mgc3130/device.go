// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgc3130

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Reset timing: hold the line, then give the firmware time to boot before
// the first bus transaction.
const (
	resetHold   = 100 * time.Millisecond
	resetSettle = 500 * time.Millisecond
)

// Defaults for the status-acknowledgement wait and the poll loop.
const (
	DefaultStatusRetries  = 10
	DefaultStatusInterval = time.Millisecond
	DefaultPollInterval   = time.Millisecond
)

// ErrStatusTimeout is returned (wrapped in a *ConfigError) when a runtime
// write is never acknowledged within the configured number of retries.
var ErrStatusTimeout = errors.New("no status acknowledgement")

// ConfigError reports which configuration step failed and why.
type ConfigError struct {
	Step string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configure %s: %v", e.Step, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Device owns the sensor lifecycle: reset, runtime configuration and
// polling. It is not safe for concurrent use; run one goroutine against a
// Device at a time.
type Device struct {
	hal       HAL
	transport *Transport
	log       *slog.Logger
	stats     *Statistics

	statusRetries  int
	statusInterval time.Duration
	pollInterval   time.Duration
	sleep          func(context.Context, time.Duration) error
}

// Option adjusts Device construction.
type Option func(*Device)

// WithLogger sets the logger for driver internals. Everything the driver
// logs is at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// WithStatusRetries sets how many poll ticks a runtime write may wait for
// its acknowledgement.
func WithStatusRetries(n int) Option {
	return func(d *Device) { d.statusRetries = n }
}

// WithStatusInterval sets the tick length of the acknowledgement wait.
func WithStatusInterval(interval time.Duration) Option {
	return func(d *Device) { d.statusInterval = interval }
}

// WithPollInterval sets how long Poll idles when no frame is pending.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Device) { d.pollInterval = interval }
}

// withSleep replaces the timing source so tests run without wall-clock
// delays.
func withSleep(fn func(context.Context, time.Duration) error) Option {
	return func(d *Device) { d.sleep = fn }
}

// New builds a Device on the given HAL.
func New(hal HAL, opts ...Option) *Device {
	d := &Device{
		hal:            hal,
		transport:      NewTransport(hal),
		log:            slog.Default().With("component", "mgc3130"),
		stats:          NewStatistics(),
		statusRetries:  DefaultStatusRetries,
		statusInterval: DefaultStatusInterval,
		pollInterval:   DefaultPollInterval,
		sleep:          sleepCtx,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stats returns the live frame and event counters. The counters update
// during Poll and ReadEvents.
func (d *Device) Stats() *Statistics {
	return d.stats
}

// Reset pulses the reset line and waits out the firmware boot. After a
// reset the sensor publishes one FIRMWARE_VERSION frame on its own.
func (d *Device) Reset(ctx context.Context) error {
	d.log.Debug("reset asserted")
	if err := d.hal.SetReset(true); err != nil {
		return fmt.Errorf("assert reset: %w", err)
	}
	if err := d.sleep(ctx, resetHold); err != nil {
		return err
	}
	if err := d.hal.SetReset(false); err != nil {
		return fmt.Errorf("release reset: %w", err)
	}
	if err := d.sleep(ctx, resetSettle); err != nil {
		return err
	}
	d.log.Debug("reset complete")
	return nil
}

// configStep is one runtime write of the configuration sequence.
type configStep struct {
	name  string
	param uint8
	arg0  uint32
	arg1  uint32
}

// configSteps is the fixed startup sequence: enable the air wheel, enable
// every gesture class, enable every data output, then lock out automatic
// recalibration while streaming.
var configSteps = []configStep{
	{"air wheel", ParamAirWheel, 0x20, 0x20},
	{"gestures", ParamGestureMask, 0x7F, 0x7F},
	{"data outputs", ParamDataOutput, uint32(DataAll), uint32(DataAll)},
	{"auto-calibration", ParamAutoCalibration, 0x00, uint32(DataAll)},
}

// runtimeCommand builds the 15-byte SET_RUNTIME write: command id at byte
// 2, parameter address at byte 3, two little-endian 32-bit arguments at
// bytes 7 and 11. The remaining bytes stay zero.
func runtimeCommand(param uint8, arg0, arg1 uint32) []byte {
	cmd := make([]byte, 15)
	cmd[2] = CmdSetRuntime
	cmd[3] = param
	binary.LittleEndian.PutUint32(cmd[7:11], arg0)
	binary.LittleEndian.PutUint32(cmd[11:15], arg1)
	return cmd
}

// Configure runs the four-step runtime setup. Each write must be
// acknowledged by a SYSTEM_STATUS frame echoing the command id before the
// next step; a missing acknowledgement or a bus fault aborts with a
// *ConfigError naming the step.
func (d *Device) Configure(ctx context.Context) error {
	for _, step := range configSteps {
		d.log.Debug("runtime write",
			"step", step.name,
			"param", fmt.Sprintf("0x%02X", step.param),
			"arg0", fmt.Sprintf("0x%08X", step.arg0),
			"arg1", fmt.Sprintf("0x%08X", step.arg1))
		cmd := runtimeCommand(step.param, step.arg0, step.arg1)
		if err := d.hal.WriteBlock(ctx, RegRuntimeConfig, cmd); err != nil {
			return &ConfigError{Step: step.name, Err: err}
		}
		if err := d.awaitStatus(ctx, CmdSetRuntime); err != nil {
			return &ConfigError{Step: step.name, Err: err}
		}
		d.log.Debug("runtime write acknowledged", "step", step.name)
	}
	return nil
}

// awaitStatus polls for the SYSTEM_STATUS frame acknowledging cmd. Each
// try sleeps one status interval first, then attempts a transport read.
// Frames that arrive but do not match are dropped; after statusRetries
// tries without a match the wait fails with ErrStatusTimeout.
func (d *Device) awaitStatus(ctx context.Context, cmd uint8) error {
	for try := 0; try < d.statusRetries; try++ {
		if err := d.sleep(ctx, d.statusInterval); err != nil {
			return err
		}
		raw, ok, err := d.transport.TryRead(ctx)
		if err != nil {
			d.stats.RecordBusError()
			return err
		}
		if !ok {
			continue
		}
		f, fok := ParseFrame(raw)
		if fok && f.ID == MsgSystemStatus && len(f.Payload) > 0 && f.Payload[0] == cmd {
			return nil
		}
	}
	return ErrStatusTimeout
}

// ReadEvents performs one poll tick: at most one transport read, decoded
// into events. A nil slice with a nil error means no frame was pending.
func (d *Device) ReadEvents(ctx context.Context) ([]Event, error) {
	raw, ok, err := d.transport.TryRead(ctx)
	if err != nil {
		d.stats.RecordBusError()
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	events := Decode(raw)
	d.stats.RecordFrame(raw, events)
	return events, nil
}

// Poll reads frames until ctx is cancelled, delivering every decoded
// event to fn in decode order. The loop idles for the poll interval when
// nothing is pending and drains back-to-back frames without sleeping.
// Bus errors stop the loop; fn runs on the calling goroutine.
func (d *Device) Poll(ctx context.Context, fn func(Event)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, ok, err := d.transport.TryRead(ctx)
		if err != nil {
			d.stats.RecordBusError()
			return err
		}
		if !ok {
			if err := d.sleep(ctx, d.pollInterval); err != nil {
				return err
			}
			continue
		}
		events := Decode(raw)
		d.stats.RecordFrame(raw, events)
		for _, ev := range events {
			fn(ev)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

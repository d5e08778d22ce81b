// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

// Package hosthal wires the sensor driver to peripherals on the local
// host: the two-wire bus through periph.io's i2c registry and the
// transfer, reset and tone lines through its gpio registry. It is the
// backend used when the sensor hangs directly off this machine's header,
// as opposed to sitting behind a serial or WebSocket bridge.
package hosthal

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/skelhorn/aeolian/pkg/mgc3130"
)

// Default header pins, matching the stock sensor hat wiring.
const (
	DefaultResetPin    = "GPIO17"
	DefaultTransferPin = "GPIO27"
	DefaultTonePin     = "GPIO13"
)

// busSpeed is the fast-mode bus clock the sensor supports.
const busSpeed = 400 * physic.KiloHertz

// Config selects the bus and pins to use. Zero values pick the defaults:
// the first available bus, the sensor's fixed address and the stock hat
// pins.
type Config struct {
	// Bus is a bus name or number understood by the host ("1", "/dev/i2c-1").
	// Empty selects the first available bus.
	Bus string
	// Addr is the sensor's 7-bit bus address.
	Addr uint16
	// ResetPin, TransferPin and TonePin are gpio registry names.
	ResetPin    string
	TransferPin string
	TonePin     string
}

// Board drives the sensor through the host's own peripherals. It is not
// safe for concurrent use; the driver serializes all hardware access.
type Board struct {
	dev      i2c.Dev
	closeBus func() error
	rst      gpio.PinIO
	xfer     gpio.PinIO
	tone     gpio.PinIO

	toneHz   int
	toneDuty uint16
}

// Open initializes host drivers, opens the bus and claims the pins.
func Open(cfg Config) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open bus %q: %w", cfg.Bus, err)
	}
	// Best effort: sysfs buses fix their clock in the device tree.
	_ = bus.SetSpeed(busSpeed)

	resetName := cfg.ResetPin
	if resetName == "" {
		resetName = DefaultResetPin
	}
	transferName := cfg.TransferPin
	if transferName == "" {
		transferName = DefaultTransferPin
	}
	toneName := cfg.TonePin
	if toneName == "" {
		toneName = DefaultTonePin
	}

	rst := gpioreg.ByName(resetName)
	if rst == nil {
		bus.Close()
		return nil, fmt.Errorf("no pin named %q", resetName)
	}
	xfer := gpioreg.ByName(transferName)
	if xfer == nil {
		bus.Close()
		return nil, fmt.Errorf("no pin named %q", transferName)
	}
	tone := gpioreg.ByName(toneName)
	if tone == nil {
		bus.Close()
		return nil, fmt.Errorf("no pin named %q", toneName)
	}

	addr := cfg.Addr
	if addr == 0 {
		addr = mgc3130.DefaultBusAddress
	}

	b := newBoard(bus, bus.Close, rst, xfer, tone, addr)
	if err := b.initLines(); err != nil {
		bus.Close()
		return nil, err
	}
	return b, nil
}

func newBoard(bus i2c.Bus, closeBus func() error, rst, xfer, tone gpio.PinIO, addr uint16) *Board {
	return &Board{
		dev:      i2c.Dev{Bus: bus, Addr: addr},
		closeBus: closeBus,
		rst:      rst,
		xfer:     xfer,
		tone:     tone,
	}
}

// initLines parks every line in its idle state: reset deasserted, transfer
// floating with pull-up, tone muted.
func (b *Board) initLines() error {
	if err := b.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("reset pin: %w", err)
	}
	if err := b.xfer.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("transfer pin: %w", err)
	}
	if err := b.tone.Out(gpio.Low); err != nil {
		return fmt.Errorf("tone pin: %w", err)
	}
	return nil
}

// WriteBlock writes data to a sensor register in one bus transaction.
func (b *Board) WriteBlock(ctx context.Context, reg uint8, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg)
	w = append(w, data...)
	if err := b.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("bus write reg 0x%02X: %w", reg, err)
	}
	return nil
}

// ReadBlock fills buf from a sensor register in one bus transaction.
func (b *Board) ReadBlock(ctx context.Context, reg uint8, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.dev.Tx([]byte{reg}, buf); err != nil {
		return fmt.Errorf("bus read reg 0x%02X: %w", reg, err)
	}
	return nil
}

// TransferAsserted reports whether the transfer line reads low.
func (b *Board) TransferAsserted() (bool, error) {
	return b.xfer.Read() == gpio.Low, nil
}

// FreezeTransfer drives the transfer line low.
func (b *Board) FreezeTransfer() error {
	if err := b.xfer.Out(gpio.Low); err != nil {
		return fmt.Errorf("freeze transfer: %w", err)
	}
	return nil
}

// ReleaseTransfer drives the line high briefly, then returns it to
// input-with-pull-up so the sensor can pull it again.
func (b *Board) ReleaseTransfer() error {
	if err := b.xfer.Out(gpio.High); err != nil {
		return fmt.Errorf("release transfer: %w", err)
	}
	if err := b.xfer.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("release transfer: %w", err)
	}
	return nil
}

// SetReset drives the reset line; asserted means held low.
func (b *Board) SetReset(asserted bool) error {
	level := gpio.High
	if asserted {
		level = gpio.Low
	}
	if err := b.rst.Out(level); err != nil {
		return fmt.Errorf("reset line: %w", err)
	}
	return nil
}

// SetFrequency sets the tone pin's PWM frequency in hertz.
func (b *Board) SetFrequency(hz int) error {
	if hz < 0 {
		return fmt.Errorf("negative frequency %d", hz)
	}
	b.toneHz = hz
	return b.applyTone()
}

// SetDuty sets the tone pin's PWM duty level, 0 (mute) to 65535.
func (b *Board) SetDuty(level uint16) error {
	b.toneDuty = level
	return b.applyTone()
}

func (b *Board) applyTone() error {
	if b.toneHz == 0 || b.toneDuty == 0 {
		if err := b.tone.Out(gpio.Low); err != nil {
			return fmt.Errorf("tone pin: %w", err)
		}
		return nil
	}
	duty := gpio.Duty(uint64(b.toneDuty) * uint64(gpio.DutyMax) / 65535)
	if err := b.tone.PWM(duty, physic.Frequency(b.toneHz)*physic.Hertz); err != nil {
		return fmt.Errorf("tone pin: %w", err)
	}
	return nil
}

// BusName reports the opened bus's registry name.
func (b *Board) BusName() string {
	return b.dev.Bus.String()
}

// Close mutes the tone pin, releases the transfer line and closes the bus.
func (b *Board) Close() error {
	b.tone.Out(gpio.Low)
	b.xfer.In(gpio.PullUp, gpio.NoEdge)
	return b.closeBus()
}

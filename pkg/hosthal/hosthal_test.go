// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package hosthal

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	"github.com/skelhorn/aeolian/pkg/mgc3130"
)

// tonePin records PWM calls, which gpiotest.Pin does not.
type tonePin struct {
	gpiotest.Pin
	pwmCalls int
	duty     gpio.Duty
	freq     physic.Frequency
}

func (p *tonePin) PWM(duty gpio.Duty, f physic.Frequency) error {
	p.pwmCalls++
	p.duty = duty
	p.freq = f
	return nil
}

type fixture struct {
	board *Board
	bus   *i2ctest.Playback
	rst   *gpiotest.Pin
	xfer  *gpiotest.Pin
	tone  *tonePin
	freed bool
}

func newFixture(t *testing.T, ops []i2ctest.IO) *fixture {
	t.Helper()
	f := &fixture{
		bus:  &i2ctest.Playback{Ops: ops, DontPanic: true},
		rst:  &gpiotest.Pin{N: "GPIO17", Num: 17},
		xfer: &gpiotest.Pin{N: "GPIO27", Num: 27},
		tone: &tonePin{Pin: gpiotest.Pin{N: "GPIO13", Num: 13}},
	}
	closeBus := func() error {
		f.freed = true
		return nil
	}
	f.board = newBoard(f.bus, closeBus, f.rst, f.xfer, f.tone, mgc3130.DefaultBusAddress)
	if err := f.board.initLines(); err != nil {
		t.Fatalf("initLines failed: %v", err)
	}
	return f
}

func TestInitLines_IdleStates(t *testing.T) {
	f := newFixture(t, nil)

	if f.rst.L != gpio.High {
		t.Error("reset should idle deasserted (high)")
	}
	if f.xfer.P != gpio.PullUp {
		t.Errorf("transfer pull = %v, want pull-up", f.xfer.P)
	}
	if f.tone.L != gpio.Low {
		t.Error("tone should idle muted (low)")
	}
}

func TestWriteBlock_PrefixesRegister(t *testing.T) {
	f := newFixture(t, []i2ctest.IO{
		{Addr: mgc3130.DefaultBusAddress, W: []byte{0x10, 0x00, 0x00, 0xA2, 0x90}, R: nil},
	})

	err := f.board.WriteBlock(context.Background(), mgc3130.RegRuntimeConfig, []byte{0x00, 0x00, 0xA2, 0x90})
	if err != nil {
		t.Fatalf("WriteBlock failed: %v", err)
	}
	if err := f.bus.Close(); err != nil {
		t.Errorf("bus transactions left over: %v", err)
	}
}

func TestReadBlock_FillsBuffer(t *testing.T) {
	want := make([]byte, mgc3130.FrameWindow)
	for i := range want {
		want[i] = byte(i * 3)
	}
	f := newFixture(t, []i2ctest.IO{
		{Addr: mgc3130.DefaultBusAddress, W: []byte{0x00}, R: want},
	})

	buf := make([]byte, mgc3130.FrameWindow)
	if err := f.board.ReadBlock(context.Background(), mgc3130.RegFrameBuffer, buf); err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("buf = % X, want % X", buf, want)
	}
}

func TestReadBlock_BusError(t *testing.T) {
	// No scripted transactions, so any bus access fails
	f := newFixture(t, nil)

	buf := make([]byte, 4)
	if err := f.board.ReadBlock(context.Background(), 0x00, buf); err == nil {
		t.Error("expected error from exhausted bus")
	}
}

func TestContextCancelled_SkipsBus(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.board.WriteBlock(ctx, 0x10, []byte{0x01}); !errors.Is(err, context.Canceled) {
		t.Errorf("WriteBlock error = %v, want context.Canceled", err)
	}
	if err := f.board.ReadBlock(ctx, 0x00, make([]byte, 4)); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadBlock error = %v, want context.Canceled", err)
	}
	if err := f.bus.Close(); err != nil {
		t.Errorf("bus should be untouched: %v", err)
	}
}

func TestTransferLineDiscipline(t *testing.T) {
	f := newFixture(t, nil)

	f.xfer.L = gpio.High
	asserted, err := f.board.TransferAsserted()
	if err != nil {
		t.Fatalf("TransferAsserted failed: %v", err)
	}
	if asserted {
		t.Error("line high should read as not asserted")
	}

	f.xfer.L = gpio.Low
	asserted, _ = f.board.TransferAsserted()
	if !asserted {
		t.Error("line low should read as asserted")
	}

	if err := f.board.FreezeTransfer(); err != nil {
		t.Fatalf("FreezeTransfer failed: %v", err)
	}
	if f.xfer.L != gpio.Low {
		t.Error("freeze should drive the line low")
	}

	if err := f.board.ReleaseTransfer(); err != nil {
		t.Fatalf("ReleaseTransfer failed: %v", err)
	}
	if f.xfer.L != gpio.High {
		t.Error("release should drive the line high before floating it")
	}
	if f.xfer.P != gpio.PullUp {
		t.Errorf("release should return to pull-up input, got %v", f.xfer.P)
	}
}

func TestSetReset_Levels(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.board.SetReset(true); err != nil {
		t.Fatalf("SetReset(true) failed: %v", err)
	}
	if f.rst.L != gpio.Low {
		t.Error("asserted reset should drive low")
	}

	if err := f.board.SetReset(false); err != nil {
		t.Fatalf("SetReset(false) failed: %v", err)
	}
	if f.rst.L != gpio.High {
		t.Error("deasserted reset should drive high")
	}
}

func TestTone_PWMMapping(t *testing.T) {
	f := newFixture(t, nil)

	// Frequency alone stays muted
	if err := f.board.SetFrequency(2500); err != nil {
		t.Fatalf("SetFrequency failed: %v", err)
	}
	if f.tone.pwmCalls != 0 {
		t.Error("PWM should not start with zero duty")
	}
	if f.tone.L != gpio.Low {
		t.Error("tone should stay muted with zero duty")
	}

	if err := f.board.SetDuty(65535); err != nil {
		t.Fatalf("SetDuty failed: %v", err)
	}
	if f.tone.pwmCalls != 1 {
		t.Fatalf("pwmCalls = %d, want 1", f.tone.pwmCalls)
	}
	if f.tone.duty != gpio.DutyMax {
		t.Errorf("duty = %d, want %d", f.tone.duty, gpio.DutyMax)
	}
	if f.tone.freq != 2500*physic.Hertz {
		t.Errorf("freq = %v, want %v", f.tone.freq, 2500*physic.Hertz)
	}

	wantHalf := gpio.Duty(uint64(32768) * uint64(gpio.DutyMax) / 65535)
	if err := f.board.SetDuty(32768); err != nil {
		t.Fatalf("SetDuty failed: %v", err)
	}
	if f.tone.duty != wantHalf {
		t.Errorf("duty = %d, want %d", f.tone.duty, wantHalf)
	}

	// Duty zero mutes again
	if err := f.board.SetDuty(0); err != nil {
		t.Fatalf("SetDuty(0) failed: %v", err)
	}
	if f.tone.L != gpio.Low {
		t.Error("zero duty should mute the pin")
	}
}

func TestSetFrequency_Negative(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.board.SetFrequency(-1); err == nil {
		t.Error("expected error for negative frequency")
	}
}

func TestClose_ParksLines(t *testing.T) {
	f := newFixture(t, nil)

	f.board.SetFrequency(1000)
	f.board.SetDuty(30000)

	if err := f.board.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !f.freed {
		t.Error("Close should close the bus")
	}
	if f.tone.L != gpio.Low {
		t.Error("Close should mute the tone pin")
	}
	if f.xfer.P != gpio.PullUp {
		t.Error("Close should release the transfer line")
	}
}

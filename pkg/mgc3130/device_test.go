// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgc3130

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// recordSleep returns a sleep option that records requested durations
// without waiting, still honoring context cancellation.
func recordSleep(log *[]time.Duration) Option {
	return withSleep(func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		*log = append(*log, d)
		return nil
	})
}

// ============================================================
// Reset Tests
// ============================================================

func TestReset_Sequence(t *testing.T) {
	hal := &testHAL{}
	var sleeps []time.Duration
	dev := New(hal, recordSleep(&sleeps))

	if err := dev.Reset(context.Background()); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if !reflect.DeepEqual(hal.resets, []bool{true, false}) {
		t.Errorf("Expected assert then release, got %v", hal.resets)
	}
	want := []time.Duration{100 * time.Millisecond, 500 * time.Millisecond}
	if !reflect.DeepEqual(sleeps, want) {
		t.Errorf("Expected hold and settle delays %v, got %v", want, sleeps)
	}
	// The hold must happen between assert and release.
	wantCalls := []string{"reset:true", "reset:false"}
	if !reflect.DeepEqual(hal.calls, wantCalls) {
		t.Errorf("Expected calls %v, got %v", wantCalls, hal.calls)
	}
}

func TestReset_Cancelled(t *testing.T) {
	hal := &testHAL{}
	dev := New(hal) // real sleeps, cancelled context cuts them short
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := dev.Reset(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// ============================================================
// Configure Tests
// ============================================================

// The four runtime writes, bit-exact: command id 0xA2, parameter address,
// and two little-endian 32-bit arguments at offsets 7 and 11.
var wantConfigWrites = [][]byte{
	{0x00, 0x00, 0xA2, 0x90, 0x00, 0x00, 0x00, 0x20, 0x00, 0x00, 0x00, 0x20, 0x00, 0x00, 0x00},
	{0x00, 0x00, 0xA2, 0x85, 0x00, 0x00, 0x00, 0x7F, 0x00, 0x00, 0x00, 0x7F, 0x00, 0x00, 0x00},
	{0x00, 0x00, 0xA2, 0xA0, 0x00, 0x00, 0x00, 0x1F, 0x00, 0x00, 0x00, 0x1F, 0x00, 0x00, 0x00},
	{0x00, 0x00, 0xA2, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1F, 0x00, 0x00, 0x00},
}

func TestConfigure_WritesExactCommands(t *testing.T) {
	hal := &testHAL{autoAck: true}
	var sleeps []time.Duration
	dev := New(hal, recordSleep(&sleeps))

	if err := dev.Configure(context.Background()); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	if len(hal.writes) != 4 {
		t.Fatalf("Expected 4 runtime writes, got %d", len(hal.writes))
	}
	for i, want := range wantConfigWrites {
		if !reflect.DeepEqual(hal.writes[i], want) {
			t.Errorf("Write %d mismatch:\n  expected % X\n  got      % X", i, want, hal.writes[i])
		}
	}
	if n := hal.countCalls("write:0x10"); n != 4 {
		t.Errorf("Expected 4 writes to register 0x10, got %d (calls %v)", n, hal.calls)
	}
}

func TestConfigure_StatusTimeout(t *testing.T) {
	hal := &testHAL{} // never acknowledges
	var sleeps []time.Duration
	dev := New(hal, recordSleep(&sleeps))

	err := dev.Configure(context.Background())
	if err == nil {
		t.Fatal("Expected configuration to fail")
	}
	if !errors.Is(err, ErrStatusTimeout) {
		t.Errorf("Expected ErrStatusTimeout, got %v", err)
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %T", err)
	}
	if cfgErr.Step != "air wheel" {
		t.Errorf("Expected failure at step 'air wheel', got %q", cfgErr.Step)
	}

	// The wait is bounded: exactly statusRetries line samples and
	// inter-try delays, then give up.
	if n := hal.countCalls("assert"); n != DefaultStatusRetries {
		t.Errorf("Expected %d line samples, got %d", DefaultStatusRetries, n)
	}
	if len(sleeps) != DefaultStatusRetries {
		t.Errorf("Expected %d delays, got %d", DefaultStatusRetries, len(sleeps))
	}
	for _, d := range sleeps {
		if d != DefaultStatusInterval {
			t.Errorf("Expected %v delay, got %v", DefaultStatusInterval, d)
		}
	}
}

func TestConfigure_RetryBudgetOption(t *testing.T) {
	hal := &testHAL{}
	var sleeps []time.Duration
	dev := New(hal, recordSleep(&sleeps), WithStatusRetries(3), WithStatusInterval(5*time.Millisecond))

	err := dev.Configure(context.Background())
	if !errors.Is(err, ErrStatusTimeout) {
		t.Fatalf("Expected ErrStatusTimeout, got %v", err)
	}
	if n := hal.countCalls("assert"); n != 3 {
		t.Errorf("Expected 3 line samples, got %d", n)
	}
	if len(sleeps) != 3 || sleeps[0] != 5*time.Millisecond {
		t.Errorf("Expected three 5ms delays, got %v", sleeps)
	}
}

func TestConfigure_DropsUnrelatedFrames(t *testing.T) {
	hal := &testHAL{autoAck: true}
	// Stale traffic ahead of the first acknowledgement.
	hal.frames = append(hal.frames,
		sensorWindow(DataAll, SysPositionValid, 0, 0, 0, 1, 2, 3),
		firmwareWindow("1.0"),
	)
	var sleeps []time.Duration
	dev := New(hal, recordSleep(&sleeps))

	if err := dev.Configure(context.Background()); err != nil {
		t.Fatalf("Configure failed with stale frames queued: %v", err)
	}
	if len(hal.writes) != 4 {
		t.Errorf("Expected all 4 steps to complete, got %d", len(hal.writes))
	}
}

func TestConfigure_SecondStepTimesOut(t *testing.T) {
	// Acknowledge only the first write.
	hal := &testHAL{}
	hal.frames = append(hal.frames, statusWindow(CmdSetRuntime))
	var sleeps []time.Duration
	dev := New(hal, recordSleep(&sleeps))

	err := dev.Configure(context.Background())
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %v", err)
	}
	if cfgErr.Step != "gestures" {
		t.Errorf("Expected failure at step 'gestures', got %q", cfgErr.Step)
	}
	if len(hal.writes) != 2 {
		t.Errorf("Expected configuration to stop after the failed step, got %d writes", len(hal.writes))
	}
}

func TestConfigure_BusWriteError(t *testing.T) {
	hal := &testHAL{}
	busFail := errors.New("nack")
	hal.writeErr = busFail
	var sleeps []time.Duration
	dev := New(hal, recordSleep(&sleeps))

	err := dev.Configure(context.Background())
	if !errors.Is(err, busFail) {
		t.Errorf("Expected wrapped bus error, got %v", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Step != "air wheel" {
		t.Errorf("Expected *ConfigError for 'air wheel', got %v", err)
	}
	if n := hal.countCalls("assert"); n != 0 {
		t.Errorf("Expected no status wait after a failed write, got %d samples", n)
	}
}

func TestConfigure_MismatchedCommandIgnored(t *testing.T) {
	// A status frame echoing some other command id must not satisfy the
	// wait.
	hal := &testHAL{}
	hal.frames = append(hal.frames, statusWindow(0x13))
	var sleeps []time.Duration
	dev := New(hal, recordSleep(&sleeps))

	err := dev.Configure(context.Background())
	if !errors.Is(err, ErrStatusTimeout) {
		t.Errorf("Expected timeout with mismatched ack, got %v", err)
	}
}

// ============================================================
// Poll Tests
// ============================================================

func TestPoll_DeliversEventsInOrder(t *testing.T) {
	hal := &testHAL{}
	hal.frames = append(hal.frames,
		sensorWindow(DataAll, SysPositionValid|SysAirWheelValid, 6, 1<<9, 0x20, 0x8080, 0x8080, 0x8080),
		sensorWindow(DataAll, 0, 2, 0, 0, 0, 0, 0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel once the queue drains so Poll's idle sleep ends the loop.
	dev := New(hal, withSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	var got []Event
	err := dev.Poll(ctx, func(ev Event) { got = append(got, ev) })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	want := []Event{
		PositionSample{X: 0.502, Y: 0.502, Z: 0.502},
		GestureEvent{Code: 6, Kind: GestureCircle, Clockwise: true},
		TouchEvent{TouchTap, Center},
		AirWheelSample{Raw: 0x20},
		GestureEvent{Code: 2, Kind: GestureFlick, From: West, To: East},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Event stream mismatch:\n  expected %v\n  got      %v", want, got)
	}
}

func TestPoll_BusErrorStopsLoop(t *testing.T) {
	hal := &testHAL{}
	hal.frames = append(hal.frames, sensorWindow(DataAll, 0, 2, 0, 0, 0, 0, 0))
	busFail := errors.New("bus dropped")
	hal.readErr = busFail
	var sleeps []time.Duration
	dev := New(hal, recordSleep(&sleeps))

	err := dev.Poll(context.Background(), func(Event) {})
	if !errors.Is(err, busFail) {
		t.Fatalf("Expected wrapped bus error, got %v", err)
	}
	if dev.Stats().BusErrors != 1 {
		t.Errorf("Expected 1 recorded bus error, got %d", dev.Stats().BusErrors)
	}
}

func TestPoll_StatsRecording(t *testing.T) {
	hal := &testHAL{}
	hal.frames = append(hal.frames,
		sensorWindow(DataAll, SysPositionValid|SysAirWheelValid, 6, 1<<9, 0x20, 1, 2, 3),
		firmwareWindow("1.0"),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dev := New(hal, withSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_ = dev.Poll(ctx, func(Event) {})

	s := dev.Stats()
	if s.Frames != 2 || s.SensorFrames != 1 || s.FirmwareFrames != 1 {
		t.Errorf("Frame counters wrong: %+v", *s)
	}
	if s.Positions != 1 || s.Gestures != 1 || s.Touches != 1 || s.AirWheels != 1 {
		t.Errorf("Event counters wrong: %+v", *s)
	}
}

// ============================================================
// ReadEvents Tests
// ============================================================

func TestReadEvents_NoFramePending(t *testing.T) {
	dev := New(&testHAL{})
	events, err := dev.ReadEvents(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if events != nil {
		t.Errorf("Expected nil events, got %v", events)
	}
}

func TestReadEvents_SingleTick(t *testing.T) {
	hal := &testHAL{}
	hal.frames = append(hal.frames, sensorWindow(DataAll, 0, 7, 0, 0, 0, 0, 0))
	dev := New(hal)

	events, err := dev.ReadEvents(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []Event{GestureEvent{Code: 7, Kind: GestureCircle, Clockwise: false}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("Expected %v, got %v", want, events)
	}
}

// ============================================================
// Error Type Tests
// ============================================================

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Step: "gestures", Err: ErrStatusTimeout}
	want := "configure gestures: no status acknowledgement"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, ErrStatusTimeout) {
		t.Error("Expected ConfigError to unwrap to ErrStatusTimeout")
	}
}

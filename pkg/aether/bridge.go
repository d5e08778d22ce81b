// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package aether

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// StatusError is a non-zero acknowledgement from the bridge.
type StatusError struct {
	Status uint8
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("bridge rejected request: %s: %s", FormatStatus(e.Status), e.Detail)
	}
	return fmt.Sprintf("bridge rejected request: %s", FormatStatus(e.Status))
}

// Bridge is a synchronous client for a remote sensor bridge. It speaks
// the Aether protocol over any byte stream and exposes the sensor's bus
// and lines as driver-facing methods, so a *Bridge serves directly as the
// driver's HAL and as a tone speaker.
//
// Round trips are serialized; concurrent callers queue on an internal
// lock. An in-flight read blocks until the bridge answers or the
// underlying connection fails, so cancelling a stuck bridge means closing
// the connection.
type Bridge struct {
	mu   sync.Mutex
	conn io.ReadWriteCloser
	dec  *Decoder
	log  *slog.Logger
	buf  []byte
}

// BridgeOption adjusts Bridge construction.
type BridgeOption func(*Bridge)

// WithLogger sets the logger for protocol-level diagnostics.
func WithLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) { b.log = l }
}

// NewBridge wraps a connection to bridge firmware.
func NewBridge(conn io.ReadWriteCloser, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		conn: conn,
		dec:  NewDecoder(),
		log:  slog.Default().With("component", "aether"),
		buf:  make([]byte, MaxPacketSize*2),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Close closes the underlying connection, failing any in-flight round
// trip.
func (b *Bridge) Close() error {
	return b.conn.Close()
}

// roundTrip sends one request and reads until the expected response type
// arrives. Error acknowledgements surface as *StatusError; packets with
// other types are skipped.
func (b *Bridge) roundTrip(req *Packet, wantType uint8) (*Packet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wire, err := Encode(req)
	if err != nil {
		return nil, err
	}
	if _, err := b.conn.Write(wire); err != nil {
		return nil, fmt.Errorf("bridge write: %w", err)
	}

	for {
		n, err := b.conn.Read(b.buf)
		if err != nil {
			return nil, fmt.Errorf("bridge read: %w", err)
		}
		for _, c := range b.buf[:n] {
			pkt, derr := b.dec.DecodeByte(c)
			if derr != nil {
				b.log.Debug("decode error", "err", derr)
				continue
			}
			if pkt == nil {
				continue
			}

			if issues := ValidatePacket(pkt); len(issues) > 0 {
				if pkt.Type() == wantType || pkt.Type() == MsgAck {
					return nil, fmt.Errorf("malformed %s: %s",
						FormatMessageType(pkt.Type()), issues[0].Message)
				}
				b.log.Debug("dropping malformed packet",
					"type", FormatMessageType(pkt.Type()),
					"issue", issues[0].Message)
				continue
			}

			if pkt.Type() == MsgAck {
				status, _ := GetMapUint(pkt.PayloadMap(), 0)
				if status != StatusOK {
					detail, _ := GetMapString(pkt.PayloadMap(), 1)
					return nil, &StatusError{Status: uint8(status), Detail: detail}
				}
				if wantType == MsgAck {
					return pkt, nil
				}
				b.log.Debug("unexpected acknowledgement", "want", FormatMessageType(wantType))
				continue
			}
			if pkt.Type() == wantType {
				return pkt, nil
			}
			b.log.Debug("skipping packet",
				"got", FormatMessageType(pkt.Type()),
				"want", FormatMessageType(wantType))
		}
	}
}

// WriteBlock writes data to a sensor register through the bridge.
func (b *Bridge) WriteBlock(ctx context.Context, reg uint8, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.roundTrip(NewBusWrite(reg, data), MsgAck)
	return err
}

// ReadBlock fills buf from a sensor register through the bridge.
func (b *Bridge) ReadBlock(ctx context.Context, reg uint8, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := b.roundTrip(NewBusRead(reg, len(buf)), MsgBusData)
	if err != nil {
		return err
	}
	data, ok := GetMapBytes(resp.PayloadMap(), 0)
	if !ok {
		return fmt.Errorf("bus data response without data")
	}
	if len(data) != len(buf) {
		return fmt.Errorf("short bus read: expected %d bytes, got %d", len(buf), len(data))
	}
	copy(buf, data)
	return nil
}

// TransferAsserted samples the transfer line through the bridge.
func (b *Bridge) TransferAsserted() (bool, error) {
	resp, err := b.roundTrip(NewLineQuery(LineTransfer), MsgLineState)
	if err != nil {
		return false, err
	}
	low, ok := GetMapBool(resp.PayloadMap(), 1)
	if !ok {
		return false, fmt.Errorf("line state response without level")
	}
	return low, nil
}

// FreezeTransfer drives the transfer line low through the bridge.
func (b *Bridge) FreezeTransfer() error {
	_, err := b.roundTrip(NewLineDrive(LineTransfer, true), MsgAck)
	return err
}

// ReleaseTransfer returns the transfer line to the sensor's control.
func (b *Bridge) ReleaseTransfer() error {
	_, err := b.roundTrip(NewLineRelease(LineTransfer), MsgAck)
	return err
}

// SetReset drives the reset line; asserted means held low.
func (b *Bridge) SetReset(asserted bool) error {
	_, err := b.roundTrip(NewLineDrive(LineReset, asserted), MsgAck)
	return err
}

// SetFrequency sets the bridge speaker's PWM frequency in hertz.
func (b *Bridge) SetFrequency(hz int) error {
	_, err := b.roundTrip(NewToneFrequency(hz), MsgAck)
	return err
}

// SetDuty sets the bridge speaker's PWM duty level.
func (b *Bridge) SetDuty(level uint16) error {
	_, err := b.roundTrip(NewToneDuty(level), MsgAck)
	return err
}

// Ping measures one request round trip. It returns the bridge's reported
// uptime and the observed round-trip time.
func (b *Bridge) Ping() (uptime, rtt time.Duration, err error) {
	start := time.Now()
	resp, err := b.roundTrip(NewPingRequest(), MsgPingResponse)
	if err != nil {
		return 0, 0, err
	}
	rtt = time.Since(start)
	ms, ok := GetMapUint(resp.PayloadMap(), 0)
	if !ok {
		return 0, rtt, fmt.Errorf("ping response without uptime")
	}
	return time.Duration(ms) * time.Millisecond, rtt, nil
}

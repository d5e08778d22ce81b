// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgc3130

import "context"

// HAL is the hardware boundary the driver runs on: a register-addressed
// two-wire bus, the shared transfer-ready line, and the reset line.
//
// The transfer line is open-drain in spirit: idle it floats high through a
// pull-up and the sensor pulls it low to signal a pending frame. The host
// freezes the sensor's output buffer by actively driving the line low and
// releases it by driving high then returning to input-with-pull-up.
// FreezeTransfer and ReleaseTransfer must implement that discipline;
// TransferAsserted reports true while the line reads low.
type HAL interface {
	// WriteBlock writes data to a device register in one bus transaction.
	WriteBlock(ctx context.Context, reg uint8, data []byte) error
	// ReadBlock fills buf from a device register in one bus transaction.
	ReadBlock(ctx context.Context, reg uint8, buf []byte) error

	// TransferAsserted reports whether the transfer line reads low.
	TransferAsserted() (bool, error)
	// FreezeTransfer drives the transfer line low, holding the sensor's
	// frame buffer stable for reading.
	FreezeTransfer() error
	// ReleaseTransfer returns the transfer line to the sensor's control.
	ReleaseTransfer() error

	// SetReset drives the reset line; asserted means held in reset.
	SetReset(asserted bool) error
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgc3130

import (
	"context"
	"fmt"
)

// Transport reads frame windows over a HAL using the transfer-line
// handshake: check the line, freeze it, read the window, release.
type Transport struct {
	hal HAL
}

// NewTransport wraps a HAL for frame reads.
func NewTransport(hal HAL) *Transport {
	return &Transport{hal: hal}
}

// TryRead fetches one frame window if the sensor is signalling data.
// ok is false when no frame was pending. The transfer line is released on
// every path once frozen; a frozen line stalls the sensor forever. When
// the window was read but the release fails, the release error wins and
// the window is dropped.
func (t *Transport) TryRead(ctx context.Context) (raw []byte, ok bool, err error) {
	asserted, err := t.hal.TransferAsserted()
	if err != nil {
		return nil, false, fmt.Errorf("transfer line: %w", err)
	}
	if !asserted {
		return nil, false, nil
	}

	if err := t.hal.FreezeTransfer(); err != nil {
		return nil, false, fmt.Errorf("freeze transfer line: %w", err)
	}
	defer func() {
		relErr := t.hal.ReleaseTransfer()
		if relErr != nil && err == nil {
			raw, ok = nil, false
			err = fmt.Errorf("release transfer line: %w", relErr)
		}
	}()

	buf := make([]byte, FrameWindow)
	if rdErr := t.hal.ReadBlock(ctx, RegFrameBuffer, buf); rdErr != nil {
		return nil, false, fmt.Errorf("read frame window: %w", rdErr)
	}
	return buf, true, nil
}

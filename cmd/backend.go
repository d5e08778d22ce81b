// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marin Skelhorn

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/skelhorn/aeolian/pkg/aether"
	"github.com/skelhorn/aeolian/pkg/chirp"
	"github.com/skelhorn/aeolian/pkg/hosthal"
	"github.com/skelhorn/aeolian/pkg/mgc3130"
	"github.com/skelhorn/aeolian/pkg/mgc3130/mgctest"
)

// simFirmware is the version string the built-in simulator reports.
const simFirmware = "1.2.14;p:Hillstar"

// Backend is what every command needs from the hardware layer: the sensor
// bus/GPIO surface plus the feedback speaker, whatever transport carries it.
type Backend interface {
	mgc3130.HAL
	chirp.Speaker
	io.Closer
}

// simBackend wraps the simulator so Close also stops its demo loop.
type simBackend struct {
	*mgctest.Sim
	stop context.CancelFunc
}

func (s *simBackend) Close() error {
	s.stop()
	return s.Sim.Close()
}

func parseBusAddr(s string) (uint16, error) {
	addr, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid bus address %q: %v", s, err)
	}
	return uint16(addr), nil
}

// openBackend opens the sensor backend selected by the persistent flags and
// returns it with a human-readable description. Priority: --sim, then a
// bridge board (--url / --port), then the local bus.
func openBackend() (Backend, string, error) {
	if useSim {
		sim := mgctest.NewSim(simFirmware)
		ctx, cancel := context.WithCancel(context.Background())
		sim.StartDemo(ctx)
		return &simBackend{Sim: sim, stop: cancel}, "Simulator", nil
	}

	if wsURL != "" || portName != "" {
		conn, info, err := OpenConnection()
		if err != nil {
			return nil, "", err
		}
		return aether.NewBridge(conn), info, nil
	}

	addr, err := parseBusAddr(busAddr)
	if err != nil {
		return nil, "", err
	}

	board, err := hosthal.Open(hosthal.Config{
		Bus:         busName,
		Addr:        addr,
		ResetPin:    resetPin,
		TransferPin: transferPin,
		TonePin:     tonePin,
	})
	if err != nil {
		return nil, "", err
	}

	info := fmt.Sprintf("Bus: %s @ 0x%02X", board.BusName(), addr)
	return board, info, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package mgctest

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/skelhorn/aeolian/pkg/mgc3130"
)

// StartDemo feeds the simulator with synthetic hand motion until ctx is
// cancelled: a slow circling position track, an air-wheel ramp, and the
// occasional gesture or tap. Useful behind the CLI's --sim backend.
func (s *Sim) StartDemo(ctx context.Context) {
	go s.demoLoop(ctx)
}

func (s *Sim) demoLoop(ctx context.Context) {
	const framePeriod = 20 * time.Millisecond

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(framePeriod)
	defer ticker.Stop()

	var (
		phase float64
		wheel uint8
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// Let the consumer drain before piling on more frames.
		if s.Pending() > 4 {
			continue
		}

		phase += 0.05
		wheel += 1

		r := SensorReport{
			Flags:    mgc3130.SysPositionValid | mgc3130.SysAirWheelValid,
			AirWheel: wheel,
			X:        uint16(32768 + 20000*math.Sin(phase)),
			Y:        uint16(32768 + 20000*math.Cos(phase)),
			Z:        uint16(24000 + 8000*math.Sin(phase/3)),
		}
		switch rng.Intn(40) {
		case 0:
			r.Gesture = uint8(2 + rng.Intn(6)) // flicks and circles
		case 1:
			r.TouchBits = 1 << uint(rng.Intn(15))
		}
		s.QueueSensor(r)
	}
}

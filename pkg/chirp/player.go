// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package chirp

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	// DefaultVolume is the duty level tones play at before intensity
	// scaling.
	DefaultVolume = 5000

	// warbleStepMs is the length of each jittered tone in a warble.
	warbleStepMs = 35
	// toneSeqGapMs is the silence after each tone in a sequence.
	toneSeqGapMs = 40
)

// Speaker is the tone output a Player renders on. SetDuty(0) silences the
// output.
type Speaker interface {
	SetFrequency(hz int) error
	SetDuty(level uint16) error
}

// Player renders emotions on a Speaker. Play blocks for roughly the span
// of the emotion, so it is usually called from its own goroutine. A Player
// is not safe for concurrent use.
type Player struct {
	spk    Speaker
	volume uint16
	rng    *rand.Rand
	sleep  func(time.Duration)
}

// PlayerOption adjusts a Player at construction time.
type PlayerOption func(*Player)

// WithVolume sets the base duty level, default DefaultVolume.
func WithVolume(level uint16) PlayerOption {
	return func(p *Player) { p.volume = level }
}

// WithRand sets the randomness source used by jittered effects.
func WithRand(rng *rand.Rand) PlayerOption {
	return func(p *Player) { p.rng = rng }
}

func withSleep(fn func(time.Duration)) PlayerOption {
	return func(p *Player) { p.sleep = fn }
}

// NewPlayer wraps spk in a Player.
func NewPlayer(spk Speaker, opts ...PlayerOption) *Player {
	p := &Player{
		spk:    spk,
		volume: DefaultVolume,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play renders e and leaves the speaker muted. The base volume is scaled
// by the emotion's intensity for the duration of the call.
func (p *Player) Play(e Emotion) error {
	saved := p.volume
	p.volume = scaleLevel(p.volume, e.Intensity)
	defer func() { p.volume = saved }()

	switch e.Effect {
	case EffectSlide:
		return p.slide(e.StartFreq, e.EndFreq, e.Duration, e.Steps)
	case EffectWarble:
		return p.warble(e.StartFreq, e.Duration, e.Extra)
	case EffectToneSeq:
		return p.toneSeq(e)
	case EffectCustom:
		return p.custom(e)
	}
	return fmt.Errorf("unknown effect %d", int(e.Effect))
}

// Mute silences the speaker.
func (p *Player) Mute() error {
	return p.spk.SetDuty(0)
}

// tone plays a single note. Frequencies below 1Hz become a rest of the
// same length.
func (p *Player) tone(hz, durationMs int) error {
	if hz < 1 {
		if err := p.spk.SetDuty(0); err != nil {
			return err
		}
		p.sleep(time.Duration(durationMs) * time.Millisecond)
		return nil
	}
	if err := p.spk.SetFrequency(hz); err != nil {
		return err
	}
	if err := p.spk.SetDuty(p.volume); err != nil {
		return err
	}
	p.sleep(time.Duration(durationMs) * time.Millisecond)
	return p.spk.SetDuty(0)
}

func (p *Player) slide(startHz, endHz, totalMs, steps int) error {
	if steps <= 0 {
		return p.tone(endHz, totalMs)
	}
	stepHz := float64(endHz-startHz) / float64(steps)
	stepMs := totalMs / steps
	if stepMs < 1 {
		stepMs = 1
	}
	hz := float64(startHz)
	for i := 0; i < steps; i++ {
		if err := p.tone(int(hz), stepMs); err != nil {
			return err
		}
		hz += stepHz
	}
	return nil
}

func (p *Player) warble(baseHz, totalMs, depth int) error {
	for remaining := totalMs; remaining > 0; remaining -= warbleStepMs {
		if err := p.tone(baseHz+p.between(-depth, depth), warbleStepMs); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) toneSeq(e Emotion) error {
	repeats := e.Repeat
	if repeats < 1 {
		repeats = 1
	}
	for i := 0; i < repeats; i++ {
		hz := e.StartFreq
		if span := e.EndFreq - e.StartFreq; span > 0 {
			hz += p.rng.Intn(span + 1)
		}
		if e.Extra > 0 {
			hz += p.between(-e.Extra, e.Extra)
		}
		if err := p.tone(hz, e.Duration); err != nil {
			return err
		}
		p.sleep(toneSeqGapMs * time.Millisecond)
	}
	return nil
}

// custom dispatches on the emotion name. Names without a strategy play
// nothing.
func (p *Player) custom(e Emotion) error {
	switch {
	case e.Name == "CURIOUS":
		if err := p.slide(e.StartFreq, e.EndFreq, e.Duration, e.Steps); err != nil {
			return err
		}
		return p.slide(e.EndFreq, p.between(500, 800), 200, 10)
	case e.Name == "EXCITED":
		repeats := e.Repeat
		if repeats < 1 {
			repeats = 1
		}
		for i := 0; i < repeats; i++ {
			if err := p.slide(e.StartFreq, e.EndFreq, e.Duration, e.Steps); err != nil {
				return err
			}
		}
		return nil
	case e.Name == "TALK":
		return p.chatter()
	case e.Name == "PURR" || strings.HasPrefix(e.Name, "PURR_"):
		return p.purr(e)
	}
	return nil
}

// chatter plays a short burst of random slides and warbles.
func (p *Player) chatter() error {
	bursts := p.between(3, 6)
	for i := 0; i < bursts; i++ {
		start := p.between(500, 2500)
		end := p.between(500, 2500)
		durationMs := p.between(80, 250)
		var err error
		if p.rng.Intn(2) == 0 {
			err = p.slide(start, end, durationMs, p.between(8, 20))
		} else {
			err = p.warble(start, durationMs, 120)
		}
		if err != nil {
			return err
		}
		p.sleep(time.Duration(p.between(20, 80)) * time.Millisecond)
	}
	return nil
}

// purr alternates loud and quiet pulses until the emotion's duration is
// used up. Steps selects the pulse pattern, Extra the vibrato depth, and
// the quiet half of each pulse sits at roughly a third of the loud level.
func (p *Player) purr(e Emotion) error {
	pulses := purrPattern(e.Steps, p.rng)
	idx := 0
	for remaining := e.Duration; remaining > 0; {
		high, low := pulses[idx][0], pulses[idx][1]
		idx = (idx + 1) % len(pulses)

		hz := e.StartFreq
		if span := e.EndFreq - e.StartFreq; span > 0 {
			hz += p.rng.Intn(span + 1)
		}
		if e.Extra > 0 {
			hz += p.between(-e.Extra, e.Extra)
		}

		highMs := p.between(high-10, high+10)
		if highMs < 1 {
			highMs = 1
		}
		lowMs := p.between(low-5, low+5)
		if lowMs < 1 {
			lowMs = 1
		}

		if err := p.spk.SetFrequency(hz); err != nil {
			return err
		}
		if err := p.spk.SetDuty(scaleLevel(p.volume, e.Intensity*float64(high)/100)); err != nil {
			return err
		}
		p.sleep(time.Duration(highMs) * time.Millisecond)
		if err := p.spk.SetDuty(scaleLevel(p.volume, e.Intensity*0.3*float64(low)/100)); err != nil {
			return err
		}
		p.sleep(time.Duration(lowMs) * time.Millisecond)
		remaining -= highMs + lowMs

		// Occasional rest keeps the texture from sounding mechanical.
		if p.rng.Float64() < 0.1 {
			pauseMs := p.between(5, 20)
			if err := p.spk.SetDuty(0); err != nil {
				return err
			}
			p.sleep(time.Duration(pauseMs) * time.Millisecond)
			remaining -= pauseMs
		}
	}
	return p.Mute()
}

// purrPattern maps the Steps parameter to a loud/quiet pulse sequence,
// each entry a percentage of the scaled volume. Values above 5 generate a
// random pattern.
func purrPattern(steps int, rng *rand.Rand) [][2]int {
	switch steps {
	case 0:
		return [][2]int{{100, 50}}
	case 1:
		return [][2]int{{80, 40}, {60, 30}}
	case 2:
		return [][2]int{{50, 25}, {70, 35}, {90, 45}}
	case 3:
		return [][2]int{{40, 20}, {60, 30}, {80, 40}, {60, 30}}
	case 4:
		return [][2]int{{30, 15}, {50, 25}, {70, 35}, {90, 45}, {70, 35}}
	case 5:
		return [][2]int{{20, 10}, {40, 20}, {60, 30}, {80, 40}, {100, 50}, {80, 40}}
	}
	n := steps / 2
	if n < 2 {
		n = 2
	}
	out := make([][2]int, n)
	for i := range out {
		out[i] = [2]int{30 + rng.Intn(71), 15 + rng.Intn(36)}
	}
	return out
}

// between returns a uniform value in [lo, hi], inclusive on both ends.
func (p *Player) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + p.rng.Intn(hi-lo+1)
}

func scaleLevel(level uint16, factor float64) uint16 {
	v := float64(level) * factor
	if v <= 0 {
		return 0
	}
	if v >= 65535 {
		return 65535
	}
	return uint16(v)
}

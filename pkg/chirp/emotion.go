// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

// Package chirp synthesizes expressive piezo feedback tones. An Emotion
// describes a sound as a handful of frequency and timing parameters, and a
// Player renders it on anything that can set a tone frequency and duty
// level, so the same presets work on a local PWM pin and on a remote
// bridge board.
package chirp

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Effect selects the rendering strategy for an Emotion.
type Effect int

const (
	// EffectSlide sweeps linearly from the start to the end frequency.
	EffectSlide Effect = iota
	// EffectWarble holds near the start frequency with random jitter.
	EffectWarble
	// EffectToneSeq plays short tones at random frequencies in range.
	EffectToneSeq
	// EffectCustom dispatches on the emotion name.
	EffectCustom
)

func (e Effect) String() string {
	switch e {
	case EffectSlide:
		return "SLIDE"
	case EffectWarble:
		return "WARBLE"
	case EffectToneSeq:
		return "TONE_SEQ"
	case EffectCustom:
		return "CUSTOM"
	}
	return fmt.Sprintf("EFFECT(%d)", int(e))
}

// Emotion is one tone recipe. Frequencies are in hertz, Duration in
// milliseconds. The meaning of Steps, Repeat and Extra depends on the
// effect: slides use Steps as the sweep resolution, warbles use Extra as
// the jitter depth, tone sequences use Repeat and Extra, and purr presets
// reuse Steps as the pulse pattern selector and Extra as vibrato depth.
type Emotion struct {
	Name      string  `json:"name"`
	Effect    Effect  `json:"effect_type"`
	StartFreq int     `json:"start_freq"`
	EndFreq   int     `json:"end_freq"`
	Duration  int     `json:"duration"`
	Steps     int     `json:"steps"`
	Repeat    int     `json:"repeat_count"`
	Extra     int     `json:"extra"`
	Intensity float64 `json:"intensity"`
	Priority  int     `json:"priority"`
	Category  string  `json:"category"`
}

func (e Emotion) String() string {
	return e.Name
}

// Describe returns a one line summary suitable for list displays.
func (e Emotion) Describe() string {
	return fmt.Sprintf("%s %d-%dHz %dms x%d [%s]",
		e.Effect, e.StartFreq, e.EndFreq, e.Duration, e.Repeat, e.Category)
}

// Span returns the nominal playback length. Tone sequences account for the
// inter-tone gaps; custom effects report their configured duration even
// when the strategy stretches it.
func (e Emotion) Span() time.Duration {
	ms := e.Duration
	if e.Effect == EffectToneSeq {
		ms = e.Duration*e.Repeat + toneSeqGapMs*(e.Repeat-1)
	}
	return time.Duration(ms) * time.Millisecond
}

// MixWith blends two emotions into a new one. Numeric parameters are
// interpolated linearly, with weight giving the share of the other
// emotion. When the effects differ the dominant side (weight above 0.5)
// wins. The name defaults to a combination of the two input names and can
// be overridden with customName. Weight is clamped to [0, 1].
func (e Emotion) MixWith(other Emotion, weight float64, customName string) Emotion {
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}

	effect := e.Effect
	if e.Effect != other.Effect && weight > 0.5 {
		effect = other.Effect
	}

	name := customName
	if name == "" {
		switch {
		case weight <= 0.25:
			name = e.Name + "_with_" + other.Name
		case weight >= 0.75:
			name = other.Name + "_with_" + e.Name
		default:
			name = e.Name + "_" + other.Name
		}
	}

	category := e.Category
	if e.Category != other.Category {
		switch {
		case weight <= 0.25:
			category = e.Category
		case weight >= 0.75:
			category = other.Category
		default:
			category = "mixed"
		}
	}

	return Emotion{
		Name:      name,
		Effect:    effect,
		StartFreq: lerp(e.StartFreq, other.StartFreq, weight),
		EndFreq:   lerp(e.EndFreq, other.EndFreq, weight),
		Duration:  lerp(e.Duration, other.Duration, weight),
		Steps:     lerp(e.Steps, other.Steps, weight),
		Repeat:    lerp(e.Repeat, other.Repeat, weight),
		Extra:     lerp(e.Extra, other.Extra, weight),
		Intensity: e.Intensity*(1-weight) + other.Intensity*weight,
		Priority:  lerp(e.Priority, other.Priority, weight),
		Category:  category,
	}
}

func lerp(a, b int, weight float64) int {
	return int(float64(a)*(1-weight) + float64(b)*weight)
}

// Find returns the first emotion in list whose name matches, ignoring
// case.
func Find(list []Emotion, name string) (Emotion, bool) {
	for _, e := range list {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Emotion{}, false
}

// Categories returns the sorted set of categories present in list.
func Categories(list []Emotion) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range list {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	sort.Strings(out)
	return out
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package chirp

import (
	"encoding/json"
	"fmt"
	"os"
)

// Library returns the built-in emotion presets. The slice is a fresh copy,
// so callers may append to or reorder it freely.
func Library() []Emotion {
	return []Emotion{
		{Name: "HAPPY", Effect: EffectSlide, StartFreq: 600, EndFreq: 3500, Duration: 500, Steps: 40, Repeat: 1, Extra: 0, Intensity: 1.0, Priority: 1, Category: "positive"},
		{Name: "SAD", Effect: EffectSlide, StartFreq: 2800, EndFreq: 400, Duration: 700, Steps: 35, Repeat: 1, Extra: 0, Intensity: 0.8, Priority: 2, Category: "negative"},
		{Name: "SURPRISED", Effect: EffectToneSeq, StartFreq: 800, EndFreq: 3000, Duration: 70, Steps: 0, Repeat: 6, Extra: 0, Intensity: 1.2, Priority: 3, Category: "reactive"},
		{Name: "ANGRY", Effect: EffectToneSeq, StartFreq: 2500, EndFreq: 4000, Duration: 50, Steps: 0, Repeat: 15, Extra: 0, Intensity: 1.5, Priority: 5, Category: "negative"},
		{Name: "IRRITATED", Effect: EffectToneSeq, StartFreq: 1500, EndFreq: 2500, Duration: 120, Steps: 0, Repeat: 5, Extra: 80, Intensity: 1.1, Priority: 4, Category: "negative"},
		{Name: "PURR", Effect: EffectCustom, StartFreq: 180, EndFreq: 220, Duration: 2000, Steps: 3, Repeat: 1, Extra: 5, Intensity: 0.7, Priority: 1, Category: "positive"},
		{Name: "PURR_DEEP", Effect: EffectCustom, StartFreq: 120, EndFreq: 180, Duration: 2500, Steps: 5, Repeat: 1, Extra: 8, Intensity: 0.8, Priority: 1, Category: "positive"},
		{Name: "PURR_HIGH", Effect: EffectCustom, StartFreq: 220, EndFreq: 280, Duration: 1800, Steps: 4, Repeat: 1, Extra: 10, Intensity: 0.65, Priority: 1, Category: "positive"},
		{Name: "CURIOUS", Effect: EffectCustom, StartFreq: 600, EndFreq: 2000, Duration: 400, Steps: 20, Repeat: 1, Extra: 0, Intensity: 1.0, Priority: 2, Category: "reactive"},
		{Name: "CONFUSED", Effect: EffectToneSeq, StartFreq: 600, EndFreq: 2600, Duration: 100, Steps: 0, Repeat: 8, Extra: 0, Intensity: 0.9, Priority: 3, Category: "reactive"},
		{Name: "EXCITED", Effect: EffectCustom, StartFreq: 800, EndFreq: 3500, Duration: 150, Steps: 8, Repeat: 5, Extra: 0, Intensity: 1.3, Priority: 4, Category: "positive"},
		{Name: "TIRED", Effect: EffectSlide, StartFreq: 1200, EndFreq: 300, Duration: 1000, Steps: 40, Repeat: 1, Extra: 0, Intensity: 0.6, Priority: 2, Category: "neutral"},
		{Name: "TALK", Effect: EffectCustom, StartFreq: 0, EndFreq: 0, Duration: 0, Steps: 0, Repeat: 1, Extra: 0, Intensity: 1.0, Priority: 1, Category: "neutral"},
	}
}

// UnmarshalJSON fills in the defaults older preset files omit: intensity
// 1.0 and category "default".
func (e *Emotion) UnmarshalJSON(data []byte) error {
	type alias Emotion
	aux := struct {
		Intensity *float64 `json:"intensity"`
		Category  *string  `json:"category"`
		*alias
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Intensity = 1.0
	if aux.Intensity != nil {
		e.Intensity = *aux.Intensity
	}
	e.Category = "default"
	if aux.Category != nil && *aux.Category != "" {
		e.Category = *aux.Category
	}
	return nil
}

// SaveLibrary writes list to path as indented JSON.
func SaveLibrary(path string, list []Emotion) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write presets: %w", err)
	}
	return nil
}

// LoadLibrary reads a preset file written by SaveLibrary or by hand.
func LoadLibrary(path string) ([]Emotion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var list []Emotion
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	return list, nil
}

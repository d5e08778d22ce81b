// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package chirp

import (
	"math"
	"testing"
	"time"
)

func mustFind(t *testing.T, name string) Emotion {
	t.Helper()
	e, ok := Find(Library(), name)
	if !ok {
		t.Fatalf("preset %s missing from library", name)
	}
	return e
}

// ============================================================
// Mixing
// ============================================================

func TestMixWith_Midpoint(t *testing.T) {
	happy := mustFind(t, "HAPPY")
	sad := mustFind(t, "SAD")

	mix := happy.MixWith(sad, 0.5, "")

	if mix.Name != "HAPPY_SAD" {
		t.Errorf("Expected name HAPPY_SAD, got %s", mix.Name)
	}
	if mix.Effect != EffectSlide {
		t.Errorf("Expected SLIDE effect, got %s", mix.Effect)
	}
	if mix.StartFreq != 1700 {
		t.Errorf("Expected start 1700, got %d", mix.StartFreq)
	}
	if mix.EndFreq != 1950 {
		t.Errorf("Expected end 1950, got %d", mix.EndFreq)
	}
	if mix.Duration != 600 {
		t.Errorf("Expected duration 600, got %d", mix.Duration)
	}
	if mix.Steps != 37 {
		t.Errorf("Expected steps 37, got %d", mix.Steps)
	}
	if math.Abs(mix.Intensity-0.9) > 1e-9 {
		t.Errorf("Expected intensity 0.9, got %f", mix.Intensity)
	}
	if mix.Priority != 1 {
		t.Errorf("Expected priority 1, got %d", mix.Priority)
	}
	if mix.Category != "mixed" {
		t.Errorf("Expected category mixed, got %s", mix.Category)
	}
}

func TestMixWith_EffectDominance(t *testing.T) {
	happy := mustFind(t, "HAPPY")
	angry := mustFind(t, "ANGRY")

	tests := []struct {
		name   string
		weight float64
		want   Effect
	}{
		{"first dominates", 0.3, EffectSlide},
		{"tie keeps first", 0.5, EffectSlide},
		{"second dominates", 0.7, EffectToneSeq},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mix := happy.MixWith(angry, tt.weight, "")
			if mix.Effect != tt.want {
				t.Errorf("Expected effect %s, got %s", tt.want, mix.Effect)
			}
		})
	}
}

func TestMixWith_Names(t *testing.T) {
	happy := mustFind(t, "HAPPY")
	sad := mustFind(t, "SAD")

	tests := []struct {
		name   string
		weight float64
		custom string
		want   string
	}{
		{"light blend", 0.25, "", "HAPPY_with_SAD"},
		{"heavy blend", 0.75, "", "SAD_with_HAPPY"},
		{"even blend", 0.4, "", "HAPPY_SAD"},
		{"custom name wins", 0.5, "BITTERSWEET", "BITTERSWEET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mix := happy.MixWith(sad, tt.weight, tt.custom)
			if mix.Name != tt.want {
				t.Errorf("Expected name %s, got %s", tt.want, mix.Name)
			}
		})
	}
}

func TestMixWith_Categories(t *testing.T) {
	happy := mustFind(t, "HAPPY")
	purr := mustFind(t, "PURR")
	sad := mustFind(t, "SAD")

	if mix := happy.MixWith(purr, 0.5, ""); mix.Category != "positive" {
		t.Errorf("Expected shared category to survive, got %s", mix.Category)
	}
	if mix := happy.MixWith(sad, 0.2, ""); mix.Category != "positive" {
		t.Errorf("Expected first category at low weight, got %s", mix.Category)
	}
	if mix := happy.MixWith(sad, 0.8, ""); mix.Category != "negative" {
		t.Errorf("Expected second category at high weight, got %s", mix.Category)
	}
	if mix := happy.MixWith(sad, 0.5, ""); mix.Category != "mixed" {
		t.Errorf("Expected mixed category at even weight, got %s", mix.Category)
	}
}

func TestMixWith_WeightClamped(t *testing.T) {
	happy := mustFind(t, "HAPPY")
	sad := mustFind(t, "SAD")

	low := happy.MixWith(sad, -1, "")
	if low.StartFreq != happy.StartFreq {
		t.Errorf("Expected negative weight to clamp to first emotion, got start %d", low.StartFreq)
	}
	if low.Name != "HAPPY_with_SAD" {
		t.Errorf("Expected name HAPPY_with_SAD, got %s", low.Name)
	}

	high := happy.MixWith(sad, 2, "")
	if high.StartFreq != sad.StartFreq {
		t.Errorf("Expected oversized weight to clamp to second emotion, got start %d", high.StartFreq)
	}
	if high.Name != "SAD_with_HAPPY" {
		t.Errorf("Expected name SAD_with_HAPPY, got %s", high.Name)
	}
}

// ============================================================
// Spans and formatting
// ============================================================

func TestSpan(t *testing.T) {
	tests := []struct {
		preset string
		want   time.Duration
	}{
		{"HAPPY", 500 * time.Millisecond},
		{"SURPRISED", 620 * time.Millisecond},
		{"ANGRY", 1310 * time.Millisecond},
		{"TALK", 0},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			e := mustFind(t, tt.preset)
			if got := e.Span(); got != tt.want {
				t.Errorf("Expected span %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEffectString(t *testing.T) {
	tests := []struct {
		effect Effect
		want   string
	}{
		{EffectSlide, "SLIDE"},
		{EffectWarble, "WARBLE"},
		{EffectToneSeq, "TONE_SEQ"},
		{EffectCustom, "CUSTOM"},
		{Effect(9), "EFFECT(9)"},
	}

	for _, tt := range tests {
		if got := tt.effect.String(); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}

func TestDescribe(t *testing.T) {
	happy := mustFind(t, "HAPPY")
	got := happy.Describe()
	if got != "SLIDE 600-3500Hz 500ms x1 [positive]" {
		t.Errorf("Unexpected description: %s", got)
	}
}

// ============================================================
// Library lookups
// ============================================================

func TestLibraryPresets(t *testing.T) {
	lib := Library()
	if len(lib) != 13 {
		t.Fatalf("Expected 13 presets, got %d", len(lib))
	}

	seen := make(map[string]bool)
	for _, e := range lib {
		if seen[e.Name] {
			t.Errorf("Duplicate preset name %s", e.Name)
		}
		seen[e.Name] = true
		if e.Intensity <= 0 {
			t.Errorf("Preset %s has non-positive intensity %f", e.Name, e.Intensity)
		}
		if e.Category == "" {
			t.Errorf("Preset %s has no category", e.Name)
		}
	}

	happy := mustFind(t, "HAPPY")
	want := Emotion{
		Name: "HAPPY", Effect: EffectSlide,
		StartFreq: 600, EndFreq: 3500, Duration: 500,
		Steps: 40, Repeat: 1, Extra: 0,
		Intensity: 1.0, Priority: 1, Category: "positive",
	}
	if happy != want {
		t.Errorf("Expected %+v, got %+v", want, happy)
	}
}

func TestLibraryReturnsCopy(t *testing.T) {
	lib := Library()
	lib[0].Name = "CLOBBERED"
	if fresh := Library(); fresh[0].Name != "HAPPY" {
		t.Errorf("Library presets leaked a mutation: %s", fresh[0].Name)
	}
}

func TestFind(t *testing.T) {
	lib := Library()

	e, ok := Find(lib, "purr_deep")
	if !ok {
		t.Fatal("Expected case-insensitive lookup to succeed")
	}
	if e.Name != "PURR_DEEP" {
		t.Errorf("Expected PURR_DEEP, got %s", e.Name)
	}

	if _, ok := Find(lib, "GRUMPY"); ok {
		t.Error("Expected lookup of unknown name to fail")
	}
}

func TestCategories(t *testing.T) {
	got := Categories(Library())
	want := []string{"negative", "neutral", "positive", "reactive"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
}

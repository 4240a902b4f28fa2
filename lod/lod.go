// Package lod selects the quality tier an asset should be loaded at,
// based on camera distance and asset kind. The selector is a pure
// function of its configuration; it never performs blending itself,
// it only tells the caller when a smooth transition is advisable.
package lod

import "github.com/hupe1980/streamgo/model"

// Config holds per-kind distance thresholds in meters. An asset closer
// than the high threshold gets LodHigh, closer than the medium threshold
// LodMedium, otherwise LodLow.
type Config struct {
	MeshHighDistance      float32
	MeshMediumDistance    float32
	TextureHighDistance   float32
	TextureMediumDistance float32
	AudioHighDistance     float32
	AudioMediumDistance   float32

	// Dynamic disables tier selection entirely when false; everything
	// is served at LodHigh.
	Dynamic bool
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return ConfigFromDistances(50, 150)
}

// ConfigFromDistances derives a full per-kind config from the two mesh
// thresholds: textures switch tiers at 60% of the mesh distances, audio
// at double (audible well past the point where geometry detail matters).
func ConfigFromDistances(high, medium float32) Config {
	return Config{
		MeshHighDistance:      high,
		MeshMediumDistance:    medium,
		TextureHighDistance:   high * 0.6,
		TextureMediumDistance: medium * 0.6,
		AudioHighDistance:     high * 2,
		AudioMediumDistance:   medium * 2,
		Dynamic:               true,
	}
}

// Selector maps distances to quality tiers.
type Selector struct {
	cfg Config
}

// NewSelector creates a Selector with the given thresholds.
func NewSelector(cfg Config) *Selector {
	return &Selector{cfg: cfg}
}

// Config returns the active configuration.
func (s *Selector) Config() Config { return s.cfg }

func (s *Selector) thresholds(kind model.AssetKind) (high, medium float32) {
	switch kind {
	case model.KindTexture:
		return s.cfg.TextureHighDistance, s.cfg.TextureMediumDistance
	case model.KindAudio:
		return s.cfg.AudioHighDistance, s.cfg.AudioMediumDistance
	default:
		return s.cfg.MeshHighDistance, s.cfg.MeshMediumDistance
	}
}

// Select returns the quality tier for an asset of the given kind at the
// given camera distance.
func (s *Selector) Select(distance float32, kind model.AssetKind) model.LodLevel {
	if !s.cfg.Dynamic {
		return model.LodHigh
	}

	high, medium := s.thresholds(kind)
	switch {
	case distance <= high:
		return model.LodHigh
	case distance <= medium:
		return model.LodMedium
	default:
		return model.LodLow
	}
}

// SelectAdvanced refines Select with on-screen size and system
// performance. A very small on-screen footprint downgrades one tier;
// sustained low performance (factor < 0.5) downgrades one more.
func (s *Selector) SelectAdvanced(distance float32, kind model.AssetKind, screenSize, performance float32) model.LodLevel {
	level := s.Select(distance, kind)

	switch {
	case level == model.LodHigh && screenSize < 0.1:
		level = model.LodMedium
	case level == model.LodMedium && screenSize < 0.05:
		level = model.LodLow
	}

	if performance < 0.5 && level > model.LodLow {
		level--
	}

	return level
}

// SmoothTransition reports whether the distance sits inside a band of
// 20% around a tier boundary, signaling the caller to blend rather than
// hard-switch. The selector performs no blending itself.
func (s *Selector) SmoothTransition(distance float32, kind model.AssetKind) bool {
	high, medium := s.thresholds(kind)

	highBand := high * 0.2
	mediumBand := medium * 0.2

	return (distance >= high-highBand && distance <= high+highBand) ||
		(distance >= medium-mediumBand && distance <= medium+mediumBand)
}

// TransitionDistance returns the distance at which the given tier pair
// switches. For the High/Low pair it returns the midpoint of the two
// boundaries.
func (s *Selector) TransitionDistance(kind model.AssetKind, from, to model.LodLevel) float32 {
	high, medium := s.thresholds(kind)

	switch {
	case from == to:
		return 0
	case (from == model.LodHigh && to == model.LodMedium) || (from == model.LodMedium && to == model.LodHigh):
		return high
	case (from == model.LodMedium && to == model.LodLow) || (from == model.LodLow && to == model.LodMedium):
		return medium
	default:
		return (high + medium) / 2
	}
}

// QualityFactor returns the relative detail budget of a tier: full for
// high, half for medium, a quarter for low.
func QualityFactor(level model.LodLevel) float32 {
	switch level {
	case model.LodHigh:
		return 1.0
	case model.LodMedium:
		return 0.5
	default:
		return 0.25
	}
}

// Package priority scores how urgently an asset should be resident in
// memory. The scorer is pure: every factor is derived from explicit
// inputs, and a weighted sum in [0,1] maps onto the six streaming tiers
// through fixed thresholds.
package priority

import (
	"math"
	"strings"
	"time"

	"github.com/hupe1980/streamgo/model"
)

// Weights control the contribution of each factor to the final score.
// The defaults sum to 1.0; custom weights should too, or scores drift
// out of the tier thresholds' intended range.
type Weights struct {
	Distance      float32
	ViewAngle     float32
	ScreenSize    float32
	MovementSpeed float32
	Recency       float32
	Importance    float32
}

// DefaultWeights returns the stock factor weights.
func DefaultWeights() Weights {
	return Weights{
		Distance:      0.3,
		ViewAngle:     0.2,
		ScreenSize:    0.25,
		MovementSpeed: 0.1,
		Recency:       0.1,
		Importance:    0.05,
	}
}

// Config parameterizes the scorer.
type Config struct {
	Weights Weights

	// MaxDistance is the hard visibility horizon in meters; assets
	// beyond it are PriorityInvisible regardless of other factors.
	MaxDistance float32

	// MaxAge is the window over which the recency factor decays to zero.
	MaxAge time.Duration
}

// DefaultConfig returns the stock scorer configuration.
func DefaultConfig() Config {
	return Config{
		Weights:     DefaultWeights(),
		MaxDistance: 1000,
		MaxAge:      5 * time.Minute,
	}
}

// Factors are the six normalized inputs to the weighted score, each
// in [0,1].
type Factors struct {
	Distance      float32
	ViewAngle     float32
	ScreenSize    float32
	MovementSpeed float32
	Recency       float32
	Importance    float32
}

// Scorer computes streaming priorities.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer. Zero-valued config fields fall back to
// the defaults.
func NewScorer(cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.Weights == (Weights{}) {
		cfg.Weights = def.Weights
	}
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = def.MaxDistance
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = def.MaxAge
	}
	return &Scorer{cfg: cfg}
}

// Config returns the active configuration.
func (s *Scorer) Config() Config { return s.cfg }

// Score computes the weighted sum of all factors. Movement speed
// contributes inverted: a fast-moving camera should not over-prioritize
// fine detail it will rush past.
func (s *Scorer) Score(f Factors) float32 {
	w := s.cfg.Weights
	return f.Distance*w.Distance +
		f.ViewAngle*w.ViewAngle +
		f.ScreenSize*w.ScreenSize +
		(1-f.MovementSpeed)*w.MovementSpeed +
		f.Recency*w.Recency +
		f.Importance*w.Importance
}

// Prioritize maps a distance plus the remaining factors onto a tier.
// Beyond MaxDistance the asset is invisible regardless of the factors.
func (s *Scorer) Prioritize(distance float32, f Factors) model.StreamingPriority {
	if distance > s.cfg.MaxDistance {
		return model.PriorityInvisible
	}
	return TierForScore(s.Score(f))
}

// Calculate is the cheap per-frame path: distance and path importance
// only, with the remaining factors left out, mirroring a caller that has
// no scene information for the asset.
func (s *Scorer) Calculate(distance float32, path string) model.StreamingPriority {
	if distance > s.cfg.MaxDistance {
		return model.PriorityInvisible
	}
	w := s.cfg.Weights
	score := s.DistanceFactor(distance)*w.Distance + ImportanceFactor(path)*w.Importance
	return TierForScore(score)
}

// TierForScore maps a raw [0,1] score onto the six tiers. The
// thresholds are half-open on the left: a score of exactly 0.1 is
// already VeryLow, 0.8 already Critical.
func TierForScore(score float32) model.StreamingPriority {
	switch {
	case score < 0.1:
		return model.PriorityInvisible
	case score < 0.2:
		return model.PriorityVeryLow
	case score < 0.4:
		return model.PriorityLow
	case score < 0.6:
		return model.PriorityMedium
	case score < 0.8:
		return model.PriorityHigh
	default:
		return model.PriorityCritical
	}
}

// DistanceFactor is 1 at the camera, decaying linearly to 0 at
// MaxDistance.
func (s *Scorer) DistanceFactor(distance float32) float32 {
	if distance >= s.cfg.MaxDistance {
		return 0
	}
	if distance < 0 {
		return 1
	}
	return 1 - distance/s.cfg.MaxDistance
}

// ViewAngleFactor maps the angle between the camera direction and the
// direction towards the resource onto [0,1]: 0 means directly behind,
// 1 directly ahead. Both vectors are expected to be normalized.
func ViewAngleFactor(resourceDir, cameraDir [3]float32) float32 {
	dot := resourceDir[0]*cameraDir[0] + resourceDir[1]*cameraDir[1] + resourceDir[2]*cameraDir[2]
	return (dot + 1) / 2
}

// ScreenSizeFactor approximates the on-screen footprint of an object of
// the given world-space size at the given distance, as a fraction of
// the vertical field of view (radians).
func ScreenSizeFactor(distance, objectSize, fov float32) float32 {
	if distance <= 0 {
		return 1
	}
	if fov <= 0 {
		return 0
	}
	angular := float32(math.Atan(float64(objectSize / distance)))
	return clamp01(angular / fov)
}

// MovementSpeedFactor normalizes the camera speed against maxSpeed.
// The scorer inverts it: the faster the camera, the lower the
// contribution.
func MovementSpeedFactor(speed, maxSpeed float32) float32 {
	if maxSpeed <= 0 {
		return 0
	}
	return clamp01(speed / maxSpeed)
}

// RecencyFactor is 1 immediately after an access, decaying linearly to
// 0 once MaxAge has elapsed.
func (s *Scorer) RecencyFactor(lastAccess, now time.Time) float32 {
	elapsed := now.Sub(lastAccess)
	if elapsed <= 0 {
		return 1
	}
	if elapsed >= s.cfg.MaxAge {
		return 0
	}
	return 1 - float32(elapsed)/float32(s.cfg.MaxAge)
}

// ImportanceFactor is a static per-path heuristic: interface and
// character assets matter more than scenery and effects.
func ImportanceFactor(path string) float32 {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "ui") || strings.Contains(p, "hud"):
		return 1.0
	case strings.Contains(p, "character") || strings.Contains(p, "player"):
		return 0.9
	case strings.Contains(p, "weapon") || strings.Contains(p, "item"):
		return 0.7
	case strings.Contains(p, "environment") || strings.Contains(p, "terrain"):
		return 0.5
	case strings.Contains(p, "particle") || strings.Contains(p, "effect"):
		return 0.3
	default:
		return 0.5
	}
}

// ShouldLoad reports whether a resource at the given priority is worth
// loading at all.
func ShouldLoad(p model.StreamingPriority) bool {
	return p >= model.PriorityLow
}

// ShouldUnload reports whether a resident resource should be dropped to
// relieve memory pressure. Pressure is the cache usage ratio in [0,1]:
// above 0.9 everything up to Low goes, above 0.7 everything up to
// VeryLow, otherwise only invisible resources.
func ShouldUnload(p model.StreamingPriority, pressure float64) bool {
	switch {
	case pressure > 0.9:
		return p <= model.PriorityLow
	case pressure > 0.7:
		return p <= model.PriorityVeryLow
	default:
		return p == model.PriorityInvisible
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

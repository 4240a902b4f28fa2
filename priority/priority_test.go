package priority

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/streamgo/model"
)

func TestTierForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score float32
		want  model.StreamingPriority
	}{
		{0.0, model.PriorityInvisible},
		{0.05, model.PriorityInvisible},
		{0.0999, model.PriorityInvisible},
		{0.10, model.PriorityVeryLow},
		{0.1999, model.PriorityVeryLow},
		{0.20, model.PriorityLow},
		{0.3999, model.PriorityLow},
		{0.40, model.PriorityMedium},
		{0.5999, model.PriorityMedium},
		{0.60, model.PriorityHigh},
		{0.7999, model.PriorityHigh},
		{0.80, model.PriorityCritical},
		{0.95, model.PriorityCritical},
		{1.0, model.PriorityCritical},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, TierForScore(tt.score), "score %v", tt.score)
	}
}

func TestScorer_DistanceFactor(t *testing.T) {
	s := NewScorer(Config{MaxDistance: 1000})

	assert.Equal(t, float32(1), s.DistanceFactor(0))
	assert.InDelta(t, 0.9, s.DistanceFactor(100), 1e-6)
	assert.InDelta(t, 0.5, s.DistanceFactor(500), 1e-6)
	assert.Equal(t, float32(0), s.DistanceFactor(1000))
	assert.Equal(t, float32(0), s.DistanceFactor(5000))
}

func TestScorer_InvisibleBeyondHorizon(t *testing.T) {
	s := NewScorer(Config{MaxDistance: 1000})

	// Even a maxed-out factor set cannot save an asset past the horizon.
	f := Factors{Distance: 1, ViewAngle: 1, ScreenSize: 1, Recency: 1, Importance: 1}
	assert.Equal(t, model.PriorityInvisible, s.Prioritize(1500, f))
	assert.NotEqual(t, model.PriorityInvisible, s.Prioritize(50, f))

	assert.Equal(t, model.PriorityInvisible, s.Calculate(2000, "textures/wall.png"))
}

func TestViewAngleFactor(t *testing.T) {
	ahead := [3]float32{0, 0, 1}
	behind := [3]float32{0, 0, -1}
	side := [3]float32{1, 0, 0}

	assert.InDelta(t, 1.0, ViewAngleFactor(ahead, ahead), 1e-6)
	assert.InDelta(t, 0.0, ViewAngleFactor(behind, ahead), 1e-6)
	assert.InDelta(t, 0.5, ViewAngleFactor(side, ahead), 1e-6)
}

func TestScreenSizeFactor(t *testing.T) {
	// Zero distance fills the screen.
	assert.Equal(t, float32(1), ScreenSizeFactor(0, 1, 1.047))

	// Farther away means smaller.
	near := ScreenSizeFactor(5, 1, 1.047)
	far := ScreenSizeFactor(50, 1, 1.047)
	assert.Greater(t, near, far)
	assert.Greater(t, far, float32(0))

	// Clamped to [0,1].
	assert.LessOrEqual(t, ScreenSizeFactor(0.01, 100, 0.5), float32(1))
}

func TestMovementSpeedFactor(t *testing.T) {
	assert.Equal(t, float32(0), MovementSpeedFactor(0, 20))
	assert.InDelta(t, 0.5, MovementSpeedFactor(10, 20), 1e-6)
	assert.Equal(t, float32(1), MovementSpeedFactor(100, 20))
}

func TestScore_MovementSpeedInverts(t *testing.T) {
	s := NewScorer(Config{})

	slow := s.Score(Factors{MovementSpeed: 0})
	fast := s.Score(Factors{MovementSpeed: 1})
	assert.Greater(t, slow, fast)
}

func TestScorer_RecencyFactor(t *testing.T) {
	s := NewScorer(Config{MaxAge: 300 * time.Second})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, float32(1), s.RecencyFactor(now, now))
	assert.InDelta(t, 0.5, s.RecencyFactor(now.Add(-150*time.Second), now), 1e-6)
	assert.Equal(t, float32(0), s.RecencyFactor(now.Add(-301*time.Second), now))
}

func TestImportanceFactor(t *testing.T) {
	tests := []struct {
		path string
		want float32
	}{
		{"ui/crosshair.png", 1.0},
		{"hud/health_bar.png", 1.0},
		{"characters/knight.gltf", 0.9},
		{"player/hands.glb", 0.9},
		{"weapons/sword.gltf", 0.7},
		{"items/potion.png", 0.7},
		{"environment/rock.gltf", 0.5},
		{"terrain/heightmap.png", 0.5},
		{"particles/smoke.png", 0.3},
		{"effects/explosion.png", 0.3},
		{"misc/something.bin", 0.5},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, ImportanceFactor(tt.path), "path %s", tt.path)
	}
}

func TestShouldLoad(t *testing.T) {
	assert.False(t, ShouldLoad(model.PriorityInvisible))
	assert.False(t, ShouldLoad(model.PriorityVeryLow))
	assert.True(t, ShouldLoad(model.PriorityLow))
	assert.True(t, ShouldLoad(model.PriorityCritical))
}

func TestShouldUnload_PressureTiers(t *testing.T) {
	t.Run("high pressure drops up to Low", func(t *testing.T) {
		assert.True(t, ShouldUnload(model.PriorityLow, 0.95))
		assert.True(t, ShouldUnload(model.PriorityVeryLow, 0.95))
		assert.False(t, ShouldUnload(model.PriorityMedium, 0.95))
	})

	t.Run("medium pressure drops up to VeryLow", func(t *testing.T) {
		assert.True(t, ShouldUnload(model.PriorityVeryLow, 0.8))
		assert.False(t, ShouldUnload(model.PriorityLow, 0.8))
	})

	t.Run("low pressure drops only invisible", func(t *testing.T) {
		assert.True(t, ShouldUnload(model.PriorityInvisible, 0.2))
		assert.False(t, ShouldUnload(model.PriorityVeryLow, 0.2))
	})
}

func TestCalculate_DistanceAndImportance(t *testing.T) {
	s := NewScorer(Config{MaxDistance: 1000})

	// Close UI asset scores far above a distant particle.
	ui := s.Calculate(10, "ui/menu.png")
	particle := s.Calculate(900, "particles/dust.png")
	assert.Greater(t, ui, particle)
}

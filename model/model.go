// Package model defines the shared value types of the streaming core:
// resource handles, quality tiers, priorities, asset kinds and states.
// It has no dependencies on the rest of the module so every package can
// use it without import cycles.
package model

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Handle is a stable 64-bit identifier for a resource, derived
// deterministically from its path. The same path always yields the
// same handle, across calls and across processes.
type Handle uint64

// HandleFor derives the handle for a resource path.
func HandleFor(path string) Handle {
	return Handle(xxhash.Sum64String(path))
}

// LodLevel is the quality tier an asset may be loaded at.
type LodLevel uint8

const (
	// LodLow is optimized for distant assets.
	LodLow LodLevel = iota
	// LodMedium balances quality and memory.
	LodMedium
	// LodHigh is the full-quality asset.
	LodHigh
)

func (l LodLevel) String() string {
	switch l {
	case LodLow:
		return "low"
	case LodMedium:
		return "medium"
	case LodHigh:
		return "high"
	default:
		return fmt.Sprintf("lod(%d)", uint8(l))
	}
}

// LoadPriority is the priority a caller attaches to a load request.
type LoadPriority uint8

const (
	LoadLow LoadPriority = iota
	LoadMedium
	LoadHigh
	LoadCritical
)

func (p LoadPriority) String() string {
	switch p {
	case LoadLow:
		return "low"
	case LoadMedium:
		return "medium"
	case LoadHigh:
		return "high"
	case LoadCritical:
		return "critical"
	default:
		return fmt.Sprintf("load(%d)", uint8(p))
	}
}

// Streaming maps a request priority onto the six-tier streaming scale.
func (p LoadPriority) Streaming() StreamingPriority {
	switch p {
	case LoadLow:
		return PriorityLow
	case LoadMedium:
		return PriorityMedium
	case LoadHigh:
		return PriorityHigh
	case LoadCritical:
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// StreamingPriority is the dynamically computed six-tier ranking of how
// urgently an asset should be resident in memory. Higher values are
// more urgent; the ordering of the constants is load-bearing.
type StreamingPriority uint8

const (
	PriorityInvisible StreamingPriority = iota
	PriorityVeryLow
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p StreamingPriority) String() string {
	switch p {
	case PriorityInvisible:
		return "invisible"
	case PriorityVeryLow:
		return "very_low"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", uint8(p))
	}
}

// AssetKind is the asset category detected from a file extension.
type AssetKind uint8

const (
	KindUnknown AssetKind = iota
	KindMesh
	KindTexture
	KindMaterial
	KindAudio
	KindScene
)

func (k AssetKind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindTexture:
		return "texture"
	case KindMaterial:
		return "material"
	case KindAudio:
		return "audio"
	case KindScene:
		return "scene"
	default:
		return "unknown"
	}
}

// KindOfPath detects the asset kind from the file extension. A trailing
// ".zst" suffix (pipeline-compressed asset) is stripped before detection.
func KindOfPath(path string) AssetKind {
	path = strings.TrimSuffix(path, ".zst")
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "gltf", "glb", "obj", "fbx":
		return KindMesh
	case "png", "jpg", "jpeg", "tga", "dds", "hdr", "exr":
		return KindTexture
	case "mtl", "mat":
		return KindMaterial
	case "wav", "mp3", "ogg":
		return KindAudio
	case "dmoon", "scene":
		return KindScene
	default:
		return KindUnknown
	}
}

// ResourceStatus is the lifecycle phase of a tracked resource.
type ResourceStatus uint8

const (
	StatusNotLoaded ResourceStatus = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

// ResourceState is the tagged lifecycle state of a resource.
// Lod is meaningful only when Status is StatusLoaded; Reason only when
// Status is StatusFailed.
type ResourceState struct {
	Status ResourceStatus
	Lod    LodLevel
	Reason string
}

// NotLoaded returns the initial state.
func NotLoaded() ResourceState { return ResourceState{Status: StatusNotLoaded} }

// Loading returns the in-flight state.
func Loading() ResourceState { return ResourceState{Status: StatusLoading} }

// Loaded returns the resident state at the given quality tier.
func Loaded(lod LodLevel) ResourceState {
	return ResourceState{Status: StatusLoaded, Lod: lod}
}

// Failed returns the failure state with a human-readable reason.
func Failed(reason string) ResourceState {
	return ResourceState{Status: StatusFailed, Reason: reason}
}

func (s ResourceState) String() string {
	switch s.Status {
	case StatusNotLoaded:
		return "not_loaded"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded(" + s.Lod.String() + ")"
	case StatusFailed:
		return "failed: " + s.Reason
	default:
		return fmt.Sprintf("state(%d)", uint8(s.Status))
	}
}

// LoadRequest is a transient unit of work handed from the manager to the
// background workers. It is produced once and consumed exactly once.
type LoadRequest struct {
	ID       string
	Path     string
	Priority LoadPriority
	Lod      LodLevel
}

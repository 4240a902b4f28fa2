// Package streamgo is an embeddable asset-streaming core for game and
// engine runtimes. It loads assets asynchronously from a pluggable
// store, keeps them in a capacity-bounded byte cache, and continuously
// rescores every tracked asset against the camera so the right data is
// resident at the right detail level.
//
// The entry point is the Manager:
//
//	mgr, err := streamgo.New(streamgo.DefaultConfig())
//	if err != nil {
//		// ...
//	}
//	defer mgr.Shutdown(context.Background())
//
//	h, _ := mgr.RequestResource("models/player.gltf", streamgo.LoadHigh)
//
//	// each frame:
//	mgr.Update(cameraPos, cameraDir)
//	if data, ok := mgr.Data(h); ok {
//		// upload to the GPU, hand to the mixer, ...
//	}
//
// Requests are non-blocking and duplicate-suppressing: the same path
// requested twice raises the tracked priority instead of loading twice.
// A request for a path whose previous load failed, or whose bytes were
// unloaded under memory pressure, schedules a fresh load.
//
// Detail levels are picked per asset kind from the camera distance
// (package lod), urgency from a weighted six-factor score (package
// priority). Both are pure packages usable on their own.
package streamgo

// Package framegraph provides the transient resource allocator of a
// frame-graph renderer.
//
// # Overview
//
// Rendering work is split into nodes. Nodes do not own their render
// targets and scratch buffers: they declare them by name on an Allocator,
// bracket their use with BeginUseResource and EndUseResource, and receive
// GPU handles once every node has declared what it needs. When a name is
// declared next frame with an identical descriptor, the allocator hands out
// the same handle instead of creating a new one.
//
// # Frame Protocol
//
// Every frame runs the same cycle:
//
//	alloc.Reset()                    // previous frame's records become the reuse cache
//	group.Execute(PhasePrepare, ...) // nodes declare and record usage
//	alloc.Resolve()                  // handles are reused or created
//	group.Execute(PhaseRender, ...)  // nodes record commands with their handles
//
// FrameGraph.Execute runs this cycle over the groups created by
// FrameGraph.Build.
//
// # Quick Start
//
//	dev, _ := device.NewHeadless()
//	defer dev.Destroy()
//
//	fg := framegraph.New(dev)
//	alloc := framegraph.NewAllocator(dev)
//
//	frame := &framegraph.FrameInfo{Camera: framegraph.DefaultCamera()}
//	if err := fg.Build(frame); err != nil { ... }
//	if err := fg.Execute(frame, alloc); err != nil { ... }
//
// # Errors
//
// Misuse of the allocator (declaring a name twice, using an undeclared name,
// ending a use that never began, resolving twice) panics with a
// *ProgrammerError. Device and submission failures are returned as errors.
// A device that fails to create a handle leaves the resource's ref without
// one; nodes check ResourceRef.Valid before drawing.
//
// # Thread Safety
//
// Allocator, NodeGroup and FrameGraph are NOT thread-safe. A frame is
// driven from a single goroutine.
package framegraph

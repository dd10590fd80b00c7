// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device is the GPU collaborator of the frame graph.
//
// It provides the value types that describe transient resources
// (TextureDescriptor, BufferDescriptor), reference-counted handles to the
// objects created from them (Texture, Buffer), and a HAL-backed device that
// creates those objects, records command buffers and submits them to the
// graphics queue.
//
// # Key Principle
//
// The frame graph RECEIVES a device, it does NOT look one up. A host
// application passes either a HAL device/queue pair (NewHALDevice), a
// gpucontext.DeviceProvider that also exposes its HAL objects (FromProvider),
// or asks for a headless device backed by the noop HAL backend (NewHeadless),
// which is what tests and the fgdemo command use.
//
// # Handles
//
// Texture and Buffer are shared-ownership values. Every holder that keeps a
// handle past the current frame calls Retain and later Release; the GPU object
// is destroyed when the last reference is released.
//
// # Thread Safety
//
// Retain and Release are safe for concurrent use. HALDevice and Recorder are
// NOT thread-safe and must be driven from the goroutine that renders the frame.
package device

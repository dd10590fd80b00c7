// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
)

// refCount is the shared-ownership counter embedded in every handle.
// The creator holds the first reference.
type refCount struct {
	refs    atomic.Int32
	destroy func()
}

func (r *refCount) init(destroy func()) {
	r.refs.Store(1)
	r.destroy = destroy
}

func (r *refCount) retain() {
	if r.refs.Add(1) <= 1 {
		panic("device: Retain on a destroyed handle")
	}
}

func (r *refCount) release() {
	switch n := r.refs.Add(-1); {
	case n == 0:
		if r.destroy != nil {
			r.destroy()
		}
	case n < 0:
		panic("device: Release called more times than Retain")
	}
}

// Texture is a reference-counted GPU texture with a default full view.
//
// A nil *Texture is a valid "no texture" value: Retain and Release on it are
// no-ops so that holders do not need to nil-check handles that the device
// failed to create.
type Texture struct {
	rc    refCount
	label string
	desc  TextureDescriptor
	raw   hal.Texture
	view  hal.TextureView
}

func newTexture(label string, desc TextureDescriptor, raw hal.Texture, view hal.TextureView, destroy func()) *Texture {
	t := &Texture{label: label, desc: desc, raw: raw, view: view}
	t.rc.init(destroy)
	return t
}

// Label returns the debug label the texture was created with.
func (t *Texture) Label() string { return t.label }

// Descriptor returns the descriptor the texture was created from.
func (t *Texture) Descriptor() TextureDescriptor { return t.desc }

// Raw returns the underlying HAL texture.
func (t *Texture) Raw() hal.Texture { return t.raw }

// View returns the default view covering the whole texture.
func (t *Texture) View() hal.TextureView { return t.view }

// Retain adds a reference and returns t for chaining.
func (t *Texture) Retain() *Texture {
	if t != nil {
		t.rc.retain()
	}
	return t
}

// Release drops a reference. The GPU texture is destroyed when the last
// reference is released.
func (t *Texture) Release() {
	if t != nil {
		t.rc.release()
	}
}

// RefCount returns the number of live references.
func (t *Texture) RefCount() int32 {
	if t == nil {
		return 0
	}
	return t.rc.refs.Load()
}

// Buffer is a reference-counted GPU buffer.
// As with Texture, a nil *Buffer is a valid "no buffer" value.
type Buffer struct {
	rc    refCount
	label string
	desc  BufferDescriptor
	raw   hal.Buffer
}

func newBuffer(label string, desc BufferDescriptor, raw hal.Buffer, destroy func()) *Buffer {
	b := &Buffer{label: label, desc: desc, raw: raw}
	b.rc.init(destroy)
	return b
}

// Label returns the debug label the buffer was created with.
func (b *Buffer) Label() string { return b.label }

// Descriptor returns the descriptor the buffer was created from.
func (b *Buffer) Descriptor() BufferDescriptor { return b.desc }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.desc.Size }

// Raw returns the underlying HAL buffer.
func (b *Buffer) Raw() hal.Buffer { return b.raw }

// Retain adds a reference and returns b for chaining.
func (b *Buffer) Retain() *Buffer {
	if b != nil {
		b.rc.retain()
	}
	return b
}

// Release drops a reference. The GPU buffer is destroyed when the last
// reference is released.
func (b *Buffer) Release() {
	if b != nil {
		b.rc.release()
	}
}

// RefCount returns the number of live references.
func (b *Buffer) RefCount() int32 {
	if b == nil {
		return 0
	}
	return b.rc.refs.Load()
}

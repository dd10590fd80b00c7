// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device errors.
var (
	// ErrNoHALProvider is returned when a device provider does not expose
	// its HAL device and queue.
	ErrNoHALProvider = errors.New("device: provider does not implement HalDevice/HalQueue")

	// ErrDeviceClosed is returned when operating on a destroyed device.
	ErrDeviceClosed = errors.New("device: device destroyed")
)

// Stats counts the objects a HALDevice has created and destroyed.
type Stats struct {
	TexturesCreated   int
	TexturesDestroyed int
	BuffersCreated    int
	BuffersDestroyed  int
	CreateFailures    int
}

// LiveTextures returns the number of textures not yet destroyed.
func (s Stats) LiveTextures() int { return s.TexturesCreated - s.TexturesDestroyed }

// LiveBuffers returns the number of buffers not yet destroyed.
func (s Stats) LiveBuffers() int { return s.BuffersCreated - s.BuffersDestroyed }

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Device[textures %d live/%d created, buffers %d live/%d created, %d failures]",
		s.LiveTextures(), s.TexturesCreated, s.LiveBuffers(), s.BuffersCreated, s.CreateFailures)
}

// HALDevice creates frame-graph resources and command recordings on a
// wgpu HAL device and queue it does not own (unless created by NewHeadless).
//
// HALDevice is NOT safe for concurrent use.
type HALDevice struct {
	device        hal.Device
	queue         hal.Queue
	surfaceFormat gputypes.TextureFormat

	// closeFn tears down objects owned by this HALDevice (headless instance).
	closeFn func()
	closed  bool

	stats Stats
}

// NewHALDevice wraps a HAL device and queue supplied by the host.
// The surface format is used as the default color target format.
func NewHALDevice(device hal.Device, queue hal.Queue, surfaceFormat gputypes.TextureFormat) *HALDevice {
	if surfaceFormat == gputypes.TextureFormatUndefined {
		surfaceFormat = gputypes.TextureFormatRGBA8Unorm
	}
	return &HALDevice{
		device:        device,
		queue:         queue,
		surfaceFormat: surfaceFormat,
	}
}

// Raw returns the underlying HAL device.
func (d *HALDevice) Raw() hal.Device { return d.device }

// Queue returns the graphics queue.
func (d *HALDevice) Queue() hal.Queue { return d.queue }

// SurfaceFormat returns the preferred color target format.
func (d *HALDevice) SurfaceFormat() gputypes.TextureFormat { return d.surfaceFormat }

// Stats returns creation and destruction counters.
func (d *HALDevice) Stats() Stats { return d.stats }

// CreateTexture creates a texture and its default view.
//
// On failure the error is logged and nil is returned; callers that store
// the result keep a nil handle.
func (d *HALDevice) CreateTexture(label string, desc TextureDescriptor) *Texture {
	if d.closed {
		d.createFailed("texture", label, ErrDeviceClosed)
		return nil
	}

	raw, err := d.device.CreateTexture(desc.halDescriptor(label))
	if err != nil {
		d.createFailed("texture", label, err)
		return nil
	}

	view, err := d.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		d.device.DestroyTexture(raw)
		d.createFailed("texture view", label, err)
		return nil
	}

	d.stats.TexturesCreated++
	slogger().Debug("device: texture created", "label", label,
		"width", desc.Width, "height", desc.Height, "format", desc.Format)

	return newTexture(label, desc, raw, view, func() {
		d.device.DestroyTextureView(view)
		d.device.DestroyTexture(raw)
		d.stats.TexturesDestroyed++
		slogger().Debug("device: texture destroyed", "label", label)
	})
}

// CreateBuffer creates a buffer. Failures behave as in CreateTexture.
func (d *HALDevice) CreateBuffer(label string, desc BufferDescriptor) *Buffer {
	if d.closed {
		d.createFailed("buffer", label, ErrDeviceClosed)
		return nil
	}

	raw, err := d.device.CreateBuffer(desc.halDescriptor(label))
	if err != nil {
		d.createFailed("buffer", label, err)
		return nil
	}

	d.stats.BuffersCreated++
	slogger().Debug("device: buffer created", "label", label, "size", desc.Size)

	return newBuffer(label, desc, raw, func() {
		d.device.DestroyBuffer(raw)
		d.stats.BuffersDestroyed++
		slogger().Debug("device: buffer destroyed", "label", label)
	})
}

func (d *HALDevice) createFailed(what, label string, err error) {
	d.stats.CreateFailures++
	slogger().Warn("device: "+what+" creation failed", "label", label, "err", err)
}

// WriteBuffer uploads data to the start of buf through the queue.
func (d *HALDevice) WriteBuffer(buf *Buffer, data []byte) error {
	if buf == nil {
		return errors.New("device: WriteBuffer on nil buffer")
	}
	if uint64(len(data)) > buf.Size() {
		return fmt.Errorf("device: write of %d bytes overflows %q (%d bytes)", len(data), buf.Label(), buf.Size())
	}
	d.queue.WriteBuffer(buf.raw, 0, data)
	return nil
}

// ReadBuffer copies the contents of buf into dst.
// The caller must make sure the commands writing buf have completed.
func (d *HALDevice) ReadBuffer(buf *Buffer, dst []byte) error {
	if buf == nil {
		return errors.New("device: ReadBuffer on nil buffer")
	}
	if err := d.queue.ReadBuffer(buf.raw, 0, dst); err != nil {
		return fmt.Errorf("read %s: %w", buf.Label(), err)
	}
	return nil
}

// Destroy releases objects owned by the device itself. Handles created by
// the device must be released before calling Destroy. Safe to call twice.
func (d *HALDevice) Destroy() {
	if d.closed {
		return
	}
	d.closed = true
	if live := d.stats.LiveTextures() + d.stats.LiveBuffers(); live > 0 {
		slogger().Warn("device: destroyed with live resources", "live", live)
	}
	if d.closeFn != nil {
		d.closeFn()
		d.closeFn = nil
	}
}

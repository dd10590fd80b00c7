// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
)

// ErrNoBackbuffer is returned when the viewport backbuffer could not be created.
var ErrNoBackbuffer = errors.New("device: viewport backbuffer unavailable")

// OffscreenViewport is a window-less presentation target. The present node
// copies the final color target into its backbuffer; Present reads the
// backbuffer back into an RGBA image.
type OffscreenViewport struct {
	dev        *HALDevice
	width      int
	height     int
	format     gputypes.TextureFormat
	backbuffer *Buffer
	frame      *image.RGBA
	presented  int
}

// NewOffscreenViewport creates a viewport of the given size with an
// RGBA8 format.
func NewOffscreenViewport(dev *HALDevice, width, height int) (*OffscreenViewport, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("device: invalid viewport size %dx%d", width, height)
	}
	//nolint:gosec // G115: width and height validated positive above
	rowPitch := uint64(AlignedBytesPerRow(uint32(width)))
	backbuffer := dev.CreateBuffer("viewport_backbuffer", BufferDescriptor{
		Size:   rowPitch * uint64(height),
		Access: AccessReadback,
	})
	if backbuffer == nil {
		return nil, ErrNoBackbuffer
	}
	return &OffscreenViewport{
		dev:        dev,
		width:      width,
		height:     height,
		format:     gputypes.TextureFormatRGBA8Unorm,
		backbuffer: backbuffer,
		frame:      image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// Width returns the viewport width in pixels.
//
//nolint:gosec // G115: validated positive in NewOffscreenViewport
func (v *OffscreenViewport) Width() uint32 { return uint32(v.width) }

// Height returns the viewport height in pixels.
//
//nolint:gosec // G115: validated positive in NewOffscreenViewport
func (v *OffscreenViewport) Height() uint32 { return uint32(v.height) }

// Format returns the backbuffer pixel format.
func (v *OffscreenViewport) Format() gputypes.TextureFormat { return v.format }

// Backbuffer returns the buffer the final color target is copied into.
func (v *OffscreenViewport) Backbuffer() *Buffer { return v.backbuffer }

// Present reads the backbuffer back and strips row padding into Frame.
func (v *OffscreenViewport) Present() error {
	if v.backbuffer == nil {
		return ErrNoBackbuffer
	}
	readback := make([]byte, v.backbuffer.Size())
	if err := v.dev.ReadBuffer(v.backbuffer, readback); err != nil {
		return fmt.Errorf("present: %w", err)
	}

	bytesPerRow := v.width * 4
	//nolint:gosec // G115: width validated positive
	alignedBytesPerRow := int(AlignedBytesPerRow(uint32(v.width)))
	for row := 0; row < v.height; row++ {
		src := readback[row*alignedBytesPerRow : row*alignedBytesPerRow+bytesPerRow]
		copy(v.frame.Pix[row*v.frame.Stride:], src)
	}
	v.presented++
	return nil
}

// Frame returns the most recently presented image.
func (v *OffscreenViewport) Frame() *image.RGBA { return v.frame }

// Presented returns how many frames have been presented.
func (v *OffscreenViewport) Presented() int { return v.presented }

// Release drops the backbuffer. The viewport must not be presented again.
func (v *OffscreenViewport) Release() {
	v.backbuffer.Release()
	v.backbuffer = nil
}

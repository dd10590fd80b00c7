// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Kind tags a resource as a texture or a buffer.
type Kind uint8

const (
	// KindTexture identifies a texture resource.
	KindTexture Kind = iota + 1

	// KindBuffer identifies a buffer resource.
	KindBuffer
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// AccessMode describes which side of the bus touches a resource's contents.
type AccessMode uint8

const (
	// AccessGPUOnly resources are only read and written by GPU commands.
	AccessGPUOnly AccessMode = iota

	// AccessUpload resources receive data from the CPU through the queue.
	AccessUpload

	// AccessReadback resources are copied back to the CPU after submission.
	AccessReadback
)

// String returns the access mode name.
func (m AccessMode) String() string {
	switch m {
	case AccessGPUOnly:
		return "gpu-only"
	case AccessUpload:
		return "upload"
	case AccessReadback:
		return "readback"
	default:
		return fmt.Sprintf("AccessMode(%d)", uint8(m))
	}
}

// TextureDescriptor describes parameters for creating a texture.
// It mirrors the WebGPU GPUTextureDescriptor without the label, which is
// supplied separately so that equal shapes compare equal regardless of name.
//
// TextureDescriptor is comparable: two descriptors are equal iff every
// field matches.
type TextureDescriptor struct {
	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// DepthOrArrayLayers is the depth for 3D textures or the layer count.
	// Use 1 for regular 2D textures.
	DepthOrArrayLayers uint32

	// MipLevelCount is the number of mipmap levels.
	MipLevelCount uint32

	// SampleCount is the number of samples for multisampling.
	SampleCount uint32

	// Dimension is the texture dimensionality.
	Dimension gputypes.TextureDimension

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage gputypes.TextureUsage

	// Access is the CPU access pattern.
	Access AccessMode
}

// Texture2D returns a single-layer, single-mip, single-sample 2D texture
// descriptor. Only the extent, format and usage need to be set.
func Texture2D(width, height uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) TextureDescriptor {
	return TextureDescriptor{
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: 1,
		MipLevelCount:      1,
		SampleCount:        1,
		Dimension:          gputypes.TextureDimension2D,
		Format:             format,
		Usage:              usage,
		Access:             AccessGPUOnly,
	}
}

// halDescriptor converts the descriptor into its HAL form.
// Zero counts are promoted to 1.
func (d TextureDescriptor) halDescriptor(label string) *hal.TextureDescriptor {
	usage := d.Usage
	switch d.Access {
	case AccessUpload:
		usage |= gputypes.TextureUsageCopyDst
	case AccessReadback:
		usage |= gputypes.TextureUsageCopySrc
	}
	return &hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              d.Width,
			Height:             d.Height,
			DepthOrArrayLayers: atLeastOne(d.DepthOrArrayLayers),
		},
		MipLevelCount: atLeastOne(d.MipLevelCount),
		SampleCount:   atLeastOne(d.SampleCount),
		Dimension:     d.Dimension,
		Format:        d.Format,
		Usage:         usage,
	}
}

// BufferDescriptor describes parameters for creating a buffer.
//
// BufferDescriptor is comparable: two descriptors are equal iff every
// field matches.
type BufferDescriptor struct {
	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage gputypes.BufferUsage

	// Access is the CPU access pattern.
	Access AccessMode
}

func (d BufferDescriptor) halDescriptor(label string) *hal.BufferDescriptor {
	usage := d.Usage
	switch d.Access {
	case AccessUpload:
		usage |= gputypes.BufferUsageCopyDst
	case AccessReadback:
		usage |= gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst
	}
	return &hal.BufferDescriptor{
		Label: label,
		Size:  d.Size,
		Usage: usage,
	}
}

func atLeastOne(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

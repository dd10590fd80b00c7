// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrRecorderFinished is returned when a finished recording is reused.
var ErrRecorderFinished = errors.New("device: recorder already submitted or discarded")

// submitTimeout bounds the fence wait after a submission.
const submitTimeout = 5 * time.Second

// copyPitchAlignment is the row pitch alignment for texture/buffer copies.
const copyPitchAlignment = 256

// AlignedBytesPerRow returns the row pitch a texture-to-buffer copy of a
// 4-byte-per-pixel texture of the given width must use.
func AlignedBytesPerRow(width uint32) uint32 {
	bytesPerRow := width * 4
	return (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// Recorder is one command recording scope on the graphics queue.
//
// Debug groups are tracked host-side and logged at debug level so that
// node boundaries show up in traces regardless of backend support.
type Recorder struct {
	dev     *HALDevice
	label   string
	encoder hal.CommandEncoder

	open       []string
	markers    []string
	draws      []DrawRecord
	onComplete []func()
	finished   bool
}

// NewRecorder creates a command encoder and begins encoding.
func (d *HALDevice) NewRecorder(label string) (*Recorder, error) {
	if d.closed {
		return nil, ErrDeviceClosed
	}
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label + "_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return &Recorder{dev: d, label: label, encoder: encoder}, nil
}

// Label returns the recording label.
func (r *Recorder) Label() string { return r.label }

// Encoder returns the HAL command encoder for direct command recording.
func (r *Recorder) Encoder() hal.CommandEncoder { return r.encoder }

// PushDebugGroup opens a named marker scope.
func (r *Recorder) PushDebugGroup(name string) {
	r.open = append(r.open, name)
	r.markers = append(r.markers, name)
	slogger().Debug("device: debug group begin", "recording", r.label, "group", name)
}

// PopDebugGroup closes the innermost marker scope.
func (r *Recorder) PopDebugGroup() {
	if len(r.open) == 0 {
		panic("device: PopDebugGroup without matching PushDebugGroup")
	}
	name := r.open[len(r.open)-1]
	r.open = r.open[:len(r.open)-1]
	slogger().Debug("device: debug group end", "recording", r.label, "group", name)
}

// Markers returns every debug group pushed so far, in order.
func (r *Recorder) Markers() []string {
	out := make([]string, len(r.markers))
	copy(out, r.markers)
	return out
}

// DrawRecord is one draw call recorded through a pipeline.
type DrawRecord struct {
	Group    string // innermost open debug group, empty outside any
	Vertices uint32
}

func (r *Recorder) noteDraw(vertices uint32) {
	var group string
	if len(r.open) > 0 {
		group = r.open[len(r.open)-1]
	}
	r.draws = append(r.draws, DrawRecord{Group: group, Vertices: vertices})
}

// Draws returns the draw calls recorded so far, in order.
func (r *Recorder) Draws() []DrawRecord {
	out := make([]DrawRecord, len(r.draws))
	copy(out, r.draws)
	return out
}

// OnComplete registers fn to run once the recording has been submitted
// and waited on, or discarded. Callbacks run in registration order.
func (r *Recorder) OnComplete(fn func()) {
	r.onComplete = append(r.onComplete, fn)
}

func (r *Recorder) complete() {
	callbacks := r.onComplete
	r.onComplete = nil
	for _, fn := range callbacks {
		fn()
	}
}

// RenderTarget is one color or depth attachment of a pass.
type RenderTarget struct {
	Texture *Texture
	Resolve *Texture // single-sample resolve target of a multisampled Texture
	Load    bool     // keep previous contents instead of clearing
	Clear   gputypes.Color
}

// RenderPass records a render pass over the given color and optional depth
// target. Draw recording is left to the callback, which may be nil.
func (r *Recorder) RenderPass(label string, color RenderTarget, depth *RenderTarget, draw func(pass hal.RenderPassEncoder)) error {
	if r.finished {
		return ErrRecorderFinished
	}
	if color.Texture == nil {
		return fmt.Errorf("device: render pass %q has no color texture", label)
	}

	colorLoad := gputypes.LoadOpClear
	if color.Load {
		colorLoad = gputypes.LoadOpLoad
	}
	desc := &hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       color.Texture.View(),
			LoadOp:     colorLoad,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: color.Clear,
		}},
	}
	if color.Resolve != nil {
		desc.ColorAttachments[0].ResolveTarget = color.Resolve.View()
	}
	if depth != nil && depth.Texture != nil {
		depthLoad := gputypes.LoadOpClear
		if depth.Load {
			depthLoad = gputypes.LoadOpLoad
		}
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:            depth.Texture.View(),
			DepthLoadOp:     depthLoad,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1.0,
		}
	}

	pass := r.encoder.BeginRenderPass(desc)
	if draw != nil {
		draw(pass)
	}
	pass.End()
	return nil
}

// CopyTextureToBuffer transitions tex to a copy source, copies it into buf
// with 256-byte aligned rows and transitions it back to a render attachment.
func (r *Recorder) CopyTextureToBuffer(tex *Texture, buf *Buffer) error {
	if r.finished {
		return ErrRecorderFinished
	}
	if tex == nil || buf == nil {
		return errors.New("device: CopyTextureToBuffer with nil handle")
	}
	desc := tex.Descriptor()
	alignedBytesPerRow := AlignedBytesPerRow(desc.Width)
	if need := uint64(alignedBytesPerRow) * uint64(desc.Height); need > buf.Size() {
		return fmt.Errorf("device: copy of %q needs %d bytes, %q has %d", tex.Label(), need, buf.Label(), buf.Size())
	}

	r.encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex.Raw(),
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	r.encoder.CopyTextureToBuffer(tex.Raw(), buf.Raw(), []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: desc.Height},
		TextureBase:  hal.ImageCopyTexture{Texture: tex.Raw(), MipLevel: 0},
		Size:         hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
	}})

	r.encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex.Raw(),
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	return nil
}

// Submit finishes encoding, submits the command buffer to the graphics
// queue and waits for it to complete.
func (r *Recorder) Submit() error {
	if r.finished {
		return ErrRecorderFinished
	}
	r.finished = true
	defer r.complete()
	if len(r.open) > 0 {
		r.encoder.DiscardEncoding()
		return fmt.Errorf("device: submit of %q with %d open debug groups", r.label, len(r.open))
	}

	cmdBuf, err := r.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer r.dev.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.dev.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer r.dev.device.DestroyFence(fence)

	if err := r.dev.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := r.dev.device.Wait(fence, 1, submitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	slogger().Debug("device: recording submitted", "recording", r.label, "markers", len(r.markers))
	return nil
}

// Discard abandons the recording without submitting it.
func (r *Recorder) Discard() {
	if r.finished {
		return
	}
	r.finished = true
	r.encoder.DiscardEncoding()
	r.complete()
}

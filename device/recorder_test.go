// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func TestAlignedBytesPerRow(t *testing.T) {
	tests := []struct {
		width uint32
		want  uint32
	}{
		{1, 256},
		{64, 256},
		{65, 512},
		{1920, 7680},
	}
	for _, tt := range tests {
		if got := AlignedBytesPerRow(tt.width); got != tt.want {
			t.Errorf("AlignedBytesPerRow(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestRecorderMarkersAndSubmit(t *testing.T) {
	d := newTestDevice(t)

	rec, err := d.NewRecorder("frame")
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	if rec.Label() != "frame" || rec.Encoder() == nil {
		t.Fatal("recorder not initialized")
	}

	rec.PushDebugGroup("scene")
	rec.PopDebugGroup()
	rec.PushDebugGroup("present")
	rec.PopDebugGroup()

	got := rec.Markers()
	if len(got) != 2 || got[0] != "scene" || got[1] != "present" {
		t.Errorf("Markers = %v, want [scene present]", got)
	}

	if err := rec.Submit(); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := rec.Submit(); !errors.Is(err, ErrRecorderFinished) {
		t.Errorf("second Submit err = %v, want ErrRecorderFinished", err)
	}
}

func TestRecorderSubmitWithOpenGroupFails(t *testing.T) {
	d := newTestDevice(t)
	rec, err := d.NewRecorder("frame")
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	rec.PushDebugGroup("dangling")
	if err := rec.Submit(); err == nil {
		t.Error("expected error submitting with an open debug group")
	}
}

func TestRecorderPopWithoutPushPanics(t *testing.T) {
	d := newTestDevice(t)
	rec, err := d.NewRecorder("frame")
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	defer rec.Discard()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	rec.PopDebugGroup()
}

func TestRecorderRenderPass(t *testing.T) {
	d := newTestDevice(t)
	color := d.CreateTexture("color", Texture2D(64, 64, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureUsageRenderAttachment))
	depth := d.CreateTexture("depth", Texture2D(64, 64, gputypes.TextureFormatDepth32Float, gputypes.TextureUsageRenderAttachment))
	defer color.Release()
	defer depth.Release()

	rec, err := d.NewRecorder("frame")
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	drawn := false
	err = rec.RenderPass("scene", RenderTarget{Texture: color}, &RenderTarget{Texture: depth}, func(hal.RenderPassEncoder) {
		drawn = true
	})
	if err != nil {
		t.Fatalf("RenderPass failed: %v", err)
	}
	if !drawn {
		t.Error("draw callback not invoked")
	}

	if err := rec.RenderPass("empty", RenderTarget{}, nil, nil); err == nil {
		t.Error("expected error for render pass without color texture")
	}
	if err := rec.Submit(); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := rec.RenderPass("late", RenderTarget{Texture: color}, nil, nil); !errors.Is(err, ErrRecorderFinished) {
		t.Errorf("err = %v, want ErrRecorderFinished", err)
	}
}

func TestRecorderCopyTextureToBuffer(t *testing.T) {
	d := newTestDevice(t)
	color := d.CreateTexture("color", Texture2D(16, 8, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc))
	small := d.CreateBuffer("small", BufferDescriptor{Size: 16, Access: AccessReadback})
	large := d.CreateBuffer("large", BufferDescriptor{Size: uint64(AlignedBytesPerRow(16)) * 8, Access: AccessReadback})
	defer color.Release()
	defer small.Release()
	defer large.Release()

	rec, err := d.NewRecorder("copy")
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	defer rec.Discard()

	if err := rec.CopyTextureToBuffer(color, small); err == nil {
		t.Error("expected size error for undersized buffer")
	}
	if err := rec.CopyTextureToBuffer(nil, large); err == nil {
		t.Error("expected error for nil texture")
	}
	if err := rec.CopyTextureToBuffer(color, large); err != nil {
		t.Errorf("CopyTextureToBuffer failed: %v", err)
	}
}

func TestOffscreenViewportPresent(t *testing.T) {
	d := newTestDevice(t)

	if _, err := NewOffscreenViewport(d, 0, 10); err == nil {
		t.Error("expected error for zero width")
	}

	vp, err := NewOffscreenViewport(d, 32, 16)
	if err != nil {
		t.Fatalf("NewOffscreenViewport failed: %v", err)
	}
	defer vp.Release()

	if vp.Width() != 32 || vp.Height() != 16 {
		t.Errorf("size = %dx%d, want 32x16", vp.Width(), vp.Height())
	}
	if vp.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format = %v, want RGBA8Unorm", vp.Format())
	}
	if vp.Backbuffer() == nil || vp.Backbuffer().Size() != uint64(AlignedBytesPerRow(32))*16 {
		t.Error("backbuffer not sized to aligned rows")
	}

	if err := vp.Present(); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if vp.Presented() != 1 {
		t.Errorf("Presented = %d, want 1", vp.Presented())
	}
	if b := vp.Frame().Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("Frame bounds = %v, want 32x16", b)
	}
}

func TestOffscreenViewportNoBackbuffer(t *testing.T) {
	base := newTestDevice(t)
	d := NewHALDevice(failingHAL{Device: base.Raw()}, base.Queue(), gputypes.TextureFormatRGBA8Unorm)

	if _, err := NewOffscreenViewport(d, 8, 8); !errors.Is(err, ErrNoBackbuffer) {
		t.Errorf("err = %v, want ErrNoBackbuffer", err)
	}
}

func TestRecorderRenderPassResolve(t *testing.T) {
	d := newTestDevice(t)
	msaaDesc := Texture2D(32, 32, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureUsageRenderAttachment)
	msaaDesc.SampleCount = 4
	msaa := d.CreateTexture("msaa", msaaDesc)
	resolve := d.CreateTexture("resolve", Texture2D(32, 32, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureUsageRenderAttachment))
	defer msaa.Release()
	defer resolve.Release()

	rec, err := d.NewRecorder("frame")
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	if err := rec.RenderPass("resolve", RenderTarget{Texture: msaa, Resolve: resolve}, nil, nil); err != nil {
		t.Fatalf("RenderPass failed: %v", err)
	}
	if err := rec.Submit(); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
}

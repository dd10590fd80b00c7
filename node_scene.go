package framegraph

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/framegraph/device"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Resource names shared by the built-in nodes.
const (
	ResourceColor         = "color"
	ResourceColorMSAA     = "colorMSAA"
	ResourceDepth         = "depthBuffer"
	ResourceSceneUniforms = "sceneUniforms"
	ResourceUIVertices    = "uiVertices"
)

// DepthFormat is the format of the scene depth buffer.
const DepthFormat = gputypes.TextureFormatDepth32Float

const (
	// sceneUniformSize is the size of the uniform block in scene.wgsl.
	sceneUniformSize = 64

	// sceneUniformBufferSize rounds the block up to the uniform offset
	// alignment.
	sceneUniformBufferSize = 256
)

//go:embed shaders/scene.wgsl
var sceneShaderWGSL string

// SceneDrawNode draws the frame's scene into the color and depth targets.
//
// Prepare declares color, depthBuffer and sceneUniforms (and colorMSAA
// when multisampling). Render uploads the camera uniforms and records the
// scene pass. Without a pipeline the pass only clears.
type SceneDrawNode struct {
	pipeline *device.FullscreenPipeline
}

// NewSceneDrawNode creates a scene node drawing with pipeline, which may be nil.
func NewSceneDrawNode(pipeline *device.FullscreenPipeline) *SceneDrawNode {
	return &SceneDrawNode{pipeline: pipeline}
}

// Name returns "scene".
func (n *SceneDrawNode) Name() string { return "scene" }

// Execute implements Node.
func (n *SceneDrawNode) Execute(ctx *Context) error {
	alloc := ctx.Allocator
	targets := sceneTargets(ctx.Frame, ctx.Device)

	color := alloc.DeclareTexture(ResourceColor, targets.color)
	depth := alloc.DeclareTexture(ResourceDepth, targets.depth)
	uniforms := alloc.DeclareBuffer(ResourceSceneUniforms, targets.uniforms)
	var msaa ResourceRef
	if targets.multisampled() {
		msaa = alloc.DeclareTexture(ResourceColorMSAA, targets.msaa)
	}

	if ctx.Phase == PhasePrepare {
		names := []string{ResourceSceneUniforms, ResourceColor, ResourceDepth}
		if targets.multisampled() {
			names = append(names, ResourceColorMSAA)
		}
		for _, name := range names {
			alloc.BeginUseResource(name)
		}
		for _, name := range names {
			alloc.EndUseResource(name)
		}
		return nil
	}

	if !color.Valid() || !depth.Valid() || !uniforms.Valid() || (targets.multisampled() && !msaa.Valid()) {
		Logger().Warn("framegraph: scene targets missing, skipping draw", "frame", ctx.Frame.Index)
		return nil
	}

	if err := ctx.Device.WriteBuffer(uniforms.Buffer, encodeSceneUniforms(ctx.Frame)); err != nil {
		return fmt.Errorf("upload scene uniforms: %w", err)
	}

	target := device.RenderTarget{Texture: color.Texture, Clear: ctx.Frame.Options.ClearColor}
	if targets.multisampled() {
		target.Texture, target.Resolve = msaa.Texture, color.Texture
	}

	var drawErr error
	err := ctx.Recorder.RenderPass("scene", target, &device.RenderTarget{Texture: depth.Texture},
		func(pass hal.RenderPassEncoder) {
			if n.pipeline != nil {
				drawErr = n.pipeline.Record(ctx.Recorder, pass, uniforms.Buffer)
			}
		})
	if err != nil {
		return err
	}
	return drawErr
}

// sceneTargetSet holds the descriptors the scene node declares.
type sceneTargetSet struct {
	color    device.TextureDescriptor
	msaa     device.TextureDescriptor
	depth    device.TextureDescriptor
	uniforms device.BufferDescriptor
}

func (s sceneTargetSet) multisampled() bool { return s.msaa.SampleCount > 1 }

// sceneTargets derives the scene descriptors from the frame.
func sceneTargets(frame *FrameInfo, dev GraphicsDevice) sceneTargetSet {
	width, height := frame.targetSize()
	format := colorFormat(frame, dev)
	samples := max(frame.Options.SampleCount, 1)

	var set sceneTargetSet
	set.color = device.Texture2D(width, height, format,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopySrc)
	set.depth = device.Texture2D(width, height, DepthFormat, gputypes.TextureUsageRenderAttachment)
	set.depth.SampleCount = samples
	if samples > 1 {
		set.msaa = device.Texture2D(width, height, format, gputypes.TextureUsageRenderAttachment)
		set.msaa.SampleCount = samples
	}
	set.uniforms = device.BufferDescriptor{
		Size:   sceneUniformBufferSize,
		Usage:  gputypes.BufferUsageUniform,
		Access: device.AccessUpload,
	}
	return set
}

// colorFormat is the viewport format when presenting, else the device's
// surface format.
func colorFormat(frame *FrameInfo, dev GraphicsDevice) gputypes.TextureFormat {
	if frame.Viewport != nil {
		return frame.Viewport.Format()
	}
	return dev.SurfaceFormat()
}

// encodeSceneUniforms packs the SceneUniforms block of scene.wgsl.
func encodeSceneUniforms(frame *FrameInfo) []byte {
	cam := frame.Camera
	clearColor := frame.Options.ClearColor
	drawCount := 0
	if frame.Scene != nil {
		drawCount = frame.Scene.DrawCount()
	}

	values := [16]float32{
		cam.Position[0], cam.Position[1], cam.Position[2], 1,
		cam.Target[0], cam.Target[1], cam.Target[2], 1,
		float32(clearColor.R), float32(clearColor.G), float32(clearColor.B), float32(clearColor.A),
		cam.FovY, cam.Near, cam.Far, float32(drawCount),
	}
	buf := make([]byte, sceneUniformSize)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

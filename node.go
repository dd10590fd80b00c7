package framegraph

import (
	"github.com/gogpu/framegraph/device"
	"github.com/gogpu/gputypes"
)

// GraphicsDevice is the device a frame graph renders with.
// *device.HALDevice implements it.
type GraphicsDevice interface {
	Device

	SurfaceFormat() gputypes.TextureFormat
	WriteBuffer(buf *device.Buffer, data []byte) error
	NewRecorder(label string) (*device.Recorder, error)
	CompileShader(label, wgslSource string) (*device.ShaderModule, error)
	NewFullscreenPipeline(label string, shader *device.ShaderModule, config device.PipelineConfig) (*device.FullscreenPipeline, error)
	NewQuadPipeline(label string, shader *device.ShaderModule, config device.PipelineConfig) (*device.QuadPipeline, error)
}

var _ GraphicsDevice = (*device.HALDevice)(nil)

// Node is one unit of rendering work. Execute runs once per phase per
// frame: in the prepare phase it declares resources and records their
// usage, in the render phase it records commands with ctx.Recorder.
type Node interface {
	Name() string
	Execute(ctx *Context) error
}

// Context is what a node sees while it executes.
type Context struct {
	Phase     Phase
	Allocator *Allocator
	Frame     *FrameInfo
	Device    GraphicsDevice

	// Viewport is the frame's viewport, nil when not presenting.
	Viewport Viewport

	// Recorder is the group's command recording. Nil in the prepare phase.
	Recorder *device.Recorder
}

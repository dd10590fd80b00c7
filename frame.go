package framegraph

import (
	"github.com/gogpu/framegraph/device"
	"github.com/gogpu/gputypes"
)

// FrameInfo is everything one frame is rendered from.
type FrameInfo struct {
	Index    uint64
	Viewport Viewport // nil renders without presenting
	Scene    Scene
	Camera   Camera
	Options  RenderOptions
}

// Viewport is a presentation target.
type Viewport interface {
	Width() uint32
	Height() uint32
	Format() gputypes.TextureFormat

	// Backbuffer receives the final color target. It must be sized for
	// rows aligned to device.AlignedBytesPerRow.
	Backbuffer() *device.Buffer

	// Present shows the backbuffer after the frame's commands completed.
	Present() error
}

// Scene is the content drawn by the scene node.
type Scene interface {
	Name() string
	DrawCount() int
}

// Camera is the view the scene is drawn from.
type Camera struct {
	Position [3]float32
	Target   [3]float32
	FovY     float32 // radians
	Near     float32
	Far      float32
}

// DefaultCamera looks down -Z from the origin with a 60 degree field of view.
func DefaultCamera() Camera {
	return Camera{
		Target: [3]float32{0, 0, -1},
		FovY:   1.0471976,
		Near:   0.1,
		Far:    1000,
	}
}

// RenderOptions tune how a frame is rendered.
type RenderOptions struct {
	ShowUI      bool
	Overlay     string // UI overlay text
	ClearColor  gputypes.Color
	SampleCount uint32 // 0 or 1 disables MSAA

	// Width and Height size the render targets when no viewport is attached.
	Width  uint32
	Height uint32
}

// targetSize returns the render target extent for the frame.
func (f *FrameInfo) targetSize() (width, height uint32) {
	if f.Viewport != nil {
		return f.Viewport.Width(), f.Viewport.Height()
	}
	width, height = f.Options.Width, f.Options.Height
	if width == 0 {
		width = defaultTargetWidth
	}
	if height == 0 {
		height = defaultTargetHeight
	}
	return width, height
}

const (
	defaultTargetWidth  = 1920
	defaultTargetHeight = 1080
)

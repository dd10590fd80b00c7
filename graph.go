package framegraph

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph/device"
)

var (
	// ErrNotBuilt is returned by Execute before the first Build.
	ErrNotBuilt = errors.New("framegraph: Execute called before Build")

	// ErrNilFrame is returned by Build and Execute for a nil frame.
	ErrNilFrame = errors.New("framegraph: nil frame")
)

// FrameGraph builds the nodes of each frame and drives them through the
// allocator protocol.
//
// Typical per-frame use:
//
//	if err := fg.Build(frame); err != nil { ... }
//	if err := fg.Execute(frame, alloc); err != nil { ... }
//
// The scene and overlay shaders are compiled on first use and kept for the
// lifetime of the graph. Their pipelines are cached per target
// configuration. Release destroys both.
type FrameGraph struct {
	dev    GraphicsDevice
	opts   graphOptions
	groups []*NodeGroup

	shaders        map[string]*device.ShaderModule
	shaderErrs     map[string]error
	scenePipelines *pipelineCache[*device.FullscreenPipeline]
	uiPipelines    *pipelineCache[*device.QuadPipeline]
}

// New creates a frame graph rendering with dev.
func New(dev GraphicsDevice, opts ...Option) *FrameGraph {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &FrameGraph{
		dev:            dev,
		opts:           o,
		shaders:        make(map[string]*device.ShaderModule),
		shaderErrs:     make(map[string]error),
		scenePipelines: newPipelineCache[*device.FullscreenPipeline](o.pipelineCapacity),
		uiPipelines:    newPipelineCache[*device.QuadPipeline](o.pipelineCapacity),
	}
}

// Groups returns the node groups of the last Build in execution order.
func (g *FrameGraph) Groups() []*NodeGroup { return g.groups }

// Build discards the previous frame's groups and creates the groups for
// frame. The built-in selection is a scene node, a UI node when the frame
// shows UI, and a present node when the frame has a viewport.
func (g *FrameGraph) Build(frame *FrameInfo) error {
	if frame == nil {
		return ErrNilFrame
	}
	g.groups = nil

	var nodes []Node
	if g.opts.builder != nil {
		nodes = g.opts.builder(frame)
	} else {
		nodes = g.defaultNodes(frame)
	}
	g.groups = []*NodeGroup{NewNodeGroup(g.opts.groupName, g.dev, nodes...)}
	Logger().Debug("framegraph: built", "frame", frame.Index, "nodes", len(nodes))
	return nil
}

// Execute runs one frame: Reset, prepare every group, Resolve, render
// every group.
func (g *FrameGraph) Execute(frame *FrameInfo, alloc *Allocator) error {
	if frame == nil {
		return ErrNilFrame
	}
	if len(g.groups) == 0 {
		return ErrNotBuilt
	}

	alloc.Reset()
	for _, group := range g.groups {
		if err := group.Execute(PhasePrepare, frame, alloc); err != nil {
			return fmt.Errorf("frame %d: %w", frame.Index, err)
		}
	}
	alloc.Resolve()
	for _, group := range g.groups {
		if err := group.Execute(PhaseRender, frame, alloc); err != nil {
			return fmt.Errorf("frame %d: %w", frame.Index, err)
		}
	}
	return nil
}

// Release destroys the cached pipelines and shaders.
func (g *FrameGraph) Release() {
	g.scenePipelines.Clear()
	g.uiPipelines.Clear()
	for _, m := range g.shaders {
		m.Destroy()
	}
	clear(g.shaders)
	clear(g.shaderErrs)
	g.groups = nil
}

func (g *FrameGraph) defaultNodes(frame *FrameInfo) []Node {
	nodes := []Node{NewSceneDrawNode(g.scenePipeline(frame))}
	if overlayText(frame) != "" {
		nodes = append(nodes, NewUIDrawNode(g.uiPipeline(frame)))
	}
	if frame.Viewport != nil {
		nodes = append(nodes, NewPresentNode())
	}
	return nodes
}

// scenePipeline returns the scene pipeline for the frame's targets, or nil
// when pipelines are disabled or unavailable. The scene then falls back to
// clearing.
func (g *FrameGraph) scenePipeline(frame *FrameInfo) *device.FullscreenPipeline {
	if !g.opts.pipelines || g.shaderErrs["scene"] != nil {
		return nil
	}
	config := device.PipelineConfig{
		ColorFormat: colorFormat(frame, g.dev),
		DepthFormat: DepthFormat,
		SampleCount: max(frame.Options.SampleCount, 1),
		UniformSize: sceneUniformSize,
	}
	pipeline, err := g.scenePipelines.GetOrCreate(config, func() (*device.FullscreenPipeline, error) {
		shader, err := g.shader("scene", sceneShaderWGSL)
		if err != nil {
			return nil, err
		}
		p, err := g.dev.NewFullscreenPipeline("scene", shader, config)
		if err != nil {
			return nil, err
		}
		Logger().Info("framegraph: scene pipeline created", "format", config.ColorFormat, "samples", config.SampleCount)
		return p, nil
	})
	if err != nil {
		Logger().Warn("framegraph: scene pipeline unavailable, clearing only", "err", err)
		return nil
	}
	return pipeline
}

// uiPipeline returns the overlay pipeline for the frame's color target, or
// nil when pipelines are disabled or unavailable. The overlay is then
// skipped.
func (g *FrameGraph) uiPipeline(frame *FrameInfo) *device.QuadPipeline {
	if !g.opts.pipelines || g.shaderErrs["ui"] != nil {
		return nil
	}
	config := device.PipelineConfig{
		ColorFormat: colorFormat(frame, g.dev),
		SampleCount: 1,
	}
	pipeline, err := g.uiPipelines.GetOrCreate(config, func() (*device.QuadPipeline, error) {
		shader, err := g.shader("ui", uiShaderWGSL)
		if err != nil {
			return nil, err
		}
		p, err := g.dev.NewQuadPipeline("ui", shader, config)
		if err != nil {
			return nil, err
		}
		Logger().Info("framegraph: ui pipeline created", "format", config.ColorFormat)
		return p, nil
	})
	if err != nil {
		Logger().Warn("framegraph: ui pipeline unavailable, skipping overlay", "err", err)
		return nil
	}
	return pipeline
}

// shader compiles the named shader once. A compile error is kept so the
// source is not recompiled every frame.
func (g *FrameGraph) shader(name, source string) (*device.ShaderModule, error) {
	if m, ok := g.shaders[name]; ok {
		return m, nil
	}
	if err := g.shaderErrs[name]; err != nil {
		return nil, err
	}
	m, err := g.dev.CompileShader(name, source)
	if err != nil {
		g.shaderErrs[name] = err
		return nil, err
	}
	g.shaders[name] = m
	return m, nil
}

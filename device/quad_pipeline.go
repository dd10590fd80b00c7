// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// QuadVertexStride is the size of one quad vertex: a float32 clip-space
// position followed by a float32 texcoord.
const QuadVertexStride = 16

// QuadPipeline draws premultiplied-alpha triangles from a vertex buffer of
// QuadVertexStride vertices. The shader takes the position at location 0
// and the texcoord at location 1 and binds no resources.
type QuadPipeline struct {
	device     hal.Device
	config     PipelineConfig
	shader     *ShaderModule
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

// NewQuadPipeline creates the pipeline for shader. UniformSize is ignored.
// The shader module stays owned by the caller.
func (d *HALDevice) NewQuadPipeline(label string, shader *ShaderModule, config PipelineConfig) (*QuadPipeline, error) {
	if d.closed {
		return nil, ErrDeviceClosed
	}
	if shader == nil || shader.Raw() == nil {
		return nil, fmt.Errorf("device: pipeline %s has no shader module", label)
	}
	config.SampleCount = atLeastOne(config.SampleCount)
	config.UniformSize = 0

	p := &QuadPipeline{device: d.device, config: config, shader: shader}

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: label + "_pipe_layout",
	})
	if err != nil {
		return nil, fmt.Errorf("create %s pipeline layout: %w", label, err)
	}
	p.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	desc := &hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader.Raw(),
			EntryPoint: "vs_main",
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader.Raw(),
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    config.ColorFormat,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: config.SampleCount,
			Mask:  0xFFFFFFFF,
		},
	}
	if config.DepthFormat != gputypes.TextureFormatUndefined {
		desc.DepthStencil = &hal.DepthStencilState{
			Format:            config.DepthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
		}
	}

	pipeline, err := d.device.CreateRenderPipeline(desc)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create %s pipeline: %w", label, err)
	}
	p.pipeline = pipeline
	return p, nil
}

func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: QuadVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // texcoord
			},
		},
	}
}

// Config returns the configuration the pipeline was built for.
func (p *QuadPipeline) Config() PipelineConfig { return p.config }

// Record draws the first vertexCount vertices of vertices into pass.
// A zero count records nothing.
func (p *QuadPipeline) Record(rec *Recorder, pass hal.RenderPassEncoder, vertices *Buffer, vertexCount uint32) error {
	if vertexCount == 0 {
		return nil
	}
	if vertices == nil {
		return fmt.Errorf("device: %s draw without vertex buffer", p.shader.Label())
	}
	if need := uint64(vertexCount) * QuadVertexStride; need > vertices.Size() {
		return fmt.Errorf("device: %s draw of %d vertices needs %d bytes, %q has %d",
			p.shader.Label(), vertexCount, need, vertices.Label(), vertices.Size())
	}

	pass.SetPipeline(p.pipeline)
	pass.SetVertexBuffer(0, vertices.Raw(), 0)
	pass.Draw(vertexCount, 1, 0, 0)
	rec.noteDraw(vertexCount)
	return nil
}

// Destroy releases the pipeline and its layout. Safe to call twice.
func (p *QuadPipeline) Destroy() {
	if p == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
}

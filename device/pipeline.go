// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PipelineConfig describes the targets a fullscreen pipeline renders into.
type PipelineConfig struct {
	ColorFormat gputypes.TextureFormat
	DepthFormat gputypes.TextureFormat // TextureFormatUndefined for no depth
	SampleCount uint32
	UniformSize uint64
}

// FullscreenPipeline draws a single fullscreen triangle from a shader with
// vs_main/fs_main entry points and one uniform buffer at group 0 binding 0.
type FullscreenPipeline struct {
	device        hal.Device
	config        PipelineConfig
	shader        *ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
}

// NewFullscreenPipeline creates the layouts and pipeline for shader.
// The shader module stays owned by the caller.
func (d *HALDevice) NewFullscreenPipeline(label string, shader *ShaderModule, config PipelineConfig) (*FullscreenPipeline, error) {
	if d.closed {
		return nil, ErrDeviceClosed
	}
	if shader == nil || shader.Raw() == nil {
		return nil, fmt.Errorf("device: pipeline %s has no shader module", label)
	}
	config.SampleCount = atLeastOne(config.SampleCount)

	p := &FullscreenPipeline{device: d.device, config: config, shader: shader}

	uniformLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s uniform layout: %w", label, err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create %s pipeline layout: %w", label, err)
	}
	p.pipeLayout = pipeLayout

	desc := &hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader.Raw(),
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     shader.Raw(),
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    config.ColorFormat,
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
			DepthWriteEnabled: true,
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

// Config returns the configuration the pipeline was built for.
func (p *FullscreenPipeline) Config() PipelineConfig { return p.config }

// Record binds uniforms and draws the fullscreen triangle into pass. The
// bind group is destroyed once the recording completes.
func (p *FullscreenPipeline) Record(rec *Recorder, pass hal.RenderPassEncoder, uniforms *Buffer) error {
	if uniforms == nil {
		return fmt.Errorf("device: %s draw without uniform buffer", p.shader.Label())
	}
	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  p.shader.Label() + "_bind",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniforms.Raw().NativeHandle(), Offset: 0, Size: p.config.UniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	rec.OnComplete(func() { p.device.DestroyBindGroup(bindGroup) })

	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	rec.noteDraw(3)
	return nil
}

// Destroy releases the pipeline and its layouts. Safe to call twice.
func (p *FullscreenPipeline) Destroy() {
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
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
}

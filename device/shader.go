// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// ShaderModule is a compiled shader owned by the device that created it.
type ShaderModule struct {
	label  string
	words  int
	raw    hal.ShaderModule
	device hal.Device
}

// Label returns the module label.
func (m *ShaderModule) Label() string { return m.label }

// Words returns the SPIR-V size in 32-bit words.
func (m *ShaderModule) Words() int { return m.words }

// Raw returns the HAL shader module.
func (m *ShaderModule) Raw() hal.ShaderModule { return m.raw }

// Destroy releases the module. Safe to call on nil or twice.
func (m *ShaderModule) Destroy() {
	if m == nil || m.raw == nil {
		return
	}
	m.device.DestroyShaderModule(m.raw)
	m.raw = nil
}

// CompileShader compiles WGSL source to SPIR-V and creates a shader module.
func (d *HALDevice) CompileShader(label, wgslSource string) (*ShaderModule, error) {
	if d.closed {
		return nil, ErrDeviceClosed
	}
	spirvCode, err := compileSPIRV(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", label, err)
	}

	raw, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirvCode,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %s: %w", label, err)
	}
	slogger().Debug("device: shader compiled", "label", label, "words", len(spirvCode))
	return &ShaderModule{label: label, words: len(spirvCode), raw: raw, device: d.device}, nil
}

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, err
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("device: SPIR-V output is %d bytes, not a multiple of 4", len(spirvBytes))
	}

	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

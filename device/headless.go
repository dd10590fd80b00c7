// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// NewHeadless creates a HALDevice on the noop HAL backend. Every call that
// would reach a GPU succeeds without doing any work, which makes the device
// suitable for tests and for running the frame graph without a window.
//
// The returned device owns its HAL instance; call Destroy when done.
func NewHeadless() (*HALDevice, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("create noop instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("device: noop backend reported no adapters")
	}

	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open noop adapter: %w", err)
	}

	d := NewHALDevice(openDev.Device, openDev.Queue, gputypes.TextureFormatRGBA8Unorm)
	d.closeFn = func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	slogger().Info("device: headless noop device opened")
	return d, nil
}

// halProvider is implemented by hosts that expose their HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// FromProvider wraps the HAL device and queue of a host application.
// The provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue; the device is shared, not owned.
func FromProvider(provider gpucontext.DeviceProvider) (*HALDevice, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHALProvider, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHALProvider, hp.HalQueue())
	}
	return NewHALDevice(device, queue, provider.SurfaceFormat()), nil
}

package framegraph

import "github.com/gogpu/framegraph/device"

// ResourceRef names a declared resource and, after Resolve, carries its
// handle. Refs are produced by the Allocator and are plain values.
//
// The handle is borrowed: it stays valid while the allocator holds the
// record. A node that keeps it beyond the current frame must Retain it.
type ResourceRef struct {
	Name    string
	Texture *device.Texture
	Buffer  *device.Buffer
}

// Kind returns the kind of the bound handle, or zero when no handle is bound.
func (r ResourceRef) Kind() device.Kind {
	switch {
	case r.Texture != nil:
		return device.KindTexture
	case r.Buffer != nil:
		return device.KindBuffer
	}
	return 0
}

// Valid reports whether a handle is bound.
func (r ResourceRef) Valid() bool {
	return r.Texture != nil || r.Buffer != nil
}

// ScopedResourceRef is a ResourceRef tied to a usage window of its
// resource. Both GetScopedResource and Close record an end use; neither
// records a begin use, so the caller must call BeginUseResource first.
//
//	alloc.BeginUseResource("color")
//	color := alloc.GetScopedResource("color")
//	defer color.Close()
type ScopedResourceRef struct {
	ResourceRef

	alloc  *Allocator
	closed bool
}

// Close records the closing end use. Calls after the first are no-ops.
func (s *ScopedResourceRef) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.alloc.EndUseResource(s.Name)
}

package framegraph

import (
	"hash/fnv"
	"math"

	"github.com/gogpu/framegraph/device"
)

// ResourceDescriptor is the tagged description of one transient resource.
// Only the descriptor matching Kind is meaningful; the other is zero.
//
// ResourceDescriptor is comparable: two descriptors are equal when their
// kind and every field of the active descriptor are equal.
type ResourceDescriptor struct {
	Kind    device.Kind
	Texture device.TextureDescriptor
	Buffer  device.BufferDescriptor
}

// TextureResource describes a texture resource.
func TextureResource(desc device.TextureDescriptor) ResourceDescriptor {
	return ResourceDescriptor{Kind: device.KindTexture, Texture: desc}
}

// BufferResource describes a buffer resource.
func BufferResource(desc device.BufferDescriptor) ResourceDescriptor {
	return ResourceDescriptor{Kind: device.KindBuffer, Buffer: desc}
}

// unsetBegin is the initial begin-use marker of a record.
const unsetBegin = math.MaxUint64

// resourceRecord is the allocator's bookkeeping for one declared name.
type resourceRecord struct {
	name string
	key  uint64
	desc ResourceDescriptor

	// At most one is non-nil, matching desc.Kind. The record owns one
	// reference to whichever is set.
	texture *device.Texture
	buffer  *device.Buffer

	beginUse uint64
	endUse   uint64
}

func newResourceRecord(name string, key uint64, desc ResourceDescriptor) *resourceRecord {
	return &resourceRecord{name: name, key: key, desc: desc, beginUse: unsetBegin}
}

// touched reports whether any begin or end use was recorded.
func (r *resourceRecord) touched() bool {
	return r.beginUse != unsetBegin || r.endUse != 0
}

func (r *resourceRecord) hasHandle() bool {
	return r.texture != nil || r.buffer != nil
}

// takeHandle moves the handle of donor into r, leaving donor empty.
func (r *resourceRecord) takeHandle(donor *resourceRecord) {
	r.texture, donor.texture = donor.texture, nil
	r.buffer, donor.buffer = donor.buffer, nil
}

// release drops the record's reference to its handle.
func (r *resourceRecord) release() {
	r.texture.Release()
	r.buffer.Release()
	r.texture = nil
	r.buffer = nil
}

func (r *resourceRecord) ref() ResourceRef {
	return ResourceRef{Name: r.name, Texture: r.texture, Buffer: r.buffer}
}

// hashName is the FNV-1a 64 hash of a resource name.
func hashName(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

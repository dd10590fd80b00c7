package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/device"
)

// Phase is the allocator protocol phase.
type Phase uint8

const (
	// PhasePrepare is the declaration phase: nodes declare resources and
	// record usage; no GPU objects exist yet.
	PhasePrepare Phase = iota

	// PhaseRender follows Resolve: declarations are frozen and refs carry
	// their handles.
	PhaseRender
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhasePrepare:
		return "prepare"
	case PhaseRender:
		return "render"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// Device creates the GPU objects backing transient resources.
// A nil result means creation failed; the device is expected to log why.
type Device interface {
	CreateTexture(label string, desc device.TextureDescriptor) *device.Texture
	CreateBuffer(label string, desc device.BufferDescriptor) *device.Buffer
}

// AllocatorStats summarizes the most recent Resolve.
type AllocatorStats struct {
	Declared int // records in the table
	Unused   int // declared but never used, no handle
	Created  int // handles requested from the device
	Reused   int // handles taken over from the previous frame
	Dropped  int // cached handles nobody matched, released
	Failed   int // device returned nil
}

// String returns a one-line summary.
func (s AllocatorStats) String() string {
	return fmt.Sprintf("declared=%d unused=%d created=%d reused=%d dropped=%d failed=%d",
		s.Declared, s.Unused, s.Created, s.Reused, s.Dropped, s.Failed)
}

// Allocator owns the transient resources of a frame graph.
//
// Each frame runs Reset, then nodes declare resources and bracket their
// usage with BeginUseResource/EndUseResource, then Resolve binds a handle to
// every used resource, reusing last frame's handle when the name is declared
// again with an identical descriptor. Handles nobody reused are released at
// the end of Resolve.
//
// Contract violations panic with *ProgrammerError.
//
// Allocator is NOT thread-safe.
type Allocator struct {
	dev Device

	table map[uint64]*resourceRecord
	order []*resourceRecord // table records in declaration order
	cache []*resourceRecord // previous frame's records

	phase  Phase
	events uint64

	hash  func(string) uint64
	stats AllocatorStats
}

// NewAllocator creates an allocator in the prepare phase that creates
// handles through dev.
func NewAllocator(dev Device) *Allocator {
	return &Allocator{
		dev:   dev,
		table: make(map[uint64]*resourceRecord),
		phase: PhasePrepare,
		hash:  hashName,
	}
}

// Phase returns the current protocol phase.
func (a *Allocator) Phase() Phase { return a.phase }

// Stats returns the statistics of the most recent Resolve.
func (a *Allocator) Stats() AllocatorStats { return a.stats }

// DeclareTexture declares a texture resource.
//
// In the prepare phase the name must not be declared yet and the returned
// ref carries no handle. In the render phase the name must have been
// declared during prepare with an identical descriptor, and the returned
// ref carries the resolved handle, which may be nil.
func (a *Allocator) DeclareTexture(name string, desc device.TextureDescriptor) ResourceRef {
	return a.declare("DeclareTexture", name, TextureResource(desc))
}

// DeclareBuffer declares a buffer resource. See DeclareTexture.
func (a *Allocator) DeclareBuffer(name string, desc device.BufferDescriptor) ResourceRef {
	return a.declare("DeclareBuffer", name, BufferResource(desc))
}

func (a *Allocator) declare(op, name string, desc ResourceDescriptor) ResourceRef {
	key := a.hash(name)
	rec := a.lookup(op, name, key)

	if a.phase == PhasePrepare {
		if rec != nil {
			programmerError(op, name, "already declared this frame")
		}
		rec = newResourceRecord(name, key, desc)
		a.table[key] = rec
		a.order = append(a.order, rec)
		return ResourceRef{Name: name}
	}

	if rec == nil {
		programmerError(op, name, "not declared during prepare")
	}
	if rec.desc.Kind != desc.Kind {
		programmerError(op, name, fmt.Sprintf("declared as %s during prepare", rec.desc.Kind))
	}
	if rec.desc != desc {
		programmerError(op, name, "descriptor differs from the prepare declaration")
	}
	return rec.ref()
}

// GetResource returns a ref to a declared resource in any phase. The ref
// carries no handle before Resolve.
func (a *Allocator) GetResource(name string) ResourceRef {
	return a.find("GetResource", name).ref()
}

// GetScopedResource returns a scoped ref to a declared resource and
// records an end use. Closing the ref records another end use.
func (a *Allocator) GetScopedResource(name string) *ScopedResourceRef {
	ref := a.GetResource(name)
	a.EndUseResource(name)
	return &ScopedResourceRef{ResourceRef: ref, alloc: a}
}

// BeginUseResource records the start of a use of name.
func (a *Allocator) BeginUseResource(name string) {
	rec := a.find("BeginUseResource", name)
	id := a.nextEvent()
	rec.beginUse = min(rec.beginUse, id)
}

// EndUseResource records the end of a use of name. It panics when no
// earlier begin use was recorded.
func (a *Allocator) EndUseResource(name string) {
	rec := a.find("EndUseResource", name)
	id := a.nextEvent()
	rec.endUse = max(rec.endUse, id)
	if rec.beginUse >= rec.endUse {
		programmerError("EndUseResource", name, "end use without a preceding begin use")
	}
}

// Reset starts a new frame: every record of the current frame moves to the
// reuse cache, the table is cleared, the phase returns to prepare and the
// event counter restarts at zero.
func (a *Allocator) Reset() {
	a.cache = append(a.cache, a.order...)
	clear(a.table)
	a.order = nil
	a.phase = PhasePrepare
	a.events = 0
}

// Resolve binds a handle to every used resource and enters the render
// phase. Resources declared but never used get no handle and are logged.
// Cached handles not reused by this frame are released.
func (a *Allocator) Resolve() {
	if a.phase != PhasePrepare {
		programmerError("Resolve", "", "called outside the prepare phase")
	}
	a.phase = PhaseRender

	stats := AllocatorStats{Declared: len(a.order)}
	for _, rec := range a.order {
		if !rec.touched() {
			Logger().Warn("framegraph: resource declared but never used", "name", rec.name, "kind", rec.desc.Kind)
			stats.Unused++
			continue
		}
		if rec.endUse >= a.events || rec.beginUse >= rec.endUse {
			programmerError("Resolve", rec.name,
				fmt.Sprintf("invalid usage interval [%d, %d] after %d events", rec.beginUse, rec.endUse, a.events))
		}

		if a.reuse(rec) {
			stats.Reused++
			continue
		}
		// TODO: propagate creation failures to the caller instead of storing nil.
		if a.create(rec) {
			stats.Created++
		} else {
			stats.Failed++
		}
	}

	for _, entry := range a.cache {
		if entry.hasHandle() {
			Logger().Debug("framegraph: dropping unused cached resource", "name", entry.name)
			stats.Dropped++
		}
		entry.release()
	}
	a.cache = nil
	a.stats = stats
}

// Release drops every handle held by the allocator. The allocator may be
// reused afterwards; the next frame creates all handles anew.
func (a *Allocator) Release() {
	for _, rec := range a.order {
		rec.release()
	}
	for _, rec := range a.cache {
		rec.release()
	}
	clear(a.table)
	a.order = nil
	a.cache = nil
	a.phase = PhasePrepare
	a.events = 0
}

// reuse moves the handle of the first cache entry with an equal descriptor
// into rec.
func (a *Allocator) reuse(rec *resourceRecord) bool {
	for _, entry := range a.cache {
		if !entry.hasHandle() || entry.desc != rec.desc {
			continue
		}
		rec.takeHandle(entry)
		Logger().Debug("framegraph: reusing resource", "name", rec.name, "from", entry.name)
		return true
	}
	return false
}

// create requests a new handle for rec and reports whether one was returned.
func (a *Allocator) create(rec *resourceRecord) bool {
	switch rec.desc.Kind {
	case device.KindTexture:
		rec.texture = a.dev.CreateTexture(rec.name, rec.desc.Texture)
	case device.KindBuffer:
		rec.buffer = a.dev.CreateBuffer(rec.name, rec.desc.Buffer)
	}
	return rec.hasHandle()
}

// nextEvent returns a fresh event id.
func (a *Allocator) nextEvent() uint64 {
	id := a.events
	a.events++
	return id
}

// lookup returns the record for name, or nil. A record under the same key
// with a different name is a hash collision and panics.
func (a *Allocator) lookup(op, name string, key uint64) *resourceRecord {
	rec := a.table[key]
	if rec != nil && rec.name != name {
		programmerError(op, name, fmt.Sprintf("name hash collision with %q", rec.name))
	}
	return rec
}

// find returns the record for a declared name and panics otherwise.
func (a *Allocator) find(op, name string) *resourceRecord {
	rec := a.lookup(op, name, a.hash(name))
	if rec == nil {
		programmerError(op, name, "not declared")
	}
	return rec
}

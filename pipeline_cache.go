package framegraph

import "github.com/gogpu/framegraph/device"

// defaultPipelineCapacity bounds the pipelines of each kind kept per graph.
// Two covers toggling MSAA; the rest covers viewport format changes.
const defaultPipelineCapacity = 4

// pipeline is what the cache stores: *device.FullscreenPipeline or
// *device.QuadPipeline.
type pipeline interface {
	Destroy()
}

// pipelineCache is a small LRU of pipelines keyed by their target
// configuration. Evicted pipelines are destroyed.
type pipelineCache[P pipeline] struct {
	capacity int
	entries  map[device.PipelineConfig]P
	order    []device.PipelineConfig // most recently used first

	hits      uint64
	misses    uint64
	evictions uint64
}

func newPipelineCache[P pipeline](capacity int) *pipelineCache[P] {
	if capacity <= 0 {
		capacity = defaultPipelineCapacity
	}
	return &pipelineCache[P]{
		capacity: capacity,
		entries:  make(map[device.PipelineConfig]P),
	}
}

// GetOrCreate returns the pipeline for config, creating it on a miss.
// A failed create is not cached.
func (c *pipelineCache[P]) GetOrCreate(config device.PipelineConfig, create func() (P, error)) (P, error) {
	if p, ok := c.entries[config]; ok {
		c.hits++
		c.touch(config)
		return p, nil
	}
	c.misses++

	p, err := create()
	if err != nil {
		var zero P
		return zero, err
	}
	for len(c.order) >= c.capacity {
		oldest := c.order[len(c.order)-1]
		c.order = c.order[:len(c.order)-1]
		c.entries[oldest].Destroy()
		delete(c.entries, oldest)
		c.evictions++
	}
	c.entries[config] = p
	c.order = append([]device.PipelineConfig{config}, c.order...)
	return p, nil
}

// touch moves config to the front of the LRU order.
func (c *pipelineCache[P]) touch(config device.PipelineConfig) {
	for i, k := range c.order {
		if k == config {
			copy(c.order[1:i+1], c.order[:i])
			c.order[0] = config
			return
		}
	}
}

// Len returns the number of cached pipelines.
func (c *pipelineCache[P]) Len() int { return len(c.entries) }

// Clear destroys every cached pipeline.
func (c *pipelineCache[P]) Clear() {
	for _, p := range c.entries {
		p.Destroy()
	}
	clear(c.entries)
	c.order = nil
}

package framegraph

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph/device"
	"github.com/gogpu/gputypes"
)

func TestPipelineCacheGetOrCreate(t *testing.T) {
	c := newPipelineCache[*device.FullscreenPipeline](2)
	creates := 0
	create := func() (*device.FullscreenPipeline, error) {
		creates++
		return &device.FullscreenPipeline{}, nil
	}
	cfg := func(samples uint32) device.PipelineConfig {
		return device.PipelineConfig{ColorFormat: gputypes.TextureFormatRGBA8Unorm, SampleCount: samples}
	}

	p1, _ := c.GetOrCreate(cfg(1), create)
	p4, _ := c.GetOrCreate(cfg(4), create)
	again, _ := c.GetOrCreate(cfg(1), create)
	if again != p1 || p1 == p4 {
		t.Error("cache did not return the stored pipeline")
	}
	if creates != 2 || c.hits != 1 || c.misses != 2 {
		t.Errorf("creates=%d hits=%d misses=%d", creates, c.hits, c.misses)
	}

	// cfg(1) was used last, so cfg(4) is evicted.
	c.GetOrCreate(cfg(8), create)
	if c.Len() != 2 || c.evictions != 1 {
		t.Errorf("Len=%d evictions=%d, want 2/1", c.Len(), c.evictions)
	}
	if _, ok := c.entries[cfg(4)]; ok {
		t.Error("least recently used pipeline not evicted")
	}
	if _, ok := c.entries[cfg(1)]; !ok {
		t.Error("recently used pipeline evicted")
	}

	c.Clear()
	if c.Len() != 0 || len(c.order) != 0 {
		t.Error("Clear left entries behind")
	}
}

func TestPipelineCacheDoesNotStoreFailures(t *testing.T) {
	c := newPipelineCache[*device.QuadPipeline](0)
	if c.capacity != defaultPipelineCapacity {
		t.Errorf("capacity = %d, want default", c.capacity)
	}
	errCreate := errors.New("no pipeline")
	if _, err := c.GetOrCreate(device.PipelineConfig{}, func() (*device.QuadPipeline, error) {
		return nil, errCreate
	}); !errors.Is(err, errCreate) {
		t.Errorf("err = %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed create was cached")
	}
}

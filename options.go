package framegraph

// Option configures a FrameGraph during creation.
//
// Example:
//
//	fg := framegraph.New(dev,
//	    framegraph.WithGroupName("main"),
//	    framegraph.WithoutPipelines(),
//	)
type Option func(*graphOptions)

// Builder returns the nodes of a frame, in execution order.
type Builder func(frame *FrameInfo) []Node

// graphOptions holds optional configuration for FrameGraph creation.
type graphOptions struct {
	groupName        string
	builder          Builder
	pipelines        bool
	pipelineCapacity int
}

// defaultOptions returns the default frame graph options.
func defaultOptions() graphOptions {
	return graphOptions{
		groupName:        "frame",
		pipelines:        true,
		pipelineCapacity: defaultPipelineCapacity,
	}
}

// WithGroupName sets the name of the node group, which also labels its
// command recording.
func WithGroupName(name string) Option {
	return func(o *graphOptions) {
		if name != "" {
			o.groupName = name
		}
	}
}

// WithBuilder replaces the built-in node selection. The builder runs on
// every Build.
//
// Example:
//
//	fg := framegraph.New(dev, framegraph.WithBuilder(func(f *framegraph.FrameInfo) []framegraph.Node {
//	    return []framegraph.Node{myShadowNode, framegraph.NewSceneDrawNode(nil)}
//	}))
func WithBuilder(b Builder) Option {
	return func(o *graphOptions) {
		o.builder = b
	}
}

// WithoutPipelines stops the graph from compiling shaders. The built-in
// scene node then only clears its targets and the UI node draws nothing.
func WithoutPipelines() Option {
	return func(o *graphOptions) {
		o.pipelines = false
	}
}

// WithPipelineCapacity sets how many pipelines of each kind, one per color
// format and sample count, the graph keeps alive.
func WithPipelineCapacity(n int) Option {
	return func(o *graphOptions) {
		o.pipelineCapacity = n
	}
}

package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/device"
)

// NodeGroup runs an ordered list of nodes. In the render phase the group
// owns one command recording: every node is bracketed by a debug group
// carrying its name, and the recording is submitted to the graphics queue
// after the last node.
type NodeGroup struct {
	name  string
	dev   GraphicsDevice
	nodes []Node

	markers []string // debug groups of the last submitted recording
	draws   []device.DrawRecord
}

// NewNodeGroup creates a group executing nodes in the given order.
func NewNodeGroup(name string, dev GraphicsDevice, nodes ...Node) *NodeGroup {
	return &NodeGroup{name: name, dev: dev, nodes: nodes}
}

// Name returns the group name.
func (g *NodeGroup) Name() string { return g.name }

// Nodes returns the group's nodes in execution order.
func (g *NodeGroup) Nodes() []Node { return g.nodes }

// Markers returns the debug groups recorded by the last render execution.
func (g *NodeGroup) Markers() []string { return g.markers }

// Draws returns the draw calls of the last submitted recording.
func (g *NodeGroup) Draws() []device.DrawRecord { return g.draws }

// Execute runs every node for phase. The first node error stops the group;
// in the render phase the recording is then discarded.
//
// After a successful render the recording is submitted and, when the frame
// has a viewport, the viewport is presented.
func (g *NodeGroup) Execute(phase Phase, frame *FrameInfo, alloc *Allocator) error {
	ctx := &Context{
		Phase:     phase,
		Allocator: alloc,
		Frame:     frame,
		Device:    g.dev,
	}
	if frame != nil {
		ctx.Viewport = frame.Viewport
	}

	if phase != PhaseRender {
		for _, n := range g.nodes {
			if err := n.Execute(ctx); err != nil {
				return fmt.Errorf("%s: %s %s: %w", g.name, phase, n.Name(), err)
			}
		}
		return nil
	}

	rec, err := g.dev.NewRecorder(g.name)
	if err != nil {
		return fmt.Errorf("%s: %w", g.name, err)
	}
	ctx.Recorder = rec

	for _, n := range g.nodes {
		rec.PushDebugGroup(n.Name())
		err := n.Execute(ctx)
		rec.PopDebugGroup()
		if err != nil {
			rec.Discard()
			return fmt.Errorf("%s: %s %s: %w", g.name, phase, n.Name(), err)
		}
	}

	if err := rec.Submit(); err != nil {
		return fmt.Errorf("%s: %w", g.name, err)
	}
	g.markers = rec.Markers()
	g.draws = rec.Draws()

	if ctx.Viewport != nil {
		if err := ctx.Viewport.Present(); err != nil {
			return fmt.Errorf("%s: %w", g.name, err)
		}
	}
	return nil
}

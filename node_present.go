package framegraph

// PresentNode copies the final color target into the viewport backbuffer.
// The group presents the viewport after the recording completes.
type PresentNode struct{}

// NewPresentNode creates a present node.
func NewPresentNode() *PresentNode { return &PresentNode{} }

// Name returns "present".
func (n *PresentNode) Name() string { return "present" }

// Execute implements Node.
func (n *PresentNode) Execute(ctx *Context) error {
	alloc := ctx.Allocator

	if ctx.Phase == PhasePrepare {
		alloc.BeginUseResource(ResourceColor)
		color := alloc.GetScopedResource(ResourceColor)
		color.Close()
		return nil
	}

	if ctx.Viewport == nil {
		return nil
	}
	color := alloc.GetResource(ResourceColor)
	backbuffer := ctx.Viewport.Backbuffer()
	if !color.Valid() || backbuffer == nil {
		Logger().Warn("framegraph: nothing to present", "frame", ctx.Frame.Index,
			"color", color.Valid(), "backbuffer", backbuffer != nil)
		return nil
	}
	return ctx.Recorder.CopyTextureToBuffer(color.Texture, backbuffer)
}

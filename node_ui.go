package framegraph

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/framegraph/device"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

//go:embed shaders/ui.wgsl
var uiShaderWGSL string

const (
	// uiVertexSize is two float32 position plus two float32 texcoord.
	uiVertexSize = device.QuadVertexStride

	// uiVerticesPerGlyph is two triangles per glyph quad.
	uiVerticesPerGlyph = 6

	// uiMargin is the overlay inset from the top-left corner, in pixels.
	uiMargin = 8
)

// UIDrawNode draws the text overlay of RenderOptions.Overlay on top of the
// color target.
//
// Prepare measures the overlay with the fixed 7x13 face and declares a
// vertex buffer holding one quad per glyph. Render lays the quads out in
// clip space, uploads them and draws them in a load pass over color.
// Without a pipeline the node declares nothing and records nothing.
type UIDrawNode struct {
	face     font.Face
	pipeline *device.QuadPipeline
}

// NewUIDrawNode creates a UI node drawing with pipeline using the built-in
// 7x13 bitmap face.
func NewUIDrawNode(pipeline *device.QuadPipeline) *UIDrawNode {
	return &UIDrawNode{face: basicfont.Face7x13, pipeline: pipeline}
}

// Name returns "ui".
func (n *UIDrawNode) Name() string { return "ui" }

// Execute implements Node.
func (n *UIDrawNode) Execute(ctx *Context) error {
	text := overlayText(ctx.Frame)
	glyphs := countGlyphs(text)
	if glyphs == 0 || n.pipeline == nil {
		return nil
	}

	alloc := ctx.Allocator
	vertices := alloc.DeclareBuffer(ResourceUIVertices, device.BufferDescriptor{
		Size:   uint64(glyphs) * uiVerticesPerGlyph * uiVertexSize,
		Usage:  gputypes.BufferUsageVertex,
		Access: device.AccessUpload,
	})

	if ctx.Phase == PhasePrepare {
		alloc.BeginUseResource(ResourceColor)
		alloc.BeginUseResource(ResourceUIVertices)
		alloc.EndUseResource(ResourceUIVertices)
		alloc.EndUseResource(ResourceColor)
		return nil
	}

	color := alloc.GetResource(ResourceColor)
	if !color.Valid() || !vertices.Valid() {
		Logger().Warn("framegraph: ui targets missing, skipping overlay", "frame", ctx.Frame.Index)
		return nil
	}

	width, height := ctx.Frame.targetSize()
	data := n.layout(text, width, height)
	if err := ctx.Device.WriteBuffer(vertices.Buffer, data); err != nil {
		return fmt.Errorf("upload ui vertices: %w", err)
	}
	vertexCount := uint32(len(data) / uiVertexSize)

	var drawErr error
	err := ctx.Recorder.RenderPass("ui", device.RenderTarget{Texture: color.Texture, Load: true}, nil,
		func(pass hal.RenderPassEncoder) {
			drawErr = n.pipeline.Record(ctx.Recorder, pass, vertices.Buffer, vertexCount)
		})
	if err != nil {
		return err
	}
	return drawErr
}

// Measure returns the pixel width of the overlay text.
func (n *UIDrawNode) Measure(text string) int {
	return font.MeasureString(n.face, norm.NFC.String(text)).Ceil()
}

// layout returns the vertex data of one clip-space quad per visible glyph.
func (n *UIDrawNode) layout(text string, width, height uint32) []byte {
	metrics := n.face.Metrics()
	toClipX := func(px fixed.Int26_6) float32 {
		return float32(px)/64/float32(width)*2 - 1
	}
	toClipY := func(py fixed.Int26_6) float32 {
		return 1 - float32(py)/64/float32(height)*2
	}

	out := make([]byte, 0, countGlyphs(text)*uiVerticesPerGlyph*uiVertexSize)
	dot := fixed.P(uiMargin, uiMargin+metrics.Ascent.Ceil())
	prev := rune(-1)
	for _, r := range text {
		if prev >= 0 {
			dot.X += n.face.Kern(prev, r)
		}
		prev = r
		bounds, advance, ok := n.face.GlyphBounds(r)
		if !ok {
			bounds, advance, _ = n.face.GlyphBounds('?')
		}
		if isLayoutSpace(r) {
			dot.X += advance
			continue
		}

		x0, x1 := toClipX(dot.X+bounds.Min.X), toClipX(dot.X+bounds.Max.X)
		y0, y1 := toClipY(dot.Y+bounds.Min.Y), toClipY(dot.Y+bounds.Max.Y)
		quad := [uiVerticesPerGlyph][4]float32{
			{x0, y0, 0, 0}, {x1, y0, 1, 0}, {x0, y1, 0, 1},
			{x1, y0, 1, 0}, {x1, y1, 1, 1}, {x0, y1, 0, 1},
		}
		for _, v := range quad {
			for _, f := range v {
				out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
			}
		}
		dot.X += advance
	}
	return out
}

// overlayText returns the NFC-normalized overlay of the frame.
func overlayText(frame *FrameInfo) string {
	if frame == nil || !frame.Options.ShowUI {
		return ""
	}
	return norm.NFC.String(frame.Options.Overlay)
}

// countGlyphs counts the runes that produce a quad.
func countGlyphs(text string) int {
	n := 0
	for _, r := range text {
		if !isLayoutSpace(r) {
			n++
		}
	}
	return n
}

func isLayoutSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

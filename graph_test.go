package framegraph

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/framegraph/device"
	"github.com/gogpu/gputypes"
)

type testScene struct{ draws int }

func (s testScene) Name() string   { return "test" }
func (s testScene) DrawCount() int { return s.draws }

func nodeNames(g *FrameGraph) string {
	var names []string
	for _, group := range g.Groups() {
		for _, n := range group.Nodes() {
			names = append(names, n.Name())
		}
	}
	return strings.Join(names, ",")
}

func TestFrameGraphBuildComposition(t *testing.T) {
	dev := newTestDevice(t)
	vp, err := device.NewOffscreenViewport(dev, 32, 32)
	if err != nil {
		t.Fatalf("NewOffscreenViewport failed: %v", err)
	}
	defer vp.Release()

	tests := []struct {
		name  string
		frame FrameInfo
		want  string
	}{
		{"scene only", FrameInfo{}, "scene"},
		{"ui without text", FrameInfo{Options: RenderOptions{ShowUI: true}}, "scene"},
		{"ui", FrameInfo{Options: RenderOptions{ShowUI: true, Overlay: "fps 60"}}, "scene,ui"},
		{"hidden overlay", FrameInfo{Options: RenderOptions{Overlay: "fps 60"}}, "scene"},
		{"viewport", FrameInfo{Viewport: vp}, "scene,present"},
		{"all", FrameInfo{Viewport: vp, Options: RenderOptions{ShowUI: true, Overlay: "x"}}, "scene,ui,present"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fg := New(dev, WithoutPipelines())
			defer fg.Release()
			if err := fg.Build(&tt.frame); err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if len(fg.Groups()) != 1 {
				t.Fatalf("groups = %d, want 1", len(fg.Groups()))
			}
			if got := nodeNames(fg); got != tt.want {
				t.Errorf("nodes = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFrameGraphBuildReplacesGroups(t *testing.T) {
	dev := newTestDevice(t)
	fg := New(dev, WithoutPipelines(), WithGroupName("main"))

	if err := fg.Build(&FrameInfo{}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	first := fg.Groups()[0]
	if err := fg.Build(&FrameInfo{}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if fg.Groups()[0] == first || len(fg.Groups()) != 1 {
		t.Error("Build should discard the previous groups")
	}
	if fg.Groups()[0].Name() != "main" {
		t.Errorf("group name = %q, want main", fg.Groups()[0].Name())
	}
	if err := fg.Build(nil); err == nil {
		t.Error("expected error for nil frame")
	}
}

func TestFrameGraphExecuteBeforeBuild(t *testing.T) {
	dev := newTestDevice(t)
	fg := New(dev)
	if err := fg.Execute(&FrameInfo{}, NewAllocator(dev)); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("err = %v, want ErrNotBuilt", err)
	}
}

func TestFrameGraphExecuteNilFrame(t *testing.T) {
	dev := newTestDevice(t)
	fg := New(dev, WithoutPipelines())
	if err := fg.Build(&FrameInfo{}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	alloc := NewAllocator(dev)
	if err := fg.Execute(nil, alloc); !errors.Is(err, ErrNilFrame) {
		t.Errorf("err = %v, want ErrNilFrame", err)
	}
	if alloc.Phase() != PhasePrepare {
		t.Error("a rejected frame must not touch the allocator")
	}
	if err := fg.Build(nil); !errors.Is(err, ErrNilFrame) {
		t.Errorf("Build err = %v, want ErrNilFrame", err)
	}
}

func TestFrameGraphDrawsOverlay(t *testing.T) {
	dev := newTestDevice(t)
	vp, err := device.NewOffscreenViewport(dev, 64, 32)
	if err != nil {
		t.Fatalf("NewOffscreenViewport failed: %v", err)
	}
	defer vp.Release()

	fg := New(dev)
	defer fg.Release()
	alloc := NewAllocator(dev)
	defer alloc.Release()

	frame := &FrameInfo{Viewport: vp, Camera: DefaultCamera(), Options: RenderOptions{ShowUI: true, Overlay: "ab c"}}
	if err := fg.Build(frame); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	ui := fg.Groups()[0].Nodes()[1].(*UIDrawNode)
	if ui.pipeline == nil {
		t.Skipf("Skipping: overlay pipeline unavailable: %v", fg.shaderErrs["ui"])
	}
	if err := fg.Execute(frame, alloc); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	vertices := alloc.GetResource(ResourceUIVertices)
	if !vertices.Valid() {
		t.Fatal("uiVertices not resolved")
	}
	var uiDraws []device.DrawRecord
	for _, d := range fg.Groups()[0].Draws() {
		if d.Group == "ui" {
			uiDraws = append(uiDraws, d)
		}
	}
	want := uint32(3 * uiVerticesPerGlyph) // "ab c" has three glyphs
	if len(uiDraws) != 1 || uiDraws[0].Vertices != want {
		t.Fatalf("ui draws = %+v, want one draw of %d vertices", uiDraws, want)
	}
	if uint64(want)*uiVertexSize > vertices.Buffer.Size() {
		t.Errorf("draw reads past the %d-byte vertex buffer", vertices.Buffer.Size())
	}
}

func TestFrameGraphWithBuilder(t *testing.T) {
	dev := newTestDevice(t)
	var order []string
	custom := &probeNode{name: "custom", log: &order}
	fg := New(dev, WithBuilder(func(*FrameInfo) []Node { return []Node{custom} }))

	frame := &FrameInfo{}
	if err := fg.Build(frame); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := fg.Execute(frame, NewAllocator(dev)); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(custom.phases) != 2 || custom.phases[0] != PhasePrepare || custom.phases[1] != PhaseRender {
		t.Errorf("phases = %v, want [prepare render]", custom.phases)
	}
}

func TestFrameGraphExecuteFrames(t *testing.T) {
	for _, pipeline := range []bool{false, true} {
		name := "clear"
		if pipeline {
			name = "pipeline"
		}
		t.Run(name, func(t *testing.T) {
			dev := newTestDevice(t)
			vp, err := device.NewOffscreenViewport(dev, 64, 32)
			if err != nil {
				t.Fatalf("NewOffscreenViewport failed: %v", err)
			}
			defer vp.Release()

			var opts []Option
			if !pipeline {
				opts = append(opts, WithoutPipelines())
			}
			fg := New(dev, opts...)
			defer fg.Release()
			alloc := NewAllocator(dev)
			defer alloc.Release()

			for i := range 3 {
				frame := &FrameInfo{
					Index:    uint64(i),
					Viewport: vp,
					Scene:    testScene{draws: 12},
					Camera:   DefaultCamera(),
					Options: RenderOptions{
						ShowUI:     true,
						Overlay:    "frame graph",
						ClearColor: gputypes.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
					},
				}
				if err := fg.Build(frame); err != nil {
					t.Fatalf("frame %d: Build failed: %v", i, err)
				}
				if err := fg.Execute(frame, alloc); err != nil {
					t.Fatalf("frame %d: Execute failed: %v", i, err)
				}

				// uiVertices is only declared when the overlay can be drawn.
				want := 3
				if fg.Groups()[0].Nodes()[1].(*UIDrawNode).pipeline != nil {
					want = 4
				}
				s := alloc.Stats()
				if s.Declared != want || s.Unused != 0 {
					t.Errorf("frame %d: Stats = %v, want %d used declarations", i, s, want)
				}
				if i == 0 && s.Created != want {
					t.Errorf("frame 0: Created = %d, want %d", s.Created, want)
				}
				if i > 0 && (s.Reused != want || s.Created != 0 || s.Dropped != 0) {
					t.Errorf("frame %d: Stats = %v, want everything reused", i, s)
				}
			}

			if vp.Presented() != 3 {
				t.Errorf("Presented = %d, want 3", vp.Presented())
			}
			if got := dev.Stats().TexturesCreated; got != 2 {
				t.Errorf("TexturesCreated = %d, want 2 (color, depth)", got)
			}
			if got := strings.Join(fg.Groups()[0].Markers(), ","); got != "scene,ui,present" {
				t.Errorf("markers = %s", got)
			}
		})
	}
}

func TestFrameGraphMultisampledFrame(t *testing.T) {
	dev := newTestDevice(t)
	vp, err := device.NewOffscreenViewport(dev, 32, 32)
	if err != nil {
		t.Fatalf("NewOffscreenViewport failed: %v", err)
	}
	defer vp.Release()

	fg := New(dev)
	defer fg.Release()
	alloc := NewAllocator(dev)
	defer alloc.Release()

	frame := &FrameInfo{Viewport: vp, Camera: DefaultCamera(), Options: RenderOptions{SampleCount: 4}}
	if err := fg.Build(frame); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := fg.Execute(frame, alloc); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	msaa := alloc.GetResource(ResourceColorMSAA)
	if msaa.Texture == nil || msaa.Texture.Descriptor().SampleCount != 4 {
		t.Error("multisampled color target not resolved")
	}
	if d := alloc.GetResource(ResourceDepth).Texture.Descriptor(); d.SampleCount != 4 {
		t.Errorf("depth SampleCount = %d, want 4", d.SampleCount)
	}
	if c := alloc.GetResource(ResourceColor).Texture.Descriptor(); c.SampleCount != 1 {
		t.Errorf("color SampleCount = %d, want 1", c.SampleCount)
	}

	// Dropping MSAA drops the multisampled targets on the next frame.
	frame.Options.SampleCount = 1
	if err := fg.Build(frame); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := fg.Execute(frame, alloc); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if s := alloc.Stats(); s.Dropped != 2 || s.Created != 1 {
		t.Errorf("Stats = %v, want msaa color and depth dropped, single-sample depth created", s)
	}
}

func TestFrameGraphWithoutViewport(t *testing.T) {
	dev := newTestDevice(t)
	fg := New(dev, WithoutPipelines())
	alloc := NewAllocator(dev)
	defer alloc.Release()

	frame := &FrameInfo{Options: RenderOptions{Width: 48, Height: 24}}
	if err := fg.Build(frame); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := fg.Execute(frame, alloc); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	color := alloc.GetResource(ResourceColor).Texture
	if color == nil {
		t.Fatal("color not resolved")
	}
	if d := color.Descriptor(); d.Width != 48 || d.Height != 24 || d.Format != dev.SurfaceFormat() {
		t.Errorf("color = %dx%d %v", d.Width, d.Height, d.Format)
	}
}

package glrender

import (
	"image"
	"image/color"
	"testing"

	"github.com/ryry0/Interstella/gleval"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			c := color.RGBA{A: 255}
			if (i+j)%2 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(i, j, c)
		}
	}
	return img
}

func TestNewTextureWrapAndMipmaps(t *testing.T) {
	tests := []struct {
		w, h       int
		wantWrap   WrapMode
		wantLevels int
	}{
		{w: 4, h: 4, wantWrap: WrapRepeat, wantLevels: 3},
		{w: 8, h: 2, wantWrap: WrapRepeat, wantLevels: 4},
		{w: 3, h: 3, wantWrap: WrapClampToEdge, wantLevels: 1},
		{w: 4, h: 6, wantWrap: WrapClampToEdge, wantLevels: 1},
	}
	for _, tc := range tests {
		tex, err := NewTexture(checker(tc.w, tc.h))
		if err != nil {
			t.Fatal(err)
		}
		if tex.Wrap() != tc.wantWrap {
			t.Errorf("%dx%d: wrap %v, want %v", tc.w, tc.h, tex.Wrap(), tc.wantWrap)
		}
		if tex.Levels() != tc.wantLevels {
			t.Errorf("%dx%d: levels %d, want %d", tc.w, tc.h, tex.Levels(), tc.wantLevels)
		}
		if w, h := tex.Size(); w != tc.w || h != tc.h {
			t.Errorf("size %dx%d, want %dx%d", w, h, tc.w, tc.h)
		}
	}
	_, err := NewTexture(image.NewRGBA(image.Rectangle{}))
	if err == nil {
		t.Error("expected error for empty image")
	}
}

func TestTextureSample(t *testing.T) {
	tex, err := NewTexture(checker(4, 4))
	if err != nil {
		t.Fatal(err)
	}
	white := Vec4{X: 1, Y: 1, Z: 1, W: 1}
	black := Vec4{W: 1}
	// Texel centers sample exactly.
	if got := tex.Sample(ms2.Vec{X: 0.125, Y: 0.125}); got != white {
		t.Errorf("texel (0,0): got %v, want %v", got, white)
	}
	if got := tex.Sample(ms2.Vec{X: 0.375, Y: 0.125}); got != black {
		t.Errorf("texel (1,0): got %v, want %v", got, black)
	}
	// Repeat wrap: one full period away samples the same texel.
	if got := tex.Sample(ms2.Vec{X: 1.125, Y: -0.875}); got != white {
		t.Errorf("wrapped sample: got %v, want %v", got, white)
	}
	// Halfway between two texels blends.
	mid := tex.Sample(ms2.Vec{X: 0.25, Y: 0.125})
	if mid.X < 0.49 || mid.X > 0.51 {
		t.Errorf("bilinear midpoint: got %v", mid)
	}
	// Coarsest mip level of a checker is gray.
	last := tex.SampleLevel(ms2.Vec{X: 0.5, Y: 0.5}, 100)
	if last.X < 0.3 || last.X > 0.7 {
		t.Errorf("coarsest level should average the checker, got %v", last)
	}
}

func TestTextureClampToEdge(t *testing.T) {
	tex, err := NewTexture(checker(3, 3))
	if err != nil {
		t.Fatal(err)
	}
	corner := tex.Sample(ms2.Vec{X: 0, Y: 0})
	far := tex.Sample(ms2.Vec{X: -5, Y: -5})
	if corner != far {
		t.Errorf("clamp to edge: got %v outside, want %v", far, corner)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for v, want := range map[int]bool{0: false, 1: true, 2: true, 3: false, 64: true, 96: false, -4: false} {
		if got := IsPowerOfTwo(v); got != want {
			t.Errorf("IsPowerOfTwo(%d)=%v, want %v", v, got, want)
		}
	}
}

func TestSliceRenderer(t *testing.T) {
	sr, err := NewSliceRenderer(128, nil)
	if err != nil {
		t.Fatal(err)
	}
	eval := &gleval.CPUEvaluator{SDF: sphereAt(ms3.Vec{}, 1)}
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	slice := Slice{Axis: 2, Min: ms2.Vec{X: -2, Y: -2}, Max: ms2.Vec{X: 2, Y: 2}}
	err = sr.Render(eval, slice, 0, img)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(10, 10); got != (color.RGBA{A: 255}) {
		t.Errorf("center inside sphere should be black, got %v", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("corner outside sphere should be white, got %v", got)
	}
	_, err = NewSliceRenderer(8, nil)
	if err == nil {
		t.Error("expected error for small buffer")
	}
	err = sr.Render(eval, Slice{Axis: 3, Max: ms2.Vec{X: 1, Y: 1}}, 0, img)
	if err == nil {
		t.Error("expected error for bad axis")
	}
}

func TestSlicePoint(t *testing.T) {
	q := ms2.Vec{X: 1, Y: 2}
	tests := []struct {
		axis int
		want ms3.Vec
	}{
		{axis: 0, want: ms3.Vec{X: 5, Y: 1, Z: 2}},
		{axis: 1, want: ms3.Vec{X: 2, Y: 5, Z: 1}},
		{axis: 2, want: ms3.Vec{X: 1, Y: 2, Z: 5}},
	}
	for _, tc := range tests {
		got := Slice{Axis: tc.axis, Offset: 5}.Point(q)
		if got != tc.want {
			t.Errorf("axis %d: got %v, want %v", tc.axis, got, tc.want)
		}
	}
}

func TestMipLevel(t *testing.T) {
	tests := []struct {
		footprint float32
		size      int
		want      int
	}{
		{footprint: 0, size: 64, want: 0},
		{footprint: 1. / 128, size: 64, want: 0},
		{footprint: 1. / 64, size: 64, want: 0},
		{footprint: 0.07, size: 64, want: 2},
		{footprint: 0.9, size: 64, want: 5},
		{footprint: 0.0153, size: 1024, want: 3},
	}
	for _, test := range tests {
		got := MipLevel(test.footprint, test.size)
		if got != test.want {
			t.Errorf("MipLevel(%v, %d): got %d, want %d", test.footprint, test.size, got, test.want)
		}
	}
}

// lodRecorder is a mipmapped sampler that records the last level sampled.
type lodRecorder struct {
	size    int
	lastLOD int
}

func (r *lodRecorder) Sample(uv ms2.Vec) Vec4 { return r.SampleLevel(uv, 0) }

func (r *lodRecorder) SampleLevel(uv ms2.Vec, lod int) Vec4 {
	r.lastLOD = lod
	return Vec4{X: 0.5, Y: 0.5, Z: 0.5, W: 1}
}

func (r *lodRecorder) Size() (w, h int) { return r.size, r.size }

func TestShadeSelectsMipLevel(t *testing.T) {
	rec := &lodRecorder{size: 1024}
	cfg := &Config{
		Camera:  CameraRig{Target: ms3.Vec{Z: 1}},
		Mode:    ShadeTriplanar,
		Texture: rec,
		Sky:     SkyColor,
		Ambient: AmbientColor,
	}
	vp := cfg.ViewportSize()
	center := float32(min(vp[0], vp[1])) / 2
	tests := []struct {
		name    string
		scene   gleval.SDF3
		wantLOD int
	}{
		// Hit at distance 2.5: 1.7 texels per pixel.
		{name: "near", scene: sphereAt(ms3.Vec{Z: 3}, 0.5), wantLOD: 0},
		// Hit at distance 22: 15.6 texels per pixel.
		{name: "far", scene: sphereAt(ms3.Vec{Z: 25}, 3), wantLOD: 3},
	}
	for _, test := range tests {
		cfg.Scene = test.scene
		rec.lastLOD = -1
		cfg.Shade(cfg.Camera.At(0), center, center, 0)
		if rec.lastLOD != test.wantLOD {
			t.Errorf("%s: sampled level %d, want %d", test.name, rec.lastLOD, test.wantLOD)
		}
	}

	// Textures from NewTexture take the same path.
	tex, err := NewTexture(checker(64, 64))
	if err != nil {
		t.Fatal(err)
	}
	var _ MipSampler = tex
	cfg.Texture = tex
	if s, ok := cfg.textureAt(22, DefaultFocalLength).(levelSampler); !ok || s.lod != 0 {
		t.Errorf("64 texel texture at distance 22: got sampler %#v, want level 0", s)
	}
	if s := cfg.textureAt(400, DefaultFocalLength).(levelSampler); s.lod != 4 {
		t.Errorf("64 texel texture at distance 400: got level %d, want 4", s.lod)
	}
}

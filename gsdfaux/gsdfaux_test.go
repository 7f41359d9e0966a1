package gsdfaux

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	interstella "github.com/ryry0/Interstella"
	"github.com/ryry0/Interstella/gleval"
	"github.com/ryry0/Interstella/glrender"
	"github.com/soypat/geometry/ms2"
)

func TestColorGradient(t *testing.T) {
	const gradLen = 256
	conv := ColorConversionLinearGradient(gradLen, color.White, red)
	if got := conv(-gradLen); got != color.White {
		t.Errorf("below gradient got %v, want white", got)
	}
	if got := conv(gradLen); got != red {
		t.Errorf("above gradient got %v, want red", got)
	}
	mid := conv(0).(color.RGBA)
	if mid.R != 255 || mid.G < 126 || mid.G > 128 || mid.G != mid.B {
		t.Errorf("midpoint got %v, want half saturated red", mid)
	}
}

func TestColorToHSV(t *testing.T) {
	for _, c := range []color.RGBA{
		red,
		{A: 255},
		{R: 255, G: 255, B: 255, A: 255},
	} {
		got := colorToHSV(c).rgba()
		if got != c {
			t.Errorf("round trip of %v got %v", c, got)
		}
	}
}

func TestColorConversionInigoQuilez(t *testing.T) {
	conv := ColorConversionInigoQuilez(1)
	if got := conv(float32(math.NaN())); got != red {
		t.Errorf("NaN got %v, want red", got)
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if got := conv(0); got != white {
		t.Errorf("surface got %v, want white isoline", got)
	}
	in := conv(-0.5).(color.RGBA)
	out := conv(0.5).(color.RGBA)
	if in.B <= in.R {
		t.Errorf("inside color %v should be blue dominant", in)
	}
	if out.R <= out.B {
		t.Errorf("outside color %v should be red dominant", out)
	}
	if ColorConversionSign(-1) != color.Black || ColorConversionSign(1) != color.White {
		t.Error("sign conversion mismatch")
	}
}

func TestRenderConfig(t *testing.T) {
	tests := []struct {
		cfg     RenderConfig
		wantErr bool
	}{
		{cfg: RenderConfig{Width: 16, Height: 9}},
		{cfg: RenderConfig{Width: 16, Height: 9, Frames: 10, FPS: 24}},
		{cfg: RenderConfig{Width: 0, Height: 9}, wantErr: true},
		{cfg: RenderConfig{Width: 16, Height: 9, Frames: -1}, wantErr: true},
		{cfg: RenderConfig{Width: 16, Height: 9, Frames: 2}, wantErr: true},
	}
	for i, test := range tests {
		err := test.cfg.Validate()
		if (err != nil) != test.wantErr {
			t.Errorf("case %d: got error %v, wantErr=%v", i, err, test.wantErr)
		}
	}
	cfg := RenderConfig{Start: 1, FPS: 4}
	if got := cfg.FrameTime(2); got != 1.5 {
		t.Errorf("FrameTime(2) got %v, want 1.5", got)
	}
	cfg.FPS = 0
	if got := cfg.FrameTime(2); got != 1 {
		t.Errorf("FrameTime without FPS got %v, want start time", got)
	}
}

func TestRenderFrame(t *testing.T) {
	demo, err := interstella.NewDemo(interstella.DemoNameStatic, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := RenderConfig{Width: 32, Height: 18}
	img, err := RenderFrame(context.Background(), demo, 0, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 18 {
		t.Fatalf("got bounds %v", img.Bounds())
	}
	sky := glrender.ToRGBA(glrender.Vec4{X: glrender.SkyColor.X, Y: glrender.SkyColor.Y, Z: glrender.SkyColor.Z, W: 1})
	if got := img.RGBAAt(16, 0); got != sky {
		t.Errorf("top pixel got %v, want sky %v", got, sky)
	}
	if got := img.RGBAAt(16, 17); got == sky {
		t.Error("bottom pixel should show the floor")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RenderFrame(ctx, demo, 0, cfg)
	if err == nil {
		t.Error("expected error rendering with canceled context")
	}
}

func TestRenderPNGFiles(t *testing.T) {
	demo, err := interstella.NewDemo(interstella.DemoNameAnimated, nil)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	cfg := RenderConfig{Width: 16, Height: 9, Frames: 2, FPS: 10, Silent: true}
	err = RenderPNGFiles(context.Background(), filepath.Join(dir, "frame%02d.png"), demo, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"frame00.png", "frame01.png"} {
		img, err := LoadImage(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if img.Bounds() != image.Rect(0, 0, 16, 9) {
			t.Errorf("%s: got bounds %v", name, img.Bounds())
		}
	}
}

func TestDrawHUD(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	err := DrawHUD(img, "static t=0.00s")
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(1, 1); got.R == 255 {
		t.Errorf("HUD backdrop did not darken corner pixel: %v", got)
	}
	if got := img.RGBAAt(119, 39); got.R != 255 {
		t.Errorf("HUD modified pixel far from text: %v", got)
	}
}

func TestCheckerTexture(t *testing.T) {
	img := CheckerImage(64, 8)
	if img.RGBAAt(0, 0) == img.RGBAAt(8, 0) {
		t.Error("adjacent checker cells have same color")
	}
	if img.RGBAAt(0, 0) != img.RGBAAt(8, 8) {
		t.Error("diagonal checker cells differ")
	}
	tex := CheckerTexture()
	w, h := tex.Size()
	if w != 64 || h != 64 {
		t.Errorf("got texture size %dx%d", w, h)
	}
	if tex.Levels() < 2 {
		t.Error("power of two texture should be mipmapped")
	}

	filename := filepath.Join(t.TempDir(), "checker.png")
	err := writePNGFile(filename, img)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadTexture(filename)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := loaded.Sample(ms2.Vec{X: 0.01, Y: 0.01}), tex.Sample(ms2.Vec{X: 0.01, Y: 0.01}); got != want {
		t.Errorf("loaded texture sample got %v, want %v", got, want)
	}
	_, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Error("expected error loading missing file")
	}
}

func TestWriteFragmentShader(t *testing.T) {
	common := []string{
		"#version 430",
		"uniform float uTime;",
		"uniform vec2 uResolution;",
		"uniform sampler2D uSampler;",
		"float stellaScene(vec3 p)",
		"stellaRayMarch(eye, rd, steps, dist)",
		"stellaApplyFog(col, sky, dist)",
		"void main()",
	}
	tests := []struct {
		name    string
		want    []string
		notWant []string
	}{
		{
			name:    interstella.DemoNameStatic,
			want:    []string{"stellaLambertLight(p, light0", "stellaLambertLight(p, light1"},
			notWant: []string{"eye.x +=", "light0.y +=", "stellaTriplanar(uSampler"},
		},
		{
			name:    interstella.DemoNameAnimated,
			want:    []string{"eye.x +=", "light0.y +=", "uTime);"},
			notWant: []string{"light1.y +=", "stellaTriplanar(uSampler"},
		},
		{
			name:    interstella.DemoNameTextured,
			want:    []string{"stellaTriplanar(uSampler, stellaPeriodize(p), n, stellaTriplanarSharpness)"},
			notWant: []string{"stellaLambertLight(p, light0"},
		},
	}
	for _, test := range tests {
		demo, err := interstella.NewDemo(test.name, CheckerTexture())
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		n, err := WriteFragmentShader(&buf, demo)
		if err != nil {
			t.Fatal(test.name, err)
		} else if n != buf.Len() {
			t.Errorf("%s: wrote %d bytes, counted %d", test.name, buf.Len(), n)
		}
		src := buf.String()
		for _, want := range append(common, test.want...) {
			if !strings.Contains(src, want) {
				t.Errorf("%s: shader missing %q", test.name, want)
			}
		}
		for _, notWant := range test.notWant {
			if strings.Contains(src, notWant) {
				t.Errorf("%s: shader should not contain %q", test.name, notWant)
			}
		}
	}
	_, err := WriteFragmentShader(io.Discard, interstella.Demo{})
	if err == nil {
		t.Error("expected error for demo without scene")
	}
}

func TestRenderSlice(t *testing.T) {
	var bld interstella.Builder
	eval := &gleval.CPUEvaluator{SDF: bld.NewSphere(0.5)}
	slice := glrender.Slice{Axis: 2, Min: ms2.Vec{X: -1, Y: -1}, Max: ms2.Vec{X: 1, Y: 1}}
	const picHeight = 20
	var buf bytes.Buffer
	err := RenderSlicePNG(&buf, eval, slice, 0, picHeight, ColorConversionSign)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != picHeight || img.Bounds().Dy() != picHeight {
		t.Fatalf("got bounds %v", img.Bounds())
	}
	if r, _, _, _ := img.At(10, 10).RGBA(); r != 0 {
		t.Error("center of sphere slice should be inside")
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0xffff {
		t.Error("slice corner should be outside")
	}

	buf.Reset()
	err = RenderSliceNormalsPNG(&buf, eval, slice, 0, picHeight)
	if err != nil {
		t.Fatal(err)
	}
	img, err = png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	// Pixel at x=0.75 on the equator has a +X facing normal.
	c := color.RGBAModel.Convert(img.At(17, 10)).(color.RGBA)
	if c.R < 240 || c.B < 120 || c.B > 135 {
		t.Errorf("normal color got %v, want +X normal", c)
	}

	w, h := SliceSize(glrender.Slice{Min: ms2.Vec{}, Max: ms2.Vec{X: 2, Y: 1}}, 50)
	if w != 100 || h != 50 {
		t.Errorf("SliceSize got %dx%d, want 100x50", w, h)
	}
}

func TestFrameStreamer(t *testing.T) {
	demo, err := interstella.NewDemo(interstella.DemoNameAnimated, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewFrameStreamer(demo, StreamConfig{Width: 32, Height: 18})
	if err == nil {
		t.Error("expected error for stream without FPS")
	}
	fs, err := NewFrameStreamer(demo, StreamConfig{Width: 32, Height: 18, FPS: 20})
	if err != nil {
		t.Fatal(err)
	}
	fs.Logf = func(string, ...any) {} // Handler outlives the test.
	srv := httptest.NewServer(fs)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "<canvas") {
		t.Error("index page missing canvas")
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	kind, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("got message type %d, want binary", kind)
	}
	img, err := png.Decode(bytes.NewReader(msg))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 32, 18) {
		t.Errorf("got frame bounds %v", img.Bounds())
	}
}

func TestUIConfig(t *testing.T) {
	demo, err := interstella.NewDemo(interstella.DemoNameStatic, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = UI(demo, UIConfig{Width: 0, Height: 10})
	if err == nil {
		t.Error("expected error for empty window")
	}
	err = UI(interstella.Demo{}, UIConfig{Width: 10, Height: 10})
	if err == nil {
		t.Error("expected error for demo without scene")
	}
}

func TestSliceColorConversion(t *testing.T) {
	slice := glrender.Slice{Axis: 2, Min: ms2.Vec{X: -1, Y: -1}, Max: ms2.Vec{X: 1, Y: 1}}
	for _, name := range []string{"", SliceColorInigoQuilez, SliceColorGradient, SliceColorSign} {
		conv, err := SliceColorConversion(name, slice)
		if err != nil {
			t.Fatalf("%q: %s", name, err)
		}
		if conv(-0.5) == conv(0.5) {
			t.Errorf("%q: inside and outside colors should differ", name)
		}
	}
	sign, _ := SliceColorConversion(SliceColorSign, slice)
	if sign(-1) != color.Black {
		t.Error("sign coloring should be black inside")
	}
	_, err := SliceColorConversion("rainbow", slice)
	if err == nil {
		t.Error("expected error for unknown coloring")
	}
}

func TestWriteFragmentShaderKeepsRender(t *testing.T) {
	demo, err := interstella.NewDemo(interstella.DemoNameAnimated, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := RenderConfig{Width: 32, Height: 18}
	before, err := RenderFrame(context.Background(), demo, 0.3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, err = WriteFragmentShader(io.Discard, demo)
	if err != nil {
		t.Fatal(err)
	}
	after, err := RenderFrame(context.Background(), demo, 0.3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before.Pix, after.Pix) {
		t.Error("writing the fragment shader changed the CPU render")
	}
}

package gsdfaux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chewxy/math32"
	interstella "github.com/ryry0/Interstella"
	"github.com/ryry0/Interstella/glbuild"
	"github.com/ryry0/Interstella/gleval"
	"github.com/ryry0/Interstella/glrender"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	_ "golang.org/x/image/bmp"
)

// RenderConfig configures CPU rendering of demo frames to PNG.
type RenderConfig struct {
	Width, Height int
	// Workers limits the goroutines rendering a frame. Zero uses GOMAXPROCS.
	Workers int
	// Start is the time of the first frame in seconds.
	Start float32
	// Frames is the number of frames rendered by [RenderPNGFiles]. Zero renders one frame.
	Frames int
	// FPS is the frame rate of a sequence. Frame i is rendered at Start+i/FPS.
	FPS float32
	// HUD draws the demo name and frame time on each frame.
	HUD    bool
	Silent bool
}

// Validate checks the configuration for sizes and frame rate errors.
func (cfg RenderConfig) Validate() error {
	var errs []error
	if cfg.Width <= 0 || cfg.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid image size %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.Frames < 0 {
		errs = append(errs, errors.New("negative frame count"))
	}
	if cfg.Frames > 1 && cfg.FPS <= 0 {
		errs = append(errs, errors.New("frame sequence requires positive FPS"))
	}
	return errors.Join(errs...)
}

// FrameTime returns the time in seconds of frame i.
func (cfg RenderConfig) FrameTime(i int) float32 {
	if cfg.FPS <= 0 {
		return cfg.Start
	}
	return cfg.Start + float32(i)/cfg.FPS
}

// RenderFrame renders demo at time t into a new image.
func RenderFrame(ctx context.Context, demo interstella.Demo, t float32, cfg RenderConfig) (*image.RGBA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := demo.Config.Validate(); err != nil {
		return nil, fmt.Errorf("demo %q: %w", demo.Name, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	renderer := glrender.ImageRenderer{Workers: cfg.Workers}
	err := renderer.Render(ctx, &demo.Config, img, t)
	if err != nil {
		return nil, err
	}
	if cfg.HUD {
		err = DrawHUD(img, fmt.Sprintf("%s t=%.2fs", demo.Name, t))
		if err != nil {
			return nil, err
		}
	}
	return img, nil
}

// RenderPNG renders a single frame of demo at cfg.Start and PNG encodes it to w.
func RenderPNG(ctx context.Context, w io.Writer, demo interstella.Demo, cfg RenderConfig) error {
	img, err := RenderFrame(ctx, demo, cfg.Start, cfg)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// RenderPNGFiles renders a frame sequence of demo to PNG files. pattern is
// formatted with the frame index, i.e: "frame%03d.png". A single frame is
// written to pattern unformatted if it contains no verb.
func RenderPNGFiles(ctx context.Context, pattern string, demo interstella.Demo, cfg RenderConfig) error {
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	frames := max(cfg.Frames, 1)
	for i := 0; i < frames; i++ {
		watch := stopwatch()
		t := cfg.FrameTime(i)
		img, err := RenderFrame(ctx, demo, t, cfg)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		filename := pattern
		if strings.Contains(pattern, "%") {
			filename = fmt.Sprintf(pattern, i)
		}
		err = writePNGFile(filename, img)
		if err != nil {
			return err
		}
		log("wrote", filename, "t=", t, "in", watch())
	}
	return nil
}

func writePNGFile(filename string, img image.Image) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return err
	}
	return fp.Sync()
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// LoadImage decodes a PNG, JPEG or BMP image file.
func LoadImage(filename string) (image.Image, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	img, _, err := image.Decode(fp)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}
	return img, nil
}

// LoadTexture decodes an image file into a texture ready for CPU sampling.
func LoadTexture(filename string) (*glrender.Texture, error) {
	img, err := LoadImage(filename)
	if err != nil {
		return nil, err
	}
	return glrender.NewTexture(img)
}

// CheckerImage returns a size x size checkerboard with cells x cells squares.
func CheckerImage(size, cells int) *image.RGBA {
	light := color.RGBA{R: 230, G: 220, B: 200, A: 255}
	dark := color.RGBA{R: 60, G: 70, B: 90, A: 255}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cell := max(size/max(cells, 1), 1)
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			c := dark
			if (i/cell+j/cell)%2 == 0 {
				c = light
			}
			img.SetRGBA(i, j, c)
		}
	}
	return img
}

// CheckerTexture returns the texture used when no texture file is given.
func CheckerTexture() *glrender.Texture {
	tex, err := glrender.NewTexture(CheckerImage(64, 8))
	if err != nil {
		panic(err) // Unreachable for a non-empty image.
	}
	return tex
}

// NewGPUEvaluator compiles s into a compute program and returns an evaluator
// running on the GPU. The terminate function releases the GL context and must
// be called from the same locked OS thread.
// Nodes of s are wrapped in place with shortened shader names; CPU
// distances through s are unchanged.
func NewGPUEvaluator(s glbuild.Shader3D) (eval gleval.Evaluator3, terminate func(), err error) {
	terminate, err = gleval.Init1x1GLFW()
	if err != nil {
		return nil, nil, err
	}
	err = glbuild.ShortenNames3D(&s, 8)
	if err != nil {
		terminate()
		return nil, nil, fmt.Errorf("shortening shader names: %s", err)
	}
	const invocX = 32
	prog := glbuild.NewDefaultProgrammer()
	prog.SetComputeInvocations(invocX, 1, 1)
	var source bytes.Buffer
	n, err := prog.WriteComputeSDF3(&source, s)
	if err != nil {
		terminate()
		return nil, nil, err
	} else if n != source.Len() {
		terminate()
		return nil, nil, fmt.Errorf("wrote %d bytes but WriteComputeSDF3 counted %d", source.Len(), n)
	}
	sdf, err := gleval.NewComputeGPUSDF3(&source, invocX)
	if err != nil {
		terminate()
		return nil, nil, err
	}
	return sdf, terminate, nil
}

// SliceSize returns the image dimensions of a slice rendered picHeight pixels tall,
// keeping the slice's aspect ratio.
func SliceSize(slice glrender.Slice, picHeight int) (width, height int) {
	sz := ms2.Sub(slice.Max, slice.Min)
	if sz.Y <= 0 {
		return 0, picHeight
	}
	return int(float32(picHeight) * sz.X / sz.Y), picHeight
}

// RenderSlicePNG evaluates the distance field on slice at time t and PNG encodes
// the colored distances to w. The image width is sized automatically from picHeight
// to preserve the slice's aspect ratio. If a nil color conversion function is
// passed then [ColorConversionInigoQuilez] is used.
func RenderSlicePNG(w io.Writer, eval gleval.Evaluator3, slice glrender.Slice, t float32, picHeight int, colorConversion func(float32) color.Color) error {
	picWidth, picHeight := SliceSize(slice, picHeight)
	if picWidth <= 0 || picHeight <= 0 {
		return fmt.Errorf("invalid slice image size %dx%d", picWidth, picHeight)
	}
	if colorConversion == nil {
		colorConversion, _ = SliceColorConversion(SliceColorInigoQuilez, slice)
	}
	renderer, err := glrender.NewSliceRenderer(max(4096, picWidth), colorConversion)
	if err != nil {
		return err
	}
	img := image.NewRGBA(image.Rect(0, 0, picWidth, picHeight))
	err = renderer.Render(eval, slice, t, img)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// RenderSliceNormalsPNG colors each pixel of slice with the field's gradient
// direction at time t, mapping normal components from [-1,1] to [0,255].
func RenderSliceNormalsPNG(w io.Writer, eval gleval.Evaluator3, slice glrender.Slice, t float32, picHeight int) error {
	picWidth, picHeight := SliceSize(slice, picHeight)
	if picWidth <= 0 || picHeight <= 0 {
		return fmt.Errorf("invalid slice image size %dx%d", picWidth, picHeight)
	}
	img := image.NewRGBA(image.Rect(0, 0, picWidth, picHeight))
	pos := make([]ms3.Vec, picWidth)
	normals := make([]ms3.Vec, picWidth)
	sz := ms2.Sub(slice.Max, slice.Min)
	dx, dy := sz.X/float32(picWidth), sz.Y/float32(picHeight)
	step := math32.Min(dx, dy) / 2
	for j := 0; j < picHeight; j++ {
		y := slice.Max.Y - (float32(j)+0.5)*dy
		for i := range pos {
			pos[i] = slice.Point(ms2.Vec{X: slice.Min.X + (float32(i)+0.5)*dx, Y: y})
		}
		err := gleval.NormalsCentralDiff(eval, pos, normals, step, t)
		if err != nil {
			return err
		}
		for i, n := range normals {
			n = glrender.Normalize(n)
			img.SetRGBA(i, j, color.RGBA{
				R: uint8(255 * (0.5 + 0.5*n.X)),
				G: uint8(255 * (0.5 + 0.5*n.Y)),
				B: uint8(255 * (0.5 + 0.5*n.Z)),
				A: 255,
			})
		}
	}
	return png.Encode(w, img)
}

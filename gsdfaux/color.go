package gsdfaux

import (
	"fmt"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/ryry0/Interstella/glrender"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

// HSV interpolation below follows Esme Lamb's (@dedelala) color manipulation
// work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

var red = color.RGBA{R: 255, A: 255}

// Slice coloring names accepted by [SliceColorConversion].
const (
	SliceColorInigoQuilez = "iq"
	SliceColorGradient    = "gradient"
	SliceColorSign        = "sign"
)

// SliceColorConversion returns the named distance coloring scaled to slice.
// An empty name selects [ColorConversionInigoQuilez].
func SliceColorConversion(name string, slice glrender.Slice) (func(float32) color.Color, error) {
	diag := ms2.Norm(ms2.Sub(slice.Max, slice.Min))
	switch name {
	case "", SliceColorInigoQuilez:
		return ColorConversionInigoQuilez(diag / 3), nil
	case SliceColorGradient:
		return ColorConversionLinearGradient(diag/2, color.White, red), nil
	case SliceColorSign:
		return ColorConversionSign, nil
	}
	return nil, fmt.Errorf("unknown slice coloring %q, want %q, %q or %q", name, SliceColorInigoQuilez, SliceColorGradient, SliceColorSign)
}

// ColorConversionInigoQuilez creates a new color conversion using [Inigo Quilez]'s style.
// A good value for characteristic distance is the slice diagonal divided by 3. Returns red for NaN values.
//
// [Inigo Quilez]: https://iquilezles.org/articles/distfunctions2d/
func ColorConversionInigoQuilez(characteristicDistance float32) func(float32) color.Color {
	inv := 1. / characteristicDistance
	outside := ms3.Vec{X: 0.9, Y: 0.6, Z: 0.3}
	inside := ms3.Vec{X: 0.65, Y: 0.85, Z: 1.0}
	return func(d float32) color.Color {
		if math32.IsNaN(d) {
			return red
		}
		d *= inv
		c := outside
		if d <= 0 {
			c = inside
		}
		ad := math32.Abs(d)
		c = ms3.Scale(1-math32.Exp(-6*ad), c)
		c = ms3.Scale(0.8+0.2*math32.Cos(150*d), c)
		// Isoline at the surface.
		edge := 1 - ms1.SmoothStep(0, 0.01, ad)
		c = ms3.Add(c, ms3.Scale(edge, ms3.Sub(ms3.Vec{X: 1, Y: 1, Z: 1}, c)))
		return vecToRGBA(c)
	}
}

// ColorConversionLinearGradient creates a color conversion function that creates a gradient centered
// along d=0 that extends gradientLength. Colors are interpolated in HSV space.
func ColorConversionLinearGradient(gradientLength float32, c0, c1 color.Color) func(d float32) color.Color {
	h0 := colorToHSV(c0)
	h1 := colorToHSV(c1)
	return func(d float32) color.Color {
		blend := d/gradientLength + 0.5
		if blend <= 0 {
			return c0
		} else if blend >= 1 {
			return c1
		}
		return h0.interp(h1, blend).rgba()
	}
}

// ColorConversionSign returns black inside the surface and white outside it.
func ColorConversionSign(d float32) color.Color {
	if d < 0 {
		return color.Black
	}
	return color.White
}

func vecToRGBA(c ms3.Vec) color.RGBA {
	return color.RGBA{
		R: uint8(ms1.Clamp(c.X, 0, 1) * 255),
		G: uint8(ms1.Clamp(c.Y, 0, 1) * 255),
		B: uint8(ms1.Clamp(c.Z, 0, 1) * 255),
		A: 255,
	}
}

// hsv is a color with hue, saturation and value on the range 0 to 1.
type hsv struct {
	h, s, v float32
}

// interp interpolates along the shortest hue arc.
func (c hsv) interp(to hsv, t float32) hsv {
	switch {
	case to.h-c.h > 0.5:
		c.h += 1
	case to.h-c.h < -0.5:
		to.h += 1
	}
	h := ms1.Interp(c.h, to.h, t)
	if h >= 1 {
		h -= 1
	}
	return hsv{
		h: h,
		s: ms1.Interp(c.s, to.s, t),
		v: ms1.Interp(c.v, to.v, t),
	}
}

func (c hsv) rgba() color.RGBA {
	var (
		chroma = c.s * c.v
		x      = chroma * (1 - math32.Abs(math32.Mod(c.h*6, 2)-1))
		m      = c.v - chroma
		rgb    ms3.Vec
	)
	switch {
	case c.h <= 1.0/6:
		rgb = ms3.Vec{X: chroma, Y: x}
	case c.h <= 2.0/6:
		rgb = ms3.Vec{X: x, Y: chroma}
	case c.h <= 3.0/6:
		rgb = ms3.Vec{Y: chroma, Z: x}
	case c.h <= 4.0/6:
		rgb = ms3.Vec{Y: x, Z: chroma}
	case c.h <= 5.0/6:
		rgb = ms3.Vec{X: x, Z: chroma}
	default:
		rgb = ms3.Vec{X: chroma, Z: x}
	}
	return vecToRGBA(ms3.AddScalar(m, rgb))
}

func colorToHSV(c color.Color) hsv {
	r0, g0, b0, _ := c.RGBA()
	r := float32(r0>>8) / 255
	g := float32(g0>>8) / 255
	b := float32(b0>>8) / 255
	xmax := max(r, g, b)
	chroma := xmax - min(r, g, b)
	out := hsv{v: xmax}
	switch {
	case chroma == 0:
	case xmax == r:
		out.h = (g - b) / (chroma * 6)
	case xmax == g:
		out.h = 1.0/3 + (b-r)/(chroma*6)
	default:
		out.h = 2.0/3 + (r-g)/(chroma*6)
	}
	if out.h < 0 {
		out.h += 1
	}
	if xmax > 0 {
		out.s = chroma / xmax
	}
	return out
}

package glrender

import (
	"errors"
	"image"
	"image/draw"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	xdraw "golang.org/x/image/draw"
)

// Sampler returns a color for a texture coordinate.
type Sampler interface {
	Sample(uv ms2.Vec) Vec4
}

// MipSampler is a [Sampler] with a mipmap chain. Triplanar shading samples the
// level matching the pixel footprint of the shaded point.
type MipSampler interface {
	Sampler
	SampleLevel(uv ms2.Vec, lod int) Vec4
	// Size returns the dimensions of the base level.
	Size() (w, h int)
}

// MipLevel returns the mipmap level whose texels best match a pixel covering
// footprint texture coordinate units of a texture size texels wide.
func MipLevel(footprint float32, size int) int {
	texels := footprint * float32(size)
	if !(texels > 1) {
		return 0
	}
	return int(math32.Floor(math32.Log2(texels)))
}

// levelSampler samples a fixed mipmap level.
type levelSampler struct {
	tex MipSampler
	lod int
}

func (ls levelSampler) Sample(uv ms2.Vec) Vec4 { return ls.tex.SampleLevel(uv, ls.lod) }

// WrapMode determines how texture coordinates outside [0,1] are resolved.
type WrapMode uint8

const (
	// WrapRepeat tiles the texture.
	WrapRepeat WrapMode = iota
	// WrapClampToEdge repeats the edge texels.
	WrapClampToEdge
)

// Texture is an immutable RGBA texture with bilinear filtering.
// Power of two textures repeat and carry a mipmap chain. Other sizes clamp to
// edge and have a single level, matching what WebGL1 allows.
type Texture struct {
	wrap   WrapMode
	levels []texLevel
}

type texLevel struct {
	w, h int
	pix  []Vec4
}

// NewTexture converts img into a texture.
func NewTexture(img image.Image) (*Texture, error) {
	bb := img.Bounds()
	if bb.Dx() <= 0 || bb.Dy() <= 0 {
		return nil, errors.New("empty texture image")
	}
	rgba := image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bb.Min, draw.Src)
	tex := &Texture{wrap: WrapClampToEdge}
	tex.levels = append(tex.levels, makeLevel(rgba))
	if !IsPowerOfTwo(bb.Dx()) || !IsPowerOfTwo(bb.Dy()) {
		return tex, nil
	}
	tex.wrap = WrapRepeat
	for rgba.Bounds().Dx() > 1 || rgba.Bounds().Dy() > 1 {
		w := max(1, rgba.Bounds().Dx()/2)
		h := max(1, rgba.Bounds().Dy()/2)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.BiLinear.Scale(next, next.Bounds(), rgba, rgba.Bounds(), xdraw.Src, nil)
		tex.levels = append(tex.levels, makeLevel(next))
		rgba = next
	}
	return tex, nil
}

func makeLevel(img *image.RGBA) texLevel {
	bb := img.Bounds()
	lvl := texLevel{w: bb.Dx(), h: bb.Dy(), pix: make([]Vec4, bb.Dx()*bb.Dy())}
	for j := 0; j < lvl.h; j++ {
		for i := 0; i < lvl.w; i++ {
			c := img.RGBAAt(bb.Min.X+i, bb.Min.Y+j)
			lvl.pix[j*lvl.w+i] = Vec4{
				X: float32(c.R) / 255,
				Y: float32(c.G) / 255,
				Z: float32(c.B) / 255,
				W: float32(c.A) / 255,
			}
		}
	}
	return lvl
}

// IsPowerOfTwo reports whether v is a positive power of two.
func IsPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// Wrap returns the texture's wrap mode.
func (tex *Texture) Wrap() WrapMode { return tex.wrap }

// Levels returns the number of mipmap levels, 1 for textures without mipmaps.
func (tex *Texture) Levels() int { return len(tex.levels) }

// Size returns the dimensions of the base level.
func (tex *Texture) Size() (w, h int) { return tex.levels[0].w, tex.levels[0].h }

// Sample bilinearly samples the base level. uv (0,0) is the first texel of the first image row.
func (tex *Texture) Sample(uv ms2.Vec) Vec4 {
	return tex.sampleLevel(&tex.levels[0], uv)
}

// SampleLevel bilinearly samples mipmap level lod, clamped to the available levels.
func (tex *Texture) SampleLevel(uv ms2.Vec, lod int) Vec4 {
	lod = max(0, min(lod, len(tex.levels)-1))
	return tex.sampleLevel(&tex.levels[lod], uv)
}

func (tex *Texture) sampleLevel(lvl *texLevel, uv ms2.Vec) Vec4 {
	x := uv.X*float32(lvl.w) - 0.5
	y := uv.Y*float32(lvl.h) - 0.5
	x0 := math32.Floor(x)
	y0 := math32.Floor(y)
	fx := x - x0
	fy := y - y0
	i0, j0 := int(x0), int(y0)
	c00 := tex.texel(lvl, i0, j0)
	c10 := tex.texel(lvl, i0+1, j0)
	c01 := tex.texel(lvl, i0, j0+1)
	c11 := tex.texel(lvl, i0+1, j0+1)
	top := c00.Scale(1 - fx).Add(c10.Scale(fx))
	bot := c01.Scale(1 - fx).Add(c11.Scale(fx))
	return top.Scale(1 - fy).Add(bot.Scale(fy))
}

func (tex *Texture) texel(lvl *texLevel, i, j int) Vec4 {
	switch tex.wrap {
	case WrapRepeat:
		i = ((i % lvl.w) + lvl.w) % lvl.w
		j = ((j % lvl.h) + lvl.h) % lvl.h
	default:
		i = max(0, min(i, lvl.w-1))
		j = max(0, min(j, lvl.h-1))
	}
	return lvl.pix[j*lvl.w+i]
}

//go:build !tinygo && cgo

package gsdfaux

import (
	"bytes"
	"fmt"
	"image"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	interstella "github.com/ryry0/Interstella"
	"github.com/ryry0/Interstella/glbuild"
	"github.com/ryry0/Interstella/glrender"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"golang.org/x/image/draw"
)

func ui(demo interstella.Demo, cfg UIConfig) error {
	window, term, err := startGLFW(cfg.Width, cfg.Height, "Interstella: "+demo.Name)
	if err != nil {
		return err
	}
	defer term()
	var frag bytes.Buffer
	_, err = WriteFragmentShader(&frag, demo)
	if err != nil {
		return err
	}
	frag.WriteByte(0)
	fragSrc := frag.String()
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   vertexShader + "\x00",
		Fragment: fragSrc,
	})
	if err != nil {
		return fmt.Errorf("%s\n\n%w", fragSrc, err)
	}
	prog.Bind()
	// Define a quad covering the screen
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	posAttrib, err := prog.AttribLocation("aPos\x00")
	if err != nil {
		return err
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))

	// Uniforms not read by the demo's shading are optimized away by the driver.
	timeUniform := optionalUniform(prog, glbuild.TimeUniform)
	resUniform := optionalUniform(prog, ResolutionUniform)
	samplerUniform := optionalUniform(prog, SamplerUniform)
	if samplerUniform >= 0 {
		tex := cfg.Texture
		if tex == nil {
			tex = CheckerImage(64, 8)
		}
		texID := uploadTexture(tex)
		defer gl.DeleteTextures(1, &texID)
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, texID)
		gl.Uniform1i(samplerUniform, 0)
	}
	vp := demo.Config.ViewportSize()
	if resUniform >= 0 {
		gl.Uniform2f(resUniform, float32(vp[0]), float32(vp[1]))
	}

	ctx := cfg.Context
	start := glfw.GetTime()
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		gl.ClearColor(0.0, 0.0, 0.0, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		prog.Bind()
		if timeUniform >= 0 {
			gl.Uniform1f(timeUniform, float32(glfw.GetTime()-start))
		}
		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		window.SwapBuffers()
		glfw.PollEvents()
		time.Sleep(time.Second / 60)
	}
	return nil
}

func optionalUniform(prog glgl.Program, name string) int32 {
	loc, err := prog.UniformLocation(name + "\x00")
	if err != nil {
		return -1
	}
	return loc
}

// uploadTexture creates a 2D texture from img. Power of two sized textures are
// mipmapped and repeat, other sizes clamp to edge without mipmaps.
func uploadTexture(img image.Image) uint32 {
	bb := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bb.Min, draw.Src)
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	w, h := int32(bb.Dx()), int32(bb.Dy())
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	if glrender.IsPowerOfTwo(bb.Dx()) && glrender.IsPowerOfTwo(bb.Dy()) {
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	return tex
}

func startGLFW(width, height int, title string) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}

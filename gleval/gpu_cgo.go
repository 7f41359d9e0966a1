//go:build !tinygo && cgo

package gleval

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/ryry0/Interstella/glbuild"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
// It returns a termination function that should be called when user is done running loads on GPU.
func Init1x1GLFW() (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "compute",
		Version: [2]int{4, 6},
		Width:   1,
		Height:  1,
	})
	return terminate, err
}

// NewComputeGPUSDF3 instantiates an [Evaluator3] that runs on the GPU. The source
// is a combined glgl program with a compute shader as written by
// [glbuild.Programmer.WriteComputeSDF3]. invocX must match the local size the program was written with.
func NewComputeGPUSDF3(glglSourceCode io.Reader, invocX int) (*SDF3Compute, error) {
	if invocX < 1 {
		return nil, errors.New("zero or negative invocation size")
	}
	combinedSource, err := glgl.ParseCombined(glglSourceCode)
	if err != nil {
		return nil, err
	}
	glprog, err := glgl.CompileProgram(combinedSource)
	if err != nil {
		return nil, errors.New(string(combinedSource.Compute) + "\n" + err.Error())
	}
	timeLoc, err := glprog.UniformLocation(glbuild.TimeUniform + "\x00")
	if err != nil {
		// Programs without animated shaders optimize the uniform away.
		timeLoc = -1
	}
	sdf := SDF3Compute{
		prog:    glprog,
		invocX:  invocX,
		timeLoc: timeLoc,
	}
	return &sdf, nil
}

// SDF3Compute evaluates a compiled SDF compute program on the GPU.
// It must be used from the thread that owns the GL context.
type SDF3Compute struct {
	prog    glgl.Program
	invocX  int
	timeLoc int32
	posbuf  [][4]float32
}

// Evaluate implements [Evaluator3].
func (sdf *SDF3Compute) Evaluate(pos []ms3.Vec, dist []float32, t float32) error {
	if err := checkBuffers(pos, dist); err != nil {
		return err
	}
	sdf.prog.Bind()
	defer sdf.prog.Unbind()
	if sdf.timeLoc >= 0 {
		gl.Uniform1f(sdf.timeLoc, t)
	}
	// Pad positions to a whole number of work groups so no invocation reads or writes out of bounds.
	nWorkX := (len(pos) + sdf.invocX - 1) / sdf.invocX
	padded := nWorkX * sdf.invocX
	if cap(sdf.posbuf) < padded {
		sdf.posbuf = make([][4]float32, padded)
	}
	posbuf := sdf.posbuf[:padded]
	for i, p := range pos {
		posbuf[i] = [4]float32{p.X, p.Y, p.Z, 0}
	}
	clear(posbuf[len(pos):])
	return computeEvaluate(posbuf, dist, nWorkX)
}

func elemSize[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

func loadSSBO[T any](slice []T, base, usage uint32) (ssbo uint32) {
	var p runtime.Pinner
	p.Pin(&ssbo)
	gl.GenBuffers(1, &ssbo)
	p.Unpin()
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	size := len(slice) * elemSize[T]()
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, unsafe.Pointer(&slice[0]), usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func createSSBO(size int, base, usage uint32) (ssbo uint32) {
	gl.GenBuffers(1, &ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func copySSBO[T any](dst []T, ssbo uint32) error {
	singleSize := elemSize[T]()
	bufSize := singleSize * len(dst)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	ptr := gl.MapBufferRange(gl.SHADER_STORAGE_BUFFER, 0, bufSize, gl.MAP_READ_BIT)
	if ptr == nil {
		return glErrOrMessage("failed to map SSBO buffer during copy")
	}
	defer gl.UnmapBuffer(gl.SHADER_STORAGE_BUFFER)
	gpuBytes := unsafe.Slice((*byte)(ptr), bufSize)
	bufBytes := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), bufSize)
	copy(bufBytes, gpuBytes)
	return nil
}

// computeEvaluate dispatches nWorkX work groups over the padded position buffer
// and copies the first len(dist) results back.
func computeEvaluate(pos [][4]float32, dist []float32, nWorkX int) (err error) {
	var p runtime.Pinner
	var posSSBO, distSSBO uint32
	p.Pin(&posSSBO)
	p.Pin(&distSSBO)
	defer p.Unpin()

	posSSBO = loadSSBO(pos, 0, gl.STATIC_DRAW)
	if posSSBO == 0 {
		return glErrOrMessage("zero SSBO id set by GL during compute loading")
	}
	defer gl.DeleteBuffers(1, &posSSBO)

	distSSBO = createSSBO(elemSize[float32]()*len(pos), 1, gl.DYNAMIC_READ)
	if distSSBO == 0 {
		return glErrOrMessage("zero id SSBO creating distance buffer")
	}
	defer gl.DeleteBuffers(1, &distSSBO)
	gl.DispatchCompute(uint32(nWorkX), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	err = copySSBO(dist, distSSBO)
	if err != nil {
		return err
	}
	return glgl.Err()
}

func glErrOrMessage(defaultMsg string) (err error) {
	err = glgl.Err()
	if err == nil {
		err = errors.New(defaultMsg)
	} else {
		err = fmt.Errorf("%s: %w", defaultMsg, err)
	}
	return err
}

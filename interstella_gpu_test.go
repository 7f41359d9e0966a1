//go:build !tinygo && cgo

package interstella_test

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"testing"

	"github.com/chewxy/math32"
	interstella "github.com/ryry0/Interstella"
	"github.com/ryry0/Interstella/glbuild"
	"github.com/ryry0/Interstella/gleval"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// gpuErr is set by TestMain when CPU and GPU evaluation of a scene disagree.
var gpuErr error

// Since GPU must be run in main thread we need to do some dark arts for GPU code to be code-covered.
func TestMain(m *testing.M) {
	runtime.LockOSThread()
	term, err := gleval.Init1x1GLFW()
	if err != nil {
		log.Println("skipping GPU tests:", err)
	} else {
		gpuErr = testScenesGPU()
		term()
	}
	runtime.UnlockOSThread()
	os.Exit(m.Run())
}

func TestSceneCPUvsGPU(t *testing.T) {
	if gpuErr != nil {
		t.Fatal(gpuErr)
	}
}

func testScenesGPU() error {
	invoc := glgl.MaxComputeInvocations()
	prog := glbuild.NewDefaultProgrammer()
	prog.SetComputeInvocations(invoc, 1, 1)
	pos := gridPositions(ms3.Vec{X: -2, Y: -2, Z: -2}, ms3.Vec{X: 2, Y: 2, Z: 2}, 17)
	distCPU := make([]float32, len(pos))
	distGPU := make([]float32, len(pos))
	var progbuf bytes.Buffer
	for _, demo := range []interstella.Demo{interstella.DemoStatic(), interstella.DemoAnimated()} {
		progbuf.Reset()
		n, err := prog.WriteComputeSDF3(&progbuf, demo.Scene)
		if err != nil {
			return err
		} else if n != progbuf.Len() {
			return fmt.Errorf("written bytes not match length of buffer %d != %d", n, progbuf.Len())
		}
		sdfgpu, err := gleval.NewComputeGPUSDF3(&progbuf, invoc)
		if err != nil {
			return fmt.Errorf("%s: %w", demo.Name, err)
		}
		sdfcpu := gleval.CPUEvaluator{SDF: demo.Scene}
		for _, tm := range []float32{0, 0.3, 1.7} {
			err = sdfcpu.Evaluate(pos, distCPU, tm)
			if err != nil {
				return err
			}
			err = sdfgpu.Evaluate(pos, distGPU, tm)
			if err != nil {
				return err
			}
			err = cmpDist(pos, distCPU, distGPU)
			if err != nil {
				return fmt.Errorf("%s t=%g: %w", demo.Name, tm, err)
			}
		}
	}
	return nil
}

func gridPositions(lo, hi ms3.Vec, n int) []ms3.Vec {
	pos := make([]ms3.Vec, 0, n*n*n)
	step := ms3.Scale(1/float32(n-1), ms3.Sub(hi, lo))
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				pos = append(pos, ms3.Add(lo, ms3.MulElem(step, ms3.Vec{X: float32(i), Y: float32(j), Z: float32(k)})))
			}
		}
	}
	return pos
}

func cmpDist(pos []ms3.Vec, dcpu, dgpu []float32) error {
	const tol = 5e-3
	var errs []error
	for i, dc := range dcpu {
		dg := dgpu[i]
		diff := math32.Abs(dg - dc)
		if diff > tol {
			errs = append(errs, fmt.Errorf("mismatch: pos=%+v cpu=%f, gpu=%f (diff=%f) idx=%d", pos[i], dc, dg, diff, i))
			if len(errs) > 8 {
				errs = append(errs, errors.New("too many mismatched"))
				break
			}
		}
	}
	return errors.Join(errs...)
}

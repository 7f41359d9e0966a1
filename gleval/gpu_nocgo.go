//go:build tinygo || !cgo

package gleval

import (
	"errors"
	"io"

	"github.com/soypat/geometry/ms3"
)

var errNoCGO = errors.New("GPU evaluation requires CGo and is not supported on TinyGo")

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// NewComputeGPUSDF3 instantiates an [Evaluator3] that runs on the GPU.
func NewComputeGPUSDF3(glglSourceCode io.Reader, invocX int) (*SDF3Compute, error) {
	return nil, errNoCGO
}

// SDF3Compute evaluates a compiled SDF compute program on the GPU.
type SDF3Compute struct{}

// Evaluate implements [Evaluator3].
func (sdf *SDF3Compute) Evaluate(pos []ms3.Vec, dist []float32, t float32) error {
	return errNoCGO
}

// Package interstella builds ray marchable scenes out of signed distance
// primitives. Every node evaluates on the CPU through [gleval.SDF3] and writes
// itself as GLSL through [glbuild.Shader3D], so the same scene renders with
// the glrender package or in a fragment shader.
package interstella

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/ryry0/Interstella/glbuild"
	"github.com/ryry0/Interstella/gleval"
	"github.com/soypat/geometry/ms3"
)

const (
	tau = 2 * math32.Pi
	// epstol is used to check for badly conditioned denominators
	// such as lengths used for normalization.
	epstol = 6e-7
)

// Shape is a scene node. It can be evaluated on the CPU and written as GLSL.
type Shape interface {
	glbuild.Shader3D
	gleval.SDF3
}

// Flags modify how a [Builder] behaves.
type Flags uint64

const (
	// FlagNoDimensionPanic makes the Builder accumulate invalid dimension errors
	// instead of panicking. Errors are retrieved with [Builder.Err].
	FlagNoDimensionPanic Flags = 1 << iota
)

// Builder wraps all SDF primitive and operation logic generation.
// Provides error handling strategies with panics or error accumulation during shape generation.
type Builder struct {
	flags     Flags
	accumErrs []error
}

// SetFlags sets the Builder's flags.
func (bld *Builder) SetFlags(flags Flags) { bld.flags = flags }

// Flags returns the Builder's flags.
func (bld *Builder) Flags() Flags { return bld.flags }

// Err returns accumulated errors joined, or nil if there are none.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

// ClearErrors discards accumulated errors.
func (bld *Builder) ClearErrors() {
	bld.accumErrs = bld.accumErrs[:0]
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	if bld.flags&FlagNoDimensionPanic == 0 {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

func (*Builder) nilsdf(msg string) {
	panic("nil SDF argument: " + msg)
}

// distance evaluates a child node. Children are stored as [glbuild.Shader3D] so
// that [glbuild.ShortenNames3D] may rewrite them. Rewritten nodes still evaluate on the CPU.
func distance(s glbuild.Shader3D, p ms3.Vec, t float32) float32 {
	return s.(gleval.SDF3).Distance(p, t)
}

func minf(a, b float32) float32 {
	return math32.Min(a, b)
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
}

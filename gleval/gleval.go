package gleval

import (
	"errors"
	"runtime"

	"github.com/soypat/geometry/ms3"
	"golang.org/x/sync/errgroup"
)

// SDF3 implements a 3D signed distance field that may vary over time.
type SDF3 interface {
	// Distance returns the signed distance from p to the field's surface at time t in seconds.
	// Implementations must be safe for concurrent use and must not mutate state.
	Distance(p ms3.Vec, t float32) float32
}

// Evaluator3 evaluates a field over many positions at once, in vectorized
// form suitable for running on GPU.
type Evaluator3 interface {
	// Evaluate evaluates the field over pos positions at time t.
	// dist and pos must be of same length. Resulting distances are stored in dist.
	Evaluate(pos []ms3.Vec, dist []float32, t float32) error
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and distance buffer length mismatch")
)

// minChunk is the smallest number of positions a CPU worker is handed.
const minChunk = 256

// CPUEvaluator implements [Evaluator3] by calling an [SDF3] from several goroutines.
type CPUEvaluator struct {
	SDF SDF3
	// Workers limits the number of goroutines used. Zero uses runtime.NumCPU.
	Workers int
}

// Evaluate implements [Evaluator3].
func (ce *CPUEvaluator) Evaluate(pos []ms3.Vec, dist []float32, t float32) error {
	if err := checkBuffers(pos, dist); err != nil {
		return err
	} else if ce.SDF == nil {
		return errors.New("nil SDF3")
	}
	workers := ce.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	chunk := max(minChunk, (len(pos)+workers-1)/workers)
	if chunk >= len(pos) {
		evaluateChunk(ce.SDF, pos, dist, t)
		return nil
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(pos); start += chunk {
		start := start
		end := min(start+chunk, len(pos))
		g.Go(func() error {
			evaluateChunk(ce.SDF, pos[start:end], dist[start:end], t)
			return nil
		})
	}
	return g.Wait()
}

func evaluateChunk(sdf SDF3, pos []ms3.Vec, dist []float32, t float32) {
	for i, p := range pos {
		dist[i] = sdf.Distance(p, t)
	}
}

func checkBuffers(pos []ms3.Vec, dist []float32) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	return nil
}

// NormalsCentralDiff uses central differences algorithm for normal calculation, which are stored in normals for each position.
// The returned normals are not normalized (converted to unit length).
func NormalsCentralDiff(e Evaluator3, pos []ms3.Vec, normals []ms3.Vec, step, t float32) error {
	step *= 0.5
	if step <= 0 {
		return errors.New("invalid step")
	} else if len(pos) != len(normals) {
		return errors.New("length of position must match length of normals")
	} else if e == nil {
		return errors.New("nil Evaluator3")
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	d1 := make([]float32, len(pos))
	d2 := make([]float32, len(pos))
	auxPos := make([]ms3.Vec, len(pos))
	var vecs = [3]ms3.Vec{{X: step}, {Y: step}, {Z: step}}
	for dim := 0; dim < 3; dim++ {
		h := vecs[dim]
		for i, p := range pos {
			auxPos[i] = ms3.Add(p, h)
		}
		err := e.Evaluate(auxPos, d1, t)
		if err != nil {
			return err
		}
		for i, p := range pos {
			auxPos[i] = ms3.Sub(p, h)
		}
		err = e.Evaluate(auxPos, d2, t)
		if err != nil {
			return err
		}

		switch dim {
		case 0:
			for i, d := range d1 {
				normals[i].X = d - d2[i]
			}
		case 1:
			for i, d := range d1 {
				normals[i].Y = d - d2[i]
			}
		case 2:
			for i, d := range d1 {
				normals[i].Z = d - d2[i]
			}
		}
	}
	return nil
}

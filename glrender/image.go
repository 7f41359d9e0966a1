package glrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/ryry0/Interstella/gleval"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// Slice is an axis aligned planar cut through a 3D field.
type Slice struct {
	// Axis is the plane's normal axis: 0 for X, 1 for Y, 2 for Z.
	Axis int
	// Offset is the plane's position along Axis.
	Offset float32
	// Min and Max bound the slice in the plane's in-plane coordinates, which
	// are (Y,Z) for Axis 0, (Z,X) for Axis 1 and (X,Y) for Axis 2.
	Min, Max ms2.Vec
}

// Point maps an in-plane coordinate to the 3D point it represents.
func (s Slice) Point(q ms2.Vec) ms3.Vec {
	switch s.Axis {
	case 0:
		return ms3.Vec{X: s.Offset, Y: q.X, Z: q.Y}
	case 1:
		return ms3.Vec{X: q.Y, Y: s.Offset, Z: q.X}
	default:
		return ms3.Vec{X: q.X, Y: q.Y, Z: s.Offset}
	}
}

func (s Slice) validate() error {
	if s.Axis < 0 || s.Axis > 2 {
		return fmt.Errorf("slice axis %d out of range [0,2]", s.Axis)
	}
	if s.Max.X <= s.Min.X || s.Max.Y <= s.Min.Y {
		return errors.New("empty slice bounds")
	}
	return nil
}

// SliceRenderer converts slices of 3D fields to images by evaluating them in
// batches with a [gleval.Evaluator3], which may run on the CPU or the GPU.
type SliceRenderer struct {
	conv func(f float32) color.Color
	pos  []ms3.Vec
	dist []float32
}

// NewSliceRenderer instances a new [SliceRenderer]. A nil float->color conversion
// function results in a simple black-white color scheme where black is the interior of the SDF (negative distance).
func NewSliceRenderer(evalBufferSize int, conversion func(float32) color.Color) (*SliceRenderer, error) {
	if evalBufferSize <= 64 {
		return nil, errors.New("too small evaluation buffer size")
	}
	if conversion == nil {
		conversion = func(f float32) color.Color {
			switch {
			case math32.IsNaN(f) || math32.IsInf(f, 0):
				return color.RGBA{R: 255, A: 255}
			case f > 0:
				return color.White
			default:
				return color.Black
			}
		}
	}
	sr := &SliceRenderer{
		conv: conversion,
		pos:  make([]ms3.Vec, evalBufferSize),
		dist: make([]float32, evalBufferSize),
	}
	return sr, nil
}

// Render evaluates the field over slice at time t and writes it to img.
// Image row 0 is the slice's maximum second in-plane coordinate.
func (sr *SliceRenderer) Render(eval gleval.Evaluator3, slice Slice, t float32, img setImage) error {
	if err := slice.validate(); err != nil {
		return err
	}
	imgBB := img.Bounds()
	dxi := imgBB.Dx()
	dyi := imgBB.Dy()
	if len(sr.dist) < dxi {
		return fmt.Errorf("require evaluation buffer (%d) to be at least of length of image columns (%d)", len(sr.dist), dxi)
	}
	sz := ms2.Sub(slice.Max, slice.Min)
	dx := sz.X / float32(dxi)
	dy := sz.Y / float32(dyi)
	for j := 0; j < dyi; j++ {
		y := slice.Max.Y - (float32(j)+0.5)*dy
		err := sr.renderRow(eval, slice, j, y, dx, t, imgBB, img)
		if err != nil {
			return err
		}
	}
	return nil
}

func (sr *SliceRenderer) renderRow(eval gleval.Evaluator3, slice Slice, row int, y, dx, t float32, imgBB image.Rectangle, img setImage) error {
	dxi := imgBB.Dx()
	for i := 0; i < dxi; i++ {
		x := slice.Min.X + (float32(i)+0.5)*dx
		sr.pos[i] = slice.Point(ms2.Vec{X: x, Y: y})
	}
	err := eval.Evaluate(sr.pos[:dxi], sr.dist[:dxi], t)
	if err != nil {
		return err
	}
	conv := sr.conv
	for i := 0; i < dxi; i++ {
		img.Set(i+imgBB.Min.X, row+imgBB.Min.Y, conv(sr.dist[i]))
	}
	return nil
}

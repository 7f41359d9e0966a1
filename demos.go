package interstella

import (
	"fmt"

	"github.com/ryry0/Interstella/glrender"
	"github.com/soypat/geometry/ms3"
)

// Demo is a ready to render scene with its camera, lights and shading.
// Config.Scene is set to Scene.
type Demo struct {
	Name   string
	Scene  Shape
	Config glrender.Config
}

// Demo names accepted by [NewDemo].
const (
	DemoNameStatic   = "static"
	DemoNameAnimated = "animated"
	DemoNameTextured = "textured"
)

// DemoNames lists the available demos in presentation order.
func DemoNames() []string {
	return []string{DemoNameStatic, DemoNameAnimated, DemoNameTextured}
}

// NewDemo returns the demo with the given name. tex is the texture used by
// triplanar demos and is ignored by the others.
func NewDemo(name string, tex glrender.Sampler) (Demo, error) {
	switch name {
	case DemoNameStatic:
		return DemoStatic(), nil
	case DemoNameAnimated:
		return DemoAnimated(), nil
	case DemoNameTextured:
		if tex == nil {
			return Demo{}, fmt.Errorf("demo %q requires a texture", name)
		}
		return DemoTextured(tex), nil
	}
	return Demo{}, fmt.Errorf("unknown demo %q, want one of %q", name, DemoNames())
}

var demoLights = []glrender.Light{
	{Position: ms3.Vec{Z: -2}, Color: ms3.Vec{X: 0.5, Y: 1, Z: 1}},
	{Position: ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, Color: ms3.Vec{X: 1, Y: 0.5, Z: 0.5}},
}

// demoFloor is the plane y = -0.9 shared by all demos.
func demoFloor(bld *Builder) Shape {
	return bld.Translate(bld.NewPlane(ms3.Vec{Y: 1}, 1), 0, 0.1, 0)
}

func demoBox(bld *Builder) Shape {
	return bld.NewRoundBox(ms3.Vec{X: 0.25, Y: 0.25, Z: 0.25}, 0.05)
}

// DemoStatic is a sphere, a rounded box and a floor lit by two lights and
// viewed from above and to the side.
func DemoStatic() Demo {
	var bld Builder
	scene := bld.Union(
		bld.Translate(bld.NewSphere(0.5), 0.5, -0.2, 0),
		bld.Translate(demoBox(&bld), -0.5, -0.3, 0),
		demoFloor(&bld),
	)
	return newDemo(DemoNameStatic, scene, glrender.Config{
		Camera: glrender.CameraRig{Eye: ms3.Vec{X: 1.5, Y: 1, Z: -2}},
		Lights: append([]glrender.Light(nil), demoLights...),
		Mode:   glrender.ShadeFlatLambert,
	})
}

// DemoAnimated swings the rounded box along X once per second while the camera
// sways slowly and the first light bobs up and down.
func DemoAnimated() Demo {
	var bld Builder
	box := bld.Oscillate(demoBox(&bld), ms3.Vec{X: 1}, -1, 1, 0)
	scene := bld.Union(
		bld.Translate(bld.NewSphere(0.5), 0.5, -0.2, 0),
		bld.Translate(box, 0, -0.3, 0),
		demoFloor(&bld),
	)
	lights := append([]glrender.Light(nil), demoLights...)
	lights[0].SwingY = 1
	return newDemo(DemoNameAnimated, scene, glrender.Config{
		Camera: glrender.CameraRig{Eye: ms3.Vec{Z: -2}, SwayX: 1, SwayFreq: 0.1},
		Lights: lights,
		Mode:   glrender.ShadeFlatLambert,
	})
}

// DemoTextured is a sphere resting above a floor, both painted with a triplanar
// projection of tex.
func DemoTextured(tex glrender.Sampler) Demo {
	var bld Builder
	scene := bld.Union(bld.NewSphere(0.5), demoFloor(&bld))
	return newDemo(DemoNameTextured, scene, glrender.Config{
		Camera:  glrender.CameraRig{Eye: ms3.Vec{Z: -2}},
		Mode:    glrender.ShadeTriplanar,
		Texture: tex,
	})
}

func newDemo(name string, scene Shape, cfg glrender.Config) Demo {
	cfg.Scene = scene
	cfg.Sky = glrender.SkyColor
	cfg.Ambient = glrender.AmbientColor
	return Demo{Name: name, Scene: scene, Config: cfg}
}

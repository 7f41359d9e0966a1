// Package glsllib holds the GLSL ray marching and shading functions used by
// generated fragment shaders. The functions read the scene through a
// `float stellaScene(vec3 p)` function that the program must declare, and read
// their tuning constants from the declarations written by [AppendConstants].
package glsllib

import (
	_ "embed"

	"github.com/ryry0/Interstella/glbuild"
	"github.com/ryry0/Interstella/glrender"
)

// SceneFunc is the name of the scene distance function library functions call.
const SceneFunc = "stellaScene"

// AppendConstants appends the const declarations the library functions depend on.
// Values are taken from the glrender package so CPU and GPU renders agree.
func AppendConstants(b []byte) []byte {
	const c = "const "
	b = glbuild.AppendIntDecl(append(b, c...), "stellaMaxMarchSteps", glrender.MaxMarchSteps)
	b = glbuild.AppendIntDecl(append(b, c...), "stellaMaxShadowSteps", glrender.MaxShadowSteps)
	b = glbuild.AppendFloatDecl(append(b, c...), "stellaHitEpsilon", glrender.HitEpsilon)
	b = glbuild.AppendFloatDecl(append(b, c...), "stellaFarLimit", glrender.FarLimit)
	b = glbuild.AppendFloatDecl(append(b, c...), "stellaShadowStart", glrender.ShadowStart)
	b = glbuild.AppendFloatDecl(append(b, c...), "stellaShadowSharpness", glrender.ShadowSharpness)
	b = glbuild.AppendFloatDecl(append(b, c...), "stellaNormalDelta", glrender.NormalDelta)
	b = glbuild.AppendFloatDecl(append(b, c...), "stellaFogDensity", glrender.FogDensity)
	b = glbuild.AppendFloatDecl(append(b, c...), "stellaTriplanarSharpness", glrender.TriplanarSharpness)
	return b
}

// Library returns every library function in dependency order, ready for
// [glbuild.Programmer.WriteFunctions].
func Library() []glbuild.ShaderObject {
	return []glbuild.ShaderObject{
		Normalize(),
		RayMarch(),
		Normal(),
		CastShadow(),
		LambertLight(),
		ApplyFog(),
		Periodize(),
		Triplanar(),
	}
}

func mustShaderFunction(src []byte) glbuild.ShaderObject {
	obj, err := glbuild.MakeShaderFunction(src)
	if err != nil {
		panic(err)
	}
	return obj
}

//go:embed normalize.glsl
var normalizeSrc []byte

// Normalize normalizes v, returning the zero vector unchanged:
//
//	vec3 stellaNormalize(vec3 v)
func Normalize() glbuild.ShaderObject { return mustShaderFunction(normalizeSrc) }

//go:embed march.glsl
var marchSrc []byte

// RayMarch sphere traces the scene from ro along unit direction rd:
//
//	bool stellaRayMarch(vec3 ro, vec3 rd, out int steps, out float traveled)
func RayMarch() glbuild.ShaderObject { return mustShaderFunction(marchSrc) }

//go:embed normal.glsl
var normalSrc []byte

// Normal estimates the scene normal with central differences:
//
//	vec3 stellaNormal(vec3 p)
func Normal() glbuild.ShaderObject { return mustShaderFunction(normalSrc) }

//go:embed shadow.glsl
var shadowSrc []byte

// CastShadow returns the soft shadow factor of p towards a light:
//
//	float stellaCastShadow(vec3 p, vec3 lightPos, float k)
func CastShadow() glbuild.ShaderObject { return mustShaderFunction(shadowSrc) }

//go:embed lambert.glsl
var lambertSrc []byte

// LambertLight is diffuse lighting with soft shadows:
//
//	vec3 stellaLambertLight(vec3 p, vec3 lightPos, vec3 lightColor, vec3 ambient)
func LambertLight() glbuild.ShaderObject { return mustShaderFunction(lambertSrc) }

//go:embed fog.glsl
var fogSrc []byte

// ApplyFog blends a color towards the fog color with distance:
//
//	vec3 stellaApplyFog(vec3 color, vec3 fog, float dist)
func ApplyFog() glbuild.ShaderObject { return mustShaderFunction(fogSrc) }

//go:embed periodize.glsl
var periodizeSrc []byte

// Periodize maps positions to [0,1) with period 2:
//
//	vec3 stellaPeriodize(vec3 p)
func Periodize() glbuild.ShaderObject { return mustShaderFunction(periodizeSrc) }

//go:embed triplanar.glsl
var triplanarSrc []byte

// Triplanar blends three axis projections of a texture by the normal:
//
//	vec4 stellaTriplanar(sampler2D s, vec3 p, vec3 n, float k)
func Triplanar() glbuild.ShaderObject { return mustShaderFunction(triplanarSrc) }

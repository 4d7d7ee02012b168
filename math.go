package crucible

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Epsilon is the tolerance for near-zero float comparisons.
	Epsilon = 1e-6
	// LargeEpsilon is a coarser tolerance for clamps that guard divisions.
	LargeEpsilon = 5e-5
)

// Color is an RGBA color with float32 channels, nominally in [0, 1].
type Color struct {
	R, G, B, A float32
}

func NewColor(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

func ColorFromVec3(v mgl32.Vec3) Color {
	return Color{R: v.X(), G: v.Y(), B: v.Z(), A: 1}
}

func (c Color) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// Scaled multiplies every channel, alpha included.
func (c Color) Scaled(s float32) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A * s}
}

// GammaToLinear converts the color from sRGB gamma space to linear space.
// Alpha is left untouched.
func (c Color) GammaToLinear() Color {
	return Color{
		R: channelGammaToLinear(c.R),
		G: channelGammaToLinear(c.G),
		B: channelGammaToLinear(c.B),
		A: c.A,
	}
}

// LinearToGamma converts the color from linear space to sRGB gamma space.
// Alpha is left untouched.
func (c Color) LinearToGamma() Color {
	return Color{
		R: channelLinearToGamma(c.R),
		G: channelLinearToGamma(c.G),
		B: channelLinearToGamma(c.B),
		A: c.A,
	}
}

func channelGammaToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	if v < 1.0 {
		return math32.Pow((v+0.055)/1.055, 2.4)
	}
	return math32.Pow(v, 2.2)
}

func channelLinearToGamma(v float32) float32 {
	if v <= 0.0 {
		return 0.0
	}
	if v <= 0.0031308 {
		return 12.92 * v
	}
	if v < 1.0 {
		return 1.055*math32.Pow(v, 1.0/2.4) - 0.055
	}
	return math32.Pow(v, 1.0/2.2)
}

// SphericalHarmonicsDot9 holds 3-band spherical harmonics color coefficients
// packed for fast per-vertex evaluation via dot products. The layout matches
// the seven shader constants consumed by the ambient vertex shaders.
type SphericalHarmonicsDot9 struct {
	Ar, Ag, Ab mgl32.Vec4
	Br, Bg, Bb mgl32.Vec4
	C          mgl32.Vec4
}

// SphericalHarmonicsFromColor builds the harmonics of a uniform environment:
// evaluation in any direction yields the given color.
func SphericalHarmonicsFromColor(color Color) SphericalHarmonicsDot9 {
	var sh SphericalHarmonicsDot9
	sh.Ar[3] = color.R
	sh.Ag[3] = color.G
	sh.Ab[3] = color.B
	return sh
}

// Evaluate returns the harmonics value in the given direction, which is
// expected to be normalized.
func (sh *SphericalHarmonicsDot9) Evaluate(dir mgl32.Vec3) mgl32.Vec3 {
	n := mgl32.Vec4{dir.X(), dir.Y(), dir.Z(), 1}
	b := mgl32.Vec4{n.X() * n.Y(), n.Y() * n.Z(), n.Z() * n.Z(), n.Z() * n.X()}
	c := n.X()*n.X() - n.Y()*n.Y()

	return mgl32.Vec3{
		sh.Ar.Dot(n) + sh.Br.Dot(b) + sh.C.X()*c,
		sh.Ag.Dot(n) + sh.Bg.Dot(b) + sh.C.Y()*c,
		sh.Ab.Dot(n) + sh.Bb.Dot(b) + sh.C.Z()*c,
	}
}

// EvaluateAverage returns the average value over the sphere. The constant
// term is split between the A coefficients and C by the packing, so both
// contribute.
func (sh *SphericalHarmonicsDot9) EvaluateAverage() mgl32.Vec3 {
	return mgl32.Vec3{
		sh.Ar.W() + sh.C.X(),
		sh.Ag.W() + sh.C.Y(),
		sh.Ab.W() + sh.C.Z(),
	}
}

// transformRows returns the first three rows of an affine transform in
// row-major order: the layout the object constants and the instance buffer
// use for world matrices.
func transformRows(m mgl32.Mat4) [12]float32 {
	return [12]float32{
		m.At(0, 0), m.At(0, 1), m.At(0, 2), m.At(0, 3),
		m.At(1, 0), m.At(1, 1), m.At(1, 2), m.At(1, 3),
		m.At(2, 0), m.At(2, 1), m.At(2, 2), m.At(2, 3),
	}
}

// rotationMatrix extracts the rotation part of a transform with scale
// normalized out.
func rotationMatrix(m mgl32.Mat4) mgl32.Mat3 {
	r := m.Mat3()
	for col := 0; col < 3; col++ {
		v := mgl32.Vec3{r.At(0, col), r.At(1, col), r.At(2, col)}
		length := v.Len()
		if length > Epsilon {
			inv := 1 / length
			r.Set(0, col, r.At(0, col)*inv)
			r.Set(1, col, r.At(1, col)*inv)
			r.Set(2, col, r.At(2, col)*inv)
		}
	}
	return r
}
